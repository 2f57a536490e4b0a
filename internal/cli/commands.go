package cli

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/lguimbarda/termflow/flow"
	"github.com/lguimbarda/termflow/flow/combine"
	"github.com/lguimbarda/termflow/flow/edit"
	"github.com/lguimbarda/termflow/flow/filter"
)

// run drives src under the command context and prints its report.
func run(cmd *cobra.Command, opts *RootOptions, src flow.Source[string]) error {
	report, err := flow.Run(cmd.Context(), src)
	if err != nil {
		return WrapExitError(ExitFailure, "run", err)
	}
	return writeReport(cmd.OutOrStdout(), opts.Format, report)
}

// binary builds a command applying a stage built from its second argument
// to its first.
func binary(opts *RootOptions, use, short string, build func(param flow.Source[string]) (flow.Stage[string, string], error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <input> <param>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := parseInput(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "parse input", err)
			}
			param, err := parseInput(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "parse param", err)
			}
			stage, err := build(param)
			if err != nil {
				return WrapExitError(ExitCommandError, "build "+use, err)
			}
			return run(cmd, opts, flow.Through(input, stage))
		},
	}
}

// NewSetCommands creates the union, xor, intersect and diff commands.
func NewSetCommands(opts *RootOptions) []*cobra.Command {
	return []*cobra.Command{
		binary(opts, "union", "Multiset union: input, then the param elements it lacks",
			func(p flow.Source[string]) (flow.Stage[string, string], error) { return combine.Union(p) }),
		binary(opts, "xor", "Elements present in exactly one of input and param",
			func(p flow.Source[string]) (flow.Stage[string, string], error) { return combine.Xor(p) }),
		binary(opts, "intersect", "Input elements also present in param",
			func(p flow.Source[string]) (flow.Stage[string, string], error) { return combine.Intersection(p) }),
		binary(opts, "diff", "Input elements absent from param",
			func(p flow.Source[string]) (flow.Stage[string, string], error) { return combine.Difference(p) }),
	}
}

// NewAppendCommand creates the append command.
func NewAppendCommand(opts *RootOptions) *cobra.Command {
	return binary(opts, "append", "Input followed by param", edit.Append[string])
}

// NewPrependCommand creates the prepend command.
func NewPrependCommand(opts *RootOptions) *cobra.Command {
	return binary(opts, "prepend", "Param followed by input", edit.Prepend[string])
}

// NewInsertCommand creates the insert command.
func NewInsertCommand(opts *RootOptions) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "insert <input> <payload>",
		Short: "Insert payload before each of the --at positions of input",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			indices, err := parseIndices(at)
			if err != nil {
				return WrapExitError(ExitCommandError, "parse --at", err)
			}
			input, err := parseInput(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "parse input", err)
			}
			payload, err := parseInput(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "parse payload", err)
			}
			stage, err := edit.InsertAt(indices, payload)
			if err != nil {
				return WrapExitError(ExitCommandError, "build insert", err)
			}
			return run(cmd, opts, flow.Through(input, stage))
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "comma-separated insertion indices")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

// NewMoveCommand creates the move command.
func NewMoveCommand(opts *RootOptions) *cobra.Command {
	var selected, target string
	cmd := &cobra.Command{
		Use:   "move <input>",
		Short: "Move the --select values of input to --target",
		Long: `Move the --select values of input to --target, keeping their order.

Targets are by:N (from the first selected element), to:N (absolute),
end:N (before the end), middle:N (from the middle) and rotate:N (by:N
with wraparound). Positions count the input with the selected values
removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTarget(target)
			if err != nil {
				return WrapExitError(ExitCommandError, "parse --target", err)
			}
			input, err := parseInput(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "parse input", err)
			}
			values := splitValues(selected)
			sel, err := filter.Select(func(v string) bool { return slices.Contains(values, v) })
			if err != nil {
				return WrapExitError(ExitCommandError, "build select", err)
			}
			move, err := edit.Move[string](t)
			if err != nil {
				return WrapExitError(ExitCommandError, "build move", err)
			}
			return run(cmd, opts, flow.Through(flow.Through(input, sel), move))
		},
	}
	cmd.Flags().StringVar(&selected, "select", "", "comma-separated values to move")
	cmd.Flags().StringVar(&target, "target", "", "where to move them (kind:offset)")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
