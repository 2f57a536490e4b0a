// Package cli implements the termflow command line: every operator
// family is a subcommand driven through flow.Run over comma-separated
// inputs.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/lguimbarda/termflow/flow/config"
	"github.com/lguimbarda/termflow/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	EnvFile    string
	Format     string // "json" | "text"
	LogLevel   string
	Limit      int64
	Verbose    bool

	settings config.Settings
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the termflow CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "termflow",
		Short: "termflow - term-stream pipelines",
		Long: `Run term-stream operators over literal inputs.

Inputs are comma-separated values written as one term. A '|' splits a
Cyclical input into its header and its repeating cycle: "1,2|3" is
1,2,3,3,3,... An empty argument is an empty input, and "@path" reads
one value per line from a file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "env file, ignored when missing")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level, overrides the config")
	cmd.PersistentFlags().Int64Var(&opts.Limit, "limit", 0, "stop after this many elements (0 = config value)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(NewSetCommands(opts)...)
	cmd.AddCommand(NewAppendCommand(opts))
	cmd.AddCommand(NewPrependCommand(opts))
	cmd.AddCommand(NewInsertCommand(opts))
	cmd.AddCommand(NewMoveCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))

	return cmd
}

// setup loads the settings, applies flag overrides and attaches the
// settings and the logger to the command context.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	loaderOpts := []config.LoaderOption{config.WithEnvFile(o.EnvFile)}
	if o.ConfigFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(o.ConfigFile))
	}
	settings, err := config.Load(loaderOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}

	if o.LogLevel != "" {
		settings.Log.Level = o.LogLevel
	}
	if o.Verbose {
		settings.Log.Level = "debug"
	}
	if o.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}
	if o.Limit > 0 {
		settings.Run.Limit = o.Limit
	}
	if err := settings.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}
	o.settings = settings

	logger := logging.NewWithWriter(settings.Log, cmd.ErrOrStderr())
	ctx := settings.Context(cmd.Context())
	cmd.SetContext(logger.WithContext(ctx))
	return nil
}
