package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lguimbarda/termflow/flow"
	"github.com/lguimbarda/termflow/flow/edit"
	flowio "github.com/lguimbarda/termflow/flow/io"
)

// parseInput turns an argument into a Source. "@path" reads the lines of
// a file; "h1,h2|c1,c2" is a Cyclical term; anything else is a literal
// comma-separated Many term.
func parseInput(arg string) (flow.Source[string], error) {
	if arg == "" {
		return flow.Empty[string](), nil
	}
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		return flowio.ReadLines(path), nil
	}
	header, cycle, cyclical := strings.Cut(arg, "|")
	if !cyclical {
		return flow.Of(splitValues(arg)...), nil
	}
	src, err := flow.Cycle(splitValues(header), splitValues(cycle))
	if err != nil {
		return nil, fmt.Errorf("input %q: %w", arg, err)
	}
	return src, nil
}

func splitValues(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func parseIndices(s string) ([]int, error) {
	parts := splitValues(s)
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("index %q: %w", p, err)
		}
		out[i] = n
	}
	return out, nil
}

// parseTarget parses "kind:offset" where kind is by, to, end, middle or
// rotate.
func parseTarget(s string) (edit.Target, error) {
	kind, offset, ok := strings.Cut(s, ":")
	if !ok {
		return edit.Target{}, fmt.Errorf("target %q: want kind:offset", s)
	}
	n, err := strconv.ParseInt(offset, 10, 64)
	if err != nil {
		return edit.Target{}, fmt.Errorf("target %q: %w", s, err)
	}
	switch kind {
	case "by":
		return edit.By(n), nil
	case "to":
		return edit.To(n), nil
	case "end":
		return edit.ToOffsetFromEnd(n), nil
	case "middle":
		return edit.ToOffsetFromMiddle(n), nil
	case "rotate":
		return edit.Rotate(n), nil
	default:
		return edit.Target{}, fmt.Errorf("target %q: unknown kind %q", s, kind)
	}
}
