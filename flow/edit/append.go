// Package edit provides positional edit stages: appending, prepending,
// inserting and moving elements within a stream.
package edit

import (
	"context"

	"github.com/lguimbarda/termflow/flow/core"
)

// Append creates a Stage whose output is its upstream followed by the
// output of param. The upstream is closed as soon as it is exhausted.
func Append[V any](param core.Source[V]) (core.Stage[V, V], error) {
	if param == nil {
		return nil, core.Contract("Append", "parameter_not_nil", nil, core.ErrNilParameter)
	}
	return core.NewStage("Append", func(ctx context.Context, upstream core.Stream[V]) core.Runner[V] {
		return &sequence[V]{first: upstream, second: core.Pull(core.Start(ctx, param))}
	}), nil
}

// Prepend creates a Stage whose output is the output of param followed by
// its upstream. Nothing is read from upstream until param is exhausted.
func Prepend[V any](param core.Source[V]) (core.Stage[V, V], error) {
	if param == nil {
		return nil, core.Contract("Prepend", "parameter_not_nil", nil, core.ErrNilParameter)
	}
	return core.NewStage("Prepend", func(ctx context.Context, upstream core.Stream[V]) core.Runner[V] {
		return &sequence[V]{first: core.Pull(core.Start(ctx, param)), second: upstream}
	}), nil
}

// StartWith creates a Stage that emits values before its upstream.
func StartWith[V any](values ...V) core.Stage[V, V] {
	return core.Named("StartWith", core.Must(Prepend(valuesOf(values))))
}

// EndWith creates a Stage that emits values after its upstream.
func EndWith[V any](values ...V) core.Stage[V, V] {
	return core.Named("EndWith", core.Must(Append(valuesOf(values))))
}

// sequence forwards one term per step from first until it is exhausted,
// then from second.
type sequence[V any] struct {
	first  core.Stream[V]
	second core.Stream[V]
	sealed bool
}

func (s *sequence[V]) Step(downstream core.Stream[V]) bool {
	if !s.sealed {
		if t, ok := s.first.Read(); ok {
			return downstream.Write(t) == core.Open
		}
		s.first.Close()
		s.sealed = true
	}
	t, ok := s.second.Read()
	if !ok {
		return false
	}
	return downstream.Write(t) == core.Open
}

func (s *sequence[V]) Close() {
	s.first.Close()
	s.second.Close()
}

// valuesOf returns a Source emitting values as a single finite term.
func valuesOf[V any](values []V) core.Source[V] {
	term := core.TermOf(values...)
	return core.NewSource("Values", func(context.Context) core.Runner[V] {
		return core.RunnerFunc[V](func(downstream core.Stream[V]) bool {
			downstream.Write(term)
			return false
		})
	})
}
