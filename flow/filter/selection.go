package filter

import (
	"context"

	"github.com/lguimbarda/termflow/flow/core"
)

// Selection marks an element as chosen or not by a Select stage.
// Stages downstream of Select, such as edit.Move, act on chosen elements
// and pass Discarded ones through in place.
type Selection[T any] struct {
	Value     T
	Discarded bool
}

// Selected wraps a chosen value.
func Selected[T any](v T) Selection[T] { return Selection[T]{Value: v} }

// Discarded wraps a value that was not chosen.
func Discarded[T any](v T) Selection[T] { return Selection[T]{Value: v, Discarded: true} }

// Select creates a Stage that marks every element: elements matching the
// predicate are selected, all others arrive downstream as Discarded.
// Term shapes are preserved, including Cyclical header and cycle.
func Select[T any](predicate func(T) bool) (core.Stage[T, Selection[T]], error) {
	if predicate == nil {
		return nil, core.Contract("Select", "predicate_not_nil", nil, core.ErrNilParameter)
	}
	return core.Named("Select", core.Map(func(v T) (Selection[T], error) {
		return Selection[T]{Value: v, Discarded: !predicate(v)}, nil
	})), nil
}

// SelectIndex creates a Stage that selects elements by their position in
// the stream. Positions in a Cyclical term count through the header and
// the first pass of its cycle; positions in later passes are not selected.
func SelectIndex[T any](predicate func(index int64) bool) (core.Stage[T, Selection[T]], error) {
	if predicate == nil {
		return nil, core.Contract("SelectIndex", "predicate_not_nil", nil, core.ErrNilParameter)
	}
	return core.NewStage("SelectIndex", func(_ context.Context, upstream core.Stream[T]) core.Runner[Selection[T]] {
		var index int64
		return core.RunnerFunc[Selection[T]](func(downstream core.Stream[Selection[T]]) bool {
			t, ok := upstream.Read()
			if !ok {
				return false
			}
			if out, ok := core.Retype[Selection[T]](t); ok {
				return downstream.Write(out) == core.Open
			}
			mark := func(vs []T) []Selection[T] {
				out := make([]Selection[T], len(vs))
				for i, v := range vs {
					out[i] = Selection[T]{Value: v, Discarded: !predicate(index)}
					index++
				}
				return out
			}
			if !t.IsInfinite() {
				return downstream.Write(core.TermOf(mark(t.Elements())...)) == core.Open
			}
			header := mark(t.Elements())
			cycle := make([]Selection[T], 0, len(t.Cycle()))
			for _, v := range t.Cycle() {
				cycle = append(cycle, Discarded(v))
			}
			cyc, _ := core.Cyclical(header, cycle)
			return downstream.Write(cyc) == core.Open
		})
	}), nil
}

// Unwrap creates a Stage that drops the selection marks.
func Unwrap[T any]() core.Stage[Selection[T], T] {
	return core.Named("Unwrap", core.Map(func(s Selection[T]) (T, error) { return s.Value, nil }))
}
