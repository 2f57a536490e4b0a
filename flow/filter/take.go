package filter

import (
	"context"

	"github.com/lguimbarda/termflow/flow/core"
)

// Take creates a Stage that passes through only the first n elements,
// splitting the term that crosses the boundary. Once n elements have been
// written the stage finishes and closes its upstream, so nothing past the
// boundary is ever computed. If n <= 0, nothing is read at all.
func Take[T any](n int64) core.Stage[T, T] {
	return core.NewStage("Take", func(_ context.Context, upstream core.Stream[T]) core.Runner[T] {
		remaining := n
		return core.RunnerFunc[T](func(downstream core.Stream[T]) bool {
			if remaining <= 0 {
				return false
			}
			t, ok := upstream.Read()
			if !ok {
				return false
			}
			if t.Len() >= remaining {
				head, _ := t.SplitAt(remaining)
				downstream.Write(head)
				return false
			}
			remaining -= t.Len()
			return downstream.Write(t) == core.Open
		})
	})
}

// Skip creates a Stage that drops the first n elements and passes the rest.
// A Cyclical term spanning the boundary continues as a Cyclical term.
func Skip[T any](n int64) core.Stage[T, T] {
	return core.NewStage("Skip", func(_ context.Context, upstream core.Stream[T]) core.Runner[T] {
		remaining := max(n, 0)
		return core.RunnerFunc[T](func(downstream core.Stream[T]) bool {
			t, ok := upstream.Read()
			if !ok {
				return false
			}
			if remaining > 0 && !t.IsAbnormal() {
				if t.Len() <= remaining {
					remaining -= t.Len()
					return true
				}
				_, t = t.SplitAt(remaining)
				remaining = 0
			}
			return downstream.Write(t) == core.Open
		})
	})
}

// TakeWhile creates a Stage that passes elements while the predicate holds
// and finishes at the first element that fails it.
func TakeWhile[T any](predicate func(T) bool) (core.Stage[T, T], error) {
	if predicate == nil {
		return nil, core.Contract("TakeWhile", "predicate_not_nil", nil, core.ErrNilParameter)
	}
	return core.NewStage("TakeWhile", func(_ context.Context, upstream core.Stream[T]) core.Runner[T] {
		return core.RunnerFunc[T](func(downstream core.Stream[T]) bool {
			t, ok := upstream.Read()
			if !ok {
				return false
			}
			if i, failed := firstFailure(t, predicate); failed {
				head, _ := t.SplitAt(i)
				downstream.Write(head)
				return false
			}
			return downstream.Write(t) == core.Open
		})
	}), nil
}

// SkipWhile creates a Stage that drops elements while the predicate holds
// and passes everything from the first element that fails it. A Cyclical
// term whose every element passes is dropped entirely and ends the stage,
// since nothing after it can ever be reached.
func SkipWhile[T any](predicate func(T) bool) (core.Stage[T, T], error) {
	if predicate == nil {
		return nil, core.Contract("SkipWhile", "predicate_not_nil", nil, core.ErrNilParameter)
	}
	return core.NewStage("SkipWhile", func(_ context.Context, upstream core.Stream[T]) core.Runner[T] {
		skipping := true
		return core.RunnerFunc[T](func(downstream core.Stream[T]) bool {
			t, ok := upstream.Read()
			if !ok {
				return false
			}
			if skipping && !t.IsAbnormal() {
				i, failed := firstFailure(t, predicate)
				if !failed {
					return !t.IsInfinite()
				}
				_, t = t.SplitAt(i)
				skipping = false
			}
			return downstream.Write(t) == core.Open
		})
	}), nil
}

// firstFailure returns the offset of the first element failing predicate.
// For Cyclical terms the header and one pass of the cycle decide it.
func firstFailure[T any](t core.Term[T], predicate func(T) bool) (int64, bool) {
	for i, v := range t.Elements() {
		if !predicate(v) {
			return int64(i), true
		}
	}
	return 0, false
}
