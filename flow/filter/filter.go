// Package filter provides stages that drop, keep or mark elements of a
// term stream by predicate or position.
package filter

import (
	"context"

	"github.com/lguimbarda/termflow/flow/core"
)

// Where creates a Stage that only passes through elements matching the
// predicate. Each term is filtered as a unit: a Many term keeps the matching
// elements, a Cyclical term filters its header and its cycle separately.
// A Cyclical term whose cycle has no match reduces to its matching header.
// Abnormal terms are passed through unchanged.
func Where[T any](predicate func(T) bool) (core.Stage[T, T], error) {
	if predicate == nil {
		return nil, core.Contract("Where", "predicate_not_nil", nil, core.ErrNilParameter)
	}
	return core.NewStage("Where", func(_ context.Context, upstream core.Stream[T]) core.Runner[T] {
		return core.RunnerFunc[T](func(downstream core.Stream[T]) bool {
			t, ok := upstream.Read()
			if !ok {
				return false
			}
			return downstream.Write(where(t, predicate)) == core.Open
		})
	}), nil
}

// Exclude creates a Stage that drops elements matching the predicate.
// This is the inverse of Where.
func Exclude[T any](predicate func(T) bool) (core.Stage[T, T], error) {
	if predicate == nil {
		return nil, core.Contract("Exclude", "predicate_not_nil", nil, core.ErrNilParameter)
	}
	return Where(func(v T) bool { return !predicate(v) })
}

func where[T any](t core.Term[T], predicate func(T) bool) core.Term[T] {
	switch t.Kind() {
	case core.KindSingle, core.KindMany:
		return core.TermOf(keep(t.Elements(), predicate)...)
	case core.KindCyclical:
		header := keep(t.Header(), predicate)
		cycle := keep(t.Cycle(), predicate)
		if len(cycle) == 0 {
			return core.TermOf(header...)
		}
		cyc, _ := core.Cyclical(header, cycle)
		return cyc
	default:
		return t
	}
}

func keep[T any](in []T, predicate func(T) bool) []T {
	out := in[:0]
	for _, v := range in {
		if predicate(v) {
			out = append(out, v)
		}
	}
	return out
}
