// Package flowerrors provides stages and hooks for Abnormal terms.
//
// A stage that writes an Abnormal term stops, so there is at most one
// Abnormal term per stream. The stages here decide what a consumer sees in
// its place; the hooks observe violations without changing the data flow.
// Nothing in this package retries: re-running a pipeline is the caller's
// decision.
package flowerrors

import (
	"context"

	"github.com/lguimbarda/termflow/flow/core"
)

// abnormalStage builds a stage that forwards finite terms and hands every
// Abnormal one to handle, which writes whatever should replace it.
func abnormalStage[T any](name string, handle func(t core.Term[T], downstream core.Stream[T]) bool) core.Stage[T, T] {
	return core.NewStage(name, func(_ context.Context, upstream core.Stream[T]) core.Runner[T] {
		return core.RunnerFunc[T](func(downstream core.Stream[T]) bool {
			t, ok := upstream.Read()
			if !ok {
				return false
			}
			if t.IsAbnormal() {
				return handle(t, downstream)
			}
			return downstream.Write(t) == core.Open
		})
	})
}

// OnAbnormal creates a Stage that calls handler for an Abnormal term and
// passes it through unchanged.
func OnAbnormal[T any](handler func(*core.Violation)) core.Stage[T, T] {
	return abnormalStage("OnAbnormal", func(t core.Term[T], downstream core.Stream[T]) bool {
		handler(t.Violation())
		downstream.Write(t)
		return false
	})
}

// Catch creates a Stage that replaces an Abnormal term matching predicate
// with the value returned by handler. If handler fails, the term is
// replaced by an Abnormal term carrying that failure instead. The stream
// ends after the replacement either way, since the stage that failed has
// already stopped.
func Catch[T any](predicate func(*core.Violation) bool, handler func(*core.Violation) (T, error)) core.Stage[T, T] {
	return abnormalStage("Catch", func(t core.Term[T], downstream core.Stream[T]) bool {
		v := t.Violation()
		if !predicate(v) {
			downstream.Write(t)
			return false
		}
		value, err := handler(v)
		if err != nil {
			downstream.Write(core.Abnormal[T](core.NewViolation("Catch", "handler_must_succeed", v, err)))
			return false
		}
		downstream.Write(core.Single(value))
		return false
	})
}

// Drop creates a Stage that ends the stream quietly at an Abnormal term
// matching predicate. A nil predicate matches everything.
func Drop[T any](predicate func(*core.Violation) bool) core.Stage[T, T] {
	return abnormalStage("Drop", func(t core.Term[T], downstream core.Stream[T]) bool {
		if predicate == nil || predicate(t.Violation()) {
			return false
		}
		downstream.Write(t)
		return false
	})
}

// MapViolation creates a Stage that rewrites the Violation of an Abnormal
// term. A nil result keeps the original.
func MapViolation[T any](mapper func(*core.Violation) *core.Violation) core.Stage[T, T] {
	return abnormalStage("MapViolation", func(t core.Term[T], downstream core.Stream[T]) bool {
		v := t.Violation()
		if mapped := mapper(v); mapped != nil {
			v = mapped
		}
		downstream.Write(core.Abnormal[T](v))
		return false
	})
}

// Outcome is an element or the violation that ended its stream.
type Outcome[T any] struct {
	Value     T
	Violation *core.Violation
}

// Failed reports whether the outcome carries a violation.
func (o Outcome[T]) Failed() bool { return o.Violation != nil }

// Materialize creates a Stage that turns every element into an Outcome and
// an Abnormal term into a final failed Outcome, so that consumers that
// cannot handle Abnormal terms still see the failure.
func Materialize[T any]() core.Stage[T, Outcome[T]] {
	wrap := core.Map(func(v T) (Outcome[T], error) { return Outcome[T]{Value: v}, nil })
	return core.NewStage("Materialize", func(ctx context.Context, upstream core.Stream[T]) core.Runner[Outcome[T]] {
		mapped := core.Pull(core.Instantiate(ctx, wrap, upstream))
		return core.RunnerFunc[Outcome[T]](func(downstream core.Stream[Outcome[T]]) bool {
			t, ok := mapped.Read()
			if !ok {
				return false
			}
			if t.IsAbnormal() {
				downstream.Write(core.Single(Outcome[T]{Violation: t.Violation()}))
				return false
			}
			return downstream.Write(t) == core.Open
		})
	})
}

// Dematerialize reverses Materialize: a failed Outcome becomes an Abnormal
// term again.
func Dematerialize[T any]() core.Stage[Outcome[T], T] {
	return core.NewStage("Dematerialize", func(_ context.Context, upstream core.Stream[Outcome[T]]) core.Runner[T] {
		var pending []Outcome[T]
		return core.RunnerFunc[T](func(downstream core.Stream[T]) bool {
			if len(pending) == 0 {
				t, ok := upstream.Read()
				if !ok {
					return false
				}
				if out, ok := core.Retype[T](t); ok {
					return downstream.Write(out) == core.Open
				}
				if t.IsInfinite() {
					downstream.Write(core.Abnormal[T](core.NewViolation("Dematerialize", "input_finite", nil, core.ErrInfinite)))
					return false
				}
				pending = t.Elements()
			}
			var values []T
			for len(pending) > 0 && !pending[0].Failed() {
				values = append(values, pending[0].Value)
				pending = pending[1:]
			}
			if len(values) > 0 {
				return downstream.Write(core.TermOf(values...)) == core.Open
			}
			downstream.Write(core.Abnormal[T](pending[0].Violation))
			return false
		})
	})
}
