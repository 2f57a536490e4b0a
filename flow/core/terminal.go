package core

import (
	"context"
	"iter"
)

// Terminal functions drive a pipeline to completion and hand its output
// to the caller: all of them go through Drive.

// Stats summarizes what a Drive call committed downstream.
type Stats struct {
	Steps    int64
	Terms    int64
	Elements int64 // saturates at math.MaxInt64 once a Cyclical term is seen
	Abnormal int64
}

// Drive steps runner until it finishes, writing into downstream.
// It is the only execution loop: ctx is checked between steps, and a
// cancelled context closes the runner and returns ctx.Err().
// Hooks attached with WithHooks observe every committed term.
//
// Abnormal terms are data, not errors: Drive returns nil after the runner
// terminates on one.
func Drive[V any](ctx context.Context, runner Runner[V], downstream Stream[V]) error {
	hooks := newHookInvoker[V](ctx)
	obs := &observed[V]{Stream: downstream, hooks: hooks}
	hooks.invokeStart()
	defer func() { hooks.invokeComplete(obs.stats) }()

	done := ctx.Done()
	for {
		if done != nil {
			select {
			case <-done:
				closeRunner(runner)
				return ctx.Err()
			default:
			}
		}
		obs.stats.Steps++
		if !runner.Step(obs) {
			return nil
		}
	}
}

// observed counts and reports terms on their way downstream.
type observed[V any] struct {
	Stream[V]
	hooks *hookInvoker[V]
	stats Stats
}

func (o *observed[V]) Write(t Term[V]) State {
	state := o.Stream.State()
	if state == Open {
		o.stats.Terms++
		o.stats.Elements = addLen(o.stats.Elements, t.Len())
		if t.IsAbnormal() {
			o.stats.Abnormal++
		}
		o.hooks.invokeTerm(t)
	}
	return o.Stream.Write(t)
}

// Collect runs src and returns every term it produced.
func Collect[V any](ctx context.Context, src Source[V]) ([]Term[V], error) {
	sink := NewSink[V](0)
	err := Drive(ctx, Start(ctx, src), sink)
	return sink.Contents(), err
}

// CollectN runs src until limit elements have been committed. Infinite
// output is truncated, so CollectN is the way to inspect Cyclical terms.
func CollectN[V any](ctx context.Context, src Source[V], limit int64) ([]Term[V], error) {
	sink := NewSink[V](limit)
	err := Drive(ctx, Start(ctx, src), sink)
	return sink.Contents(), err
}

// Slice runs src and flattens its output into elements.
// The first Abnormal term is returned as an error, along with the elements
// committed before it. Cyclical output is an error since it cannot be
// flattened.
func Slice[V any](ctx context.Context, src Source[V]) ([]V, error) {
	terms, err := Collect(ctx, src)
	if err != nil {
		return nil, err
	}
	return Flatten(terms)
}

// Flatten concatenates the elements of finite terms.
func Flatten[V any](terms []Term[V]) ([]V, error) {
	var out []V
	for _, t := range terms {
		switch t.Kind() {
		case KindAbnormal:
			return out, t.Violation()
		case KindCyclical:
			return out, NewViolation("Slice", "output_finite", t, ErrInfinite)
		default:
			out = append(out, t.elements...)
		}
	}
	return out, nil
}

// All returns an iterator over the terms src produces, pulled one at a
// time. Breaking out of the loop closes the pipeline.
func All[V any](ctx context.Context, src Source[V]) iter.Seq[Term[V]] {
	return func(yield func(Term[V]) bool) {
		stream := Pull(Start(ctx, src))
		defer stream.Close()
		for {
			if ctx.Err() != nil {
				return
			}
			t, ok := stream.Read()
			if !ok || !yield(t) {
				return
			}
		}
	}
}
