package flow

import (
	"context"
	"iter"

	"github.com/lguimbarda/termflow/flow/core"
)

// termsOf returns a runner writing one of terms per step.
func termsOf[T any](terms []Term[T]) Runner[T] {
	i := 0
	return core.RunnerFunc[T](func(downstream Stream[T]) bool {
		if i >= len(terms) {
			return false
		}
		t := terms[i]
		i++
		return downstream.Write(t) == core.Open
	})
}

// FromTerms creates a Source that writes the given terms in order, one per step.
func FromTerms[T any](terms ...Term[T]) Source[T] {
	return core.NewSource("FromTerms", func(context.Context) Runner[T] {
		return termsOf(terms)
	})
}

// FromSlice creates a Source that writes each element of items as a Single
// term. The slice is read lazily, one element per step.
func FromSlice[T any](items []T) Source[T] {
	return core.NewSource("FromSlice", func(context.Context) Runner[T] {
		i := 0
		return core.RunnerFunc[T](func(downstream Stream[T]) bool {
			if i >= len(items) {
				return false
			}
			v := items[i]
			i++
			return downstream.Write(core.Single(v)) == core.Open
		})
	})
}

// Of creates a Source that writes all values as a single Many term.
func Of[T any](values ...T) Source[T] {
	return FromTerms(core.Many(values...))
}

// FromIter creates a Source that pulls one element per step from seq.
// Closing the pipeline early stops the iterator.
func FromIter[T any](seq iter.Seq[T]) Source[T] {
	return core.NewSource("FromIter", func(context.Context) Runner[T] {
		next, stop := iter.Pull(seq)
		return &iterRunner[T]{next: next, stop: stop}
	})
}

type iterRunner[T any] struct {
	next func() (T, bool)
	stop func()
}

func (r *iterRunner[T]) Step(downstream Stream[T]) bool {
	v, ok := r.next()
	if !ok {
		return false
	}
	return downstream.Write(core.Single(v)) == core.Open
}

func (r *iterRunner[T]) Close() { r.stop() }

// Empty creates a Source that finishes without writing anything.
func Empty[T any]() Source[T] {
	return FromTerms[T]()
}

// Once creates a Source that writes a single value.
func Once[T any](value T) Source[T] {
	return FromTerms(core.Single(value))
}

// Fail creates a Source that writes one Abnormal term carrying v.
func Fail[T any](v *Violation) Source[T] {
	return FromTerms(core.Abnormal[T](v))
}

// Repeat creates a Source that writes value n times, one Single per step.
// n must be positive.
func Repeat[T any](value T, n int) (Source[T], error) {
	if n <= 0 {
		return nil, core.Contract("Repeat", "count_positive", n, core.ErrNonPositive)
	}
	return core.NewSource("Repeat", func(context.Context) Runner[T] {
		count := 0
		return core.RunnerFunc[T](func(downstream Stream[T]) bool {
			if count >= n {
				return false
			}
			count++
			return downstream.Write(core.Single(value)) == core.Open
		})
	}), nil
}

// Cycle creates a Source writing one Cyclical term: header followed by
// cycle repeated forever.
func Cycle[T any](header, cycle []T) (Source[T], error) {
	t, err := core.Cyclical(header, cycle)
	if err != nil {
		return nil, err
	}
	return FromTerms(t), nil
}

// Range creates a Source that writes integers from start (inclusive) to
// end (exclusive), one Single per step. If start >= end, nothing is written.
func Range(start, end int) Source[int] {
	return core.NewSource("Range", func(context.Context) Runner[int] {
		i := start
		return core.RunnerFunc[int](func(downstream Stream[int]) bool {
			if i >= end {
				return false
			}
			v := i
			i++
			return downstream.Write(core.Single(v)) == core.Open
		})
	})
}

// Concat creates a Source that writes everything from the first source,
// then everything from the second, and so on.
func Concat[T any](sources ...Source[T]) Source[T] {
	return core.NewSource("Concat", func(ctx context.Context) Runner[T] {
		return &concatRunner[T]{ctx: ctx, sources: sources}
	})
}

type concatRunner[T any] struct {
	ctx     context.Context
	sources []Source[T]
	current Runner[T]
}

func (r *concatRunner[T]) Step(downstream Stream[T]) bool {
	if r.current == nil {
		if len(r.sources) == 0 {
			return false
		}
		r.current = core.Start(r.ctx, r.sources[0])
		r.sources = r.sources[1:]
	}
	if r.current.Step(downstream) {
		return true
	}
	r.current = nil
	return len(r.sources) > 0
}

func (r *concatRunner[T]) Close() {
	if c, ok := r.current.(core.Closer); ok {
		c.Close()
	}
}
