package core

import "context"

// Runner is the stateful, single-use instance of a stage.
// Step performs one bounded unit of work: it reads at most what it needs
// from its inputs and writes at most one logical unit downstream. It returns
// true if calling Step again might produce more output.
type Runner[OUT any] interface {
	Step(downstream Stream[OUT]) bool
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc[OUT any] func(downstream Stream[OUT]) bool

func (f RunnerFunc[OUT]) Step(downstream Stream[OUT]) bool { return f(downstream) }

// Stage is an immutable, reusable description of an operation from a
// stream of IN terms to a stream of OUT terms. Templates carry no
// per-invocation progress and may be shared freely.
type Stage[IN, OUT any] interface {
	Name() string
	// Instantiate binds the template to one upstream stream. Callers should
	// use the package-level Instantiate, which guards the returned Runner.
	Instantiate(ctx context.Context, upstream Stream[IN]) Runner[OUT]
}

// Source is a Stage with no upstream.
type Source[OUT any] interface {
	Name() string
	Open(ctx context.Context) Runner[OUT]
}

type stageFunc[IN, OUT any] struct {
	name string
	fn   func(context.Context, Stream[IN]) Runner[OUT]
}

// NewStage creates a Stage from an instantiation function.
func NewStage[IN, OUT any](name string, fn func(ctx context.Context, upstream Stream[IN]) Runner[OUT]) Stage[IN, OUT] {
	return stageFunc[IN, OUT]{name: name, fn: fn}
}

func (s stageFunc[IN, OUT]) Name() string { return s.name }

func (s stageFunc[IN, OUT]) Instantiate(ctx context.Context, upstream Stream[IN]) Runner[OUT] {
	return s.fn(ctx, upstream)
}

type sourceFunc[OUT any] struct {
	name string
	fn   func(context.Context) Runner[OUT]
}

// NewSource creates a Source from an open function.
func NewSource[OUT any](name string, fn func(ctx context.Context) Runner[OUT]) Source[OUT] {
	return sourceFunc[OUT]{name: name, fn: fn}
}

func (s sourceFunc[OUT]) Name() string { return s.name }

func (s sourceFunc[OUT]) Open(ctx context.Context) Runner[OUT] { return s.fn(ctx) }

// Named returns stage under a different name.
func Named[IN, OUT any](name string, stage Stage[IN, OUT]) Stage[IN, OUT] {
	return stageFunc[IN, OUT]{name: name, fn: stage.Instantiate}
}

// Instantiate creates a guarded Runner for stage bound to upstream.
func Instantiate[IN, OUT any](ctx context.Context, stage Stage[IN, OUT], upstream Stream[IN]) Runner[OUT] {
	return &guard[OUT]{name: stage.Name(), inner: stage.Instantiate(ctx, upstream), upstream: upstream}
}

// Start creates a guarded Runner for src.
func Start[OUT any](ctx context.Context, src Source[OUT]) Runner[OUT] {
	return &guard[OUT]{name: src.Name(), inner: src.Open(ctx)}
}

// guard enforces the lifecycle shared by every runner:
//   - once Step has returned false it keeps returning false without
//     touching any stream
//   - a Closed downstream or a written Abnormal term finishes the runner
//     within the same step
//   - finishing closes the inner runner and the upstream stream
type guard[OUT any] struct {
	name     string
	inner    Runner[OUT]
	upstream Closer
	watch    watch[OUT]
	done     bool
}

func (g *guard[OUT]) Step(downstream Stream[OUT]) bool {
	if g.done {
		return false
	}
	if downstream.State() == Closed {
		g.Close()
		return false
	}
	g.watch.Stream = downstream
	g.watch.abnormal = false
	more := g.inner.Step(&g.watch)
	g.watch.Stream = nil
	if !more || g.watch.abnormal || downstream.State() == Closed {
		g.Close()
		return false
	}
	return true
}

// Close finishes the runner early. It is idempotent.
func (g *guard[OUT]) Close() {
	if g.done {
		return
	}
	g.done = true
	closeRunner(g.inner)
	if g.upstream != nil {
		g.upstream.Close()
	}
}

func (g *guard[OUT]) String() string { return g.name }

// watch records whether an Abnormal term passed through a write.
type watch[V any] struct {
	Stream[V]
	abnormal bool
}

func (w *watch[V]) Write(t Term[V]) State {
	if t.IsAbnormal() {
		w.abnormal = true
	}
	return w.Stream.Write(t)
}

// Via creates a Source whose output is src's output passed through stage.
func Via[IN, OUT any](src Source[IN], stage Stage[IN, OUT]) Source[OUT] {
	return NewSource(src.Name()+"|"+stage.Name(), func(ctx context.Context) Runner[OUT] {
		return Instantiate(ctx, stage, Pull(Start(ctx, src)))
	})
}

// Then composes two stages into one.
func Then[A, B, C any](first Stage[A, B], second Stage[B, C]) Stage[A, C] {
	return NewStage(first.Name()+"|"+second.Name(), func(ctx context.Context, upstream Stream[A]) Runner[C] {
		return Instantiate(ctx, second, Pull(Instantiate(ctx, first, upstream)))
	})
}

// Chain composes stages of the same type in order. Chain with no stages
// forwards its input unchanged.
func Chain[V any](stages ...Stage[V, V]) Stage[V, V] {
	if len(stages) == 0 {
		return Identity[V]()
	}
	s := stages[0]
	for _, next := range stages[1:] {
		s = Then(s, next)
	}
	return s
}

// Identity forwards every term unchanged.
func Identity[V any]() Stage[V, V] {
	return NewStage("Identity", func(_ context.Context, upstream Stream[V]) Runner[V] {
		return Forward(upstream)
	})
}

// Forward returns a Runner that copies one term per step from upstream.
func Forward[V any](upstream Stream[V]) Runner[V] {
	return RunnerFunc[V](func(downstream Stream[V]) bool {
		t, ok := upstream.Read()
		if !ok {
			return false
		}
		return downstream.Write(t) == Open
	})
}
