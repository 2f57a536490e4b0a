// Package flow provides a term-stream pipeline engine: composable stages
// that transform sequences of possibly infinite terms under a single-threaded,
// pull-driven step protocol.
//
// This package is the primary user-facing API. Most users should only
// need to import this package and the operator packages (edit, combine,
// filter). The flow/core subpackage contains the low-level abstractions.
package flow

import (
	"context"
	"iter"

	"github.com/lguimbarda/termflow/flow/core"
)

// Type aliases for core abstractions.
// These allow users to work with the framework without importing core directly.
type (
	// Term is the unit of data flowing between stages: Absent, Single,
	// Many, Cyclical or Abnormal.
	Term[T any] = core.Term[T]

	// Kind identifies which variant a Term holds.
	Kind = core.Kind

	// Violation describes a failure carried by an Abnormal term or
	// returned by a stage constructor.
	Violation = core.Violation

	// Stream is a directional channel of Terms between two stages.
	Stream[T any] = core.Stream[T]

	// Buffer is a replayable Stream.
	Buffer[T any] = core.Buffer[T]

	// Stage is a reusable template transforming IN terms into OUT terms.
	Stage[IN, OUT any] = core.Stage[IN, OUT]

	// Source is a Stage with no upstream.
	Source[T any] = core.Source[T]

	// Runner is the stateful, single-use instance of a Stage.
	Runner[T any] = core.Runner[T]

	// Hooks observe a pipeline driven by Drive or any terminal function.
	Hooks[T any] = core.Hooks[T]

	// Stats summarizes what a pipeline committed downstream.
	Stats = core.Stats
)

const (
	KindAbsent   = core.KindAbsent
	KindSingle   = core.KindSingle
	KindMany     = core.KindMany
	KindCyclical = core.KindCyclical
	KindAbnormal = core.KindAbnormal
)

// Violation causes, for use with errors.Is.
var (
	ErrContract        = core.ErrContract
	ErrNilParameter    = core.ErrNilParameter
	ErrNegativeIndex   = core.ErrNegativeIndex
	ErrIndexOutOfRange = core.ErrIndexOutOfRange
	ErrInfinite        = core.ErrInfinite
	ErrEmptyCycle      = core.ErrEmptyCycle
	ErrNonPositive     = core.ErrNonPositive
)

// Term constructors - wrappers around core functions.

// Absent creates a Term with no elements.
func Absent[T any]() Term[T] { return core.Absent[T]() }

// Single creates a Term holding exactly one element.
func Single[T any](value T) Term[T] { return core.Single(value) }

// Many creates a finite Term holding the given elements in order.
func Many[T any](values ...T) Term[T] { return core.Many(values...) }

// Cyclical creates an infinite Term: header followed by cycle forever.
func Cyclical[T any](header, cycle []T) (Term[T], error) { return core.Cyclical(header, cycle) }

// Abnormal creates a Term carrying the given failure.
func Abnormal[T any](v *Violation) Term[T] { return core.Abnormal[T](v) }

// Must panics if err is non-nil and returns v otherwise.
func Must[T any](v T, err error) T { return core.Must(v, err) }

// Map creates a Stage applying fn to every element.
func Map[IN, OUT any](fn func(IN) (OUT, error)) Stage[IN, OUT] { return core.Map(fn) }

// Terminal functions - wrappers around core functions.

// Slice runs src and returns its elements. The first Abnormal term is
// returned as an error.
func Slice[T any](ctx context.Context, src Source[T]) ([]T, error) { return core.Slice(ctx, src) }

// Collect runs src and returns every term it produced.
func Collect[T any](ctx context.Context, src Source[T]) ([]Term[T], error) {
	return core.Collect(ctx, src)
}

// CollectN runs src until limit elements have been committed.
func CollectN[T any](ctx context.Context, src Source[T], limit int64) ([]Term[T], error) {
	return core.CollectN(ctx, src, limit)
}

// All returns an iterator over the terms src produces.
func All[T any](ctx context.Context, src Source[T]) iter.Seq[Term[T]] { return core.All(ctx, src) }

// Drive steps runner to completion into downstream.
func Drive[T any](ctx context.Context, runner Runner[T], downstream Stream[T]) error {
	return core.Drive(ctx, runner, downstream)
}

// WithHooks attaches hooks observing pipelines of element type T.
func WithHooks[T any](ctx context.Context, hooks Hooks[T]) context.Context {
	return core.WithHooks(ctx, hooks)
}
