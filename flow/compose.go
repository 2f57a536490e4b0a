package flow

import (
	"github.com/lguimbarda/termflow/flow/core"
)

// Through passes the output of src through stage, creating a new Source.
func Through[IN, OUT any](src Source[IN], stage Stage[IN, OUT]) Source[OUT] {
	return core.Via(src, stage)
}

// Then chains two stages together, creating a new stage that first applies
// s1 and then s2.
func Then[IN, MID, OUT any](s1 Stage[IN, MID], s2 Stage[MID, OUT]) Stage[IN, OUT] {
	return core.Then(s1, s2)
}

// Chain composes multiple stages of the same type into a single stage.
// Stages are applied in order from left to right.
// If no stages are provided, returns an identity stage.
func Chain[T any](stages ...Stage[T, T]) Stage[T, T] {
	return core.Chain(stages...)
}

// Pipe passes src through a series of stages, returning the final Source.
// This is a convenience function for building pipelines inline.
func Pipe[T any](src Source[T], stages ...Stage[T, T]) Source[T] {
	return core.Via(src, core.Chain(stages...))
}
