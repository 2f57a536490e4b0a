package parallel

import (
	"context"
	"fmt"

	"github.com/destel/rill"

	"github.com/lguimbarda/termflow/flow/core"
)

// Outcome is the collected output of one pooled pipeline.
type Outcome[V any] struct {
	Terms []core.Term[V]
	// Violation is set when the pipeline ended on an Abnormal term.
	Violation *core.Violation
}

// Collect drives every source to completion on at most workers goroutines
// and returns their outputs in source order. If workers <= 0, defaults to 1.
// Each pipeline is owned by the goroutine that drives it; hooks attached to
// ctx must be safe for concurrent use.
func Collect[V any](ctx context.Context, workers int, sources ...core.Source[V]) ([]Outcome[V], error) {
	return CollectN(ctx, workers, 0, sources...)
}

// CollectN is like Collect but stops each pipeline after limit elements.
// A limit of 0 or less means unbounded.
func CollectN[V any](ctx context.Context, workers int, limit int64, sources ...core.Source[V]) ([]Outcome[V], error) {
	if workers <= 0 {
		workers = 1
	}

	indices := make([]int, len(sources))
	for i := range indices {
		indices[i] = i
	}

	outcomes := make([]Outcome[V], len(sources))
	err := rill.ForEach(rill.FromSlice(indices, nil), workers, func(i int) error {
		terms, err := core.CollectN(ctx, sources[i], limit)
		if err != nil {
			return fmt.Errorf("pipeline %d (%s): %w", i, sources[i].Name(), err)
		}
		outcomes[i].Terms = terms
		if n := len(terms); n > 0 && terms[n-1].IsAbnormal() {
			outcomes[i].Violation = terms[n-1].Violation()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Slices drives every source to completion on at most workers goroutines
// and flattens each output. The first pipeline, in source order, that
// ended abnormally or produced infinite output is reported as an error
// along with every slice.
func Slices[V any](ctx context.Context, workers int, sources ...core.Source[V]) ([][]V, error) {
	outcomes, err := Collect(ctx, workers, sources...)
	if err != nil {
		return nil, err
	}
	out := make([][]V, len(outcomes))
	var first error
	for i, o := range outcomes {
		values, err := core.Flatten(o.Terms)
		out[i] = values
		if err != nil && first == nil {
			first = err
		}
	}
	return out, first
}
