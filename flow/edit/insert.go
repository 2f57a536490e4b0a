package edit

import (
	"context"
	"math"
	"slices"

	"github.com/rs/zerolog"

	"github.com/lguimbarda/termflow/flow/core"
)

// Insert creates a Stage that copies the output of inserts into its
// upstream before every position read from insertAt.
//
// Positions count elements of the original upstream, so two inserts at
// positions 2 and 4 land on either side of the original elements 2 and 3.
// A position equal to the upstream length inserts at the end. A position
// that has already been passed inserts immediately. A position beyond the
// end of the upstream ends the stage with an Abnormal term, as does a
// negative position.
//
// The output of inserts is read once and replayed for every position.
func Insert[V any](insertAt core.Source[int], inserts core.Source[V]) (core.Stage[V, V], error) {
	if insertAt == nil {
		return nil, core.Contract("Insert", "insert_at_not_nil", nil, core.ErrNilParameter)
	}
	if inserts == nil {
		return nil, core.Contract("Insert", "inserts_not_nil", nil, core.ErrNilParameter)
	}
	return core.NewStage("Insert", func(ctx context.Context, upstream core.Stream[V]) core.Runner[V] {
		zerolog.Ctx(ctx).Debug().
			Str("stage", "Insert").
			Str("insert_at", insertAt.Name()).
			Str("inserts", inserts.Name()).
			Msg("instantiated")
		return &inserter[V]{
			upstream: upstream,
			indices:  core.Pull(core.Start(ctx, insertAt)),
			payload:  core.NewBuffer(core.Start(ctx, inserts)),
		}
	}), nil
}

// InsertAt is Insert with a fixed list of positions. Negative positions are
// rejected at construction.
func InsertAt[V any](indices []int, inserts core.Source[V]) (core.Stage[V, V], error) {
	for _, i := range indices {
		if i < 0 {
			return nil, core.Contract("InsertAt", "index_not_negative", i, core.ErrNegativeIndex)
		}
	}
	positions := core.TermOf(indices...)
	at := core.NewSource("Indices", func(context.Context) core.Runner[int] {
		return core.RunnerFunc[int](func(downstream core.Stream[int]) bool {
			downstream.Write(positions)
			return false
		})
	})
	stage, err := Insert(at, inserts)
	if err != nil {
		return nil, err
	}
	return core.Named("InsertAt", stage), nil
}

type inserter[V any] struct {
	upstream core.Stream[V]
	indices  core.Stream[int]
	payload  *core.Buffer[V]

	queue       []int // positions read but not yet reached
	next        int64
	hasNext     bool
	indicesDone bool

	position  int64 // upstream elements forwarded so far
	pending   core.Term[V]
	held      bool // pending holds the tail of a split term
	inserting bool
}

func (r *inserter[V]) Step(downstream core.Stream[V]) bool {
	if r.inserting {
		if t, ok := r.payload.Read(); ok {
			return downstream.Write(t) == core.Open
		}
		r.payload.Reset()
		r.inserting = false
		r.hasNext = false
	}

	if !r.hasNext && !r.indicesDone {
		if failure, ok := r.advance(); !ok {
			downstream.Write(failure)
			return false
		}
	}
	if r.hasNext && r.next <= r.position {
		r.inserting = true
		return true
	}

	t, ok := r.read()
	if !ok {
		if r.hasNext {
			downstream.Write(core.Abnormal[V](core.NewViolation("Insert", "index_within_input", r.next, core.ErrIndexOutOfRange)))
		}
		return false
	}
	if t.IsAbnormal() {
		downstream.Write(t)
		return false
	}

	if r.hasNext && r.next-r.position < t.Len() {
		head, tail := t.SplitAt(r.next - r.position)
		r.pending, r.held = tail, true
		t = head
	}
	if t.IsInfinite() {
		r.position = math.MaxInt64
	} else {
		r.position += t.Len()
	}
	return downstream.Write(t) == core.Open
}

// read returns the held tail of a split term, or the next upstream term.
func (r *inserter[V]) read() (core.Term[V], bool) {
	if r.held {
		r.held = false
		return r.pending, true
	}
	return r.upstream.Read()
}

// advance loads the next insertion position. It returns false with an
// Abnormal term when the positions cannot be used.
func (r *inserter[V]) advance() (core.Term[V], bool) {
	for len(r.queue) == 0 {
		t, ok := r.indices.Read()
		if !ok {
			r.indicesDone = true
			return core.Term[V]{}, true
		}
		switch t.Kind() {
		case core.KindAbnormal:
			return core.Abnormal[V](t.Violation()), false
		case core.KindCyclical:
			return core.Abnormal[V](core.NewViolation("Insert", "indices_finite", t, core.ErrInfinite)), false
		}
		r.queue = t.Elements()
	}
	i := r.queue[0]
	r.queue = slices.Delete(r.queue, 0, 1)
	if i < 0 {
		return core.Abnormal[V](core.NewViolation("Insert", "index_not_negative", i, core.ErrNegativeIndex)), false
	}
	r.next, r.hasNext = int64(i), true
	return core.Term[V]{}, true
}

func (r *inserter[V]) Close() {
	r.indices.Close()
	r.payload.Close()
}
