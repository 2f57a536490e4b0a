// Package combine provides set-algebra stages over two streams.
//
// Every operation takes its upstream as the left operand and a parameter
// Source as the right one. Both operands are read to completion before
// anything is written: set membership cannot be decided on a prefix. A
// Cyclical operand contributes its header and one pass of its cycle.
//
// Output keeps left operand order followed by right operand order.
// Large operands are indexed by Bloom filters so that most non-members are
// rejected without a scan; a possible member is always confirmed exactly,
// so results never depend on filter accuracy.
package combine

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lguimbarda/termflow/flow/core"
)

type operator uint8

const (
	union operator = iota
	xor
	intersection
	difference
)

func (op operator) String() string {
	switch op {
	case union:
		return "Union"
	case xor:
		return "Xor"
	case intersection:
		return "Intersection"
	default:
		return "Difference"
	}
}

// Union creates a Stage emitting every element present in either operand.
// An element present in both occurs as many times as in the operand where
// it is most frequent: all left elements come first, followed by the right
// occurrences the left operand does not already account for.
func Union[V comparable](right core.Source[V], opts ...Option[V]) (core.Stage[V, V], error) {
	return newSetOp(union, right, opts)
}

// Xor creates a Stage emitting the elements present in exactly one
// operand, each with that operand's multiplicity.
func Xor[V comparable](right core.Source[V], opts ...Option[V]) (core.Stage[V, V], error) {
	return newSetOp(xor, right, opts)
}

// Intersection creates a Stage emitting the left elements also present in
// right, each at most as many times as it occurs in right.
func Intersection[V comparable](right core.Source[V], opts ...Option[V]) (core.Stage[V, V], error) {
	return newSetOp(intersection, right, opts)
}

// Difference creates a Stage emitting the left elements absent from right.
func Difference[V comparable](right core.Source[V], opts ...Option[V]) (core.Stage[V, V], error) {
	return newSetOp(difference, right, opts)
}

func newSetOp[V comparable](op operator, right core.Source[V], opts []Option[V]) (core.Stage[V, V], error) {
	if right == nil {
		return nil, core.Contract(op.String(), "right_operand_not_nil", nil, core.ErrNilParameter)
	}
	s := newSettings(opts)
	return core.NewStage(op.String(), func(ctx context.Context, upstream core.Stream[V]) core.Runner[V] {
		return &setRunner[V]{
			op:       op,
			log:      zerolog.Ctx(ctx),
			options:  s.resolve(ctx),
			hash:     s.hash,
			upstream: upstream,
			right:    core.Pull(core.Start(ctx, right)),
		}
	}), nil
}

type phase uint8

const (
	readLeft phase = iota
	readRight
	emit
)

// setRunner reads one operand term per step, then writes the result in
// chunks.
type setRunner[V comparable] struct {
	op       operator
	log      *zerolog.Logger
	options  Options
	hash     func(V) uint64
	upstream core.Stream[V]
	right    core.Stream[V]

	phase  phase
	left   []V
	rights []V
	output []V
}

func (r *setRunner[V]) Step(downstream core.Stream[V]) bool {
	switch r.phase {
	case readLeft:
		t, ok := r.upstream.Read()
		if !ok {
			r.upstream.Close()
			r.phase = readRight
			return true
		}
		if t.IsAbnormal() {
			downstream.Write(t)
			return false
		}
		r.left = append(r.left, t.Elements()...)
		return true
	case readRight:
		t, ok := r.right.Read()
		if !ok {
			r.right.Close()
			r.output = r.compute()
			r.phase = emit
			return len(r.output) > 0
		}
		if t.IsAbnormal() {
			downstream.Write(t)
			return false
		}
		r.rights = append(r.rights, t.Elements()...)
		return true
	default:
		n := min(r.options.ChunkSize, len(r.output))
		chunk := r.output[:n]
		r.output = r.output[n:]
		return downstream.Write(core.TermOf(chunk...)) == core.Open && len(r.output) > 0
	}
}

func (r *setRunner[V]) compute() []V {
	p := planFor(r.op, int64(len(r.left)), int64(len(r.rights)), r.options)

	leftBuckets, rightBuckets := p.sizes(len(r.left), len(r.rights))
	left := newSide(r.left, leftBuckets, r.hash)
	right := newSide(r.rights, rightBuckets, r.hash)

	var out []V
	switch r.op {
	case union:
		out = append(out, r.left...)
		seen := make(map[V]int)
		for _, v := range r.rights {
			seen[v]++
			if seen[v] > left.count(v) {
				out = append(out, v)
			}
		}
	case xor:
		for _, v := range r.left {
			if right.count(v) == 0 {
				out = append(out, v)
			}
		}
		for _, v := range r.rights {
			if left.count(v) == 0 {
				out = append(out, v)
			}
		}
	case intersection:
		seen := make(map[V]int)
		for _, v := range r.left {
			seen[v]++
			if seen[v] <= right.count(v) {
				out = append(out, v)
			}
		}
	case difference:
		for _, v := range r.left {
			if right.count(v) == 0 {
				out = append(out, v)
			}
		}
	}

	r.log.Debug().
		Str("stage", r.op.String()).
		Int("left", len(r.left)).
		Int("right", len(r.rights)).
		Bool("left_filter", p.leftFilter).
		Bool("right_filter", p.rightFilter).
		Int("buckets", p.buckets).
		Int("filter_negatives", left.negatives+right.negatives).
		Int("exact_scans", left.scans+right.scans).
		Int("output", len(out)).
		Msg("set operation computed")
	return out
}

func (r *setRunner[V]) Close() {
	r.upstream.Close()
	r.right.Close()
}
