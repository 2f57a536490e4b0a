package edit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lguimbarda/termflow/flow/core"
	"github.com/lguimbarda/termflow/flow/filter"
)

type anchor uint8

const (
	fromFirst anchor = iota
	fromStart
	fromEnd
	fromMiddle
	rotate
)

// Target describes where Move places the selected elements. Positions are
// counted in the stream that remains once the selected elements have been
// removed, so removal always happens before re-insertion.
type Target struct {
	anchor anchor
	offset int64
}

// By places the selected elements offset positions away from where the
// first of them was found.
func By(offset int64) Target { return Target{anchor: fromFirst, offset: offset} }

// To places the selected elements before the element at index.
func To(index int64) Target { return Target{anchor: fromStart, offset: index} }

// ToOffsetFromEnd places the selected elements offset positions before the
// end of the stream.
func ToOffsetFromEnd(offset int64) Target { return Target{anchor: fromEnd, offset: offset} }

// ToOffsetFromMiddle places the selected elements offset positions away
// from the middle of the stream.
func ToOffsetFromMiddle(offset int64) Target { return Target{anchor: fromMiddle, offset: offset} }

// Rotate is By with wraparound: positions past either end continue from
// the other one.
func Rotate(offset int64) Target { return Target{anchor: rotate, offset: offset} }

func (t Target) String() string {
	switch t.anchor {
	case fromFirst:
		return fmt.Sprintf("By(%d)", t.offset)
	case fromStart:
		return fmt.Sprintf("To(%d)", t.offset)
	case fromEnd:
		return fmt.Sprintf("ToOffsetFromEnd(%d)", t.offset)
	case fromMiddle:
		return fmt.Sprintf("ToOffsetFromMiddle(%d)", t.offset)
	default:
		return fmt.Sprintf("Rotate(%d)", t.offset)
	}
}

// position resolves the target against a stream of size stationary
// elements whose first selected element was found at first.
func (t Target) position(stationary, first int64) int64 {
	switch t.anchor {
	case fromFirst:
		return first + t.offset
	case fromStart:
		return t.offset
	case fromEnd:
		return stationary - t.offset
	case fromMiddle:
		return stationary/2 + t.offset
	default:
		slots := stationary + 1
		return ((first+t.offset)%slots + slots) % slots
	}
}

// Move creates a Stage that relocates the elements chosen by an upstream
// filter.Select to target, keeping their relative order. Discarded
// elements stay in place. A target outside the stream ends the stage with
// an Abnormal term; Rotate wraps instead.
//
// Move needs its whole input before it can write anything, so Cyclical
// input is rejected with an Abnormal term.
func Move[V any](target Target) (core.Stage[filter.Selection[V], V], error) {
	if target.offset < 0 && (target.anchor == fromStart || target.anchor == fromEnd) {
		return nil, core.Contract("Move", "offset_not_negative", target.offset, core.ErrNegativeIndex)
	}
	return core.NewStage("Move", func(ctx context.Context, upstream core.Stream[filter.Selection[V]]) core.Runner[V] {
		zerolog.Ctx(ctx).Debug().Str("stage", "Move").Stringer("target", target).Msg("instantiated")
		return &mover[V]{upstream: upstream, target: target, first: -1}
	}), nil
}

type mover[V any] struct {
	upstream core.Stream[filter.Selection[V]]
	target   Target

	stationary []V
	moved      []V
	first      int64 // original index of the first selected element
	index      int64

	output []core.Term[V]
	ready  bool
}

func (m *mover[V]) Step(downstream core.Stream[V]) bool {
	if m.ready {
		if len(m.output) == 0 {
			return false
		}
		t := m.output[0]
		m.output = m.output[1:]
		return downstream.Write(t) == core.Open && len(m.output) > 0
	}

	t, ok := m.upstream.Read()
	if !ok {
		return m.place(downstream)
	}
	if out, ok := core.Retype[V](t); ok {
		if t.IsAbnormal() {
			downstream.Write(out)
			return false
		}
		return true
	}
	if t.IsInfinite() {
		downstream.Write(core.Abnormal[V](core.NewViolation("Move", "input_finite", t, core.ErrInfinite)))
		return false
	}
	for _, s := range t.Elements() {
		if s.Discarded {
			m.stationary = append(m.stationary, s.Value)
		} else {
			if m.first < 0 {
				m.first = m.index
			}
			m.moved = append(m.moved, s.Value)
		}
		m.index++
	}
	return true
}

// place computes the output once the input is exhausted.
func (m *mover[V]) place(downstream core.Stream[V]) bool {
	m.ready = true
	if len(m.moved) == 0 {
		m.output = nonEmpty(core.TermOf(m.stationary...))
		return true
	}
	n := int64(len(m.stationary))
	at := m.target.position(n, m.first)
	if at < 0 || at > n {
		downstream.Write(core.Abnormal[V](core.NewViolation("Move", "target_within_input", m.target.String(), core.ErrIndexOutOfRange)))
		return false
	}
	m.output = nonEmpty(
		core.TermOf(m.stationary[:at]...),
		core.TermOf(m.moved...),
		core.TermOf(m.stationary[at:]...),
	)
	return true
}

func nonEmpty[V any](terms ...core.Term[V]) []core.Term[V] {
	out := terms[:0]
	for _, t := range terms {
		if t.Kind() != core.KindAbsent {
			out = append(out, t)
		}
	}
	return out
}
