package core

import (
	"fmt"
	"iter"
	"math"
	"reflect"
	"slices"
	"strings"
)

// Kind identifies which variant a Term holds.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindSingle
	KindMany
	KindCyclical
	KindAbnormal
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindSingle:
		return "single"
	case KindMany:
		return "many"
	case KindCyclical:
		return "cyclical"
	case KindAbnormal:
		return "abnormal"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Term is the unit of data flowing between stages.
// It exists in one of five states:
//   - Absent: zero elements
//   - Single: exactly one element
//   - Many: a finite, fully materialized run of elements
//   - Cyclical: a header followed by a non-empty cycle repeated forever
//   - Abnormal: a failure carried as data instead of being returned as an error
//
// Terms are immutable. Constructors copy the slices they are given and
// accessors return copies, so a Term can be shared freely between stages.
// The zero Term is Absent.
type Term[V any] struct {
	kind      Kind
	elements  []V // Single, Many, or the Cyclical header
	cycle     []V
	violation *Violation
}

// Absent creates a Term with no elements.
func Absent[V any]() Term[V] {
	return Term[V]{kind: KindAbsent}
}

// Single creates a Term holding exactly one element.
func Single[V any](value V) Term[V] {
	return Term[V]{kind: KindSingle, elements: []V{value}}
}

// Many creates a finite Term holding the given elements in order.
// Many with no arguments is a valid, empty plurality.
func Many[V any](values ...V) Term[V] {
	return Term[V]{kind: KindMany, elements: slices.Clone(values)}
}

// Cyclical creates an infinite Term equal to header followed by cycle
// repeated forever. An empty cycle is a contract violation.
func Cyclical[V any](header, cycle []V) (Term[V], error) {
	if len(cycle) == 0 {
		return Term[V]{}, Contract("Cyclical", "cycle_not_empty", cycle, ErrEmptyCycle)
	}
	return Term[V]{kind: KindCyclical, elements: slices.Clone(header), cycle: slices.Clone(cycle)}, nil
}

// Abnormal creates a Term carrying the given failure record downstream.
func Abnormal[V any](violation *Violation) Term[V] {
	if violation == nil {
		violation = NewViolation("Abnormal", "violation_required", nil, ErrNilParameter)
	}
	return Term[V]{kind: KindAbnormal, violation: violation}
}

// termOf builds the most specific finite Term for the given elements.
// The slice is taken over without copying.
func termOf[V any](values []V) Term[V] {
	switch len(values) {
	case 0:
		return Term[V]{kind: KindAbsent}
	case 1:
		return Term[V]{kind: KindSingle, elements: values}
	default:
		return Term[V]{kind: KindMany, elements: values}
	}
}

// TermOf creates an Absent, Single or Many Term depending on how many
// values are given.
func TermOf[V any](values ...V) Term[V] {
	return termOf(slices.Clone(values))
}

// Kind reports which variant this Term holds.
func (t Term[V]) Kind() Kind { return t.kind }

// IsAbnormal returns true if this Term carries a failure.
func (t Term[V]) IsAbnormal() bool { return t.kind == KindAbnormal }

// IsInfinite returns true for Cyclical terms.
func (t Term[V]) IsInfinite() bool { return t.kind == KindCyclical }

// Violation returns the failure record of an Abnormal term, nil otherwise.
func (t Term[V]) Violation() *Violation { return t.violation }

// Type returns the element type descriptor of this Term.
func (t Term[V]) Type() reflect.Type { return reflect.TypeFor[V]() }

// Count returns the number of distinct positions needed to describe the
// Term's content: the element count for finite terms, header plus one cycle
// for Cyclical terms, and zero for Absent and Abnormal terms.
func (t Term[V]) Count() int {
	return len(t.elements) + len(t.cycle)
}

// Len returns how many elements this Term contributes to a stream.
// Cyclical terms saturate at math.MaxInt64.
func (t Term[V]) Len() int64 {
	if t.kind == KindCyclical {
		return math.MaxInt64
	}
	return int64(len(t.elements))
}

// Elements returns a copy of the finite content of the Term.
// For Cyclical terms it returns the header followed by one pass of the cycle.
func (t Term[V]) Elements() []V {
	out := make([]V, 0, t.Count())
	out = append(out, t.elements...)
	return append(out, t.cycle...)
}

// Header returns a copy of the Cyclical header, or of the finite elements.
func (t Term[V]) Header() []V { return slices.Clone(t.elements) }

// Cycle returns a copy of the repeating part of a Cyclical term.
func (t Term[V]) Cycle() []V { return slices.Clone(t.cycle) }

// All returns an iterator over the Term's elements.
// The iterator never ends for Cyclical terms; callers must stop it.
func (t Term[V]) All() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range t.elements {
			if !yield(v) {
				return
			}
		}
		if len(t.cycle) == 0 {
			return
		}
		for {
			for _, v := range t.cycle {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// At returns the element at index i, following the cycle for Cyclical terms.
func (t Term[V]) At(i int64) (V, bool) {
	var zero V
	if i < 0 {
		return zero, false
	}
	if i < int64(len(t.elements)) {
		return t.elements[i], true
	}
	if len(t.cycle) == 0 {
		return zero, false
	}
	return t.cycle[(i-int64(len(t.elements)))%int64(len(t.cycle))], true
}

// SplitAt splits the Term before the element at offset.
// Finite terms split into a head holding the first offset elements and a
// tail holding the rest; offsets are clamped to the Term's length.
// Cyclical terms always produce a finite head and a Cyclical tail whose
// header is the remainder of the cycle it was cut from.
// Absent and Abnormal terms come back as the tail unchanged.
func (t Term[V]) SplitAt(offset int64) (head, tail Term[V]) {
	if offset < 0 {
		offset = 0
	}
	switch t.kind {
	case KindSingle, KindMany:
		n := min(offset, int64(len(t.elements)))
		return termOf(slices.Clone(t.elements[:n])), termOf(slices.Clone(t.elements[n:]))
	case KindCyclical:
		if offset <= int64(len(t.elements)) {
			head = termOf(slices.Clone(t.elements[:offset]))
			tail = Term[V]{kind: KindCyclical, elements: slices.Clone(t.elements[offset:]), cycle: t.cycle}
			return head, tail
		}
		prefix := make([]V, 0, offset)
		prefix = append(prefix, t.elements...)
		consumed := offset - int64(len(t.elements))
		for i := int64(0); i < consumed; i++ {
			prefix = append(prefix, t.cycle[i%int64(len(t.cycle))])
		}
		rest := consumed % int64(len(t.cycle))
		var header []V
		if rest > 0 {
			header = slices.Clone(t.cycle[rest:])
		}
		return termOf(prefix), Term[V]{kind: KindCyclical, elements: header, cycle: t.cycle}
	default:
		return Absent[V](), t
	}
}

func (t Term[V]) String() string {
	switch t.kind {
	case KindAbsent:
		return "Absent"
	case KindSingle:
		return fmt.Sprintf("Single(%v)", t.elements[0])
	case KindMany:
		return fmt.Sprintf("Many%v", t.elements)
	case KindCyclical:
		var sb strings.Builder
		fmt.Fprintf(&sb, "Cyclical%v(%v...)", t.elements, t.cycle)
		return sb.String()
	case KindAbnormal:
		return fmt.Sprintf("Abnormal(%v)", t.violation)
	default:
		return t.kind.String()
	}
}

// Retype converts a Term that carries no elements (Absent or Abnormal)
// to another element type. Terms with elements come back Absent and false.
func Retype[OUT, IN any](t Term[IN]) (Term[OUT], bool) {
	switch t.kind {
	case KindAbsent:
		return Absent[OUT](), true
	case KindAbnormal:
		return Abnormal[OUT](t.violation), true
	default:
		return Absent[OUT](), false
	}
}

// addLen adds stream lengths, saturating at math.MaxInt64.
func addLen(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
