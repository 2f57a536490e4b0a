package core

import "slices"

// Buffer is a replayable Stream. Terms are retained after they are read
// and Reset rewinds the read position to the first Term.
//
// A Buffer fed by a producer fills lazily: reads past the retained content
// step the producer. Like every stream, a Buffer has a single owner.
type Buffer[V any] struct {
	ledger
	retained  []Term[V]
	pos       int
	producer  Runner[V]
	exhausted bool
}

// NewBuffer creates a Buffer filled on demand by producer.
func NewBuffer[V any](producer Runner[V]) *Buffer[V] {
	return &Buffer[V]{producer: producer}
}

// BufferOf creates an Open Buffer holding the given terms.
func BufferOf[V any](terms ...Term[V]) *Buffer[V] {
	b := &Buffer[V]{}
	for _, t := range terms {
		b.Write(t)
	}
	return b
}

// NewSink creates a Buffer that collects whatever is written to it.
// With a positive limit the sink seals itself once limit elements have been
// committed; the write that reaches the limit is truncated to fit and
// already reports Closed.
func NewSink[V any](limit int64) *Buffer[V] {
	return &Buffer[V]{ledger: ledger{limit: max(limit, 0)}}
}

func (b *Buffer[V]) Read() (Term[V], bool) {
	for b.pos >= len(b.retained) {
		if !b.fill() {
			return Term[V]{}, false
		}
	}
	t := b.retained[b.pos]
	b.pos++
	return t, true
}

// fill steps the producer once, reporting false when no more terms can arrive.
func (b *Buffer[V]) fill() bool {
	if b.producer == nil || b.exhausted {
		return false
	}
	if !b.producer.Step(b) {
		b.exhausted = true
	}
	return true
}

func (b *Buffer[V]) Write(t Term[V]) State {
	t, ok := admit(&b.ledger, t)
	if ok {
		b.retained = append(b.retained, t)
	}
	return b.state
}

// Reset rewinds the read position without discarding content.
func (b *Buffer[V]) Reset() { b.pos = 0 }

// Drain reads until the producer is exhausted, so that Contents and Len
// describe the whole input. The read position is left unchanged.
func (b *Buffer[V]) Drain() {
	for b.fill() {
	}
}

// Contents returns the Terms retained so far.
func (b *Buffer[V]) Contents() []Term[V] { return slices.Clone(b.retained) }

// Close seals the Buffer and releases its producer. Retained terms stay
// readable.
func (b *Buffer[V]) Close() {
	b.state = Closed
	if b.producer != nil && !b.exhausted {
		b.exhausted = true
		closeRunner(b.producer)
	}
}
