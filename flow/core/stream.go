// package core defines the core abstractions for term-stream processing,
// including terms, streams, buffers, stages and their step protocol.
// It provides the foundational building blocks for creating complex
// data processing pipelines in a modular and composable manner.
//
// Execution is single-threaded and pull-driven: a caller drives a Runner
// by calling Step until it returns false. A Runner, and the streams bound
// to it, must only ever be stepped by one caller at a time.
//
// NOTE: this package should have no dependencies outside the standard
// library, including other flow packages.
package core

// State reports whether a Stream still accepts writes.
type State uint8

const (
	Open State = iota
	Closed
)

func (s State) String() string {
	if s == Closed {
		return "closed"
	}
	return "open"
}

// Stream is a directional channel of Terms between two stages.
// Writes on a Closed stream are no-ops that return Closed.
type Stream[V any] interface {
	// Read pulls the next Term, returning false once the stream is exhausted.
	Read() (Term[V], bool)
	// Write commits one Term and reports whether the stream is still Open.
	Write(Term[V]) State
	// Len is the number of elements committed so far. It saturates at
	// math.MaxInt64 once a Cyclical term has been written.
	Len() int64
	// Terms is the number of Terms committed so far.
	Terms() int64
	State() State
	// Close seals the stream and releases its producer, if any.
	Close()
}

// Closer is implemented by runners and streams holding resources that
// must be released when their consumer stops early.
type Closer interface {
	Close()
}

// ledger tracks the write side shared by every stream implementation.
type ledger struct {
	state  State
	length int64
	terms  int64
	limit  int64 // 0 means unbounded
}

// admit applies the limit to t and records it. It returns the term to
// store and false if nothing may be written.
func admit[V any](l *ledger, t Term[V]) (Term[V], bool) {
	if l.state == Closed {
		return t, false
	}
	if l.limit > 0 && t.Len() > l.limit-l.length {
		t, _ = t.SplitAt(l.limit - l.length)
	}
	l.terms++
	l.length = addLen(l.length, t.Len())
	if l.limit > 0 && l.length >= l.limit {
		l.state = Closed
	}
	return t, true
}

func (l *ledger) Len() int64   { return l.length }
func (l *ledger) Terms() int64 { return l.terms }
func (l *ledger) State() State { return l.state }

// pipe is a single-pass stream: terms are dropped once read.
type pipe[V any] struct {
	ledger
	queue     []Term[V]
	producer  Runner[V]
	exhausted bool
}

// NewStream creates an Open stream with no producer.
// Terms written to it can be read back once, in order.
func NewStream[V any]() Stream[V] {
	return &pipe[V]{}
}

// Pull creates a stream fed by producer. Reading from an empty stream
// steps the producer until it writes a Term or finishes.
func Pull[V any](producer Runner[V]) Stream[V] {
	return &pipe[V]{producer: producer}
}

func (p *pipe[V]) Read() (Term[V], bool) {
	for len(p.queue) == 0 {
		if p.producer == nil || p.exhausted {
			return Term[V]{}, false
		}
		if !p.producer.Step(p) {
			p.exhausted = true
		}
	}
	t := p.queue[0]
	p.queue[0] = Term[V]{}
	p.queue = p.queue[1:]
	return t, true
}

func (p *pipe[V]) Write(t Term[V]) State {
	t, ok := admit(&p.ledger, t)
	if ok {
		p.queue = append(p.queue, t)
	}
	return p.state
}

func (p *pipe[V]) Close() {
	p.state = Closed
	p.queue = nil
	if p.producer != nil && !p.exhausted {
		p.exhausted = true
		closeRunner(p.producer)
	}
}

func closeRunner[V any](r Runner[V]) {
	if c, ok := r.(Closer); ok {
		c.Close()
	}
}
