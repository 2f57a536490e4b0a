// Package observe provides pass-through stages and hooks for watching a
// pipeline: term metrics, value histograms, zerolog logging and
// OpenTelemetry instruments.
package observe

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/lguimbarda/termflow/flow/core"
)

// StreamMetrics holds statistics about the terms passing one point of a
// pipeline.
type StreamMetrics struct {
	// Counts
	Terms    int64
	Elements int64 // saturates at math.MaxInt64 once a Cyclical term passes
	Cyclical int64
	Abnormal int64

	// Timing
	StartTime     time.Time
	EndTime       time.Time
	FirstTermTime time.Time
	LastTermTime  time.Time
}

// Duration returns how long the metered stage was alive.
func (m StreamMetrics) Duration() time.Duration {
	return m.EndTime.Sub(m.StartTime)
}

// Meter creates a Stage that passes terms through unchanged and reports
// metrics once the stage finishes, whether its upstream was exhausted or
// its downstream closed.
func Meter[T any](onComplete func(StreamMetrics)) core.Stage[T, T] {
	return core.NewStage("Meter", func(_ context.Context, upstream core.Stream[T]) core.Runner[T] {
		return &meter[T]{
			upstream:   upstream,
			onComplete: onComplete,
			metrics:    StreamMetrics{StartTime: time.Now()},
		}
	})
}

type meter[T any] struct {
	upstream   core.Stream[T]
	onComplete func(StreamMetrics)
	metrics    StreamMetrics
}

func (m *meter[T]) Step(downstream core.Stream[T]) bool {
	t, ok := m.upstream.Read()
	if !ok {
		return false
	}

	now := time.Now()
	m.metrics.Terms++
	if m.metrics.Terms == 1 {
		m.metrics.FirstTermTime = now
	}
	m.metrics.LastTermTime = now
	switch {
	case t.IsAbnormal():
		m.metrics.Abnormal++
	case t.IsInfinite():
		m.metrics.Cyclical++
		m.metrics.Elements = math.MaxInt64
	case m.metrics.Elements < math.MaxInt64-t.Len():
		m.metrics.Elements += t.Len()
	default:
		m.metrics.Elements = math.MaxInt64
	}
	return downstream.Write(t) == core.Open
}

func (m *meter[T]) Close() {
	m.metrics.EndTime = time.Now()
	if m.onComplete != nil {
		m.onComplete(m.metrics)
	}
}

// Tap creates a Stage that calls inspect for every term and passes it
// through unchanged.
func Tap[T any](inspect func(core.Term[T])) core.Stage[T, T] {
	return core.NewStage("Tap", func(_ context.Context, upstream core.Stream[T]) core.Runner[T] {
		return core.RunnerFunc[T](func(downstream core.Stream[T]) bool {
			t, ok := upstream.Read()
			if !ok {
				return false
			}
			inspect(t)
			return downstream.Write(t) == core.Open
		})
	})
}

// Histogram tracks the distribution of values.
// It is safe for concurrent use.
type Histogram[T comparable] struct {
	mu     sync.RWMutex
	counts map[T]int64
	total  int64
}

// NewHistogram creates a new histogram.
func NewHistogram[T comparable]() *Histogram[T] {
	return &Histogram[T]{
		counts: make(map[T]int64),
	}
}

// Add records a value.
func (h *Histogram[T]) Add(value T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counts[value]++
	h.total++
}

// Count returns the count for a specific value.
func (h *Histogram[T]) Count(value T) int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.counts[value]
}

// Total returns the total count.
func (h *Histogram[T]) Total() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// Counts returns a copy of all counts.
func (h *Histogram[T]) Counts() map[T]int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make(map[T]int64, len(h.counts))
	for k, v := range h.counts {
		result[k] = v
	}
	return result
}

// MeterHistogram creates a Stage that records every element in histogram.
// A Cyclical term is recorded as its header and one pass of its cycle.
func MeterHistogram[T comparable](histogram *Histogram[T]) core.Stage[T, T] {
	return core.Named("MeterHistogram", Tap(func(t core.Term[T]) {
		for _, v := range t.Elements() {
			histogram.Add(v)
		}
	}))
}
