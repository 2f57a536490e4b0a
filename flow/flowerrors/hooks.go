package flowerrors

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/lguimbarda/termflow/flow/core"
)

// This file provides hooks-based violation observation utilities.
// These hooks observe Abnormal terms for logging, counting, and collection
// purposes. They do not modify the data flow - for that, use the stages in
// error.go.

// ViolationCounter counts violations that match a predicate.
// A counter may be shared by pipelines driven on different goroutines.
type ViolationCounter struct {
	predicate func(*core.Violation) bool
	count     atomic.Int64
}

// Count returns the number of violations counted.
func (c *ViolationCounter) Count() int64 {
	return c.count.Load()
}

// WithViolationCounter attaches a counting hook for type T and returns the
// counter. If predicate is nil, all violations are counted.
func WithViolationCounter[T any](ctx context.Context, predicate func(*core.Violation) bool) (context.Context, *ViolationCounter) {
	if predicate == nil {
		predicate = func(*core.Violation) bool { return true }
	}
	counter := &ViolationCounter{predicate: predicate}
	ctx = core.WithHooks(ctx, core.Hooks[T]{
		OnAbnormal: func(v *core.Violation) {
			if counter.predicate(v) {
				counter.count.Add(1)
			}
		},
	})
	return ctx, counter
}

// ViolationCollector collects violations for later inspection.
type ViolationCollector struct {
	mu            sync.Mutex
	violations    []*core.Violation
	predicate     func(*core.Violation) bool
	maxViolations int // 0 = unlimited
}

// CollectorOption configures a ViolationCollector.
type CollectorOption func(*ViolationCollector)

// WithPredicate filters which violations to collect.
func WithPredicate(predicate func(*core.Violation) bool) CollectorOption {
	return func(c *ViolationCollector) {
		c.predicate = predicate
	}
}

// WithMaxViolations limits the number of violations to collect.
func WithMaxViolations(max int) CollectorOption {
	return func(c *ViolationCollector) {
		c.maxViolations = max
	}
}

// Violations returns a copy of all collected violations.
func (c *ViolationCollector) Violations() []*core.Violation {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]*core.Violation, len(c.violations))
	copy(result, c.violations)
	return result
}

// Count returns the number of collected violations.
func (c *ViolationCollector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.violations)
}

// ByContract groups the collected violations by contract name.
func (c *ViolationCollector) ByContract() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int)
	for _, v := range c.violations {
		out[v.Contract]++
	}
	return out
}

// WithViolationCollector attaches a collecting hook for type T and returns
// the collector.
func WithViolationCollector[T any](ctx context.Context, opts ...CollectorOption) (context.Context, *ViolationCollector) {
	collector := &ViolationCollector{
		predicate: func(*core.Violation) bool { return true },
	}
	for _, opt := range opts {
		opt(collector)
	}

	ctx = core.WithHooks(ctx, core.Hooks[T]{
		OnAbnormal: func(v *core.Violation) {
			if !collector.predicate(v) {
				return
			}
			collector.mu.Lock()
			defer collector.mu.Unlock()
			if collector.maxViolations > 0 && len(collector.violations) >= collector.maxViolations {
				return
			}
			collector.violations = append(collector.violations, v)
		},
	})
	return ctx, collector
}

// OnAbnormalDo attaches a violation handler hook for type T.
func OnAbnormalDo[T any](ctx context.Context, handler func(*core.Violation)) context.Context {
	return core.WithHooks(ctx, core.Hooks[T]{
		OnAbnormal: handler,
	})
}
