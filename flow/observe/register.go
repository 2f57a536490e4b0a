package observe

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/lguimbarda/termflow/flow/core"
)

// Hook registration helpers. Each attaches one callback for type T; they
// compose with each other and with core.WithHooks in FIFO order.

// WithTermHook attaches a callback invoked for every committed term.
func WithTermHook[T any](ctx context.Context, callback func(core.Term[T])) context.Context {
	return core.WithHooks(ctx, core.Hooks[T]{OnTerm: callback})
}

// WithAbnormalHook attaches a callback invoked for a committed Abnormal term.
func WithAbnormalHook[T any](ctx context.Context, callback func(*core.Violation)) context.Context {
	return core.WithHooks(ctx, core.Hooks[T]{OnAbnormal: callback})
}

// WithStartHook attaches a callback invoked when driving starts.
func WithStartHook[T any](ctx context.Context, callback func()) context.Context {
	return core.WithHooks(ctx, core.Hooks[T]{OnStart: callback})
}

// WithCompleteHook attaches a callback invoked with the final Stats.
func WithCompleteHook[T any](ctx context.Context, callback func(core.Stats)) context.Context {
	return core.WithHooks(ctx, core.Hooks[T]{OnComplete: callback})
}

// Counter accumulates Stats over every run driven under a context.
type Counter struct {
	runs     atomic.Int64
	terms    atomic.Int64
	elements atomic.Int64
	abnormal atomic.Int64
}

// Runs returns the number of completed runs.
func (c *Counter) Runs() int64 { return c.runs.Load() }

// Terms returns the number of committed terms.
func (c *Counter) Terms() int64 { return c.terms.Load() }

// Elements returns the number of committed elements.
func (c *Counter) Elements() int64 { return c.elements.Load() }

// Abnormal returns the number of runs that ended on an Abnormal term.
func (c *Counter) Abnormal() int64 { return c.abnormal.Load() }

// WithCounter attaches a Counter for type T.
func WithCounter[T any](ctx context.Context) (context.Context, *Counter) {
	counter := &Counter{}
	ctx = core.WithHooks(ctx, core.Hooks[T]{
		OnComplete: func(s core.Stats) {
			counter.runs.Add(1)
			counter.terms.Add(s.Terms)
			counter.elements.Add(s.Elements)
			counter.abnormal.Add(s.Abnormal)
		},
	})
	return ctx, counter
}

// WithLogging attaches hooks for type T that log through the zerolog
// logger carried by ctx: run start and completion at debug level, every
// term at trace level, and a violation at warn level.
func WithLogging[T any](ctx context.Context) context.Context {
	log := zerolog.Ctx(ctx)
	return core.WithHooks(ctx, core.Hooks[T]{
		OnStart: func() {
			log.Debug().Msg("run started")
		},
		OnTerm: func(t core.Term[T]) {
			log.Trace().Stringer("kind", t.Kind()).Int64("len", t.Len()).Msg("term")
		},
		OnAbnormal: func(v *core.Violation) {
			log.Warn().
				Str("stage", v.Stage).
				Str("contract", v.Contract).
				Err(v.Cause).
				Msg("run ended abnormally")
		},
		OnComplete: func(s core.Stats) {
			log.Debug().
				Int64("steps", s.Steps).
				Int64("terms", s.Terms).
				Int64("elements", s.Elements).
				Msg("run completed")
		},
	})
}
