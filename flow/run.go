package flow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lguimbarda/termflow/flow/config"
	"github.com/lguimbarda/termflow/flow/core"
	"github.com/lguimbarda/termflow/flow/observe"
)

// TracerName is the instrumentation scope of the spans started by Run.
const TracerName = "github.com/lguimbarda/termflow"

// Report describes one pipeline run.
type Report[T any] struct {
	RunID    string
	Source   string
	Terms    []Term[T]
	Stats    Stats
	Duration time.Duration
	// Violation is set when the run ended on an Abnormal term.
	Violation *Violation
	// Truncated is set when the source had more output than the element
	// limit let through.
	Truncated bool
}

// Err returns the Violation that ended the run, or nil.
func (r Report[T]) Err() error {
	if r.Violation == nil {
		return nil
	}
	return r.Violation
}

// Values flattens the committed terms. Infinite output is an error.
func (r Report[T]) Values() ([]T, error) {
	return core.Flatten(r.Terms)
}

// RunOption configures a single Run.
type RunOption func(*runOptions)

type runOptions struct {
	runID   string
	limit   int64
	timeout time.Duration
	metrics *observe.Metrics
	tracer  trace.Tracer
}

// WithRunID sets the run ID instead of generating one.
func WithRunID(id string) RunOption {
	return func(o *runOptions) { o.runID = id }
}

// WithLimit caps the number of elements collected. It overrides the limit
// found in the context configuration.
func WithLimit(n int64) RunOption {
	return func(o *runOptions) { o.limit = n }
}

// WithTimeout bounds the run. It overrides the timeout found in the
// context configuration.
func WithTimeout(d time.Duration) RunOption {
	return func(o *runOptions) { o.timeout = d }
}

// WithMetrics records the run on m.
func WithMetrics(m *observe.Metrics) RunOption {
	return func(o *runOptions) { o.metrics = m }
}

// WithTracer starts the run span on tracer instead of the global one.
func WithTracer(tracer trace.Tracer) RunOption {
	return func(o *runOptions) { o.tracer = tracer }
}

var (
	globalMetricsOnce sync.Once
	globalMetrics     *observe.Metrics
	globalMetricsErr  error
)

// metricsFromGlobal builds instruments on the global meter provider once.
func metricsFromGlobal() (*observe.Metrics, error) {
	globalMetricsOnce.Do(func() {
		globalMetrics, globalMetricsErr = observe.NewMetrics(otel.GetMeterProvider().Meter(observe.MeterName))
	})
	return globalMetrics, globalMetricsErr
}

// Run drives src to completion and reports what it produced.
//
// Each run gets an ID that is attached to the zerolog logger in ctx and to
// an OpenTelemetry span. Limit, timeout and metrics default to the
// config.Run found in ctx (see config.Settings.Context) and can be
// overridden with options.
//
// An Abnormal term is not an error of Run: it ends up in the report.
// The returned error is set only when the run itself could not finish,
// for instance because ctx was cancelled or the timeout expired.
func Run[T any](ctx context.Context, src Source[T], opts ...RunOption) (Report[T], error) {
	cfg, _ := core.GetConfig[config.Run](ctx)
	o := runOptions{limit: cfg.Limit, timeout: cfg.Timeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(TracerName)
	}
	if o.metrics == nil && cfg.Metrics {
		m, err := metricsFromGlobal()
		if err != nil {
			return Report[T]{RunID: o.runID, Source: src.Name()}, err
		}
		o.metrics = m
	}

	report := Report[T]{RunID: o.runID, Source: src.Name()}

	logger := zerolog.Ctx(ctx).With().Str("run_id", o.runID).Str("source", src.Name()).Logger()
	ctx = logger.WithContext(ctx)

	ctx, span := o.tracer.Start(ctx, "termflow.run", trace.WithAttributes(
		attribute.String("termflow.run_id", o.runID),
		attribute.String("termflow.source", src.Name()),
		attribute.Int64("termflow.limit", o.limit),
	))
	defer span.End()

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	ctx = core.WithHooks(ctx, core.Hooks[T]{
		OnComplete: func(s core.Stats) { report.Stats = s },
	})
	if o.metrics != nil {
		ctx = observe.WithMetrics[T](ctx, o.metrics, attribute.String("source", src.Name()))
	}

	logger.Debug().Int64("limit", o.limit).Dur("timeout", o.timeout).Msg("run started")
	start := time.Now()
	sink := core.NewSink[T](0)
	runner := core.Start(ctx, src)
	var limiter *limited[T]
	if o.limit > 0 {
		limiter = &limited[T]{remaining: o.limit}
		runner = core.Instantiate(ctx, limiter.stage(), core.Pull(runner))
	}
	err := core.Drive(ctx, runner, sink)
	report.Duration = time.Since(start)
	report.Terms = sink.Contents()
	report.Truncated = limiter != nil && limiter.truncated

	if n := len(report.Terms); n > 0 && report.Terms[n-1].IsAbnormal() {
		report.Violation = report.Terms[n-1].Violation()
	}

	span.SetAttributes(
		attribute.Int64("termflow.steps", report.Stats.Steps),
		attribute.Int64("termflow.terms", report.Stats.Terms),
		attribute.Bool("termflow.truncated", report.Truncated),
	)

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		event := logger.Warn()
		if errors.Is(err, context.DeadlineExceeded) {
			event = event.Dur("timeout", o.timeout)
		}
		event.Err(err).Msg("run interrupted")
		return report, err
	case report.Violation != nil:
		span.RecordError(report.Violation)
		span.SetStatus(codes.Error, report.Violation.Contract)
		logger.Warn().
			Str("stage", report.Violation.Stage).
			Str("contract", report.Violation.Contract).
			Err(report.Violation.Cause).
			Msg("run ended abnormally")
	default:
		span.SetStatus(codes.Ok, "")
	}

	logger.Debug().
		Int64("steps", report.Stats.Steps).
		Int64("terms", report.Stats.Terms).
		Dur("duration", report.Duration).
		Msg("run completed")
	return report, nil
}

// limited passes at most remaining elements downstream. Once the limit is
// reached it reads one more term to tell whether anything was cut.
type limited[T any] struct {
	upstream  core.Stream[T]
	remaining int64
	truncated bool
}

func (l *limited[T]) stage() core.Stage[T, T] {
	return core.NewStage("Limit", func(_ context.Context, upstream core.Stream[T]) core.Runner[T] {
		l.upstream = upstream
		return l
	})
}

func (l *limited[T]) Step(downstream core.Stream[T]) bool {
	t, ok := l.upstream.Read()
	if !ok {
		return false
	}
	if l.remaining == 0 {
		if t.Kind() == core.KindAbsent {
			return true
		}
		l.truncated = true
		return false
	}
	if t.Len() > l.remaining {
		t, _ = t.SplitAt(l.remaining)
		l.truncated = true
	}
	l.remaining -= t.Len()
	return downstream.Write(t) == core.Open && !l.truncated
}
