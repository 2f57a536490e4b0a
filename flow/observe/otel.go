package observe

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/lguimbarda/termflow/flow/core"
)

// MeterName is the instrumentation scope used by NewMetrics callers that
// obtain their meter from a provider.
const MeterName = "github.com/lguimbarda/termflow"

// Metrics holds OpenTelemetry instruments for driven pipelines.
type Metrics struct {
	runs     metric.Int64Counter
	terms    metric.Int64Counter
	elements metric.Int64Counter
	abnormal metric.Int64Counter
	steps    metric.Int64Histogram
	duration metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	runs, err := meter.Int64Counter("termflow.runs",
		metric.WithDescription("Number of completed pipeline runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating termflow.runs counter: %w", err)
	}

	terms, err := meter.Int64Counter("termflow.terms",
		metric.WithDescription("Number of terms committed by pipeline runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating termflow.terms counter: %w", err)
	}

	elements, err := meter.Int64Counter("termflow.elements",
		metric.WithDescription("Number of finite elements committed by pipeline runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating termflow.elements counter: %w", err)
	}

	abnormal, err := meter.Int64Counter("termflow.abnormal",
		metric.WithDescription("Number of runs that ended on an Abnormal term"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating termflow.abnormal counter: %w", err)
	}

	steps, err := meter.Int64Histogram("termflow.steps",
		metric.WithDescription("Steps taken per pipeline run"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating termflow.steps histogram: %w", err)
	}

	duration, err := meter.Float64Histogram("termflow.duration",
		metric.WithDescription("Duration of pipeline runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating termflow.duration histogram: %w", err)
	}

	return &Metrics{
		runs:     runs,
		terms:    terms,
		elements: elements,
		abnormal: abnormal,
		steps:    steps,
		duration: duration,
	}, nil
}

// WithMetrics attaches hooks for type T that record every run driven
// under the returned context. A run that commits a Cyclical term records
// no elements, since the count has no finite value.
func WithMetrics[T any](ctx context.Context, m *Metrics, attrs ...attribute.KeyValue) context.Context {
	set := metric.WithAttributes(attrs...)
	var started time.Time
	return core.WithHooks(ctx, core.Hooks[T]{
		OnStart: func() {
			started = time.Now()
		},
		OnAbnormal: func(v *core.Violation) {
			m.abnormal.Add(ctx, 1, metric.WithAttributes(append(attrs[:len(attrs):len(attrs)],
				attribute.String("stage", v.Stage),
				attribute.String("contract", v.Contract),
			)...))
		},
		OnComplete: func(s core.Stats) {
			m.runs.Add(ctx, 1, set)
			m.terms.Add(ctx, s.Terms, set)
			if s.Elements < math.MaxInt64 {
				m.elements.Add(ctx, s.Elements, set)
			}
			m.steps.Record(ctx, s.Steps, set)
			m.duration.Record(ctx, time.Since(started).Seconds(), set)
		},
	})
}
