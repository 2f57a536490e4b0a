package combine

import (
	"context"

	"github.com/lguimbarda/termflow/flow/bloom"
	"github.com/lguimbarda/termflow/flow/core"
)

// Options tunes how set operations decide whether Bloom filters are worth
// building. Zero fields take their default value.
//
// Options attached to a context with core.WithConfig apply to every set
// operation instantiated under that context, unless the stage itself was
// built with WithOptions.
type Options struct {
	// FilterThreshold is the combined operand size below which no filter
	// is built and membership is resolved by exact scans alone.
	FilterThreshold int64 `mapstructure:"filter_threshold" validate:"gte=0"`
	// SideThreshold is the operand size below which that operand gets no
	// filter of its own.
	SideThreshold int64 `mapstructure:"side_threshold" validate:"gte=0"`
	// BucketsPerElement and MaxBuckets size the filters.
	BucketsPerElement int `mapstructure:"buckets_per_element" validate:"gte=0"`
	MaxBuckets        int `mapstructure:"max_buckets" validate:"gte=0"`
	// ChunkSize is the number of elements written per step once the
	// result is known.
	ChunkSize int `mapstructure:"chunk_size" validate:"gte=0"`
}

// DefaultOptions returns the built-in tuning.
func DefaultOptions() Options {
	return Options{
		FilterThreshold:   32,
		SideThreshold:     16,
		BucketsPerElement: bloom.BucketsPerElement,
		MaxBuckets:        bloom.MaxBuckets,
		ChunkSize:         64,
	}
}

// WithContextOptions attaches o to ctx for every set operation
// instantiated under it.
func WithContextOptions(ctx context.Context, o Options) context.Context {
	return core.WithConfig(ctx, o)
}

// merge fills the zero fields of o from fallback.
func (o Options) merge(fallback Options) Options {
	if o.FilterThreshold == 0 {
		o.FilterThreshold = fallback.FilterThreshold
	}
	if o.SideThreshold == 0 {
		o.SideThreshold = fallback.SideThreshold
	}
	if o.BucketsPerElement == 0 {
		o.BucketsPerElement = fallback.BucketsPerElement
	}
	if o.MaxBuckets == 0 {
		o.MaxBuckets = fallback.MaxBuckets
	}
	if o.ChunkSize == 0 {
		o.ChunkSize = fallback.ChunkSize
	}
	return o
}

// Option configures a set operation stage.
type Option[V comparable] func(*settings[V])

// WithOptions fixes the tuning of a stage, overriding any Options found in
// the context.
func WithOptions[V comparable](o Options) Option[V] {
	return func(s *settings[V]) {
		s.options = o
		s.fixed = true
	}
}

// WithHasher replaces the hash used by the stage's Bloom filters.
func WithHasher[V comparable](h bloom.Hasher[V]) Option[V] {
	return func(s *settings[V]) {
		if h != nil {
			s.hash = h
		}
	}
}

type settings[V comparable] struct {
	options Options
	fixed   bool
	hash    bloom.Hasher[V]
}

func newSettings[V comparable](opts []Option[V]) settings[V] {
	s := settings[V]{hash: bloom.Hash[V]}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// resolve returns the tuning in effect for one instantiation.
func (s settings[V]) resolve(ctx context.Context) Options {
	if s.fixed {
		return s.options.merge(DefaultOptions())
	}
	if o, ok := core.GetConfig[Options](ctx); ok {
		return o.merge(DefaultOptions())
	}
	return DefaultOptions()
}
