// Package bloom provides a fixed-size probabilistic membership filter.
//
// A Filter answers MightContain with one-sided error: a false answer is
// certain, a true answer may be a false positive. Filters are sized once,
// used by a single owner and then discarded.
package bloom

import (
	"math/bits"
)

const (
	// DefaultHashes is the number of bucket positions set per element.
	DefaultHashes = 3
	// BucketsPerElement is the default sizing ratio used by Size.
	BucketsPerElement = 15
	// MaxBuckets caps the size of any filter built by Size.
	MaxBuckets = 65536
)

// Hasher maps a value to a 64-bit digest. Values that compare equal must
// hash equally.
type Hasher[V any] func(V) uint64

// Filter is a Bloom filter over values of type V.
type Filter[V any] struct {
	bits    []uint64
	buckets uint64
	hashes  int
	hash    Hasher[V]
	added   int
}

// Option configures a Filter.
type Option[V any] func(*Filter[V])

// WithHasher replaces the default xxhash-based hasher.
func WithHasher[V any](h Hasher[V]) Option[V] {
	return func(f *Filter[V]) {
		if h != nil {
			f.hash = h
		}
	}
}

// WithHashes sets how many bucket positions each element occupies.
func WithHashes[V any](k int) Option[V] {
	return func(f *Filter[V]) {
		if k > 0 {
			f.hashes = k
		}
	}
}

// New creates a Filter with the given number of buckets (at least 1).
func New[V comparable](buckets int, opts ...Option[V]) *Filter[V] {
	buckets = max(buckets, 1)
	f := &Filter[V]{
		bits:    make([]uint64, (buckets+63)/64),
		buckets: uint64(buckets),
		hashes:  DefaultHashes,
		hash:    Hash[V],
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Size returns the number of buckets for a filter expected to hold total
// elements: total*perElement capped at maxBuckets. Non-positive arguments
// fall back to BucketsPerElement and MaxBuckets.
func Size(total int64, perElement, maxBuckets int) int {
	if perElement <= 0 {
		perElement = BucketsPerElement
	}
	if maxBuckets <= 0 {
		maxBuckets = MaxBuckets
	}
	if total <= 0 {
		return 1
	}
	if total > int64(maxBuckets/perElement) {
		return maxBuckets
	}
	return int(total) * perElement
}

// Add records v in the filter.
func (f *Filter[V]) Add(v V) {
	h1, h2 := split(f.hash(v))
	for i := range f.hashes {
		pos := (h1 + uint64(i)*h2) % f.buckets
		f.bits[pos/64] |= 1 << (pos % 64)
	}
	f.added++
}

// MightContain reports whether v may have been added. A false result is
// certain.
func (f *Filter[V]) MightContain(v V) bool {
	h1, h2 := split(f.hash(v))
	for i := range f.hashes {
		pos := (h1 + uint64(i)*h2) % f.buckets
		if f.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}

// Buckets returns the filter's size in buckets.
func (f *Filter[V]) Buckets() int { return int(f.buckets) }

// Added returns how many elements were added.
func (f *Filter[V]) Added() int { return f.added }

// FillRatio returns the fraction of buckets set, a rough indicator of the
// false positive rate.
func (f *Filter[V]) FillRatio() float64 {
	set := 0
	for _, w := range f.bits {
		set += bits.OnesCount64(w)
	}
	return float64(set) / float64(f.buckets)
}

// split derives the two hashes used for double hashing. The second is
// forced odd so that positions never collapse onto one bucket.
func split(h uint64) (uint64, uint64) {
	return h, bits.RotateLeft64(h, 32) | 1
}
