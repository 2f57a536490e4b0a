package combine

import (
	"math"

	"github.com/lguimbarda/termflow/flow/bloom"
)

// plan records which operands get a Bloom filter.
type plan struct {
	leftFilter  bool
	rightFilter bool
	buckets     int
}

// planFor decides the filter strategy of op for operands of the given
// sizes. Filters only ever shortcut a negative answer; every positive
// answer is confirmed by an exact scan.
func planFor(op operator, left, right int64, o Options) plan {
	if left == 0 || right == 0 {
		return plan{}
	}
	total := left + right
	if total < left {
		total = math.MaxInt64
	}
	if total < o.FilterThreshold {
		return plan{}
	}
	p := plan{buckets: bloom.Size(total, o.BucketsPerElement, o.MaxBuckets)}
	switch op {
	case union:
		// The right pass is checked against the left operand.
		p.leftFilter = left >= o.SideThreshold
	case xor:
		p.leftFilter = left >= o.SideThreshold
		p.rightFilter = right >= o.SideThreshold
	default:
		p.rightFilter = right >= o.SideThreshold
	}
	return p
}

// sizes returns the bucket count of each filter, 0 for none. When both
// operands get a filter, the smaller operand's filter is one bucket
// smaller; on equal sizes the left one is.
func (p plan) sizes(left, right int) (leftBuckets, rightBuckets int) {
	if p.leftFilter {
		leftBuckets = p.buckets
	}
	if p.rightFilter {
		rightBuckets = p.buckets
	}
	if p.leftFilter && p.rightFilter {
		if left <= right {
			leftBuckets = max(p.buckets-1, 1)
		} else {
			rightBuckets = max(p.buckets-1, 1)
		}
	}
	return leftBuckets, rightBuckets
}

// side is one materialized operand, with an optional filter in front of
// its exact membership count.
type side[V comparable] struct {
	values []V
	filter *bloom.Filter[V]
	counts map[V]int

	negatives int // lookups answered by the filter alone
	scans     int // exact scans performed
}

func newSide[V comparable](values []V, buckets int, hash bloom.Hasher[V]) *side[V] {
	s := &side[V]{values: values, counts: make(map[V]int)}
	if buckets > 0 {
		s.filter = bloom.New(buckets, bloom.WithHasher(hash))
		for _, v := range values {
			s.filter.Add(v)
		}
	}
	return s
}

// count returns how many times v occurs in the operand.
func (s *side[V]) count(v V) int {
	if s.filter != nil && !s.filter.MightContain(v) {
		s.negatives++
		return 0
	}
	if n, ok := s.counts[v]; ok {
		return n
	}
	n := 0
	for _, x := range s.values {
		if x == v {
			n++
		}
	}
	s.counts[v] = n
	s.scans++
	return n
}
