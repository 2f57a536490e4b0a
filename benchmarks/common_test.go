// Package benchmarks provides comparative benchmarks of termflow against
// popular Go collection and stream processing libraries.
package benchmarks

import (
	"context"
	"time"
)

// Test data sizes
const (
	SmallSize  = 100
	MediumSize = 1_000
	LargeSize  = 10_000
)

// generateInts creates a slice of integers for benchmarking.
func generateInts(n int) []int {
	data := make([]int, n)
	for i := range data {
		data[i] = i
	}
	return data
}

// generateOverlap creates two operands of n elements each sharing half of
// their values, with every shared value repeated twice on the right.
func generateOverlap(n int) (left, right []int) {
	left = generateInts(n)
	right = make([]int, 0, n)
	for i := n / 2; len(right) < n; i++ {
		right = append(right, i)
		if i < n && len(right) < n {
			right = append(right, i)
		}
	}
	return left, right
}

// Common transformation functions used across benchmarks
// Note: termflow's Map expects func(IN) (OUT, error) signature

// squareWithErr returns the square of an integer (termflow compatible).
func squareWithErr(x int) (int, error) {
	return x * x, nil
}

// square returns the square of an integer (for other libraries).
func square(x int) int {
	return x * x
}

// isEven returns true if the number is even.
func isEven(x int) bool {
	return x%2 == 0
}

// expensiveSquare simulates enough work to make parallelization worthwhile.
func expensiveSquare(x int) int {
	time.Sleep(time.Microsecond)
	return x * x
}

// Background context for benchmarks
var ctx = context.Background()
