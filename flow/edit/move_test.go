package edit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguimbarda/termflow/flow"
	"github.com/lguimbarda/termflow/flow/edit"
	"github.com/lguimbarda/termflow/flow/filter"
)

func moveOdd(target edit.Target) flow.Stage[int, int] {
	odd := flow.Must(filter.Select(func(n int) bool { return n%2 == 1 }))
	return flow.Then(odd, flow.Must(edit.Move[int](target)))
}

func TestMove(t *testing.T) {
	tests := []struct {
		name   string
		input  []int
		target edit.Target
		want   []int
	}{
		{name: "to the start", input: []int{2, 1, 4, 3}, target: edit.To(0), want: []int{1, 3, 2, 4}},
		{name: "to an index", input: []int{1, 2, 3, 4, 5}, target: edit.To(2), want: []int{2, 4, 1, 3, 5}},
		{name: "forward by offset", input: []int{1, 2, 3, 4, 5}, target: edit.By(1), want: []int{2, 1, 3, 5, 4}},
		{name: "backward by offset", input: []int{2, 4, 3, 6}, target: edit.By(-1), want: []int{2, 3, 4, 6}},
		{name: "zero offset keeps the anchor", input: []int{2, 1, 4, 3}, target: edit.By(0), want: []int{2, 1, 3, 4}},
		{name: "to the end", input: []int{1, 2, 3, 4}, target: edit.ToOffsetFromEnd(0), want: []int{2, 4, 1, 3}},
		{name: "before the end", input: []int{1, 2, 4, 6}, target: edit.ToOffsetFromEnd(1), want: []int{2, 4, 1, 6}},
		{name: "to the middle", input: []int{2, 4, 6, 8, 1}, target: edit.ToOffsetFromMiddle(0), want: []int{2, 4, 1, 6, 8}},
		{name: "rotate wraps backward", input: []int{1, 2, 4}, target: edit.Rotate(-1), want: []int{2, 4, 1}},
		{name: "rotate wraps forward", input: []int{2, 4, 1}, target: edit.Rotate(1), want: []int{1, 2, 4}},
		{name: "nothing selected", input: []int{2, 4}, target: edit.To(0), want: []int{2, 4}},
		{name: "everything selected", input: []int{1, 3}, target: edit.To(0), want: []int{1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := flow.Slice(context.Background(), flow.Through(flow.FromSlice(tt.input), moveOdd(tt.target)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMove_OutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		target edit.Target
	}{
		{name: "before the start", target: edit.By(-1)},
		{name: "past the end", target: edit.To(3)},
		{name: "offset larger than the input", target: edit.ToOffsetFromEnd(3)},
		{name: "past the middle", target: edit.ToOffsetFromMiddle(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := flow.Slice(context.Background(), flow.Through(flow.Of(1, 2, 4), moveOdd(tt.target)))
			assert.ErrorIs(t, err, flow.ErrIndexOutOfRange)
			assert.Empty(t, got)
		})
	}
}

func TestMove_NegativeTarget(t *testing.T) {
	_, err := edit.Move[int](edit.To(-1))
	assert.ErrorIs(t, err, flow.ErrContract)
	assert.ErrorIs(t, err, flow.ErrNegativeIndex)

	_, err = edit.Move[int](edit.ToOffsetFromEnd(-2))
	assert.ErrorIs(t, err, flow.ErrNegativeIndex)

	_, err = edit.Move[int](edit.By(-2))
	assert.NoError(t, err)
}

func TestMove_CyclicalInput(t *testing.T) {
	src := flow.Must(flow.Cycle([]int{1}, []int{2}))
	_, err := flow.Slice(context.Background(), flow.Through(src, moveOdd(edit.To(0))))
	assert.ErrorIs(t, err, flow.ErrInfinite)
}

func TestMove_SpansTerms(t *testing.T) {
	src := flow.Concat(flow.Of(2, 1), flow.Empty[int](), flow.Of(4, 3, 6))
	got, err := flow.Slice(context.Background(), flow.Through(src, moveOdd(edit.ToOffsetFromEnd(0))))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6, 1, 3}, got)
}

func TestTarget_String(t *testing.T) {
	assert.Equal(t, "By(-2)", edit.By(-2).String())
	assert.Equal(t, "To(3)", edit.To(3).String())
	assert.Equal(t, "Rotate(1)", edit.Rotate(1).String())
}
