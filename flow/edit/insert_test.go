package edit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguimbarda/termflow/flow"
	"github.com/lguimbarda/termflow/flow/edit"
)

func TestInsertAt(t *testing.T) {
	tests := []struct {
		name    string
		input   flow.Source[string]
		indices []int
		want    []string
	}{
		{
			name:    "inside a many term",
			input:   flow.Of("10", "9", "8", "7", "6", "5"),
			indices: []int{3},
			want:    []string{"10", "9", "8", "A", "B", "7", "6", "5"},
		},
		{
			name:    "between single terms",
			input:   flow.FromSlice([]string{"10", "9", "8", "7", "6", "5"}),
			indices: []int{3},
			want:    []string{"10", "9", "8", "A", "B", "7", "6", "5"},
		},
		{
			name:    "at the start",
			input:   flow.Of("x", "y"),
			indices: []int{0},
			want:    []string{"A", "B", "x", "y"},
		},
		{
			name:    "at the end",
			input:   flow.Of("x", "y"),
			indices: []int{2},
			want:    []string{"x", "y", "A", "B"},
		},
		{
			name:    "several positions",
			input:   flow.Of("a", "b", "c", "d"),
			indices: []int{1, 3},
			want:    []string{"a", "A", "B", "b", "c", "A", "B", "d"},
		},
		{
			name:    "repeated position",
			input:   flow.Of("a", "b"),
			indices: []int{1, 1},
			want:    []string{"a", "A", "B", "A", "B", "b"},
		},
		{
			name:    "passed position inserts immediately",
			input:   flow.Of("a", "b", "c"),
			indices: []int{2, 1},
			want:    []string{"a", "b", "A", "B", "A", "B", "c"},
		},
		{
			name:    "no positions",
			input:   flow.Of("a", "b"),
			indices: nil,
			want:    []string{"a", "b"},
		},
		{
			name:    "into an empty input",
			input:   flow.Empty[string](),
			indices: []int{0},
			want:    []string{"A", "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage, err := edit.InsertAt(tt.indices, flow.Of("A", "B"))
			require.NoError(t, err)

			got, err := flow.Slice(context.Background(), flow.Through(tt.input, stage))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInsert_IndexBeyondInput(t *testing.T) {
	stage, err := edit.InsertAt([]int{1, 5}, flow.Of(0))
	require.NoError(t, err)

	got, err := flow.Slice(context.Background(), flow.Through(flow.Of(1, 2, 3), stage))
	require.ErrorIs(t, err, flow.ErrIndexOutOfRange)
	assert.Equal(t, []int{1, 0, 2, 3}, got)

	var v *flow.Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "Insert", v.Stage)
	assert.EqualValues(t, 5, v.Evidence)
}

func TestInsert_NegativeIndex(t *testing.T) {
	_, err := edit.InsertAt([]int{2, -1}, flow.Of(0))
	assert.ErrorIs(t, err, flow.ErrContract)
	assert.ErrorIs(t, err, flow.ErrNegativeIndex)

	stage, err := edit.Insert(flow.Of(-3), flow.Of(0))
	require.NoError(t, err)
	_, err = flow.Slice(context.Background(), flow.Through(flow.Of(1, 2), stage))
	assert.ErrorIs(t, err, flow.ErrNegativeIndex)
	assert.NotErrorIs(t, err, flow.ErrContract)
}

func TestInsert_NilParameters(t *testing.T) {
	_, err := edit.Insert[int](nil, flow.Of(0))
	assert.ErrorIs(t, err, flow.ErrNilParameter)

	_, err = edit.Insert[int](flow.Of(0), nil)
	assert.ErrorIs(t, err, flow.ErrNilParameter)
}

func TestInsert_IndicesFromStream(t *testing.T) {
	stage, err := edit.Insert(flow.Concat(flow.Once(1), flow.Empty[int](), flow.Of(2)), flow.Once("-"))
	require.NoError(t, err)

	got, err := flow.Slice(context.Background(), flow.Through(flow.Of("a", "b", "c"), stage))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "-", "b", "-", "c"}, got)
}

func TestInsert_SplitsCyclicalTerm(t *testing.T) {
	src := flow.Must(flow.Cycle([]int{1}, []int{2, 3}))
	stage, err := edit.InsertAt([]int{4}, flow.Once(0))
	require.NoError(t, err)

	terms, err := flow.CollectN(context.Background(), flow.Through(src, stage), 8)
	require.NoError(t, err)

	var got []int
	for _, term := range terms {
		got = append(got, term.Elements()...)
	}
	assert.Equal(t, []int{1, 2, 3, 2, 0, 3, 2, 3}, got)
}

func TestInsert_AbnormalPayload(t *testing.T) {
	v := &flow.Violation{Stage: "test", Contract: "fails", Cause: flow.ErrInfinite}
	stage, err := edit.InsertAt([]int{1}, flow.Fail[int](v))
	require.NoError(t, err)

	got, err := flow.Slice(context.Background(), flow.Through(flow.Of(1, 2), stage))
	assert.ErrorIs(t, err, flow.ErrInfinite)
	assert.Equal(t, []int{1}, got)
}
