package filter_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/lguimbarda/termflow/flow"
	"github.com/lguimbarda/termflow/flow/filter"
)

func TestTake(t *testing.T) {
	tests := []struct {
		name  string
		input flow.Source[int]
		n     int64
		want  []int
	}{
		{
			name:  "take first 3",
			input: flow.FromSlice([]int{1, 2, 3, 4, 5}),
			n:     3,
			want:  []int{1, 2, 3},
		},
		{
			name:  "split a many term",
			input: flow.Of(1, 2, 3, 4, 5),
			n:     2,
			want:  []int{1, 2},
		},
		{
			name:  "take more than available",
			input: flow.FromSlice([]int{1, 2}),
			n:     5,
			want:  []int{1, 2},
		},
		{
			name:  "take zero",
			input: flow.FromSlice([]int{1, 2, 3}),
			n:     0,
			want:  []int{},
		},
		{
			name:  "take negative",
			input: flow.FromSlice([]int{1, 2, 3}),
			n:     -1,
			want:  []int{},
		},
		{
			name:  "take from empty",
			input: flow.Empty[int](),
			n:     3,
			want:  []int{},
		},
		{
			name:  "take from a cyclical term",
			input: flow.Must(flow.Cycle([]int{0}, []int{1, 2})),
			n:     6,
			want:  []int{0, 1, 2, 1, 2, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			got, err := flow.Slice(ctx, flow.Through(tt.input, filter.Take[int](tt.n)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTake_StopsUpstream(t *testing.T) {
	ctx := context.Background()
	pulled := 0
	seq := func(yield func(int) bool) {
		for i := 0; ; i++ {
			pulled++
			if !yield(i) {
				return
			}
		}
	}

	got, err := flow.Slice(ctx, flow.Through(flow.FromIter(seq), filter.Take[int](3)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got, []int{0, 1, 2}) {
		t.Errorf("got %v, want [0 1 2]", got)
	}
	if pulled > 4 {
		t.Errorf("upstream produced %d values after Take was satisfied", pulled)
	}
}

func TestSkip(t *testing.T) {
	tests := []struct {
		name  string
		input flow.Source[int]
		n     int64
		want  []int
	}{
		{name: "skip first 2", input: flow.FromSlice([]int{1, 2, 3, 4}), n: 2, want: []int{3, 4}},
		{name: "skip into a many term", input: flow.Of(1, 2, 3, 4), n: 3, want: []int{4}},
		{name: "skip everything", input: flow.Of(1, 2), n: 5, want: nil},
		{name: "skip zero", input: flow.Of(1, 2), n: 0, want: []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := flow.Slice(context.Background(), flow.Through(tt.input, filter.Skip[int](tt.n)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("skip into a cyclical term", func(t *testing.T) {
		src := flow.Must(flow.Cycle([]int{0}, []int{1, 2}))
		terms, err := flow.CollectN(context.Background(), flow.Through(src, filter.Skip[int](2)), 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got []int
		for _, term := range terms {
			got = append(got, term.Elements()...)
		}
		if !slices.Equal(got, []int{2, 1, 2, 1}) {
			t.Errorf("got %v, want [2 1 2 1]", got)
		}
	})
}

func TestTakeWhile(t *testing.T) {
	ctx := context.Background()
	small := flow.Must(filter.TakeWhile(func(n int) bool { return n < 3 }))

	got, err := flow.Slice(ctx, flow.Through(flow.Concat(flow.Of(1, 2), flow.Of(2, 3, 1), flow.Of(0)), small))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got, []int{1, 2, 2}) {
		t.Errorf("got %v, want [1 2 2]", got)
	}

	if _, err := filter.TakeWhile[int](nil); !errors.Is(err, flow.ErrNilParameter) {
		t.Errorf("TakeWhile(nil) error = %v, want ErrNilParameter", err)
	}
}

func TestSkipWhile(t *testing.T) {
	ctx := context.Background()
	small := flow.Must(filter.SkipWhile(func(n int) bool { return n < 3 }))

	got, err := flow.Slice(ctx, flow.Through(flow.Concat(flow.Of(1, 2), flow.Of(2, 3, 1), flow.Of(0)), small))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got, []int{3, 1, 0}) {
		t.Errorf("got %v, want [3 1 0]", got)
	}

	t.Run("all-matching cyclical term ends the stage", func(t *testing.T) {
		src := flow.Concat(flow.Must(flow.Cycle([]int{0}, []int{1})), flow.Of(9))
		got, err := flow.Slice(ctx, flow.Through(src, small))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("got %v, want nothing", got)
		}
	})
}
