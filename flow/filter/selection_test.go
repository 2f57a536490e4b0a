package filter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lguimbarda/termflow/flow"
	"github.com/lguimbarda/termflow/flow/filter"
)

func TestSelect(t *testing.T) {
	ctx := context.Background()
	odd := flow.Must(filter.Select(func(n int) bool { return n%2 == 1 }))

	got, err := flow.Slice(ctx, flow.Through(flow.Of(1, 2, 3), odd))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []filter.Selection[int]{filter.Selected(1), filter.Discarded(2), filter.Selected(3)}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	if name := odd.Name(); name != "Select" {
		t.Errorf("Name() = %q, want Select", name)
	}
	if _, err := filter.Select[int](nil); !errors.Is(err, flow.ErrNilParameter) {
		t.Errorf("Select(nil) error = %v, want ErrNilParameter", err)
	}
}

func TestSelectIndex(t *testing.T) {
	ctx := context.Background()
	second := flow.Must(filter.SelectIndex[string](func(i int64) bool { return i == 1 || i == 3 }))

	got, err := flow.Slice(ctx, flow.Through(flow.Concat(flow.Of("a", "b"), flow.Of("c", "d")), second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []filter.Selection[string]{
		filter.Discarded("a"), filter.Selected("b"), filter.Discarded("c"), filter.Selected("d"),
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	t.Run("cyclical counts one pass", func(t *testing.T) {
		src := flow.Must(flow.Cycle([]string{"h"}, []string{"x", "y"}))
		terms, err := flow.Collect(ctx, flow.Through(src, second))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(terms) != 1 || terms[0].Kind() != flow.KindCyclical {
			t.Fatalf("got %v, want one cyclical term", terms)
		}
		header := terms[0].Header()
		if len(header) != 3 || !header[0].Discarded || header[1].Discarded || !header[2].Discarded {
			t.Errorf("header = %+v, want only position 1 selected", header)
		}
		for _, s := range terms[0].Cycle() {
			if !s.Discarded {
				t.Errorf("cycle element %+v selected, want discarded", s)
			}
		}
	})
}

func TestUnwrap(t *testing.T) {
	ctx := context.Background()
	pipeline := flow.Then(flow.Must(filter.Select(func(n int) bool { return n > 1 })), filter.Unwrap[int]())

	got, err := flow.Slice(ctx, flow.Through(flow.Of(1, 2, 3), pipeline))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
