package core

import (
	"context"
	"slices"
	"testing"
)

// takeOne forwards the first term and finishes.
func takeOne[V any]() Stage[V, V] {
	return NewStage("takeOne", func(_ context.Context, upstream Stream[V]) Runner[V] {
		return RunnerFunc[V](func(downstream Stream[V]) bool {
			if t, ok := upstream.Read(); ok {
				downstream.Write(t)
			}
			return false
		})
	})
}

func double() Stage[int, int] {
	return Map(func(v int) (int, error) { return v * 2, nil })
}

func TestGuard_IdempotentTermination(t *testing.T) {
	ctx := context.Background()
	c := &counter{n: 2}
	r := Start(ctx, c.source())
	sink := NewSink[int](0)

	for r.Step(sink) {
	}
	steps, terms := c.steps, sink.Terms()

	for range 5 {
		if r.Step(sink) {
			t.Fatal("Step() returned true after the runner finished")
		}
	}
	if c.steps != steps {
		t.Errorf("inner runner stepped %d more times after finishing", c.steps-steps)
	}
	if sink.Terms() != terms {
		t.Errorf("%d terms written after finishing", sink.Terms()-terms)
	}
	if c.closed != 1 {
		t.Errorf("inner runner closed %d times, want 1", c.closed)
	}
}

func TestGuard_DownstreamClosure(t *testing.T) {
	ctx := context.Background()
	c := &counter{n: 100}
	r := Start(ctx, c.source())
	sink := NewSink[int](2)

	if !r.Step(sink) {
		t.Fatal("first Step() = false, want true")
	}
	if r.Step(sink) {
		t.Fatal("Step() that closed the downstream returned true")
	}
	if c.steps != 2 {
		t.Errorf("inner runner stepped %d times, want 2", c.steps)
	}
	if r.Step(sink) {
		t.Error("Step() after closure returned true")
	}
	if c.steps != 2 {
		t.Errorf("inner runner stepped again after closure")
	}
	if c.closed != 1 {
		t.Errorf("inner runner closed %d times, want 1", c.closed)
	}
}

func TestGuard_AlreadyClosedDownstream(t *testing.T) {
	c := &counter{n: 100}
	r := Start(context.Background(), c.source())
	s := NewStream[int]()
	s.Close()

	if r.Step(s) {
		t.Error("Step() on a closed downstream returned true")
	}
	if c.steps != 0 {
		t.Errorf("inner runner stepped %d times, want 0", c.steps)
	}
}

func TestGuard_AbnormalEndsRunner(t *testing.T) {
	v := NewViolation("Test", "fails", nil, ErrIndexOutOfRange)
	src := sourceOf(Single(1), Abnormal[int](v), Single(3))

	terms, err := Collect(context.Background(), src)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(terms) != 2 {
		t.Fatalf("got %d terms, want 2", len(terms))
	}
	if terms[1].Violation() != v {
		t.Errorf("terms[1] = %v, want the violation", terms[1])
	}
}

func TestGuard_ClosesUpstream(t *testing.T) {
	ctx := context.Background()
	c := &counter{n: 100}

	terms, err := Collect(ctx, Via(c.source(), takeOne[int]()))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if got := elementsOf(terms); !slices.Equal(got, []int{1}) {
		t.Errorf("elements = %v, want [1]", got)
	}
	if c.closed != 1 {
		t.Errorf("upstream producer closed %d times, want 1", c.closed)
	}
	if c.steps != 1 {
		t.Errorf("upstream producer stepped %d times, want 1", c.steps)
	}
}

func TestComposition(t *testing.T) {
	ctx := context.Background()
	src := sourceOf(Single(1), Many(2, 3))

	tests := []struct {
		name string
		src  Source[int]
		want []int
	}{
		{name: "via", src: Via(src, double()), want: []int{2, 4, 6}},
		{name: "chain", src: Via(src, Chain(double(), double())), want: []int{4, 8, 12}},
		{name: "empty chain", src: Via(src, Chain[int]()), want: []int{1, 2, 3}},
		{name: "then", src: Via(src, Then(double(), takeOne[int]())), want: []int{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Slice(ctx, tt.src)
			if err != nil {
				t.Fatalf("Slice() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Slice() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("templates are reusable", func(t *testing.T) {
		piped := Via(src, double())
		for range 3 {
			got, _ := Slice(ctx, piped)
			if !slices.Equal(got, []int{2, 4, 6}) {
				t.Errorf("Slice() = %v, want [2 4 6]", got)
			}
		}
	})

	t.Run("names compose", func(t *testing.T) {
		if got := Via(src, Chain(double(), takeOne[int]())).Name(); got != "sourceOf|Map|takeOne" {
			t.Errorf("Name() = %q", got)
		}
	})
}
