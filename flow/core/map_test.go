package core

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"testing"
)

func TestMap(t *testing.T) {
	ctx := context.Background()
	itoa := Map(func(v int) (string, error) { return strconv.Itoa(v), nil })

	t.Run("keeps term shapes", func(t *testing.T) {
		cyc, _ := Cyclical([]int{1}, []int{2, 3})
		terms, err := Collect(ctx, Via(sourceOf(Absent[int](), Single(4), Many(5, 6), cyc), itoa))
		if err != nil {
			t.Fatalf("Collect() error = %v", err)
		}

		wantKinds := []Kind{KindAbsent, KindSingle, KindMany, KindCyclical}
		if len(terms) != len(wantKinds) {
			t.Fatalf("got %d terms, want %d", len(terms), len(wantKinds))
		}
		for i, want := range wantKinds {
			if terms[i].Kind() != want {
				t.Errorf("terms[%d] kind = %v, want %v", i, terms[i].Kind(), want)
			}
		}
		if got := terms[2].Elements(); !slices.Equal(got, []string{"5", "6"}) {
			t.Errorf("many = %v, want [5 6]", got)
		}
		if got := terms[3].Header(); !slices.Equal(got, []string{"1"}) {
			t.Errorf("cyclical header = %v, want [1]", got)
		}
		if got := terms[3].Cycle(); !slices.Equal(got, []string{"2", "3"}) {
			t.Errorf("cyclical cycle = %v, want [2 3]", got)
		}
	})

	t.Run("abnormal passes through", func(t *testing.T) {
		v := NewViolation("Upstream", "fails", nil, ErrNegativeIndex)
		terms, _ := Collect(ctx, Via(sourceOf(Abnormal[int](v), Single(1)), itoa))
		if len(terms) != 1 || terms[0].Violation() != v {
			t.Errorf("terms = %v, want the upstream violation only", terms)
		}
	})

	t.Run("error becomes abnormal", func(t *testing.T) {
		errOdd := errors.New("odd")
		stage := Map(func(v int) (int, error) {
			if v%2 == 1 {
				return 0, errOdd
			}
			return v, nil
		})

		values, err := Slice(ctx, Via(sourceOf(Single(2), Many(4, 5), Single(6)), stage))
		if !errors.Is(err, errOdd) {
			t.Fatalf("Slice() error = %v, want errOdd", err)
		}
		if !slices.Equal(values, []int{2}) {
			t.Errorf("Slice() = %v, want [2]", values)
		}
	})

	t.Run("panic becomes abnormal", func(t *testing.T) {
		stage := Map(func(v int) (int, error) {
			if v == 3 {
				panic("three")
			}
			return v, nil
		})

		_, err := Slice(ctx, Via(sourceOf(Single(1), Single(3)), stage))
		var p ErrPanic
		if !errors.As(err, &p) {
			t.Fatalf("Slice() error = %v, want ErrPanic", err)
		}
		if p.Value != "three" {
			t.Errorf("panic value = %v, want three", p.Value)
		}
	})
}
