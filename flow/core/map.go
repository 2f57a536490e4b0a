package core

import (
	"context"
	"fmt"
)

// Map creates a Stage applying fn to every element. It maintains the shape
// of each term: a Single stays Single, a Many keeps its length, and a
// Cyclical term maps its header and cycle, which keeps it finitely described.
// Absent and Abnormal terms pass through retyped.
//
// An error or panic from fn turns the term into an Abnormal term carrying
// the failure, which ends the stage.
func Map[IN, OUT any](fn func(IN) (OUT, error)) Stage[IN, OUT] {
	return NewStage("Map", func(_ context.Context, upstream Stream[IN]) Runner[OUT] {
		return RunnerFunc[OUT](func(downstream Stream[OUT]) bool {
			t, ok := upstream.Read()
			if !ok {
				return false
			}
			return downstream.Write(mapTerm(t, fn)) == Open
		})
	})
}

func mapTerm[IN, OUT any](t Term[IN], fn func(IN) (OUT, error)) (out Term[OUT]) {
	defer func() {
		if r := recover(); r != nil {
			out = recovered[OUT]("Map", r)
		}
	}()

	if retyped, ok := Retype[OUT](t); ok {
		return retyped
	}
	header, err := mapAll(t.elements, fn)
	if err != nil {
		return Abnormal[OUT](NewViolation("Map", "function_must_succeed", fmt.Sprint(t), err))
	}
	if t.kind != KindCyclical {
		return Term[OUT]{kind: t.kind, elements: header}
	}
	cycle, err := mapAll(t.cycle, fn)
	if err != nil {
		return Abnormal[OUT](NewViolation("Map", "function_must_succeed", fmt.Sprint(t), err))
	}
	return Term[OUT]{kind: KindCyclical, elements: header, cycle: cycle}
}

func mapAll[IN, OUT any](in []IN, fn func(IN) (OUT, error)) ([]OUT, error) {
	out := make([]OUT, len(in))
	for i, v := range in {
		mapped, err := fn(v)
		if err != nil {
			return nil, err
		}
		out[i] = mapped
	}
	return out, nil
}
