// Package parallel schedules several pipelines at once.
//
// Pipelines never share a runner: RoundRobin interleaves the steps of many
// runners on the calling goroutine, and the pool functions give every
// pipeline its own goroutine. In both cases each runner has exactly one
// owner stepping it.
package parallel

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lguimbarda/termflow/flow/core"
)

// task is one pipeline driven by a RoundRobin.
type task interface {
	name() string
	open(ctx context.Context)
	step() bool
	close()
	result() TaskResult
}

// TaskResult reports what one scheduled pipeline did.
type TaskResult struct {
	Name     string
	Steps    int64
	Terms    int64
	Elements int64
	Done     bool // false when the run was cancelled before the task finished
}

type sourceTask[V any] struct {
	label  string
	src    core.Source[V]
	sink   core.Stream[V]
	runner core.Runner[V]
	steps  int64
	done   bool
}

func (t *sourceTask[V]) name() string { return t.label }

func (t *sourceTask[V]) open(ctx context.Context) {
	t.runner = core.Start(ctx, t.src)
}

func (t *sourceTask[V]) step() bool {
	t.steps++
	if !t.runner.Step(t.sink) {
		t.done = true
		return false
	}
	return true
}

func (t *sourceTask[V]) close() {
	if c, ok := t.runner.(core.Closer); ok {
		c.Close()
	}
}

func (t *sourceTask[V]) result() TaskResult {
	return TaskResult{
		Name:     t.label,
		Steps:    t.steps,
		Terms:    t.sink.Terms(),
		Elements: t.sink.Len(),
		Done:     t.done,
	}
}

// RoundRobin steps every scheduled pipeline once per round until all of
// them have finished. It is not safe for concurrent use.
type RoundRobin struct {
	tasks []task
}

// NewRoundRobin creates an empty scheduler.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// Schedule adds a pipeline that writes src's output into sink. Pipelines
// are stepped in the order they were scheduled.
func Schedule[V any](rr *RoundRobin, name string, src core.Source[V], sink core.Stream[V]) {
	rr.tasks = append(rr.tasks, &sourceTask[V]{label: name, src: src, sink: sink})
}

// Len returns the number of scheduled pipelines.
func (rr *RoundRobin) Len() int { return len(rr.tasks) }

// Run drives every scheduled pipeline to completion, one step each per
// round. ctx is checked between rounds; a cancelled context closes the
// remaining pipelines and returns ctx.Err() along with the partial results.
func (rr *RoundRobin) Run(ctx context.Context) ([]TaskResult, error) {
	log := zerolog.Ctx(ctx)
	alive := make([]task, 0, len(rr.tasks))
	for _, t := range rr.tasks {
		t.open(ctx)
		alive = append(alive, t)
	}

	rounds := 0
	for len(alive) > 0 {
		if err := ctx.Err(); err != nil {
			for _, t := range alive {
				t.close()
			}
			log.Debug().Int("rounds", rounds).Int("alive", len(alive)).Msg("round robin cancelled")
			return rr.results(), err
		}
		rounds++
		next := alive[:0]
		for _, t := range alive {
			if t.step() {
				next = append(next, t)
			} else {
				log.Debug().Str("task", t.name()).Int("round", rounds).Msg("task finished")
			}
		}
		alive = next
	}
	return rr.results(), nil
}

func (rr *RoundRobin) results() []TaskResult {
	out := make([]TaskResult, len(rr.tasks))
	for i, t := range rr.tasks {
		out[i] = t.result()
	}
	return out
}

// Interleave creates a Source that takes one step from each of sources in
// turn, skipping those that have finished, so their terms alternate in a
// fixed order. An Abnormal term from any source ends the whole output.
func Interleave[V any](sources ...core.Source[V]) core.Source[V] {
	return core.NewSource("Interleave", func(ctx context.Context) core.Runner[V] {
		streams := make([]core.Stream[V], len(sources))
		for i, src := range sources {
			streams[i] = core.Pull(core.Start(ctx, src))
		}
		return &interleaver[V]{streams: streams}
	})
}

type interleaver[V any] struct {
	streams []core.Stream[V]
	next    int
}

func (r *interleaver[V]) Step(downstream core.Stream[V]) bool {
	for len(r.streams) > 0 {
		if r.next >= len(r.streams) {
			r.next = 0
		}
		t, ok := r.streams[r.next].Read()
		if !ok {
			r.streams = append(r.streams[:r.next], r.streams[r.next+1:]...)
			continue
		}
		r.next++
		return downstream.Write(t) == core.Open && !t.IsAbnormal()
	}
	return false
}

func (r *interleaver[V]) Close() {
	for _, s := range r.streams {
		s.Close()
	}
	r.streams = nil
}
