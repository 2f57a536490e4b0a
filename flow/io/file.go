// Package io adapts line-oriented files and readers to pipelines.
// Reading sources write one term per step; writing stages pass their
// input through unchanged after writing it.
package io

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/lguimbarda/termflow/flow/core"
)

// DefaultBatchSize is the number of lines ReadLines writes per term.
const DefaultBatchSize = 64

// ReadLines creates a Source that opens path when first stepped and
// writes its lines, without the trailing newline, in Many terms of up to
// DefaultBatchSize elements. A file that cannot be opened or read ends the
// source with an Abnormal term.
func ReadLines(path string) core.Source[string] {
	return ReadLinesBatched(path, DefaultBatchSize)
}

// ReadLinesBatched creates a ReadLines source writing up to batchSize
// lines per term. If batchSize <= 0, every line is its own Single term.
func ReadLinesBatched(path string, batchSize int) core.Source[string] {
	return core.NewSource("io.ReadLines", func(ctx context.Context) core.Runner[string] {
		return &lineRunner{
			log:   zerolog.Ctx(ctx),
			name:  "io.ReadLines",
			path:  path,
			batch: max(batchSize, 1),
			open: func() (io.Reader, func() error, error) {
				file, err := os.Open(path)
				if err != nil {
					return nil, nil, err
				}
				return file, file.Close, nil
			},
		}
	})
}

// ReadLinesFrom creates a Source that reads lines from r. The reader is
// consumed once: opening the source a second time writes nothing.
func ReadLinesFrom(r io.Reader) core.Source[string] {
	return core.NewSource("io.ReadLinesFrom", func(ctx context.Context) core.Runner[string] {
		return &lineRunner{
			log:   zerolog.Ctx(ctx),
			name:  "io.ReadLinesFrom",
			batch: DefaultBatchSize,
			open: func() (io.Reader, func() error, error) {
				return r, nil, nil
			},
		}
	})
}

type lineRunner struct {
	log     *zerolog.Logger
	name    string
	path    string
	batch   int
	open    func() (io.Reader, func() error, error)
	scanner *bufio.Scanner
	closer  func() error
	lines   int
}

func (r *lineRunner) Step(downstream core.Stream[string]) bool {
	if r.scanner == nil {
		reader, closer, err := r.open()
		if err != nil {
			downstream.Write(core.Abnormal[string](core.NewViolation(r.name, "file_must_open", r.path, err)))
			return false
		}
		r.scanner = bufio.NewScanner(reader)
		r.closer = closer
	}

	lines := make([]string, 0, r.batch)
	for len(lines) < r.batch && r.scanner.Scan() {
		lines = append(lines, r.scanner.Text())
	}
	r.lines += len(lines)
	if len(lines) < r.batch {
		if err := r.scanner.Err(); err != nil {
			if len(lines) > 0 {
				downstream.Write(core.TermOf(lines...))
			}
			downstream.Write(core.Abnormal[string](core.NewViolation(r.name, "lines_must_scan", r.lines, err)))
			return false
		}
		if len(lines) == 0 {
			r.log.Debug().Str("path", r.path).Int("lines", r.lines).Msg("lines exhausted")
			return false
		}
	}
	return downstream.Write(core.TermOf(lines...)) == core.Open
}

func (r *lineRunner) Close() {
	if r.closer != nil {
		_ = r.closer()
		r.closer = nil
	}
}

// WriteLines creates a Stage that writes every element to path, one per
// line, truncating the file first. Terms pass through unchanged after
// being written. The file is flushed and closed when the stage finishes.
func WriteLines(path string) core.Stage[string, string] {
	return writeLines("io.WriteLines", path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
}

// AppendLines is WriteLines appending to path instead of truncating it.
func AppendLines(path string) core.Stage[string, string] {
	return writeLines("io.AppendLines", path, os.O_CREATE|os.O_WRONLY|os.O_APPEND)
}

func writeLines(name, path string, flag int) core.Stage[string, string] {
	return core.NewStage(name, func(ctx context.Context, upstream core.Stream[string]) core.Runner[string] {
		return &writeRunner{
			name:     name,
			evidence: path,
			upstream: upstream,
			open: func() (io.Writer, func() error, error) {
				file, err := os.OpenFile(path, flag, 0o644)
				if err != nil {
					return nil, nil, err
				}
				return file, file.Close, nil
			},
		}
	})
}

// WriteTo creates a Stage that writes every element to w, one per line.
// Terms pass through unchanged after being written.
func WriteTo(w io.Writer) core.Stage[string, string] {
	return core.NewStage("io.WriteTo", func(ctx context.Context, upstream core.Stream[string]) core.Runner[string] {
		return &writeRunner{
			name:     "io.WriteTo",
			upstream: upstream,
			open: func() (io.Writer, func() error, error) {
				return w, nil, nil
			},
		}
	})
}

type writeRunner struct {
	name     string
	evidence any
	upstream core.Stream[string]
	open     func() (io.Writer, func() error, error)
	writer   *bufio.Writer
	closer   func() error
}

func (r *writeRunner) Step(downstream core.Stream[string]) bool {
	t, ok := r.upstream.Read()
	if !ok {
		return false
	}
	if t.IsAbnormal() {
		downstream.Write(t)
		return false
	}
	if t.IsInfinite() {
		downstream.Write(core.Abnormal[string](core.NewViolation(r.name, "input_finite", t, core.ErrInfinite)))
		return false
	}
	if r.writer == nil {
		w, closer, err := r.open()
		if err != nil {
			downstream.Write(core.Abnormal[string](core.NewViolation(r.name, "file_must_open", r.evidence, err)))
			return false
		}
		r.writer = bufio.NewWriter(w)
		r.closer = closer
	}
	for _, line := range t.Elements() {
		if _, err := r.writer.WriteString(line + "\n"); err != nil {
			downstream.Write(core.Abnormal[string](core.NewViolation(r.name, "line_must_write", line, err)))
			return false
		}
	}
	if err := r.writer.Flush(); err != nil {
		downstream.Write(core.Abnormal[string](core.NewViolation(r.name, "line_must_write", r.evidence, err)))
		return false
	}
	return downstream.Write(t) == core.Open
}

func (r *writeRunner) Close() {
	if r.writer != nil {
		_ = r.writer.Flush()
	}
	if r.closer != nil {
		_ = r.closer()
		r.closer = nil
	}
}
