// Package sql adapts database/sql to pipelines: queries become Sources
// and statements become Stages or sinks. A database failure becomes an
// Abnormal term carrying the driver error.
package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lguimbarda/termflow/flow/core"
)

// DefaultBatchSize is the number of rows Query writes per term.
const DefaultBatchSize = 64

// Scanner is a function that scans a row into a value.
type Scanner[T any] func(*sql.Rows) (T, error)

// Query creates a Source that executes a query when first stepped and
// writes its rows in Many terms of up to DefaultBatchSize elements.
// The scanner function is called for each row to convert it to the output type.
func Query[T any](db *sql.DB, query string, scanner Scanner[T], args ...any) core.Source[T] {
	return QueryBatched(db, query, scanner, DefaultBatchSize, args...)
}

// QueryBatched creates a Query source writing up to batchSize rows per
// term. If batchSize <= 0, every row is written as its own Single term.
func QueryBatched[T any](db *sql.DB, query string, scanner Scanner[T], batchSize int, args ...any) core.Source[T] {
	if batchSize <= 0 {
		batchSize = 1
	}
	return core.NewSource("sql.Query", func(ctx context.Context) core.Runner[T] {
		return &queryRunner[T]{ctx: ctx, db: db, query: query, args: args, scanner: scanner, batch: batchSize}
	})
}

type queryRunner[T any] struct {
	ctx     context.Context
	db      *sql.DB
	query   string
	args    []any
	scanner Scanner[T]
	batch   int
	rows    *sql.Rows
	count   int
}

func (r *queryRunner[T]) Step(downstream core.Stream[T]) bool {
	if r.rows == nil {
		rows, err := r.db.QueryContext(r.ctx, r.query, r.args...)
		if err != nil {
			downstream.Write(core.Abnormal[T](core.NewViolation("sql.Query", "query_must_succeed", r.query, err)))
			return false
		}
		r.rows = rows
	}

	values := make([]T, 0, r.batch)
	for len(values) < r.batch && r.rows.Next() {
		value, err := r.scanner(r.rows)
		if err != nil {
			r.flush(values, downstream)
			downstream.Write(core.Abnormal[T](core.NewViolation("sql.Query", "row_must_scan", r.count+len(values), err)))
			return false
		}
		values = append(values, value)
	}
	if len(values) < r.batch {
		if err := r.rows.Err(); err != nil {
			r.flush(values, downstream)
			downstream.Write(core.Abnormal[T](core.NewViolation("sql.Query", "rows_must_iterate", r.query, err)))
			return false
		}
		if len(values) == 0 {
			zerolog.Ctx(r.ctx).Debug().Str("query", r.query).Int("rows", r.count).Msg("query exhausted")
			return false
		}
	}
	return r.flush(values, downstream)
}

// flush writes values, if any, and reports whether downstream is still Open.
func (r *queryRunner[T]) flush(values []T, downstream core.Stream[T]) bool {
	if len(values) == 0 {
		return downstream.State() == core.Open
	}
	r.count += len(values)
	return downstream.Write(core.TermOf(values...)) == core.Open
}

func (r *queryRunner[T]) Close() {
	if r.rows != nil {
		r.rows.Close()
	}
}

// QueryRow creates a Source that executes a query expecting a single row
// and writes it as a Single term.
func QueryRow[T any](db *sql.DB, query string, scanner func(*sql.Row) (T, error), args ...any) core.Source[T] {
	return once("sql.QueryRow", func(ctx context.Context) (T, error) {
		return scanner(db.QueryRowContext(ctx, query, args...))
	}, "row_must_scan", query)
}

// ExecResult contains the result of an exec operation.
type ExecResult struct {
	LastInsertId int64
	RowsAffected int64
}

func execResult(result sql.Result) ExecResult {
	lastID, _ := result.LastInsertId()
	rowsAffected, _ := result.RowsAffected()
	return ExecResult{LastInsertId: lastID, RowsAffected: rowsAffected}
}

// Exec creates a Source that executes a statement and writes its result.
func Exec(db *sql.DB, query string, args ...any) core.Source[ExecResult] {
	return once("sql.Exec", func(ctx context.Context) (ExecResult, error) {
		result, err := db.ExecContext(ctx, query, args...)
		if err != nil {
			return ExecResult{}, err
		}
		return execResult(result), nil
	}, "exec_must_succeed", query)
}

// Transaction creates a Source that runs fn within a database transaction
// and writes its value. If fn returns an error, the transaction is rolled
// back. Otherwise, it is committed.
func Transaction[T any](db *sql.DB, fn func(tx *sql.Tx) (T, error)) core.Source[T] {
	return once("sql.Transaction", func(ctx context.Context) (T, error) {
		var zero T
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return zero, err
		}
		value, err := fn(tx)
		if err != nil {
			_ = tx.Rollback()
			return zero, err
		}
		if err := tx.Commit(); err != nil {
			return zero, err
		}
		return value, nil
	}, "transaction_must_commit", nil)
}

// once creates a Source that calls fn on its first step and writes the
// value, or an Abnormal term naming contract.
func once[T any](name string, fn func(context.Context) (T, error), contract string, evidence any) core.Source[T] {
	return core.NewSource(name, func(ctx context.Context) core.Runner[T] {
		return core.RunnerFunc[T](func(downstream core.Stream[T]) bool {
			value, err := fn(ctx)
			if err != nil {
				downstream.Write(core.Abnormal[T](core.NewViolation(name, contract, evidence, err)))
				return false
			}
			downstream.Write(core.Single(value))
			return false
		})
	})
}

// ExecMany creates a Stage that executes a statement for each input
// element and writes the results, one term per input term. The binder
// function converts the input value to query arguments.
func ExecMany[T any](db *sql.DB, query string, binder func(T) []any) core.Stage[T, ExecResult] {
	return core.NewStage("sql.ExecMany", func(ctx context.Context, upstream core.Stream[T]) core.Runner[ExecResult] {
		return core.RunnerFunc[ExecResult](func(downstream core.Stream[ExecResult]) bool {
			t, ok := upstream.Read()
			if !ok {
				return false
			}
			if out, ok := core.Retype[ExecResult](t); ok {
				return downstream.Write(out) == core.Open
			}
			if t.IsInfinite() {
				downstream.Write(core.Abnormal[ExecResult](core.NewViolation("sql.ExecMany", "input_finite", t, core.ErrInfinite)))
				return false
			}
			elements := t.Elements()
			results := make([]ExecResult, 0, len(elements))
			for i, v := range elements {
				result, err := db.ExecContext(ctx, query, binder(v)...)
				if err != nil {
					if len(results) > 0 {
						downstream.Write(core.TermOf(results...))
					}
					downstream.Write(core.Abnormal[ExecResult](core.NewViolation("sql.ExecMany", "exec_must_succeed", i, err)))
					return false
				}
				results = append(results, execResult(result))
			}
			return downstream.Write(core.TermOf(results...)) == core.Open
		})
	})
}

// Store drives src and executes query for each element it produces, all
// within one transaction. It returns the number of rows affected. An
// Abnormal term or infinite output rolls the transaction back and is
// returned as the error.
func Store[T any](ctx context.Context, db *sql.DB, src core.Source[T], query string, binder func(T) []any) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare %q: %w", query, err)
	}
	defer stmt.Close()

	var affected int64
	for t := range core.All(ctx, src) {
		switch t.Kind() {
		case core.KindAbnormal:
			_ = tx.Rollback()
			return 0, t.Violation()
		case core.KindCyclical:
			_ = tx.Rollback()
			return 0, core.NewViolation("sql.Store", "input_finite", t, core.ErrInfinite)
		}
		for _, v := range t.Elements() {
			result, err := stmt.ExecContext(ctx, binder(v)...)
			if err != nil {
				_ = tx.Rollback()
				return 0, fmt.Errorf("exec %q: %w", query, err)
			}
			n, _ := result.RowsAffected()
			affected += n
		}
	}
	if err := ctx.Err(); err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("query", query).Int64("rows_affected", affected).Msg("stored")
	return affected, nil
}

// QueryStrings is a convenience function that queries for string slices.
// Each row is scanned into a slice of strings.
func QueryStrings(db *sql.DB, query string, args ...any) core.Source[[]string] {
	return Query(db, query, func(rows *sql.Rows) ([]string, error) {
		values, _, err := scanAny(rows)
		if err != nil {
			return nil, err
		}
		result := make([]string, len(values))
		for i, v := range values {
			switch val := v.(type) {
			case nil:
				result[i] = ""
			case []byte:
				result[i] = string(val)
			case string:
				result[i] = val
			case int64:
				result[i] = fmt.Sprintf("%d", val)
			case float64:
				result[i] = fmt.Sprintf("%g", val)
			case bool:
				result[i] = fmt.Sprintf("%t", val)
			default:
				result[i] = fmt.Sprintf("%v", val)
			}
		}
		return result, nil
	}, args...)
}

// QueryMaps is a convenience function that queries for map results.
// Each row is scanned into a map with column names as keys.
func QueryMaps(db *sql.DB, query string, args ...any) core.Source[map[string]any] {
	return Query(db, query, func(rows *sql.Rows) (map[string]any, error) {
		values, cols, err := scanAny(rows)
		if err != nil {
			return nil, err
		}
		result := make(map[string]any, len(cols))
		for i, col := range cols {
			result[col] = values[i]
		}
		return result, nil
	}, args...)
}

func scanAny(rows *sql.Rows) ([]any, []string, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	values := make([]any, len(cols))
	valuePtrs := make([]any, len(cols))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, nil, err
	}
	return values, cols, nil
}
