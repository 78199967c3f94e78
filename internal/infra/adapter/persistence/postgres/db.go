package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lyyw205/stock-news/internal/observability/metrics"
)

// Querier is the database handle the repositories run on. Both *sql.DB and
// circuitbreaker.DBCircuitBreaker satisfy it, so the worker can put every
// repository query behind the database circuit breaker.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Instrument wraps a Querier so every query feeds its duration into the
// database timing metrics.
func Instrument(db Querier) Querier {
	return &instrumentedQuerier{db: db}
}

type instrumentedQuerier struct {
	db Querier
}

func (q *instrumentedQuerier) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := q.db.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("query", time.Since(start))
	return rows, err
}

func (q *instrumentedQuerier) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := q.db.QueryRowContext(ctx, query, args...)
	metrics.RecordDBQuery("query_row", time.Since(start))
	return row
}

func (q *instrumentedQuerier) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	result, err := q.db.ExecContext(ctx, query, args...)
	metrics.RecordDBQuery("exec", time.Since(start))
	return result, err
}
