// Package repositories implements the persistence contracts of the domain
// packages on PostgreSQL.
package repositories

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode"

	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
)

// queryExecutor abstracts sql.DB and sql.Tx.
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// timedExecutor wraps a queryExecutor and records query durations, labeled
// by the leading SQL verb.
type timedExecutor struct {
	exec    queryExecutor
	metrics *prometheus.AppMetrics
}

func newTimedExecutor(exec queryExecutor, metrics *prometheus.AppMetrics) queryExecutor {
	if metrics == nil {
		metrics = prometheus.NewNopAppMetrics()
	}
	return &timedExecutor{exec: exec, metrics: metrics}
}

func (t *timedExecutor) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	defer t.observe(query, time.Now())
	return t.exec.QueryContext(ctx, query, args...)
}

func (t *timedExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	defer t.observe(query, time.Now())
	return t.exec.QueryRowContext(ctx, query, args...)
}

func (t *timedExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	defer t.observe(query, time.Now())
	return t.exec.ExecContext(ctx, query, args...)
}

func (t *timedExecutor) observe(query string, start time.Time) {
	t.metrics.DBQueryDuration.WithLabelValues(queryOperation(query)).Observe(time.Since(start).Seconds())
}

// queryOperation extracts the leading SQL verb as a bounded metric label.
func queryOperation(query string) string {
	q := strings.TrimSpace(query)
	if i := strings.IndexFunc(q, unicode.IsSpace); i > 0 {
		q = q[:i]
	}
	switch op := strings.ToLower(q); op {
	case "select", "insert", "update", "delete":
		return op
	default:
		return "other"
	}
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}
