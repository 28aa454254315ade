package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"innercircle/internal/adapters/http/perf"
)

// SQLDB is what the SQLite stores need from a database handle.
// *sql.DB and *TimedDB both provide it.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var (
	_ SQLDB = (*sql.DB)(nil)
	_ SQLDB = (*TimedDB)(nil)
)

// DefaultSlowQuery applies when NewTimedDB gets a non-positive threshold.
const DefaultSlowQuery = 50 * time.Millisecond

// TimedDB measures every statement it forwards. Statements run inside a
// transaction go through *sql.Tx and are not measured.
type TimedDB struct {
	db        *sql.DB
	collector *perf.Collector
	slow      time.Duration
}

// NewTimedDB wraps db. collector may be nil.
func NewTimedDB(db *sql.DB, collector *perf.Collector, slow time.Duration) *TimedDB {
	if slow <= 0 {
		slow = DefaultSlowQuery
	}
	return &TimedDB{db: db, collector: collector, slow: slow}
}

// queryLabel reduces a statement to its verb and main table, e.g. "SELECT lead",
// so that samples group by shape rather than by literal text.
func queryLabel(query string) string {
	words := strings.Fields(query)
	if len(words) == 0 {
		return ""
	}
	verb := strings.ToUpper(words[0])
	var marker string
	switch verb {
	case "SELECT", "DELETE":
		marker = "FROM"
	case "INSERT":
		marker = "INTO"
	case "UPDATE":
		if len(words) > 1 {
			return verb + " " + tableName(words[1])
		}
		return verb
	default:
		return verb
	}
	for i, w := range words[:len(words)-1] {
		if strings.EqualFold(w, marker) {
			return verb + " " + tableName(words[i+1])
		}
	}
	return verb
}

func tableName(word string) string {
	if i := strings.IndexAny(word, "(,;"); i >= 0 {
		word = word[:i]
	}
	return strings.Trim(word, `"`)
}

func (t *TimedDB) done(ctx context.Context, query string, start time.Time, err error) {
	elapsed := time.Since(start)
	label := queryLabel(query)
	failed := err != nil && !errors.Is(err, sql.ErrNoRows)

	switch {
	case elapsed >= t.slow:
		slog.WarnContext(ctx, "slow_query", "query", label, "duration_ms", elapsed.Milliseconds(), "error", err)
	case failed:
		slog.DebugContext(ctx, "query_failed", "query", label, "error", err)
	}
	if t.collector != nil {
		t.collector.Observe(perf.Sample{
			Kind:     perf.KindQuery,
			Label:    label,
			Duration: elapsed,
			At:       start,
			Failed:   failed,
		})
	}
}

func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := t.db.ExecContext(ctx, query, args...)
	t.done(ctx, query, start, err)
	return res, err
}

func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.done(ctx, query, start, err)
	return rows, err
}

// QueryRowContext cannot see the row error until Scan, so it never records a failure.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.done(ctx, query, start, nil)
	return row
}

func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := t.db.BeginTx(ctx, opts)
	t.done(ctx, "BEGIN", start, err)
	return tx, err
}
