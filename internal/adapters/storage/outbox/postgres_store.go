package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"innercircle/internal/adapters/storage"
	domain "innercircle/internal/domain/outbox"
)

type entryRow struct {
	ID              string       `db:"id"`
	Kind            string       `db:"kind"`
	Recipient       string       `db:"recipient"`
	Payload         string       `db:"payload"`
	Status          string       `db:"status"`
	Attempts        int          `db:"attempts"`
	MaxAttempts     int          `db:"max_attempts"`
	NextAttemptAt   time.Time    `db:"next_attempt_at"`
	LastAttemptedAt sql.NullTime `db:"last_attempted_at"`
	CreatedAt       time.Time    `db:"created_at"`
	ProviderID      string       `db:"provider_id"`
	LastError       string       `db:"last_error"`
}

func toRow(e domain.Entry) entryRow {
	return entryRow{
		ID: e.ID, Kind: e.Kind, Recipient: e.Recipient, Payload: e.Payload, Status: e.Status,
		Attempts: e.Attempts, MaxAttempts: e.MaxAttempts, NextAttemptAt: e.NextAttemptAt,
		LastAttemptedAt: storage.NullFromTime(e.LastAttemptedAt), CreatedAt: e.CreatedAt,
		ProviderID: e.ProviderID, LastError: e.LastError,
	}
}

func (r entryRow) toDomain() domain.Entry {
	return domain.Entry{
		ID: r.ID, Kind: r.Kind, Recipient: r.Recipient, Payload: r.Payload, Status: r.Status,
		Attempts: r.Attempts, MaxAttempts: r.MaxAttempts, NextAttemptAt: r.NextAttemptAt.UTC(),
		LastAttemptedAt: storage.TimeFromNull(r.LastAttemptedAt), CreatedAt: r.CreatedAt.UTC(),
		ProviderID: r.ProviderID, LastError: r.LastError,
	}
}

// PostgresStore stores outbox entries in Postgres.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	var r entryRow
	err := s.db.GetContext(ctx, &r, "SELECT "+columns+" FROM outbox WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, fmt.Errorf("outbox entry %s: %w", id, err)
	}
	if err != nil {
		return domain.Entry{}, err
	}
	return r.toDomain(), nil
}

func (s *PostgresStore) Save(ctx context.Context, e domain.Entry) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO outbox (`+columns+`)
		 VALUES (:id, :kind, :recipient, :payload, :status, :attempts, :max_attempts, :next_attempt_at,
		   :last_attempted_at, :created_at, :provider_id, :last_error)
		 ON CONFLICT (id) DO UPDATE SET
		   status=EXCLUDED.status, attempts=EXCLUDED.attempts, max_attempts=EXCLUDED.max_attempts,
		   next_attempt_at=EXCLUDED.next_attempt_at, last_attempted_at=EXCLUDED.last_attempted_at,
		   provider_id=EXCLUDED.provider_id, last_error=EXCLUDED.last_error`,
		toRow(e))
	return err
}

func (s *PostgresStore) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Entry, error) {
	return s.query(ctx,
		"SELECT "+columns+" FROM outbox WHERE status = $1 AND next_attempt_at <= $2 ORDER BY next_attempt_at, created_at LIMIT $3",
		domain.StatusPending, now, limit)
}

func (s *PostgresStore) List(ctx context.Context, f ListFilter) ([]domain.Entry, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, cond+" = $"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		add("status", f.Status)
	}
	if f.Kind != "" {
		add("kind", f.Kind)
	}
	if f.Recipient != "" {
		add("recipient", strings.ToLower(strings.TrimSpace(f.Recipient)))
	}
	q := "SELECT " + columns + " FROM outbox"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.limit())
	q += " ORDER BY created_at DESC, id LIMIT $" + strconv.Itoa(len(args))
	return s.query(ctx, q, args...)
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS n FROM outbox GROUP BY status`); err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}

func (s *PostgresStore) PruneSent(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM outbox WHERE status = $1 AND created_at < $2`, domain.StatusSent, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]domain.Entry, error) {
	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	entries := make([]domain.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.toDomain())
	}
	return entries, nil
}
