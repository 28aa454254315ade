package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"innercircle/internal/adapters/storage"
	domain "innercircle/internal/domain/outbox"
)

const columns = `id, kind, recipient, payload, status, attempts, max_attempts, next_attempt_at,
	last_attempted_at, created_at, provider_id, last_error`

// SQLiteStore stores outbox entries in SQLite; timestamps are UTC RFC 3339 text.
type SQLiteStore struct {
	db storage.SQLDB
}

func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM outbox WHERE id = ?", id)
	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, fmt.Errorf("outbox entry %s: %w", id, err)
	}
	return e, err
}

func (s *SQLiteStore) Save(ctx context.Context, e domain.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outbox (`+columns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status=excluded.status, attempts=excluded.attempts, max_attempts=excluded.max_attempts,
		   next_attempt_at=excluded.next_attempt_at, last_attempted_at=excluded.last_attempted_at,
		   provider_id=excluded.provider_id, last_error=excluded.last_error`,
		e.ID, e.Kind, e.Recipient, e.Payload, e.Status, e.Attempts, e.MaxAttempts,
		storage.FormatTime(e.NextAttemptAt), storage.NullableTime(e.LastAttemptedAt),
		storage.FormatTime(e.CreatedAt), e.ProviderID, e.LastError)
	return err
}

func (s *SQLiteStore) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Entry, error) {
	return s.query(ctx,
		"SELECT "+columns+" FROM outbox WHERE status = ? AND next_attempt_at <= ? ORDER BY next_attempt_at, created_at LIMIT ?",
		domain.StatusPending, storage.FormatTime(now), limit)
}

func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]domain.Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where, args = append(where, "status = ?"), append(args, f.Status)
	}
	if f.Kind != "" {
		where, args = append(where, "kind = ?"), append(args, f.Kind)
	}
	if f.Recipient != "" {
		where, args = append(where, "recipient = ?"), append(args, strings.ToLower(strings.TrimSpace(f.Recipient)))
	}
	q := "SELECT " + columns + " FROM outbox"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id LIMIT ?"
	return s.query(ctx, q, append(args, f.limit())...)
}

func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM outbox GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) PruneSent(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM outbox WHERE status = ? AND created_at < ?`,
		domain.StatusSent, storage.FormatTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(scan func(dest ...any) error) (domain.Entry, error) {
	var (
		e                 domain.Entry
		nextAt, createdAt string
		lastAttemptedAt   sql.NullString
	)
	err := scan(&e.ID, &e.Kind, &e.Recipient, &e.Payload, &e.Status, &e.Attempts, &e.MaxAttempts,
		&nextAt, &lastAttemptedAt, &createdAt, &e.ProviderID, &e.LastError)
	if err != nil {
		return domain.Entry{}, err
	}
	e.NextAttemptAt = storage.ParseTime(nextAt)
	e.LastAttemptedAt = storage.ParseNullTime(lastAttemptedAt)
	e.CreatedAt = storage.ParseTime(createdAt)
	return e, nil
}
