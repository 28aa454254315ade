package lead

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"innercircle/internal/adapters/storage"
	domain "innercircle/internal/domain/lead"
)

const selectColumns = `id, name, email, phone, status, reviewed_by, reviewed_at, notes,
	source, utm_source, utm_medium, utm_campaign, answers, created_at, updated_at`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new lead store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a lead by its ID.
// PRE: id is non-empty
// POST: Returns the lead or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Lead, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM lead WHERE id = ?", id)
	l, err := scanLead(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Lead{}, fmt.Errorf("lead not found: %w", err)
	}
	return l, err
}

// Save persists a lead (insert or update).
// PRE: lead has been validated
// POST: Lead is persisted; created_at is never overwritten
func (s *SQLiteStore) Save(ctx context.Context, l domain.Lead) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lead (id, name, email, phone, status, reviewed_by, reviewed_at, notes,
			source, utm_source, utm_medium, utm_campaign, answers, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, email=excluded.email, phone=excluded.phone, status=excluded.status,
		   reviewed_by=excluded.reviewed_by, reviewed_at=excluded.reviewed_at, notes=excluded.notes,
		   source=excluded.source, utm_source=excluded.utm_source, utm_medium=excluded.utm_medium,
		   utm_campaign=excluded.utm_campaign, answers=excluded.answers, updated_at=excluded.updated_at`,
		l.ID, l.Name, l.Email, l.Phone, l.EffectiveStatus(), l.ReviewedBy, storage.NullableTime(l.ReviewedAt), l.Notes,
		l.Source, l.UTMSource, l.UTMMedium, l.UTMCampaign, l.Answers,
		storage.FormatTime(l.CreatedAt), storage.FormatTime(l.UpdatedAt))
	return err
}

// Delete removes a lead. Its invitations go with it.
// PRE: id is non-empty
// POST: Returns an error wrapping sql.ErrNoRows when nothing was deleted
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM lead WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("lead not found: %w", sql.ErrNoRows)
	}
	return nil
}

// DeleteMany removes every lead in ids in one transaction.
// PRE: ids is non-empty
// POST: Returns the number of rows deleted; nothing is deleted on error
func (s *SQLiteStore) DeleteMany(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM lead WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), tx.Commit()
}

// List returns leads newest first.
// PRE: filter has valid parameters
// POST: Returns matching leads; Limit 0 means no limit
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Lead, error) {
	var b strings.Builder
	var args []any
	b.WriteString("SELECT " + selectColumns + " FROM lead")
	if filter.Status != "" {
		b.WriteString(" WHERE status = ?")
		args = append(args, filter.Status)
	}
	b.WriteString(" ORDER BY created_at DESC, id")
	if filter.Limit > 0 {
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []domain.Lead
	for rows.Next() {
		l, err := scanLead(rows.Scan)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// ListStatuses returns the raw status column of every lead.
func (s *SQLiteStore) ListStatuses(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status FROM lead")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []string
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, rows.Err()
}

// scanLead extracts a Lead from a row scanner function.
func scanLead(scan func(dest ...interface{}) error) (domain.Lead, error) {
	var l domain.Lead
	var reviewedAt sql.NullString
	var createdAt, updatedAt string
	err := scan(
		&l.ID, &l.Name, &l.Email, &l.Phone, &l.Status, &l.ReviewedBy, &reviewedAt, &l.Notes,
		&l.Source, &l.UTMSource, &l.UTMMedium, &l.UTMCampaign, &l.Answers, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	l.ReviewedAt = storage.ParseNullTime(reviewedAt)
	l.CreatedAt = storage.ParseTime(createdAt)
	l.UpdatedAt = storage.ParseTime(updatedAt)
	return l, nil
}
