package lead

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"innercircle/internal/adapters/storage"
	domain "innercircle/internal/domain/lead"
)

// leadRow mirrors the lead table for sqlx scanning.
type leadRow struct {
	ID          string       `db:"id"`
	Name        string       `db:"name"`
	Email       string       `db:"email"`
	Phone       string       `db:"phone"`
	Status      string       `db:"status"`
	ReviewedBy  string       `db:"reviewed_by"`
	ReviewedAt  sql.NullTime `db:"reviewed_at"`
	Notes       string       `db:"notes"`
	Source      string       `db:"source"`
	UTMSource   string       `db:"utm_source"`
	UTMMedium   string       `db:"utm_medium"`
	UTMCampaign string       `db:"utm_campaign"`
	Answers     string       `db:"answers"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

func toRow(l domain.Lead) leadRow {
	return leadRow{
		ID: l.ID, Name: l.Name, Email: l.Email, Phone: l.Phone, Status: l.EffectiveStatus(),
		ReviewedBy: l.ReviewedBy, ReviewedAt: storage.NullFromTime(l.ReviewedAt), Notes: l.Notes,
		Source: l.Source, UTMSource: l.UTMSource, UTMMedium: l.UTMMedium, UTMCampaign: l.UTMCampaign,
		Answers: l.Answers, CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt,
	}
}

func (r leadRow) toDomain() domain.Lead {
	return domain.Lead{
		ID: r.ID, Name: r.Name, Email: r.Email, Phone: r.Phone, Status: r.Status,
		ReviewedBy: r.ReviewedBy, ReviewedAt: storage.TimeFromNull(r.ReviewedAt), Notes: r.Notes,
		Attribution: domain.Attribution{
			Source: r.Source, UTMSource: r.UTMSource, UTMMedium: r.UTMMedium, UTMCampaign: r.UTMCampaign,
		},
		Answers: r.Answers, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// PostgresStore implements Store on Postgres via sqlx.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new lead store.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetByID retrieves a lead by its ID.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (domain.Lead, error) {
	var r leadRow
	err := s.db.GetContext(ctx, &r, "SELECT "+selectColumns+" FROM lead WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return domain.Lead{}, fmt.Errorf("lead not found: %w", err)
	}
	if err != nil {
		return domain.Lead{}, err
	}
	return r.toDomain(), nil
}

// Save persists a lead (insert or update).
func (s *PostgresStore) Save(ctx context.Context, l domain.Lead) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO lead (id, name, email, phone, status, reviewed_by, reviewed_at, notes,
			source, utm_source, utm_medium, utm_campaign, answers, created_at, updated_at)
		 VALUES (:id, :name, :email, :phone, :status, :reviewed_by, :reviewed_at, :notes,
			:source, :utm_source, :utm_medium, :utm_campaign, :answers, :created_at, :updated_at)
		 ON CONFLICT (id) DO UPDATE SET
		   name=EXCLUDED.name, email=EXCLUDED.email, phone=EXCLUDED.phone, status=EXCLUDED.status,
		   reviewed_by=EXCLUDED.reviewed_by, reviewed_at=EXCLUDED.reviewed_at, notes=EXCLUDED.notes,
		   source=EXCLUDED.source, utm_source=EXCLUDED.utm_source, utm_medium=EXCLUDED.utm_medium,
		   utm_campaign=EXCLUDED.utm_campaign, answers=EXCLUDED.answers, updated_at=EXCLUDED.updated_at`,
		toRow(l))
	return err
}

// Delete removes a lead. Its invitations go with it.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM lead WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("lead not found: %w", sql.ErrNoRows)
	}
	return nil
}

// DeleteMany removes every lead in ids in one statement.
func (s *PostgresStore) DeleteMany(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In("DELETE FROM lead WHERE id IN (?)", ids)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// List returns leads newest first.
func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]domain.Lead, error) {
	query := "SELECT " + selectColumns + " FROM lead"
	var args []any
	if filter.Status != "" {
		query += " WHERE status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	var rows []leadRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	leads := make([]domain.Lead, 0, len(rows))
	for _, r := range rows {
		leads = append(leads, r.toDomain())
	}
	return leads, nil
}

// ListStatuses returns the raw status column of every lead.
func (s *PostgresStore) ListStatuses(ctx context.Context) ([]string, error) {
	var statuses []string
	err := s.db.SelectContext(ctx, &statuses, "SELECT status FROM lead")
	return statuses, err
}
