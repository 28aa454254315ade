package user

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"innercircle/internal/adapters/storage"
	domain "innercircle/internal/domain/user"
)

type userRow struct {
	ID           string       `db:"id"`
	LeadID       string       `db:"lead_id"`
	InvitationID string       `db:"invitation_id"`
	AccountID    string       `db:"account_id"`
	IsActive     bool         `db:"is_active"`
	LastLogin    sql.NullTime `db:"last_login"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID: r.ID, LeadID: r.LeadID, InvitationID: r.InvitationID, AccountID: r.AccountID,
		IsActive: r.IsActive, LastLogin: storage.TimeFromNull(r.LastLogin),
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// PostgresStore implements Store on Postgres via sqlx.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new user store.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetByID retrieves a user by its ID.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (domain.User, error) {
	return s.getOne(ctx, "id = $1", id)
}

// GetByAccountID retrieves the user behind a login account.
func (s *PostgresStore) GetByAccountID(ctx context.Context, accountID string) (domain.User, error) {
	return s.getOne(ctx, "account_id = $1", accountID)
}

func (s *PostgresStore) getOne(ctx context.Context, where, arg string) (domain.User, error) {
	var r userRow
	err := s.db.GetContext(ctx, &r, "SELECT "+selectColumns+" FROM app_user WHERE "+where, arg)
	if err == sql.ErrNoRows {
		return domain.User{}, fmt.Errorf("user not found: %w", err)
	}
	if err != nil {
		return domain.User{}, err
	}
	return r.toDomain(), nil
}

// UpdateLastLogin stamps the last login of a user.
func (s *PostgresStore) UpdateLastLogin(ctx context.Context, id string, now time.Time) error {
	res, err := s.db.ExecContext(ctx, "UPDATE app_user SET last_login = $1, updated_at = $1 WHERE id = $2", now, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("user not found: %w", sql.ErrNoRows)
	}
	return nil
}

// CountByLead returns how many users were created from the lead's invitations.
func (s *PostgresStore) CountByLead(ctx context.Context, leadID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM app_user WHERE lead_id = $1", leadID)
	return n, err
}

// List returns users newest first.
func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]domain.User, error) {
	query := "SELECT " + selectColumns + " FROM app_user ORDER BY created_at DESC, id"
	var args []any
	if filter.Limit > 0 {
		query += " LIMIT $1 OFFSET $2"
		args = append(args, filter.Limit, filter.Offset)
	}
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
