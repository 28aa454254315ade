package user

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"innercircle/internal/adapters/storage"
	domain "innercircle/internal/domain/user"
)

const selectColumns = "id, lead_id, invitation_id, account_id, is_active, last_login, created_at, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new user store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a user by its ID.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.User, error) {
	return s.getOne(ctx, "id = ?", id)
}

// GetByAccountID retrieves the user behind a login account.
func (s *SQLiteStore) GetByAccountID(ctx context.Context, accountID string) (domain.User, error) {
	return s.getOne(ctx, "account_id = ?", accountID)
}

func (s *SQLiteStore) getOne(ctx context.Context, where, arg string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM app_user WHERE "+where, arg)
	u, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return domain.User{}, fmt.Errorf("user not found: %w", err)
	}
	return u, err
}

// UpdateLastLogin stamps the last login of a user.
func (s *SQLiteStore) UpdateLastLogin(ctx context.Context, id string, now time.Time) error {
	ts := storage.FormatTime(now)
	res, err := s.db.ExecContext(ctx, "UPDATE app_user SET last_login = ?, updated_at = ? WHERE id = ?", ts, ts, id)
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
func (s *SQLiteStore) CountByLead(ctx context.Context, leadID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM app_user WHERE lead_id = ?", leadID).Scan(&n)
	return n, err
}

// List returns users newest first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.User, error) {
	query := "SELECT " + selectColumns + " FROM app_user ORDER BY created_at DESC, id"
	var args []any
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// scanUser extracts a User from a row scanner function.
func scanUser(scan func(dest ...interface{}) error) (domain.User, error) {
	var u domain.User
	var active int
	var lastLogin sql.NullString
	var createdAt, updatedAt string
	if err := scan(&u.ID, &u.LeadID, &u.InvitationID, &u.AccountID, &active, &lastLogin, &createdAt, &updatedAt); err != nil {
		return domain.User{}, err
	}
	u.IsActive = active != 0
	u.LastLogin = storage.ParseNullTime(lastLogin)
	u.CreatedAt = storage.ParseTime(createdAt)
	u.UpdatedAt = storage.ParseTime(updatedAt)
	return u, nil
}
