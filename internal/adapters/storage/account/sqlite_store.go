package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"innercircle/internal/adapters/storage"
	domain "innercircle/internal/domain/account"
)

const columns = "id, email, password_hash, role, status, created_at, failed_logins, locked_until"

// SQLiteStore keeps accounts in SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	return s.one(ctx, "id", id)
}

func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	return s.one(ctx, "email", domain.NormalizeEmail(email))
}

func (s *SQLiteStore) one(ctx context.Context, column, value string) (domain.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM account WHERE "+column+" = ?", value))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("account %s %q: %w", column, value, err)
	}
	return a, err
}

// Save upserts a; created_at is kept from the first insert.
func (s *SQLiteStore) Save(ctx context.Context, a domain.Account) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO account (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email, password_hash = excluded.password_hash,
			role = excluded.role, status = excluded.status,
			failed_logins = excluded.failed_logins, locked_until = excluded.locked_until`,
		a.ID, domain.NormalizeEmail(a.Email), a.PasswordHash, a.Role, statusOrActive(a.Status),
		storage.FormatTime(a.CreatedAt), a.FailedLogins, storage.NullableTime(a.LockedUntil))
	if storage.IsUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	return err
}

func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Account, error) {
	query, args := filter.listQuery()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CountByRole(ctx context.Context, role string) (n int, err error) {
	if role == "" {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account").Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account WHERE role = ?", role).Scan(&n)
	}
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var (
		a         domain.Account
		createdAt string
		locked    sql.NullString
	)
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Role, &a.Status, &createdAt, &a.FailedLogins, &locked); err != nil {
		return domain.Account{}, err
	}
	a.CreatedAt = storage.ParseTime(createdAt)
	a.LockedUntil = storage.ParseNullTime(locked)
	return a, nil
}
