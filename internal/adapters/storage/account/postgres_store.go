package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"innercircle/internal/adapters/storage"
	domain "innercircle/internal/domain/account"
)

type accountRow struct {
	ID           string       `db:"id"`
	Email        string       `db:"email"`
	PasswordHash string       `db:"password_hash"`
	Role         string       `db:"role"`
	Status       string       `db:"status"`
	CreatedAt    time.Time    `db:"created_at"`
	FailedLogins int          `db:"failed_logins"`
	LockedUntil  sql.NullTime `db:"locked_until"`
}

func (r accountRow) toDomain() domain.Account {
	return domain.Account{
		ID: r.ID, Email: r.Email, PasswordHash: r.PasswordHash, Role: r.Role, Status: r.Status,
		CreatedAt: r.CreatedAt, FailedLogins: r.FailedLogins, LockedUntil: storage.TimeFromNull(r.LockedUntil),
	}
}

// PostgresStore implements Store on Postgres via sqlx.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new AccountStore.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetByID retrieves an Account by its ID.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	return s.getOne(ctx, "id = $1", id)
}

// GetByEmail retrieves an Account by email.
func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	return s.getOne(ctx, "email = $1", domain.NormalizeEmail(email))
}

func (s *PostgresStore) getOne(ctx context.Context, where string, arg string) (domain.Account, error) {
	var r accountRow
	err := s.db.GetContext(ctx, &r, "SELECT "+columns+" FROM account WHERE "+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("account %s: %w", where, err)
	}
	if err != nil {
		return domain.Account{}, err
	}
	return r.toDomain(), nil
}

// Save persists an Account (insert or update).
func (s *PostgresStore) Save(ctx context.Context, entity domain.Account) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO account (`+columns+`)
		 VALUES (:id, :email, :password_hash, :role, :status, :created_at, :failed_logins, :locked_until)
		 ON CONFLICT (id) DO UPDATE SET
		   email=EXCLUDED.email, password_hash=EXCLUDED.password_hash, role=EXCLUDED.role,
		   status=EXCLUDED.status, failed_logins=EXCLUDED.failed_logins, locked_until=EXCLUDED.locked_until`,
		accountRow{
			ID: entity.ID, Email: domain.NormalizeEmail(entity.Email), PasswordHash: entity.PasswordHash,
			Role: entity.Role, Status: statusOrActive(entity.Status), CreatedAt: entity.CreatedAt,
			FailedLogins: entity.FailedLogins, LockedUntil: storage.NullFromTime(entity.LockedUntil),
		})
	if storage.IsUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	return err
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]domain.Account, error) {
	query, args := filter.listQuery()
	var rows []accountRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	out := make([]domain.Account, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// CountByRole returns the number of accounts with role.
func (s *PostgresStore) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	if role == "" {
		err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM account")
		return n, err
	}
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM account WHERE role = $1", role)
	return n, err
}
