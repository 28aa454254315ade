package account

import (
	"context"

	domain "innercircle/internal/domain/account"
)

// Store persists accounts. Lookups that miss wrap sql.ErrNoRows.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	// GetByEmail normalises email before looking it up.
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	// Save inserts or updates by id. An email held by another account yields domain.ErrEmailTaken.
	Save(ctx context.Context, a domain.Account) error
	// List returns accounts newest first.
	List(ctx context.Context, filter ListFilter) ([]domain.Account, error)
	// CountByRole counts accounts with role; "" counts all.
	CountByRole(ctx context.Context, role string) (int, error)
}

// ListFilter narrows List. Limit 0 returns everything.
type ListFilter struct {
	Role  string
	Limit int
}

// listQuery renders the List statement with ? placeholders.
func (f ListFilter) listQuery() (string, []any) {
	q := "SELECT " + columns + " FROM account"
	var args []any
	if f.Role != "" {
		q += " WHERE role = ?"
		args = append(args, f.Role)
	}
	q += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return q, args
}

func statusOrActive(status string) string {
	if status == "" {
		return domain.StatusActive
	}
	return status
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
