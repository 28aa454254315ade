package user

import (
	"context"
	"time"

	domain "innercircle/internal/domain/user"
)

// Store persists dashboard users. Users are created only by the invitation redeem procedure.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.User, error)

	// GetByAccountID retrieves the user behind a login account.
	// POST: Returns the user or an error wrapping sql.ErrNoRows
	GetByAccountID(ctx context.Context, accountID string) (domain.User, error)

	// UpdateLastLogin stamps the last login of a user.
	// POST: Returns an error wrapping sql.ErrNoRows when the user does not exist
	UpdateLastLogin(ctx context.Context, id string, now time.Time) error

	// CountByLead returns how many users were created from the lead's invitations.
	CountByLead(ctx context.Context, leadID string) (int, error)

	// List returns users newest first.
	List(ctx context.Context, filter ListFilter) ([]domain.User, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit  int
	Offset int
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
