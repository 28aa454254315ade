package invitation

import (
	"context"
	"time"

	domain "innercircle/internal/domain/invitation"
	"innercircle/internal/domain/user"
)

// Store persists invitations and runs the two invitation procedures.
type Store interface {
	// Create issues a pending invitation for an existing lead.
	// PRE: inv.LeadID, inv.Token and inv.ExpiresAt are set
	// POST: Returns the stored invitation; an error wrapping sql.ErrNoRows if the lead is gone
	// INVARIANT: The lead check and the insert happen in one transaction
	Create(ctx context.Context, inv domain.Invitation) (domain.Invitation, error)

	// GetByID retrieves an invitation by its ID.
	GetByID(ctx context.Context, id string) (domain.Invitation, error)

	// GetByToken retrieves an invitation by its token, whatever its status.
	// POST: Returns the invitation or an error wrapping sql.ErrNoRows
	GetByToken(ctx context.Context, token string) (domain.Invitation, error)

	// GetPendingByToken retrieves a pending invitation that has not yet expired at now.
	// POST: Returns an error wrapping sql.ErrNoRows for unknown, used or overdue tokens
	GetPendingByToken(ctx context.Context, token string, now time.Time) (domain.Invitation, error)

	// Redeem turns a pending token into a member account and a dashboard user.
	// PRE: params.PasswordHash is a bcrypt hash; params.Email is normalised
	// POST: Account, user and used invitation are committed together or not at all
	// Errors: sql.ErrNoRows (wrapped), domain.ErrNotPending, domain.ErrExpired, account.ErrEmailTaken
	Redeem(ctx context.Context, params RedeemParams) (user.User, error)

	// ExpireOld marks every pending invitation whose expiry is at or before now as expired.
	// POST: Returns the number of invitations changed
	ExpireOld(ctx context.Context, now time.Time) (int, error)

	// List returns invitations newest first.
	List(ctx context.Context, filter ListFilter) ([]domain.Invitation, error)
}

// RedeemParams carries the identifiers and credentials for Redeem.
type RedeemParams struct {
	Token        string
	UserID       string
	AccountID    string
	Email        string
	PasswordHash string
	Now          time.Time
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Status string
	LeadID string
	Limit  int
	Offset int
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
