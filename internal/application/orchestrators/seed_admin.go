package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"innercircle/internal/domain/account"
)

// AccountStoreForSeed defines the store interface needed by SeedAdmin.
type AccountStoreForSeed interface {
	Save(ctx context.Context, a account.Account) error
	CountByRole(ctx context.Context, role string) (int, error)
}

// SeedAdminInput carries the configured admin credentials.
type SeedAdminInput struct {
	Email    string
	Password string
}

// SeedAdminDeps holds dependencies for SeedAdmin.
type SeedAdminDeps struct {
	AccountStore AccountStoreForSeed
	GenerateID   func() string
	Now          func() time.Time
}

var ErrAdminPasswordMissing = errors.New("no admin account exists and no admin password is configured")

// ExecuteSeedAdmin creates the admin account on first boot.
// It is idempotent: nothing happens once any admin exists.
// PRE: Database is migrated
// POST: Returns true if an admin was created
func ExecuteSeedAdmin(ctx context.Context, input SeedAdminInput, deps SeedAdminDeps) (bool, error) {
	n, err := deps.AccountStore.CountByRole(ctx, account.RoleAdmin)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if input.Password == "" {
		return false, ErrAdminPasswordMissing
	}

	acct := account.New(deps.GenerateID(), input.Email, account.RoleAdmin, deps.Now())
	if err := acct.Validate(); err != nil {
		return false, err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return false, err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return false, err
	}

	slog.Info("auth_event", "event", "admin_seeded", "account_id", acct.ID)
	return true, nil
}
