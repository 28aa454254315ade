package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"innercircle/internal/domain/account"
	"innercircle/internal/domain/audit"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrNotMemberAccount   = errors.New("only member accounts can be changed")
)

// AccountStoreForLogin is the slice of the account store that login needs.
type AccountStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult is what the session needs.
type LoginResult struct {
	AccountID string
	Email     string
	Role      string
}

type LoginDeps struct {
	AccountStore AccountStoreForLogin
	Audit        AuditRecorder
	Now          func() time.Time
}

// ExecuteLogin checks credentials and maintains the lockout counter.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
// INVARIANT: a locked or disabled account never logs in
func ExecuteLogin(ctx context.Context, in LoginInput, deps LoginDeps) (LoginResult, error) {
	email := account.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	now := deps.Now()

	acct, err := deps.AccountStore.GetByEmail(ctx, email)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "reason", "unknown_email")
		return LoginResult{}, ErrInvalidCredentials
	}
	log := slog.With("account_id", acct.ID)
	actor := Actor{ID: acct.ID, Email: email, Role: acct.Role, IPAddress: in.IPAddress, UserAgent: in.UserAgent}

	switch {
	case acct.IsDisabled():
		log.Info("auth_event", "event", "login_blocked", "reason", "disabled")
		return LoginResult{}, ErrAccountDisabled
	case acct.IsLocked(now):
		log.Info("auth_event", "event", "login_blocked", "reason", "locked", "locked_until", acct.LockedUntil)
		return LoginResult{}, ErrAccountLocked
	}

	if acct.CheckPassword(in.Password) != nil {
		locked := acct.RecordFailedLogin(now)
		saveLoginState(ctx, deps.AccountStore, acct, "failed_login_not_recorded")
		log.Info("auth_event", "event", "login_failed", "reason", "wrong_password", "failed_logins", acct.FailedLogins)
		if locked {
			recordAudit(ctx, deps.Audit, actor, auditEntry{
				Category:     audit.CategorySecurity,
				Action:       audit.ActionLogin,
				Severity:     audit.SeverityCritical,
				ResourceType: "account",
				ResourceID:   acct.ID,
				Description:  fmt.Sprintf("Konto nach %d Fehlversuchen gesperrt", account.MaxFailedLogins),
			}, now)
		}
		return LoginResult{}, ErrInvalidCredentials
	}

	dirty := acct.FailedLogins > 0
	acct.ResetFailedLogins()
	if acct.NeedsRehash() {
		if err := acct.SetPassword(in.Password); err == nil {
			dirty = true
		}
	}
	if dirty {
		saveLoginState(ctx, deps.AccountStore, acct, "login_state_not_saved")
	}

	if acct.IsAdmin() {
		recordAudit(ctx, deps.Audit, actor, auditEntry{
			Category: audit.CategoryAccount, Action: audit.ActionLogin,
			ResourceType: "account", ResourceID: acct.ID,
		}, now)
	}
	log.Info("auth_event", "event", "login_success", "role", acct.Role)
	return LoginResult{AccountID: acct.ID, Email: acct.Email, Role: acct.Role}, nil
}

// saveLoginState persists login bookkeeping; a failure is logged, never returned.
func saveLoginState(ctx context.Context, store AccountStoreForLogin, acct account.Account, event string) {
	if err := store.Save(ctx, acct); err != nil {
		slog.Error("auth_event", "event", event, "account_id", acct.ID, "error", err)
	}
}

// ExecuteLogout audits the end of an admin session. Revoking the token is the caller's job.
func ExecuteLogout(ctx context.Context, actor Actor, deps LoginDeps) {
	if actor.Role == account.RoleAdmin {
		recordAudit(ctx, deps.Audit, actor, auditEntry{
			Category: audit.CategoryAccount, Action: audit.ActionLogout,
			ResourceType: "account", ResourceID: actor.ID,
		}, deps.Now())
	}
	slog.Info("auth_event", "event", "logout", "account_id", actor.ID)
}

// SetAccountStatusDeps holds dependencies for SetAccountStatus.
type SetAccountStatusDeps struct {
	AccountStore interface {
		GetByID(ctx context.Context, id string) (account.Account, error)
		Save(ctx context.Context, a account.Account) error
	}
	Audit AuditRecorder
	Now   func() time.Time
}

// ExecuteSetAccountStatus disables or re-enables a member login.
// Re-enabling also clears any lockout. Admin accounts cannot be changed here.
func ExecuteSetAccountStatus(ctx context.Context, accountID string, disabled bool, actor Actor, deps SetAccountStatusDeps) (account.Account, error) {
	acct, err := deps.AccountStore.GetByID(ctx, accountID)
	if err != nil {
		return account.Account{}, err
	}
	if acct.Role != account.RoleMember {
		return account.Account{}, ErrNotMemberAccount
	}

	want := account.StatusActive
	severity := audit.SeverityInfo
	if disabled {
		want, severity = account.StatusDisabled, audit.SeverityWarning
	}
	if acct.Status == want {
		return acct, nil
	}
	acct.Status = want
	if !disabled {
		acct.ResetFailedLogins()
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return account.Account{}, err
	}

	recordAudit(ctx, deps.Audit, actor, auditEntry{
		Category:     audit.CategoryAccount,
		Action:       audit.ActionUpdate,
		Severity:     severity,
		ResourceType: "account",
		ResourceID:   acct.ID,
		Description:  "Status: " + want,
	}, deps.Now())
	slog.Info("account_status_changed", "account_id", acct.ID, "status", want, "by", actor.Email)
	return acct, nil
}
