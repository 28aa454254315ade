package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"innercircle/internal/domain/lead"
	"innercircle/internal/domain/user"
)

var ErrNoMemberProfile = errors.New("no member profile for this account")

// UserStoreForDashboard defines the store interface needed by LoadUserDashboard.
type UserStoreForDashboard interface {
	GetByAccountID(ctx context.Context, accountID string) (user.User, error)
	UpdateLastLogin(ctx context.Context, id string, now time.Time) error
}

// LoadUserDashboardDeps holds dependencies for LoadUserDashboard.
type LoadUserDashboardDeps struct {
	UserStore UserStoreForDashboard
	LeadStore interface {
		GetByID(ctx context.Context, id string) (lead.Lead, error)
	}
	Now func() time.Time
}

// UserDashboard is the member dashboard view model.
type UserDashboard struct {
	User     user.User
	Name     string
	Email    string
	Section  string
	Sections []user.Section
}

// ExecuteLoadUserDashboard loads the member behind a session and stamps the visit.
// PRE: accountID comes from a valid member session
// POST: LastLogin updated; ErrNoMemberProfile if the account has no user record
func ExecuteLoadUserDashboard(ctx context.Context, accountID, section string, deps LoadUserDashboardDeps) (UserDashboard, error) {
	u, err := deps.UserStore.GetByAccountID(ctx, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return UserDashboard{}, ErrNoMemberProfile
	}
	if err != nil {
		return UserDashboard{}, err
	}
	if !u.IsActive {
		return UserDashboard{}, user.ErrInactive
	}

	now := deps.Now()
	if err := deps.UserStore.UpdateLastLogin(ctx, u.ID, now); err != nil {
		return UserDashboard{}, fmt.Errorf("update last login: %w", err)
	}
	u.RecordLogin(now)

	view := UserDashboard{User: u, Section: user.SectionOrDefault(section), Sections: user.DashboardSections}
	if l, err := deps.LeadStore.GetByID(ctx, u.LeadID); err == nil {
		view.Name, view.Email = l.Name, l.Email
	} else {
		slog.Warn("dashboard_lead_missing", "user_id", u.ID, "lead_id", u.LeadID, "error", err)
	}
	return view, nil
}
