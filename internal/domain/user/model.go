package user

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrEmptyLeadID       = errors.New("lead_id is required")
	ErrEmptyInvitationID = errors.New("invitation_id is required")
	ErrEmptyAccountID    = errors.New("account_id is required")
	ErrInactive          = errors.New("user is not active")
)

// User links a member login to the lead and invitation it came from.
type User struct {
	ID           string
	LeadID       string
	InvitationID string
	AccountID    string
	IsActive     bool
	LastLogin    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks if the User has valid data.
// PRE: User struct is populated
// POST: Returns nil if valid, error otherwise
// INVARIANT: A user always references the invitation that created it
func (u *User) Validate() error {
	if u.LeadID == "" {
		return ErrEmptyLeadID
	}
	if u.InvitationID == "" {
		return ErrEmptyInvitationID
	}
	if u.AccountID == "" {
		return ErrEmptyAccountID
	}
	return nil
}

// RecordLogin stamps the last login time.
// POST: LastLogin and UpdatedAt are now
func (u *User) RecordLogin(now time.Time) {
	u.LastLogin = now
	u.UpdatedAt = now
}

// Section is an entry of the member dashboard navigation.
type Section struct {
	Key   string
	Label string
}

// DashboardSections lists the member dashboard navigation in display order.
var DashboardSections = []Section{
	{Key: "dashboard", Label: "Dashboard"},
	{Key: "training", Label: "Training"},
	{Key: "nutrition", Label: "Ernährung"},
	{Key: "progress", Label: "Fortschritt"},
	{Key: "community", Label: "Community"},
	{Key: "resources", Label: "Ressourcen"},
	{Key: "settings", Label: "Einstellungen"},
}

// SectionOrDefault returns key if it names a dashboard section, otherwise "dashboard".
func SectionOrDefault(key string) string {
	for _, s := range DashboardSections {
		if s.Key == key {
			return key
		}
	}
	return DashboardSections[0].Key
}
