package projections

import (
	"context"
	"time"

	"innercircle/internal/adapters/storage/account"
	"innercircle/internal/adapters/storage/invitation"
	"innercircle/internal/adapters/storage/lead"
	"innercircle/internal/adapters/storage/user"
	domainAccount "innercircle/internal/domain/account"
	domainInvitation "innercircle/internal/domain/invitation"
)

// InvitationRow is an invitation with the name and email of its lead.
type InvitationRow struct {
	domainInvitation.Invitation
	LeadName  string
	LeadEmail string
	Overdue   bool // still pending but past its expiry; the expiry worker has not run yet
}

// InvitationListDeps holds dependencies for InvitationList.
type InvitationListDeps struct {
	InvitationStore InvitationStore
	LeadStore       LeadStore
	Now             func() time.Time
}

// QueryInvitationList returns invitations newest first, optionally filtered by status.
func QueryInvitationList(ctx context.Context, status string, deps InvitationListDeps) ([]InvitationRow, error) {
	invs, err := deps.InvitationStore.List(ctx, invitation.ListFilter{Status: status})
	if err != nil {
		return nil, err
	}
	leads, err := deps.LeadStore.List(ctx, lead.ListFilter{})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]int, len(leads))
	for i, l := range leads {
		byID[l.ID] = i
	}

	now := deps.Now()
	rows := make([]InvitationRow, 0, len(invs))
	for _, inv := range invs {
		row := InvitationRow{Invitation: inv}
		if i, ok := byID[inv.LeadID]; ok {
			row.LeadName, row.LeadEmail = leads[i].Name, leads[i].Email
		}
		row.Overdue = inv.Status == domainInvitation.StatusPending && inv.IsExpired(now)
		rows = append(rows, row)
	}
	return rows, nil
}

// MemberRow is a dashboard user with its login email and lead name.
type MemberRow struct {
	UserID    string
	AccountID string
	Name      string
	Email     string
	IsActive  bool
	Disabled  bool // the login account is disabled
	LastLogin time.Time
	CreatedAt time.Time
}

// MemberListDeps holds dependencies for MemberList.
type MemberListDeps struct {
	UserStore    UserStore
	AccountStore AccountStore
	LeadStore    LeadStore
}

// QueryMemberList returns every member newest first.
// POST: Members whose account or lead is missing keep empty Email or Name
func QueryMemberList(ctx context.Context, deps MemberListDeps) ([]MemberRow, error) {
	users, err := deps.UserStore.List(ctx, user.ListFilter{})
	if err != nil {
		return nil, err
	}
	leads, err := deps.LeadStore.List(ctx, lead.ListFilter{})
	if err != nil {
		return nil, err
	}
	accounts, err := deps.AccountStore.List(ctx, account.ListFilter{Role: domainAccount.RoleMember})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(leads))
	for _, l := range leads {
		names[l.ID] = l.Name
	}
	byAccount := make(map[string]domainAccount.Account, len(accounts))
	for _, a := range accounts {
		byAccount[a.ID] = a
	}

	rows := make([]MemberRow, 0, len(users))
	for _, u := range users {
		acct := byAccount[u.AccountID]
		rows = append(rows, MemberRow{
			UserID:    u.ID,
			AccountID: u.AccountID,
			Name:      names[u.LeadID],
			Email:     acct.Email,
			IsActive:  u.IsActive,
			Disabled:  acct.IsDisabled(),
			LastLogin: u.LastLogin,
			CreatedAt: u.CreatedAt,
		})
	}
	return rows, nil
}
