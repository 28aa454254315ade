package projections

import (
	"context"
	"testing"
	"time"

	domainAccount "innercircle/internal/domain/account"
	domainInvitation "innercircle/internal/domain/invitation"
	domainLead "innercircle/internal/domain/lead"
	domainUser "innercircle/internal/domain/user"
)

// TestQueryInvitationList verifies lead resolution and the overdue flag.
func TestQueryInvitationList(t *testing.T) {
	invs := &mockInvitationStore{invitations: []domainInvitation.Invitation{
		{ID: "i1", LeadID: "l1", Status: domainInvitation.StatusPending, ExpiresAt: fixedTime.Add(time.Hour)},
		{ID: "i2", LeadID: "l2", Status: domainInvitation.StatusPending, ExpiresAt: fixedTime},
		{ID: "i3", LeadID: "l1", Status: domainInvitation.StatusUsed, ExpiresAt: fixedTime.Add(-time.Hour)},
	}}
	leads := &mockLeadStore{leads: []domainLead.Lead{{ID: "l1", Name: "Sarah", Email: "sarah@example.de"}}}

	rows, err := QueryInvitationList(context.Background(), "", InvitationListDeps{
		InvitationStore: invs, LeadStore: leads, Now: fixedNow,
	})
	if err != nil {
		t.Fatalf("QueryInvitationList: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].LeadName != "Sarah" || rows[0].Overdue {
		t.Errorf("row 0: %+v", rows[0])
	}
	if rows[1].LeadName != "" || !rows[1].Overdue {
		t.Errorf("row 1 should be overdue with unknown lead: %+v", rows[1])
	}
	if rows[2].Overdue {
		t.Errorf("used invitations are never overdue")
	}

	pending, _ := QueryInvitationList(context.Background(), domainInvitation.StatusPending, InvitationListDeps{
		InvitationStore: invs, LeadStore: leads, Now: fixedNow,
	})
	if len(pending) != 2 {
		t.Errorf("status filter: got %d rows", len(pending))
	}
}

// TestQueryMemberList verifies account email and lead name resolution.
func TestQueryMemberList(t *testing.T) {
	rows, err := QueryMemberList(context.Background(), MemberListDeps{
		UserStore: &mockUserStore{users: []domainUser.User{
			{ID: "u1", LeadID: "l1", AccountID: "a1", IsActive: true, LastLogin: fixedTime},
			{ID: "u2", LeadID: "l9", AccountID: "a9", IsActive: false},
		}},
		AccountStore: &mockAccountStore{accounts: []domainAccount.Account{
			{ID: "a1", Email: "sarah@example.de", Role: domainAccount.RoleMember, Status: domainAccount.StatusDisabled},
			{ID: "a0", Email: "admin@example.de", Role: domainAccount.RoleAdmin},
		}},
		LeadStore:    &mockLeadStore{leads: []domainLead.Lead{{ID: "l1", Name: "Sarah"}}},
	})
	if err != nil {
		t.Fatalf("QueryMemberList: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0].Email != "sarah@example.de" || rows[0].Name != "Sarah" || !rows[0].LastLogin.Equal(fixedTime) || !rows[0].Disabled {
		t.Errorf("row 0: %+v", rows[0])
	}
	if rows[1].Email != "" || rows[1].Name != "" || rows[1].IsActive {
		t.Errorf("row 1: %+v", rows[1])
	}
}
