package user

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	invitationstore "innercircle/internal/adapters/storage/invitation"
	leadstore "innercircle/internal/adapters/storage/lead"
	"innercircle/internal/adapters/storage/storagetest"
	"innercircle/internal/domain/invitation"
	"innercircle/internal/domain/lead"
)

var now = time.Date(2025, 8, 2, 8, 0, 0, 0, time.UTC)

// seedMember creates a lead, an invitation and redeems it, returning the store under test.
func seedMember(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	db := storagetest.OpenSQLite(t)
	ctx := context.Background()

	if err := leadstore.NewSQLiteStore(db).Save(ctx, lead.Lead{ID: "l1", Name: "Lea", Email: "lea@example.de", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	invs := invitationstore.NewSQLiteStore(db)
	if _, err := invs.Create(ctx, invitation.Invitation{ID: "i1", LeadID: "l1", Token: "tok", ExpiresAt: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("seed invitation: %v", err)
	}
	u, err := invs.Redeem(ctx, invitationstore.RedeemParams{
		Token: "tok", UserID: "u1", AccountID: "a1", Email: "lea@example.de", PasswordHash: "$2a$12$x", Now: now,
	})
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	return NewSQLiteStore(db), u.ID
}

// TestSQLiteStore_GetByAccountID verifies lookup of the redeemed user.
func TestSQLiteStore_GetByAccountID(t *testing.T) {
	s, id := seedMember(t)
	ctx := context.Background()

	u, err := s.GetByAccountID(ctx, "a1")
	if err != nil {
		t.Fatalf("GetByAccountID: %v", err)
	}
	if u.ID != id || u.LeadID != "l1" || !u.IsActive || !u.LastLogin.IsZero() {
		t.Errorf("unexpected user: %+v", u)
	}
	if _, err := s.GetByAccountID(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

// TestSQLiteStore_UpdateLastLogin verifies the stamp and the missing case.
func TestSQLiteStore_UpdateLastLogin(t *testing.T) {
	s, id := seedMember(t)
	ctx := context.Background()
	login := now.Add(3 * time.Hour)

	if err := s.UpdateLastLogin(ctx, id, login); err != nil {
		t.Fatalf("UpdateLastLogin: %v", err)
	}
	u, _ := s.GetByID(ctx, id)
	if !u.LastLogin.Equal(login) {
		t.Errorf("LastLogin = %v, want %v", u.LastLogin, login)
	}
	if err := s.UpdateLastLogin(ctx, "missing", login); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

// TestSQLiteStore_CountByLeadAndList verifies member lookups used by the admin views.
func TestSQLiteStore_CountByLeadAndList(t *testing.T) {
	s, _ := seedMember(t)
	ctx := context.Background()

	if n, _ := s.CountByLead(ctx, "l1"); n != 1 {
		t.Errorf("CountByLead = %d, want 1", n)
	}
	if n, _ := s.CountByLead(ctx, "l2"); n != 0 {
		t.Errorf("CountByLead(other) = %d, want 0", n)
	}
	users, err := s.List(ctx, ListFilter{})
	if err != nil || len(users) != 1 {
		t.Errorf("List = %d %v", len(users), err)
	}
}
