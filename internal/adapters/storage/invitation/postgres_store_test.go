package invitation

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	leadstore "innercircle/internal/adapters/storage/lead"
	"innercircle/internal/adapters/storage/storagetest"
	"innercircle/internal/domain/account"
	domain "innercircle/internal/domain/invitation"
	"innercircle/internal/domain/lead"
)

// TestPostgresStore runs the invitation procedures against a live database.
func TestPostgresStore(t *testing.T) {
	db := storagetest.OpenPostgres(t)
	ctx := context.Background()
	leads := leadstore.NewPostgresStore(db)
	for _, id := range []string{"l1", "l2"} {
		if err := leads.Save(ctx, lead.Lead{ID: id, Name: "Lea", Email: id + "@example.de", CreatedAt: now, UpdatedAt: now}); err != nil {
			t.Fatalf("seed lead: %v", err)
		}
	}
	s := NewPostgresStore(db)

	if _, err := s.Create(ctx, pending("i1", "l1", "tok1", now.Add(time.Hour))); err != nil {
		t.Fatalf("Create: %v", err)
	}
	s.Create(ctx, pending("i2", "l2", "tok2", now.Add(time.Hour)))
	s.Create(ctx, pending("i3", "l2", "late", now.Add(-time.Hour)))
	if _, err := s.Create(ctx, pending("i4", "missing", "tok4", now.Add(time.Hour))); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("unknown lead: expected sql.ErrNoRows, got %v", err)
	}

	u, err := s.Redeem(ctx, redeemParams("tok1", "lea@example.de"))
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if u.InvitationID != "i1" || u.LeadID != "l1" {
		t.Errorf("unexpected user: %+v", u)
	}
	if _, err := s.Redeem(ctx, redeemParams("tok1", "x@example.de")); !errors.Is(err, domain.ErrNotPending) {
		t.Errorf("expected ErrNotPending, got %v", err)
	}
	if _, err := s.Redeem(ctx, redeemParams("late", "y@example.de")); !errors.Is(err, domain.ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}
	if _, err := s.Redeem(ctx, redeemParams("tok2", "lea@example.de")); !errors.Is(err, account.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}

	n, err := s.ExpireOld(ctx, now)
	if err != nil || n != 1 {
		t.Errorf("ExpireOld: n=%d err=%v", n, err)
	}
	list, _ := s.List(ctx, ListFilter{LeadID: "l2"})
	if len(list) != 2 {
		t.Errorf("List(l2) = %d, want 2", len(list))
	}
}
