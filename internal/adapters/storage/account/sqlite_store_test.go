package account

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"innercircle/internal/adapters/storage/storagetest"
	domain "innercircle/internal/domain/account"
)

var t0 = time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)

func sampleAccount(id, email, role string, created time.Time) domain.Account {
	a := domain.New(id, email, role, created)
	a.PasswordHash = "$2a$12$placeholder"
	return a
}

// exerciseStore is the behaviour both drivers share.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	admin := sampleAccount("a1", "Admin@CoachIsi.de", domain.RoleAdmin, t0)
	admin.Email = "  Admin@CoachIsi.de "
	if err := s.Save(ctx, admin); err != nil {
		t.Fatalf("Save: %v", err)
	}
	for _, m := range []domain.Account{
		sampleAccount("m1", "m1@example.de", domain.RoleMember, t0.Add(time.Hour)),
		sampleAccount("m2", "m2@example.de", domain.RoleMember, t0.Add(2*time.Hour)),
	} {
		if err := s.Save(ctx, m); err != nil {
			t.Fatalf("Save(%s): %v", m.ID, err)
		}
	}

	got, err := s.GetByEmail(ctx, "ADMIN@coachisi.de")
	if err != nil || got.ID != "a1" || got.Email != "admin@coachisi.de" {
		t.Fatalf("GetByEmail = %+v, %v", got, err)
	}
	if !got.CreatedAt.Equal(t0) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, t0)
	}

	for i := 0; i < domain.MaxFailedLogins; i++ {
		got.RecordFailedLogin(t0)
	}
	got.CreatedAt = t0.Add(24 * time.Hour)
	if err := s.Save(ctx, got); err != nil {
		t.Fatalf("Save(update): %v", err)
	}
	got, _ = s.GetByID(ctx, "a1")
	if !got.IsLocked(t0.Add(time.Minute)) || got.FailedLogins != domain.MaxFailedLogins {
		t.Errorf("lockout not persisted: %+v", got)
	}
	if !got.CreatedAt.Equal(t0) {
		t.Errorf("an update overwrote created_at: %v", got.CreatedAt)
	}

	if _, err := s.GetByEmail(ctx, "nobody@example.de"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetByEmail(missing) = %v, want sql.ErrNoRows", err)
	}
	if err := s.Save(ctx, sampleAccount("a2", "M1@example.de", domain.RoleMember, t0)); !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("duplicate email = %v, want ErrEmailTaken", err)
	}

	if n, _ := s.CountByRole(ctx, domain.RoleAdmin); n != 1 {
		t.Errorf("admins = %d, want 1", n)
	}
	if n, _ := s.CountByRole(ctx, ""); n != 3 {
		t.Errorf("all = %d, want 3", n)
	}
	members, err := s.List(ctx, ListFilter{Role: domain.RoleMember})
	if err != nil || len(members) != 2 || members[0].ID != "m2" {
		t.Errorf("List(member) = %+v, %v", members, err)
	}
	if one, _ := s.List(ctx, ListFilter{Limit: 1}); len(one) != 1 {
		t.Errorf("List(limit 1) = %d rows", len(one))
	}
}

func TestSQLiteStore(t *testing.T) {
	exerciseStore(t, NewSQLiteStore(storagetest.OpenSQLite(t)))
}
