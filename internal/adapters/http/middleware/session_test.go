package middleware

import (
	"bytes"
	"errors"
	"testing"
	"time"

	domainAccount "innercircle/internal/domain/account"
)

var testKey = bytes.Repeat([]byte("k"), 32)

func newManager(now *time.Time) *SessionManager {
	sm := NewSessionManager(testKey)
	sm.now = func() time.Time { return *now }
	return sm
}

func TestSessionManager_RoundTrip(t *testing.T) {
	now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	sm := newManager(&now)

	token, err := sm.Create("acc-1", "sarah@example.de", domainAccount.RoleMember)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	s, err := sm.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.AccountID != "acc-1" || s.Email != "sarah@example.de" || s.Role != domainAccount.RoleMember || s.ID == "" {
		t.Errorf("unexpected session: %+v", s)
	}
	if !s.ExpiresAt.Equal(now.Add(SessionTTL)) {
		t.Errorf("ExpiresAt = %v, want %v", s.ExpiresAt, now.Add(SessionTTL))
	}
}

// TestSessionManager_Rejects covers expiry, tampering, foreign keys and revocation.
func TestSessionManager_Rejects(t *testing.T) {
	now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	sm := newManager(&now)
	token, _ := sm.Create("acc-1", "a@example.de", domainAccount.RoleAdmin)

	other := NewSessionManager(bytes.Repeat([]byte("x"), 32))
	if _, err := other.Parse(token); err == nil {
		t.Error("expected signature error for foreign key")
	}
	if _, err := sm.Parse(token + "x"); err == nil {
		t.Error("expected error for tampered token")
	}

	later := now.Add(SessionTTL + time.Minute)
	expired := newManager(&later)
	if _, err := expired.Parse(token); err == nil {
		t.Error("expected error for expired token")
	}

	sm.Revoke(token)
	if _, err := sm.Parse(token); !errors.Is(err, ErrSessionRevoked) {
		t.Errorf("expected ErrSessionRevoked, got %v", err)
	}
	fresh, _ := sm.Create("acc-1", "a@example.de", domainAccount.RoleAdmin)
	if _, ok := sm.Get(fresh); !ok {
		t.Error("revoking one token must not affect another")
	}
}

func TestSessionManager_RevocationsPruned(t *testing.T) {
	now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	sm := newManager(&now)
	old, _ := sm.Create("acc-1", "a@example.de", domainAccount.RoleMember)
	sm.Revoke(old)

	now = now.Add(SessionTTL + time.Hour)
	current, _ := sm.Create("acc-1", "a@example.de", domainAccount.RoleMember)
	sm.Revoke(current)
	if len(sm.revoked) != 1 {
		t.Errorf("revocation set has %d entries, want only the live token", len(sm.revoked))
	}
}

func TestSessionManager_RejectsMissingSubject(t *testing.T) {
	now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	sm := newManager(&now)
	token, err := sm.Create("", "a@example.de", domainAccount.RoleMember)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sm.Parse(token); !errors.Is(err, errBadClaims) {
		t.Errorf("Parse = %v, want errBadClaims", err)
	}
}
