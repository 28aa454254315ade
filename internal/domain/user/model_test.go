package user

import (
	"testing"
	"time"
)

// TestUser_Validate tests validation of User.
func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr error
	}{
		{"valid", User{LeadID: "l", InvitationID: "i", AccountID: "a"}, nil},
		{"no lead", User{InvitationID: "i", AccountID: "a"}, ErrEmptyLeadID},
		{"no invitation", User{LeadID: "l", AccountID: "a"}, ErrEmptyInvitationID},
		{"no account", User{LeadID: "l", InvitationID: "i"}, ErrEmptyAccountID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.user.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestUser_RecordLogin verifies the login timestamp is stored.
func TestUser_RecordLogin(t *testing.T) {
	now := time.Date(2025, 8, 16, 7, 30, 0, 0, time.UTC)
	u := User{}
	u.RecordLogin(now)
	if !u.LastLogin.Equal(now) || !u.UpdatedAt.Equal(now) {
		t.Errorf("unexpected timestamps: %+v", u)
	}
}

// TestSectionOrDefault verifies unknown sections fall back to the overview.
func TestSectionOrDefault(t *testing.T) {
	if got := SectionOrDefault("nutrition"); got != "nutrition" {
		t.Errorf("got %q, want nutrition", got)
	}
	if got := SectionOrDefault("admin"); got != "dashboard" {
		t.Errorf("got %q, want dashboard", got)
	}
}
