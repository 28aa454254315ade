package invitation

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// Status constants
const (
	StatusPending = "pending"
	StatusUsed    = "used"
	StatusExpired = "expired"
)

// ValidStatuses contains all valid status values.
var ValidStatuses = []string{StatusPending, StatusUsed, StatusExpired}

// IsValidStatus reports whether s is a known invitation status.
func IsValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// DefaultTTL is how long an invitation link stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// User-facing messages shown on the invitation page.
const (
	MsgNotFoundOrExpired  = "Einladung nicht gefunden oder abgelaufen."
	MsgLoadFailed         = "Fehler beim Laden der Einladung."
	MsgRegistrationFailed = "Fehler bei der Registrierung. Bitte versuchen Sie es erneut."
)

// Domain errors
var (
	ErrEmptyLeadID   = errors.New("lead_id is required")
	ErrEmptyToken    = errors.New("token is required")
	ErrNotPending    = errors.New("invitation has already been used or expired")
	ErrExpired       = errors.New("invitation has expired")
	ErrInvalidStatus = errors.New("status must be one of: pending, used, expired")
)

// Invitation grants one approved lead the right to create a member account.
type Invitation struct {
	ID        string
	LeadID    string
	Token     string
	Status    string
	ExpiresAt time.Time
	UsedAt    time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New builds a pending invitation for leadID that expires ttl after now.
// PRE: leadID is non-empty, ttl > 0
// POST: Returns a pending invitation with a fresh random token
func New(id, leadID string, ttl time.Duration, now time.Time) (Invitation, error) {
	if leadID == "" {
		return Invitation{}, ErrEmptyLeadID
	}
	token, err := GenerateToken()
	if err != nil {
		return Invitation{}, err
	}
	return Invitation{
		ID:        id,
		LeadID:    leadID,
		Token:     token,
		Status:    StatusPending,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate checks if the Invitation has valid data.
// PRE: Invitation struct is populated
// POST: Returns nil if valid, error otherwise
func (i *Invitation) Validate() error {
	if i.LeadID == "" {
		return ErrEmptyLeadID
	}
	if i.Token == "" {
		return ErrEmptyToken
	}
	if !IsValidStatus(i.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// IsExpired reports whether the invitation is past its expiry at now.
// INVARIANT: Invitation fields are not mutated
func (i *Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// CheckRedeemable rejects tokens that are not pending or are past their expiry.
// INVARIANT: Invitation fields are not mutated
func (i *Invitation) CheckRedeemable(now time.Time) error {
	if i.Status != StatusPending {
		return ErrNotPending
	}
	if i.IsExpired(now) {
		return ErrExpired
	}
	return nil
}

// Redeem marks the invitation as used.
// PRE: CheckRedeemable(now) == nil
// POST: Status is used, UsedAt is now
func (i *Invitation) Redeem(now time.Time) error {
	if err := i.CheckRedeemable(now); err != nil {
		return err
	}
	i.Status = StatusUsed
	i.UsedAt = now
	i.UpdatedAt = now
	return nil
}

// Expire marks a pending invitation whose expiry has passed as expired.
// POST: Returns true if the status changed
func (i *Invitation) Expire(now time.Time) bool {
	if i.Status != StatusPending || !i.IsExpired(now) {
		return false
	}
	i.Status = StatusExpired
	i.UpdatedAt = now
	return true
}

// GenerateToken returns 32 random bytes, hex encoded.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
