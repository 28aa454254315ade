// Package account holds login identities: the seeded admin and invited members.
package account

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

const (
	MaxEmailLength = 254

	// MaxFailedLogins consecutive wrong passwords lock the account for LockoutDuration.
	MaxFailedLogins = 5
	LockoutDuration = 15 * time.Minute

	// HashCost is the bcrypt cost for new hashes. Hashes made at another
	// cost are replaced on the next successful login.
	HashCost = 12
)

// Role policies. Members keep the short minimum of the public signup page.
var minPassword = map[string]int{
	RoleAdmin:  12,
	RoleMember: 6,
}

// Messages shown on the registration page.
const (
	MsgPasswordMismatch = "Passwörter stimmen nicht überein."
	MsgPasswordTooShort = "Passwort muss mindestens 6 Zeichen lang sein."
)

var (
	ErrEmptyEmail       = errors.New("account: email is required")
	ErrEmailTooLong     = errors.New("account: email is too long")
	ErrInvalidEmail     = errors.New("account: email is malformed")
	ErrInvalidRole      = errors.New("account: unknown role")
	ErrEmptyPassword    = errors.New("account: password is required")
	ErrPasswordTooShort = errors.New("account: password is too short")
	ErrPasswordMismatch = errors.New("account: passwords differ")
	ErrWrongPassword    = errors.New("account: wrong password")
	ErrEmailTaken       = errors.New("account: email already registered")
)

// Account is one login identity.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	Status       string
	CreatedAt    time.Time
	FailedLogins int
	LockedUntil  time.Time
}

// New returns an active account with a normalised email. The password is set separately.
func New(id, email, role string, now time.Time) Account {
	return Account{
		ID:        id,
		Email:     NormalizeEmail(email),
		Role:      role,
		Status:    StatusActive,
		CreatedAt: now.UTC(),
	}
}

// NormalizeEmail folds case and trims space so lookups match regardless of input form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *Account) Validate() error {
	email := strings.TrimSpace(a.Email)
	switch {
	case email == "":
		return ErrEmptyEmail
	case len(email) > MaxEmailLength:
		return ErrEmailTooLong
	case strings.Count(email, "@") != 1 || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@"):
		return ErrInvalidEmail
	}
	if _, ok := minPassword[a.Role]; !ok {
		return ErrInvalidRole
	}
	return nil
}

// MinPasswordLength is the shortest password role accepts. Unknown roles get the admin rule.
func MinPasswordLength(role string) int {
	if n, ok := minPassword[role]; ok {
		return n
	}
	return minPassword[RoleAdmin]
}

// CheckNewPassword applies the form rules: present, confirmed, long enough.
func CheckNewPassword(role, password, confirm string) error {
	switch {
	case password == "":
		return ErrEmptyPassword
	case password != confirm:
		return ErrPasswordMismatch
	case len(password) < MinPasswordLength(role):
		return ErrPasswordTooShort
	}
	return nil
}

// SetPassword replaces the hash.
// PRE: a.Role is set
func (a *Account) SetPassword(plaintext string) error {
	if err := CheckNewPassword(a.Role, plaintext, plaintext); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), HashCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports ErrWrongPassword unless plaintext matches the hash.
func (a Account) CheckPassword(plaintext string) error {
	if a.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)) != nil {
		return ErrWrongPassword
	}
	return nil
}

// NeedsRehash reports whether the stored hash was made at a cost other than HashCost.
func (a Account) NeedsRehash() bool {
	cost, err := bcrypt.Cost([]byte(a.PasswordHash))
	return err == nil && cost != HashCost
}

func (a Account) IsLocked(now time.Time) bool {
	return !a.LockedUntil.IsZero() && now.Before(a.LockedUntil)
}

// RecordFailedLogin counts a wrong password and reports whether this attempt locked the account.
func (a *Account) RecordFailedLogin(now time.Time) (locked bool) {
	a.FailedLogins++
	if a.FailedLogins < MaxFailedLogins {
		return false
	}
	a.LockedUntil = now.Add(LockoutDuration)
	return true
}

func (a *Account) ResetFailedLogins() {
	a.FailedLogins = 0
	a.LockedUntil = time.Time{}
}

func (a Account) IsAdmin() bool    { return a.Role == RoleAdmin }
func (a Account) IsDisabled() bool { return a.Status == StatusDisabled }
