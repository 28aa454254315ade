package middleware

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTTL is how long a login stays valid.
const SessionTTL = 24 * time.Hour

var (
	// ErrSessionRevoked is returned for tokens that were logged out.
	ErrSessionRevoked = errors.New("session revoked")
	errBadClaims      = errors.New("session token lacks required claims")
)

// Session is the identity carried by a verified token.
type Session struct {
	ID        string // jti, the revocation key
	AccountID string
	Email     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// SessionManager signs HS256 session tokens and remembers revoked ones
// until they would have expired.
type SessionManager struct {
	key []byte
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> expiry
}

// NewSessionManager signs with key.
// PRE: len(key) >= 32
func NewSessionManager(key []byte) *SessionManager {
	return &SessionManager{key: key, ttl: SessionTTL, now: time.Now, revoked: map[string]time.Time{}}
}

// Create issues a token for the account, valid for SessionTTL.
func (sm *SessionManager) Create(accountID, email, role string) (string, error) {
	issued := sm.now()
	c := claims{Email: email, Role: role}
	c.ID = uuid.NewString()
	c.Subject = accountID
	c.IssuedAt = jwt.NewNumericDate(issued)
	c.ExpiresAt = jwt.NewNumericDate(issued.Add(sm.ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(sm.key)
}

func (sm *SessionManager) keyFunc(*jwt.Token) (any, error) { return sm.key, nil }

// Parse verifies signature, expiry and revocation.
func (sm *SessionManager) Parse(raw string) (Session, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, sm.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(sm.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return Session{}, err
	}
	if c.Subject == "" || c.ID == "" || c.IssuedAt == nil {
		return Session{}, errBadClaims
	}
	if sm.isRevoked(c.ID) {
		return Session{}, ErrSessionRevoked
	}
	return Session{
		ID:        c.ID,
		AccountID: c.Subject,
		Email:     c.Email,
		Role:      c.Role,
		IssuedAt:  c.IssuedAt.Time,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

// Get is Parse for callers that only care whether the token is usable.
func (sm *SessionManager) Get(raw string) (Session, bool) {
	s, err := sm.Parse(raw)
	return s, err == nil
}

func (sm *SessionManager) isRevoked(id string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	_, ok := sm.revoked[id]
	return ok
}

// Revoke makes raw unusable. Invalid tokens are ignored.
// POST: entries past their expiry are dropped from the revocation set
func (sm *SessionManager) Revoke(raw string) {
	s, err := sm.Parse(raw)
	if err != nil {
		return
	}
	now := sm.now()
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for id, exp := range sm.revoked {
		if exp.Before(now) {
			delete(sm.revoked, id)
		}
	}
	sm.revoked[s.ID] = s.ExpiresAt
}
