package outbox

import (
	"errors"
	"strings"
	"time"
)

// Entry statuses. Pending entries wait for NextAttemptAt; the other three are final
// unless an admin requeues a failed entry.
const (
	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// KindInvitationEmail is the only message kind so far.
const KindInvitationEmail = "invitation_email"

const (
	DefaultMaxAttempts = 5
	RetryBase          = time.Minute
	RetryCap           = time.Hour
)

var (
	ErrEmptyKind      = errors.New("outbox: kind is required")
	ErrEmptyRecipient = errors.New("outbox: recipient is required")
	ErrEmptyPayload   = errors.New("outbox: payload is required")
	ErrAlreadySent    = errors.New("outbox: message was already sent")
	ErrNotRequeueable = errors.New("outbox: only failed or abandoned messages can be requeued")
)

// Entry is one queued outgoing message. Payload is the JSON the executor for Kind understands.
type Entry struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"`
	Recipient       string    `json:"recipient"`
	Payload         string    `json:"-"`
	Status          string    `json:"status"`
	Attempts        int       `json:"attempts"`
	MaxAttempts     int       `json:"max_attempts"`
	NextAttemptAt   time.Time `json:"next_attempt_at"`
	LastAttemptedAt time.Time `json:"last_attempted_at"`
	CreatedAt       time.Time `json:"created_at"`
	ProviderID      string    `json:"provider_id,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
}

// New queues a message for immediate delivery.
func New(id, kind, recipient, payload string, now time.Time) Entry {
	return Entry{
		ID:            id,
		Kind:          kind,
		Recipient:     strings.ToLower(strings.TrimSpace(recipient)),
		Payload:       payload,
		Status:        StatusPending,
		MaxAttempts:   DefaultMaxAttempts,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
}

func (e Entry) Validate() error {
	switch {
	case e.Kind == "":
		return ErrEmptyKind
	case e.Recipient == "":
		return ErrEmptyRecipient
	case e.Payload == "":
		return ErrEmptyPayload
	}
	return nil
}

// Due reports whether the processor should attempt the entry at now.
func (e Entry) Due(now time.Time) bool {
	return e.Status == StatusPending && !now.Before(e.NextAttemptAt)
}

// Succeeded records a delivery accepted by the provider.
// POST: Status is sent; LastError is cleared
func (e *Entry) Succeeded(now time.Time, providerID string) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusSent
	e.ProviderID = providerID
	e.LastError = ""
}

// Failed records a failed delivery attempt.
// POST: Entry is failed once MaxAttempts is reached, otherwise rescheduled after Backoff
func (e *Entry) Failed(now time.Time, err error) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.LastError = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
		return
	}
	e.NextAttemptAt = now.Add(Backoff(e.Attempts))
}

// Requeue gives a failed or abandoned entry one more attempt at now.
func (e *Entry) Requeue(now time.Time) error {
	if e.Status != StatusFailed && e.Status != StatusAbandoned {
		return ErrNotRequeueable
	}
	e.Status = StatusPending
	e.NextAttemptAt = now
	if e.MaxAttempts <= e.Attempts {
		e.MaxAttempts = e.Attempts + 1
	}
	return nil
}

// Abandon stops further delivery attempts.
func (e *Entry) Abandon() error {
	if e.Status == StatusSent {
		return ErrAlreadySent
	}
	e.Status = StatusAbandoned
	return nil
}

// Backoff is the wait after the given number of failed attempts: RetryBase doubled
// per earlier failure, capped at RetryCap.
func Backoff(failures int) time.Duration {
	if failures <= 0 {
		return 0
	}
	if failures > 16 {
		return RetryCap
	}
	d := RetryBase << (failures - 1)
	if d > RetryCap {
		return RetryCap
	}
	return d
}
