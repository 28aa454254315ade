package email

import (
	"context"
	"errors"
	"strings"
)

// Categories tag outgoing mail at the provider so deliveries can be filtered per flow.
const (
	CategoryInvitation = "invitation"
)

var (
	ErrNoRecipient = errors.New("email needs a recipient")
	ErrNoSubject   = errors.New("email needs a subject")
)

// Message is one outgoing email to a single Pionier.
type Message struct {
	To       string
	Subject  string
	HTML     string
	Text     string // plain-text alternative; optional
	Category string
}

// Validate checks the fields every provider needs.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	if strings.TrimSpace(m.Subject) == "" {
		return ErrNoSubject
	}
	return nil
}

// Sender delivers a Message and returns the provider's message ID.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}
