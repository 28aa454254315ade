package email

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
)

// NoopSender keeps messages in memory instead of delivering them.
// Used when no Resend key is configured and in tests.
type NoopSender struct {
	mu     sync.Mutex
	outbox []Message
}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

func (s *NoopSender) Send(_ context.Context, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.outbox = append(s.outbox, msg)
	id := "noop-" + strconv.Itoa(len(s.outbox))
	s.mu.Unlock()

	slog.Info("email_event", "event", "noop_send", "category", msg.Category, "message_id", id)
	return id, nil
}

// Delivered returns a copy of every message accepted so far.
func (s *NoopSender) Delivered() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.outbox...)
}
