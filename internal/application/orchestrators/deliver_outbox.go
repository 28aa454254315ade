package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	emailAdapter "innercircle/internal/adapters/email"
	outboxStore "innercircle/internal/adapters/storage/outbox"
	domain "innercircle/internal/domain/outbox"
)

// OutboxRetention is how long sent entries are kept before Prune removes them.
const OutboxRetention = 30 * 24 * time.Hour

// ErrNoExecutor is recorded on entries whose kind has no registered executor.
var ErrNoExecutor = errors.New("no executor registered for outbox kind")

// ActionExecutor delivers the payload of one outbox kind and returns the provider's ID.
type ActionExecutor interface {
	Execute(ctx context.Context, payload string) (string, error)
}

// OutboxProcessor delivers due outbox entries. Failed attempts are rescheduled by the
// entry itself, so the processor only ever asks the store for what is due now.
type OutboxProcessor struct {
	store     outboxStore.Store
	executors map[string]ActionExecutor
	batchSize int
	now       func() time.Time
}

func NewOutboxProcessor(store outboxStore.Store, executors map[string]ActionExecutor) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		batchSize: 20,
		now:       time.Now,
	}
}

// ProcessPending attempts every due entry once.
// POST: Each attempted entry is saved as sent, rescheduled or failed
func (p *OutboxProcessor) ProcessPending(ctx context.Context) error {
	entries, err := p.store.ListDue(ctx, p.now(), p.batchSize)
	if err != nil {
		return fmt.Errorf("list due outbox entries: %w", err)
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := p.deliver(ctx, e); err != nil {
			slog.Error("outbox_event", "event", "save_failed", "entry_id", e.ID, "error", err)
		}
	}
	return nil
}

// Retry requeues a failed or abandoned entry and attempts it immediately.
// PRE: entryID names an existing entry
// POST: Returns the entry as saved after the attempt
func (p *OutboxProcessor) Retry(ctx context.Context, entryID string) (domain.Entry, error) {
	e, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return domain.Entry{}, err
	}
	if err := e.Requeue(p.now()); err != nil {
		return e, err
	}
	return p.deliver(ctx, e)
}

// Abandon stops delivery of an entry that has not been sent.
func (p *OutboxProcessor) Abandon(ctx context.Context, entryID string) (domain.Entry, error) {
	e, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return domain.Entry{}, err
	}
	if err := e.Abandon(); err != nil {
		return e, err
	}
	slog.Info("outbox_event", "event", "abandoned", "entry_id", e.ID, "kind", e.Kind)
	return e, p.store.Save(ctx, e)
}

// Prune removes sent entries older than OutboxRetention.
func (p *OutboxProcessor) Prune(ctx context.Context) error {
	n, err := p.store.PruneSent(ctx, p.now().Add(-OutboxRetention))
	if err != nil {
		return fmt.Errorf("prune outbox: %w", err)
	}
	if n > 0 {
		slog.Info("outbox_event", "event", "pruned", "count", n)
	}
	return nil
}

func (p *OutboxProcessor) deliver(ctx context.Context, e domain.Entry) (domain.Entry, error) {
	now := p.now()
	executor, ok := p.executors[e.Kind]
	if !ok {
		e.Failed(now, fmt.Errorf("%w: %s", ErrNoExecutor, e.Kind))
		return e, p.store.Save(ctx, e)
	}

	providerID, err := executor.Execute(ctx, e.Payload)
	if err != nil {
		e.Failed(now, err)
		slog.Warn("outbox_event", "event", "attempt_failed", "entry_id", e.ID, "kind", e.Kind,
			"attempt", e.Attempts, "status", e.Status, "next_attempt_at", e.NextAttemptAt, "error", err)
	} else {
		e.Succeeded(now, providerID)
		slog.Info("outbox_event", "event", "sent", "entry_id", e.ID, "kind", e.Kind, "provider_id", providerID)
	}
	return e, p.store.Save(ctx, e)
}

// InvitationEmailExecutor sends the invitation email queued by CreateInvitation.
type InvitationEmailExecutor struct {
	Sender   emailAdapter.Sender
	Location *time.Location
}

// Execute renders and sends the invitation email.
// PRE: payload is an InvitationEmailPayload as JSON
func (e *InvitationEmailExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p InvitationEmailPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", fmt.Errorf("unmarshal payload: %w", err)
	}
	msg, err := emailAdapter.RenderInvitation(p.To, emailAdapter.InvitationMail{
		Name: p.Name, Link: p.Link, ExpiresAt: p.ExpiresAt,
	}, e.Location)
	if err != nil {
		return "", err
	}
	return e.Sender.Send(ctx, msg)
}
