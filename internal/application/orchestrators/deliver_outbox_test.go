package orchestrators

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	emailAdapter "innercircle/internal/adapters/email"
	"innercircle/internal/domain/outbox"
)

type stubExecutor struct {
	calls int
	err   error
}

func (s *stubExecutor) Execute(_ context.Context, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "msg-1", nil
}

func newProcessor(store *mockOutbox, exec ActionExecutor, now *time.Time) *OutboxProcessor {
	p := NewOutboxProcessor(store, map[string]ActionExecutor{outbox.KindInvitationEmail: exec})
	p.now = func() time.Time { return *now }
	return p
}

func queued(id string) outbox.Entry {
	e := outbox.New(id, outbox.KindInvitationEmail, id+"@example.de", "{}", fixedTime)
	e.MaxAttempts = 3
	return e
}

func TestOutboxProcessor_Sends(t *testing.T) {
	store := newMockOutbox()
	store.entries["e1"] = queued("e1")
	now := fixedTime
	exec := &stubExecutor{}

	if err := newProcessor(store, exec, &now).ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	e := store.entries["e1"]
	if e.Status != outbox.StatusSent || e.ProviderID != "msg-1" || e.Attempts != 1 || !e.LastAttemptedAt.Equal(fixedTime) {
		t.Errorf("unexpected entry: %+v", e)
	}
}

// TestOutboxProcessor_Backoff verifies failed entries wait out their backoff and finally fail.
func TestOutboxProcessor_Backoff(t *testing.T) {
	store := newMockOutbox()
	store.entries["e1"] = queued("e1")
	now := fixedTime
	exec := &stubExecutor{err: errors.New("provider down")}
	p := newProcessor(store, exec, &now)
	ctx := context.Background()

	p.ProcessPending(ctx)
	p.ProcessPending(ctx) // still inside the backoff window
	if exec.calls != 1 {
		t.Fatalf("calls = %d, want 1 (backoff)", exec.calls)
	}
	if e := store.entries["e1"]; e.Status != outbox.StatusPending || e.LastError != "provider down" {
		t.Errorf("unexpected entry after first failure: %+v", e)
	}

	for i := 0; i < 2; i++ {
		now = now.Add(2 * time.Hour)
		p.ProcessPending(ctx)
	}
	e := store.entries["e1"]
	if exec.calls != 3 || e.Status != outbox.StatusFailed {
		t.Errorf("calls=%d entry=%+v, want failure after 3 attempts", exec.calls, e)
	}

	// An admin retry grants one more attempt
	exec.err = nil
	got, err := p.Retry(ctx, "e1")
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if got.Status != outbox.StatusSent || exec.calls != 4 || store.entries["e1"].Status != outbox.StatusSent {
		t.Errorf("after retry: %+v", got)
	}
	if _, err := p.Retry(ctx, "e1"); !errors.Is(err, outbox.ErrNotRequeueable) {
		t.Errorf("Retry on a sent entry = %v, want ErrNotRequeueable", err)
	}
}

func TestOutboxProcessor_UnknownKindAndAbandon(t *testing.T) {
	store := newMockOutbox()
	odd := queued("e2")
	odd.Kind = "fax"
	store.entries["e2"] = odd
	now := fixedTime
	p := newProcessor(store, &stubExecutor{}, &now)
	ctx := context.Background()

	if err := p.ProcessPending(ctx); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if e := store.entries["e2"]; !strings.Contains(e.LastError, "no executor") || e.Attempts != 1 {
		t.Errorf("unexpected entry: %+v", e)
	}

	if _, err := p.Abandon(ctx, "e2"); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if store.entries["e2"].Status != outbox.StatusAbandoned {
		t.Error("entry should be abandoned")
	}
	if _, err := p.Abandon(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Abandon(missing) = %v, want sql.ErrNoRows", err)
	}
}

func TestOutboxProcessor_Prune(t *testing.T) {
	store := newMockOutbox()
	old := queued("old")
	old.Succeeded(fixedTime, "msg-old")
	store.entries["old"] = old
	store.entries["open"] = queued("open")
	now := fixedTime.Add(OutboxRetention + time.Hour)

	if err := newProcessor(store, &stubExecutor{}, &now).Prune(context.Background()); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if _, ok := store.entries["old"]; ok {
		t.Error("sent entry past retention should be pruned")
	}
	if _, ok := store.entries["open"]; !ok {
		t.Error("pending entry must be kept")
	}
}

// TestInvitationEmailExecutor verifies the payload is rendered and sent.
func TestInvitationEmailExecutor(t *testing.T) {
	sender := emailAdapter.NewNoopSender()
	exec := &InvitationEmailExecutor{Sender: sender, Location: time.UTC}
	payload, _ := json.Marshal(InvitationEmailPayload{To: "sarah@example.de", Name: "Sarah", Link: "https://coachisi.de/?invitation=abc", ExpiresAt: fixedTime})

	id, err := exec.Execute(context.Background(), string(payload))
	if err != nil || id == "" {
		t.Fatalf("Execute: id=%q err=%v", id, err)
	}
	sent := sender.Delivered()
	if len(sent) != 1 || sent[0].To != "sarah@example.de" || !strings.Contains(sent[0].HTML, "invitation=abc") {
		t.Errorf("unexpected mail: %+v", sent)
	}

	if _, err := exec.Execute(context.Background(), "not json"); err == nil {
		t.Error("expected error for malformed payload")
	}
}
