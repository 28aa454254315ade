package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"innercircle/internal/domain/audit"
)

// Actor identifies who triggered an operation, for the audit log.
type Actor = audit.Actor

// AuditRecorder persists audit events.
type AuditRecorder interface {
	Save(ctx context.Context, e audit.Event) error
}

// auditEntry is one event to record; zero fields are left empty.
type auditEntry struct {
	Category     audit.Category
	Action       audit.Action
	Severity     audit.Severity
	ResourceType string
	ResourceID   string
	Description  string
	Metadata     string
}

// recordAudit saves an audit event. Audit failures never fail the operation.
// PRE: none; a nil recorder disables auditing
func recordAudit(ctx context.Context, rec AuditRecorder, actor Actor, entry auditEntry, now time.Time) {
	if rec == nil {
		return
	}
	e := audit.New(uuid.New().String(), now, actor, entry.Category, entry.Action).
		About(entry.ResourceType, entry.ResourceID)
	e.Description = entry.Description
	e.Metadata = entry.Metadata
	if entry.Severity != "" {
		e.Severity = entry.Severity
	}
	if err := e.Validate(); err != nil {
		slog.Error("audit_event_invalid", "action", entry.Action, "error", err)
		return
	}
	if err := rec.Save(ctx, e); err != nil {
		slog.Error("audit_save_failed", "action", entry.Action, "resource_id", entry.ResourceID, "error", err)
	}
}

// AuditRetention is how long audit events are kept.
const AuditRetention = 2 * 365 * 24 * time.Hour

// AuditPruner deletes old audit events.
type AuditPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ExecutePruneAudit removes events older than AuditRetention and returns how many went.
func ExecutePruneAudit(ctx context.Context, store AuditPruner, now func() time.Time) (int64, error) {
	n, err := store.DeleteBefore(ctx, now().Add(-AuditRetention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("audit_pruned", "count", n)
	}
	return n, nil
}
