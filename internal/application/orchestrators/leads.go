package orchestrators

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"innercircle/internal/domain/audit"
	"innercircle/internal/domain/lead"
)

var (
	ErrLeadNotFound  = errors.New("lead not found")
	ErrLeadHasMember = errors.New("lead already has a member account")
	ErrNoLeads       = errors.New("no leads selected")
)

// MsgLeadStale is shown when the admin acts on a lead that no longer exists.
const MsgLeadStale = "Eintrag wurde nicht gefunden oder bereits gelöscht. Bitte aktualisieren Sie die Seite."

// LeadStoreForAdmin defines the store interface needed by the admin lead orchestrators.
type LeadStoreForAdmin interface {
	GetByID(ctx context.Context, id string) (lead.Lead, error)
	Save(ctx context.Context, l lead.Lead) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int, error)
}

// MemberCounter reports whether a lead already became a member.
type MemberCounter interface {
	CountByLead(ctx context.Context, leadID string) (int, error)
}

// LeadAdminDeps holds dependencies for the admin lead orchestrators.
type LeadAdminDeps struct {
	LeadStore LeadStoreForAdmin
	Members   MemberCounter
	Audit     AuditRecorder
	Now       func() time.Time
}

// UpdateLeadStatusInput carries input for a review decision.
type UpdateLeadStatusInput struct {
	LeadID     string
	Status     string
	ReviewedBy string
	Notes      string
	Actor      Actor
}

// ExecuteUpdateLeadStatus applies an admin status change to a lead.
// PRE: Status is one of lead.ValidStatuses
// POST: Status and reviewed_at updated; ErrLeadNotFound if the lead is gone
func ExecuteUpdateLeadStatus(ctx context.Context, input UpdateLeadStatusInput, deps LeadAdminDeps) (lead.Lead, error) {
	if !lead.IsValidStatus(input.Status) {
		return lead.Lead{}, lead.ErrInvalidStatus
	}
	l, err := getLead(ctx, deps.LeadStore, input.LeadID)
	if err != nil {
		return lead.Lead{}, err
	}

	previous := l.EffectiveStatus()
	now := deps.Now()
	if err := l.ApplyStatus(input.Status, input.ReviewedBy, strings.TrimSpace(input.Notes), now); err != nil {
		return lead.Lead{}, err
	}
	if err := l.Validate(); err != nil {
		return lead.Lead{}, err
	}
	if err := deps.LeadStore.Save(ctx, l); err != nil {
		return lead.Lead{}, err
	}

	recordAudit(ctx, deps.Audit, input.Actor, auditEntry{
		Category:     audit.CategoryLead,
		Action:       audit.ActionUpdate,
		ResourceType: "lead",
		ResourceID:   l.ID,
		Description:  fmt.Sprintf("status %s -> %s", previous, l.Status),
	}, now)
	slog.Info("lead_event", "event", "status_changed", "lead_id", l.ID, "from", previous, "to", l.Status)
	return l, nil
}

// DeleteLeadInput carries input for deleting a single lead.
type DeleteLeadInput struct {
	LeadID string
	Actor  Actor
}

// ExecuteDeleteLead removes a lead and its invitations.
// PRE: LeadID is non-empty
// POST: Lead removed; ErrLeadHasMember if an invitation was already redeemed
func ExecuteDeleteLead(ctx context.Context, input DeleteLeadInput, deps LeadAdminDeps) error {
	if err := refuseMembers(ctx, deps.Members, input.LeadID); err != nil {
		return err
	}
	if err := deps.LeadStore.Delete(ctx, input.LeadID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrLeadNotFound
		}
		return err
	}

	recordAudit(ctx, deps.Audit, input.Actor, auditEntry{
		Category:     audit.CategoryLead,
		Action:       audit.ActionDelete,
		Severity:     audit.SeverityWarning,
		ResourceType: "lead",
		ResourceID:   input.LeadID,
	}, deps.Now())
	slog.Info("lead_event", "event", "lead_deleted", "lead_id", input.LeadID)
	return nil
}

// BulkDeleteLeadsInput carries input for deleting several leads at once.
type BulkDeleteLeadsInput struct {
	LeadIDs []string
	Actor   Actor
}

// ExecuteBulkDeleteLeads removes every selected lead in one store call.
// PRE: LeadIDs is non-empty
// POST: Returns the number of deleted leads; nothing is deleted if any lead has a member
func ExecuteBulkDeleteLeads(ctx context.Context, input BulkDeleteLeadsInput, deps LeadAdminDeps) (int, error) {
	ids := dedupe(input.LeadIDs)
	if len(ids) == 0 {
		return 0, ErrNoLeads
	}
	for _, id := range ids {
		if err := refuseMembers(ctx, deps.Members, id); err != nil {
			return 0, err
		}
	}

	n, err := deps.LeadStore.DeleteMany(ctx, ids)
	if err != nil {
		return 0, err
	}

	metadata, _ := json.Marshal(map[string][]string{"ids": ids})
	recordAudit(ctx, deps.Audit, input.Actor, auditEntry{
		Category:     audit.CategoryLead,
		Action:       audit.ActionDelete,
		Severity:     audit.SeverityWarning,
		ResourceType: "lead",
		Description:  fmt.Sprintf("bulk delete: %d of %d selected", n, len(ids)),
		Metadata:     string(metadata),
	}, deps.Now())
	slog.Info("lead_event", "event", "leads_bulk_deleted", "selected", len(ids), "deleted", n)
	return n, nil
}

func getLead(ctx context.Context, store interface {
	GetByID(ctx context.Context, id string) (lead.Lead, error)
}, id string) (lead.Lead, error) {
	l, err := store.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return lead.Lead{}, ErrLeadNotFound
	}
	return l, err
}

func refuseMembers(ctx context.Context, members MemberCounter, leadID string) error {
	if members == nil {
		return nil
	}
	n, err := members.CountByLead(ctx, leadID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %s", ErrLeadHasMember, leadID)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
