package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"innercircle/internal/domain/audit"
	"innercircle/internal/domain/lead"
)

func seededLead(id, status string) lead.Lead {
	created := fixedTime.Add(-48 * time.Hour)
	return lead.Lead{ID: id, Name: "Sarah Müller", Email: id + "@example.de", Status: status, CreatedAt: created, UpdatedAt: created}
}

func leadAdminDeps(store *mockLeadStore, members mockMembers, rec *mockAudit) LeadAdminDeps {
	return LeadAdminDeps{LeadStore: store, Members: members, Audit: rec, Now: fixedNow}
}

// TestExecuteUpdateLeadStatus covers the review flow and the stale-entry case.
func TestExecuteUpdateLeadStatus(t *testing.T) {
	store := newMockLeadStore(seededLead("l1", ""))
	rec := &mockAudit{}
	deps := leadAdminDeps(store, nil, rec)

	l, err := ExecuteUpdateLeadStatus(context.Background(), UpdateLeadStatusInput{
		LeadID: "l1", Status: lead.StatusApproved, ReviewedBy: "Admin", Notes: " passt ",
	}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Status != lead.StatusApproved || !l.ReviewedAt.Equal(fixedTime) || l.Notes != "passt" {
		t.Errorf("unexpected lead: %+v", l)
	}
	if got := rec.last(); got.Action != audit.ActionUpdate || got.Description != "status new -> approved" {
		t.Errorf("unexpected audit event: %+v", got)
	}

	// Empty notes keep the previous notes.
	l, _ = ExecuteUpdateLeadStatus(context.Background(), UpdateLeadStatusInput{LeadID: "l1", Status: lead.StatusReviewed}, deps)
	if l.Notes != "passt" || l.ReviewedBy != "Admin" {
		t.Errorf("reviewer/notes must survive an empty update: %+v", l)
	}

	tests := []struct {
		name  string
		input UpdateLeadStatusInput
		want  error
	}{
		{"missing lead", UpdateLeadStatusInput{LeadID: "gone", Status: lead.StatusApproved}, ErrLeadNotFound},
		{"invalid status", UpdateLeadStatusInput{LeadID: "l1", Status: "maybe"}, lead.ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExecuteUpdateLeadStatus(context.Background(), tt.input, deps); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// TestExecuteDeleteLead verifies deletion, not-found and the member guard.
func TestExecuteDeleteLead(t *testing.T) {
	store := newMockLeadStore(seededLead("l1", ""), seededLead("l2", lead.StatusInvited))
	rec := &mockAudit{}
	deps := leadAdminDeps(store, mockMembers{"l2": 1}, rec)

	if err := ExecuteDeleteLead(context.Background(), DeleteLeadInput{LeadID: "l1"}, deps); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.leads["l1"]; ok {
		t.Error("lead l1 should be gone")
	}
	if rec.last().Severity != audit.SeverityWarning {
		t.Errorf("delete should audit with warning severity, got %+v", rec.last())
	}
	if err := ExecuteDeleteLead(context.Background(), DeleteLeadInput{LeadID: "l1"}, deps); !errors.Is(err, ErrLeadNotFound) {
		t.Errorf("expected ErrLeadNotFound, got %v", err)
	}
	if err := ExecuteDeleteLead(context.Background(), DeleteLeadInput{LeadID: "l2"}, deps); !errors.Is(err, ErrLeadHasMember) {
		t.Errorf("expected ErrLeadHasMember, got %v", err)
	}
}

// TestExecuteBulkDeleteLeads verifies de-duplication and the all-or-nothing member guard.
func TestExecuteBulkDeleteLeads(t *testing.T) {
	store := newMockLeadStore(seededLead("a", ""), seededLead("b", ""), seededLead("c", ""))
	deps := leadAdminDeps(store, mockMembers{"c": 1}, &mockAudit{})

	if _, err := ExecuteBulkDeleteLeads(context.Background(), BulkDeleteLeadsInput{LeadIDs: []string{" ", ""}}, deps); !errors.Is(err, ErrNoLeads) {
		t.Errorf("expected ErrNoLeads, got %v", err)
	}
	if _, err := ExecuteBulkDeleteLeads(context.Background(), BulkDeleteLeadsInput{LeadIDs: []string{"a", "c"}}, deps); !errors.Is(err, ErrLeadHasMember) {
		t.Errorf("expected ErrLeadHasMember, got %v", err)
	}
	if len(store.leads) != 3 {
		t.Fatalf("nothing may be deleted when one lead has a member, got %d left", len(store.leads))
	}

	n, err := ExecuteBulkDeleteLeads(context.Background(), BulkDeleteLeadsInput{LeadIDs: []string{"a", "b", "a", "missing"}}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}
}
