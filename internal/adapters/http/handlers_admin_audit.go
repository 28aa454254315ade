package web

import (
	"net/http"
	"strconv"
	"time"

	auditStore "innercircle/internal/adapters/storage/audit"
	auditDomain "innercircle/internal/domain/audit"
)

const maxAuditRows = 1000

// parseAuditFilter reads the trail filter from the query string.
// Dates are whole days in the display time zone; "to" includes the named day.
func parseAuditFilter(r *http.Request) auditStore.Filter {
	q := r.URL.Query()
	f := auditStore.Filter{
		Category:    auditDomain.Category(q.Get("category")),
		Action:      auditDomain.Action(q.Get("action")),
		ActorEmail:  q.Get("actor"),
		ResourceID:  q.Get("resource_id"),
		MinSeverity: auditDomain.Severity(q.Get("severity")),
		Search:      q.Get("q"),
		Limit:       auditStore.DefaultLimit,
	}
	if day, err := time.ParseInLocation(time.DateOnly, q.Get("from"), settings.Location); err == nil {
		f.From = day
	}
	if day, err := time.ParseInLocation(time.DateOnly, q.Get("to"), settings.Location); err == nil {
		f.To = day.AddDate(0, 0, 1)
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		f.Limit = min(n, maxAuditRows)
	}
	return f
}

// handleAdminAuditTrail renders GET /admin/audit.
// PRE: Admin session
func handleAdminAuditTrail(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	filter := parseAuditFilter(r)
	events, err := stores.AuditStore.List(r.Context(), filter)
	if err != nil {
		internalError(w, err)
		return
	}

	q := r.URL.Query()
	renderTemplate(w, r, "admin_audit_trail.html", map[string]any{
		"Events":     events,
		"Filter":     filter,
		"From":       q.Get("from"),
		"To":         q.Get("to"),
		"Categories": auditDomain.Categories,
		"Severities": auditDomain.Severities,
	})
}
