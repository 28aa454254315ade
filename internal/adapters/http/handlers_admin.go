package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"innercircle/internal/adapters/storage/lead"
	"innercircle/internal/application/listutil"
	"innercircle/internal/application/orchestrators"
	"innercircle/internal/application/projections"
	"innercircle/internal/domain/export"
	domainLead "innercircle/internal/domain/lead"
)

const (
	msgLeadHasMember   = "Dieser Eintrag hat bereits ein Mitgliedskonto und kann nicht gelöscht werden."
	msgNoLeadsSelected = "Bitte wählen Sie mindestens einen Eintrag aus."
	msgLeadNotApproved = "Nur genehmigte Einträge können eingeladen werden."
	msgInvalidStatus   = "Ungültiger Status."

	// overviewRows is how many recent leads and downloads the dashboard shows.
	overviewRows = 10
)

func leadAdminDeps() orchestrators.LeadAdminDeps {
	return orchestrators.LeadAdminDeps{
		LeadStore: stores.LeadStore,
		Members:   stores.UserStore,
		Audit:     stores.AuditStore,
		Now:       timeNow,
	}
}

func exportDeps() orchestrators.ExportDeps {
	return orchestrators.ExportDeps{Audit: stores.AuditStore, Location: settings.Location, Now: timeNow}
}

// nowLocal returns the current time in the display time zone.
func nowLocal() func() time.Time {
	return func() time.Time { return timeNow().In(settings.Location) }
}

// backTo returns the admin page a form asked to return to, or fallback.
// Only local /admin paths are accepted.
func backTo(r *http.Request, fallback string) string {
	ret := r.FormValue("return")
	if strings.HasPrefix(ret, "/admin") && !strings.HasPrefix(ret, "//") {
		return ret
	}
	return fallback
}

// handleAdminDashboard renders the admin overview (GET /admin).
// PRE: Admin session
// POST: Stats, recent leads, recent downloads and recipes are shown
func handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	overview, err := projections.QueryAdminOverview(r.Context(), projections.AdminOverviewDeps{
		LeadStore:   stores.LeadStore,
		RecipeStore: stores.RecipeStore,
		Now:         nowLocal(),
	})
	if err != nil {
		internalError(w, err)
		return
	}

	titles := export.RecipeTitles(overview.Recipes)
	recent := projections.QueryDownloadList(overview.Downloads, titles, listutil.ListParams{
		PageParams: listutil.PageParams{Page: 1, PerPage: overviewRows},
	})
	leads := overview.Leads
	if len(leads) > overviewRows {
		leads = leads[:overviewRows]
	}

	renderTemplate(w, r, "admin_dashboard.html", map[string]any{
		"LeadStats":       overview.LeadStats,
		"DownloadStats":   overview.DownloadStats,
		"Sources":         overview.DownloadStats.SortedSources(),
		"RecentLeads":     leads,
		"RecentDownloads": recent.Rows,
		"Recipes":         overview.Recipes,
	})
}

func parseLeadListParams(r *http.Request) listutil.ListParams {
	return listutil.ParseListParams(r.URL.Query(), projections.LeadSortColumns, "created_at", listutil.Desc, []string{"status"})
}

// handleAdminLeads renders the searchable lead table (GET /admin/leads).
func handleAdminLeads(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	leads, err := stores.LeadStore.List(r.Context(), lead.ListFilter{})
	if err != nil {
		internalError(w, err)
		return
	}
	lp := parseLeadListParams(r)
	list := projections.QueryLeadList(leads, lp)

	renderTemplate(w, r, "admin_leads.html", map[string]any{
		"List":           list,
		"Statuses":       domainLead.ValidStatuses,
		"PerPageOptions": listutil.PerPageOptions,
		"Return":         r.URL.RequestURI(),
	})
}

// handleAdminLeadExport streams the filtered lead table as CSV (GET /admin/leads/export).
// POST: Rows match the table for the same query string, across all pages
func handleAdminLeadExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	leads, err := stores.LeadStore.List(r.Context(), lead.ListFilter{})
	if err != nil {
		internalError(w, err)
		return
	}
	filtered := projections.FilterLeads(leads, parseLeadListParams(r))

	res, err := orchestrators.ExecuteExportLeads(r.Context(), filtered, actorFromRequest(r), exportDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	writeCSV(w, res)
}

func writeCSV(w http.ResponseWriter, res orchestrators.ExportResult) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Write(res.Data)
}

// handleAdminLeadStatus handles POST /admin/leads/status (id, status, notes).
// POST: Status changed; a vanished lead yields the stale-entry message
func handleAdminLeadStatus(w http.ResponseWriter, r *http.Request) {
	if !parseAdminPost(w, r) {
		return
	}
	_, err := orchestrators.ExecuteUpdateLeadStatus(r.Context(), orchestrators.UpdateLeadStatusInput{
		LeadID:     r.FormValue("id"),
		Status:     r.FormValue("status"),
		ReviewedBy: actorFromRequest(r).Email,
		Notes:      r.FormValue("notes"),
		Actor:      actorFromRequest(r),
	}, leadAdminDeps())
	switch {
	case errors.Is(err, orchestrators.ErrLeadNotFound):
		http.Error(w, orchestrators.MsgLeadStale, http.StatusNotFound)
	case errors.Is(err, domainLead.ErrInvalidStatus), errors.Is(err, domainLead.ErrNotesTooLong):
		http.Error(w, msgInvalidStatus, http.StatusBadRequest)
	case err != nil:
		internalError(w, err)
	default:
		http.Redirect(w, r, backTo(r, "/admin/leads"), http.StatusSeeOther)
	}
}

// handleAdminLeadDelete handles POST /admin/leads/delete (id).
func handleAdminLeadDelete(w http.ResponseWriter, r *http.Request) {
	if !parseAdminPost(w, r) {
		return
	}
	err := orchestrators.ExecuteDeleteLead(r.Context(), orchestrators.DeleteLeadInput{
		LeadID: r.FormValue("id"),
		Actor:  actorFromRequest(r),
	}, leadAdminDeps())
	if writeLeadDeleteError(w, err) {
		return
	}
	http.Redirect(w, r, backTo(r, "/admin/leads"), http.StatusSeeOther)
}

// handleAdminLeadBulkDelete handles POST /admin/leads/bulk-delete (ids...).
// POST: Either every selected lead is deleted or none is
func handleAdminLeadBulkDelete(w http.ResponseWriter, r *http.Request) {
	if !parseAdminPost(w, r) {
		return
	}
	_, err := orchestrators.ExecuteBulkDeleteLeads(r.Context(), orchestrators.BulkDeleteLeadsInput{
		LeadIDs: r.Form["ids"],
		Actor:   actorFromRequest(r),
	}, leadAdminDeps())
	if writeLeadDeleteError(w, err) {
		return
	}
	http.Redirect(w, r, backTo(r, "/admin/leads"), http.StatusSeeOther)
}

func writeLeadDeleteError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, orchestrators.ErrLeadNotFound):
		http.Error(w, orchestrators.MsgLeadStale, http.StatusNotFound)
	case errors.Is(err, orchestrators.ErrLeadHasMember):
		http.Error(w, msgLeadHasMember, http.StatusConflict)
	case errors.Is(err, orchestrators.ErrNoLeads):
		http.Error(w, msgNoLeadsSelected, http.StatusBadRequest)
	default:
		internalError(w, err)
	}
	return true
}

// handleAdminLeadInvite handles POST /admin/leads/invite (id).
// POST: Invitation created, lead marked invited, email queued; the link is shown to the admin
func handleAdminLeadInvite(w http.ResponseWriter, r *http.Request) {
	if !parseAdminPost(w, r) {
		return
	}
	res, err := orchestrators.ExecuteCreateInvitation(r.Context(), orchestrators.CreateInvitationInput{
		LeadID: r.FormValue("id"),
		Actor:  actorFromRequest(r),
	}, orchestrators.CreateInvitationDeps{
		LeadStore:       stores.LeadStore,
		InvitationStore: stores.InvitationStore,
		Outbox:          stores.OutboxStore,
		Audit:           stores.AuditStore,
		GenerateID:      generateID,
		Now:             timeNow,
		TTL:             settings.InvitationTTL,
		BaseURL:         baseURL(r),
	})
	switch {
	case errors.Is(err, orchestrators.ErrLeadNotFound):
		http.Error(w, orchestrators.MsgLeadStale, http.StatusNotFound)
		return
	case errors.Is(err, orchestrators.ErrLeadNotApproved):
		http.Error(w, msgLeadNotApproved, http.StatusConflict)
		return
	case err != nil:
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "admin_invitation_created.html", map[string]any{
		"Link":       res.Link,
		"Invitation": res.Invitation,
	})
}

// baseURL is the configured public URL, or the request's own origin.
func baseURL(r *http.Request) string {
	if settings.BaseURL != "" {
		return settings.BaseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// parseAdminPost rejects non-POST requests and parses the form.
func parseAdminPost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return false
	}
	return true
}
