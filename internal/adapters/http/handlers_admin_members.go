package web

import (
	"database/sql"
	"errors"
	"net/http"

	"innercircle/internal/application/orchestrators"
	"innercircle/internal/application/projections"
	"innercircle/internal/domain/invitation"
)

const msgNotMemberAccount = "Nur Mitgliedskonten können gesperrt werden."

// handleAdminInvitations lists invitations, optionally by status (GET /admin/invitations?status=).
func handleAdminInvitations(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	status := r.URL.Query().Get("status")
	if !invitation.IsValidStatus(status) {
		status = ""
	}
	rows, err := projections.QueryInvitationList(r.Context(), status, projections.InvitationListDeps{
		InvitationStore: stores.InvitationStore,
		LeadStore:       stores.LeadStore,
		Now:             timeNow,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "admin_invitations.html", map[string]any{
		"Rows":     rows,
		"Status":   status,
		"Statuses": invitation.ValidStatuses,
	})
}

// handleAdminUsers lists member accounts (GET /admin/users).
func handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rows, err := projections.QueryMemberList(r.Context(), projections.MemberListDeps{
		UserStore:    stores.UserStore,
		AccountStore: stores.AccountStore,
		LeadStore:    stores.LeadStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "admin_users.html", map[string]any{"Rows": rows})
}

// handleAdminUserStatus handles POST /admin/users/status (id, disabled).
// POST: The member account is disabled or re-enabled; admins are refused with 409
func handleAdminUserStatus(w http.ResponseWriter, r *http.Request) {
	if !parseAdminPost(w, r) {
		return
	}
	_, err := orchestrators.ExecuteSetAccountStatus(r.Context(), r.FormValue("id"), r.FormValue("disabled") == "1",
		actorFromRequest(r), orchestrators.SetAccountStatusDeps{
			AccountStore: stores.AccountStore,
			Audit:        stores.AuditStore,
			Now:          timeNow,
		})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		http.Error(w, orchestrators.MsgLeadStale, http.StatusNotFound)
	case errors.Is(err, orchestrators.ErrNotMemberAccount):
		http.Error(w, msgNotMemberAccount, http.StatusConflict)
	case err != nil:
		internalError(w, err)
	default:
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
	}
}
