package web

import (
	"net/http"

	"innercircle/internal/adapters/http/middleware"
	"innercircle/internal/domain/account"
)

func registerRoutes(mux *http.ServeMux) {
	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireRole(account.RoleAdmin)(h)
	}
	member := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireRole(account.RoleMember)(h)
	}

	// Public funnel
	mux.HandleFunc("/", handleRoot)
	mux.HandleFunc("/signup", handleSignup)
	mux.HandleFunc("/waitlist", handleWaitlist)
	mux.HandleFunc("/apply", handleApply)
	mux.HandleFunc("/recipes/download", handleRecipeDownload)
	mux.HandleFunc("/invitation/redeem", handleInvitationRedeem)
	mux.HandleFunc("/api/countdown", handleCountdownAPI)
	mux.HandleFunc("/healthz", handleHealth)

	// Sessions
	mux.HandleFunc("/login", handleLogin)
	mux.HandleFunc("/logout", handleLogout)
	mux.Handle("/dashboard", member(handleDashboard))

	// Admin
	mux.Handle("/admin", admin(handleAdminDashboard))
	mux.Handle("/admin/leads", admin(handleAdminLeads))
	mux.Handle("/admin/leads/status", admin(handleAdminLeadStatus))
	mux.Handle("/admin/leads/delete", admin(handleAdminLeadDelete))
	mux.Handle("/admin/leads/bulk-delete", admin(handleAdminLeadBulkDelete))
	mux.Handle("/admin/leads/invite", admin(handleAdminLeadInvite))
	mux.Handle("/admin/leads/export", admin(handleAdminLeadExport))
	mux.Handle("/admin/recipes", admin(handleAdminRecipes))
	mux.Handle("/admin/recipes/edit", admin(handleAdminRecipeEdit))
	mux.Handle("/admin/recipes/delete", admin(handleAdminRecipeDelete))
	mux.Handle("/admin/downloads", admin(handleAdminDownloads))
	mux.Handle("/admin/downloads/export", admin(handleAdminDownloadExport))
	mux.Handle("/admin/invitations", admin(handleAdminInvitations))
	mux.Handle("/admin/users", admin(handleAdminUsers))
	mux.Handle("/admin/users/status", admin(handleAdminUserStatus))
	mux.Handle("/admin/audit", admin(handleAdminAuditTrail))
	mux.Handle("/admin/perf", admin(handleAdminPerf))
	mux.Handle("/admin/outbox", admin(handleAdminOutbox))
	mux.Handle("/admin/outbox/", admin(handleAdminOutbox))
}
