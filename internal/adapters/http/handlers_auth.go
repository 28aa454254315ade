package web

import (
	"errors"
	"net/http"

	"innercircle/internal/adapters/http/middleware"
	"innercircle/internal/application/orchestrators"
	"innercircle/internal/domain/account"
	"innercircle/internal/domain/user"
)

const (
	msgInvalidCredentials = "E-Mail oder Passwort ist falsch."
	msgAccountLocked      = "Zu viele Fehlversuche. Bitte versuchen Sie es in 15 Minuten erneut."
	msgAccountDisabled    = "Dieses Konto ist deaktiviert."
	msgNoMemberProfile    = "Für dieses Konto gibt es kein Mitgliederprofil."
)

func loginDeps() orchestrators.LoginDeps {
	return orchestrators.LoginDeps{AccountStore: stores.AccountStore, Audit: stores.AuditStore, Now: timeNow}
}

// actorFromRequest builds the audit actor for the logged-in user of r.
func actorFromRequest(r *http.Request) orchestrators.Actor {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	return orchestrators.Actor{
		ID:        sess.AccountID,
		Email:     sess.Email,
		Role:      sess.Role,
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func renderLogin(w http.ResponseWriter, r *http.Request, status int, errMsg string, adminMode bool) {
	renderTemplateStatus(w, r, status, "login.html", map[string]any{
		"Error": errMsg,
		"Admin": adminMode,
	})
}

func homeFor(role string) string {
	if role == account.RoleAdmin {
		return "/admin"
	}
	return "/dashboard"
}

// handleLogin handles GET (form) and POST (authenticate) for /login.
// POST: Admins land on /admin, members on /dashboard
func handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
			http.Redirect(w, r, homeFor(sess.Role), http.StatusSeeOther)
			return
		}
		renderLogin(w, r, http.StatusOK, "", r.URL.Query().Get("admin") == "true")
	case "POST":
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		result, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
			Email:     r.FormValue("email"),
			Password:  r.FormValue("password"),
			IPAddress: middleware.ClientIP(r),
			UserAgent: r.UserAgent(),
		}, loginDeps())
		if err != nil {
			adminMode := r.FormValue("admin") == "true"
			switch {
			case errors.Is(err, orchestrators.ErrAccountLocked):
				renderLogin(w, r, http.StatusTooManyRequests, msgAccountLocked, adminMode)
			case errors.Is(err, orchestrators.ErrAccountDisabled):
				renderLogin(w, r, http.StatusForbidden, msgAccountDisabled, adminMode)
			case errors.Is(err, orchestrators.ErrInvalidCredentials):
				renderLogin(w, r, http.StatusUnauthorized, msgInvalidCredentials, adminMode)
			default:
				internalError(w, err)
			}
			return
		}

		token, err := sessions.Create(result.AccountID, result.Email, result.Role)
		if err != nil {
			internalError(w, err)
			return
		}
		middleware.SetSessionCookie(w, token)
		http.Redirect(w, r, homeFor(result.Role), http.StatusSeeOther)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleLogout handles POST /logout.
// POST: The session token is revoked and the cookie cleared
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		orchestrators.ExecuteLogout(r.Context(), actorFromRequest(r), loginDeps())
	}
	if token := middleware.SessionToken(r); token != "" {
		sessions.Revoke(token)
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleDashboard renders the member dashboard (GET /dashboard?section=...).
// PRE: Member session
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())

	dash, err := orchestrators.ExecuteLoadUserDashboard(r.Context(), sess.AccountID, r.URL.Query().Get("section"),
		orchestrators.LoadUserDashboardDeps{
			UserStore: stores.UserStore,
			LeadStore: stores.LeadStore,
			Now:       timeNow,
		})
	switch {
	case errors.Is(err, orchestrators.ErrNoMemberProfile):
		http.Error(w, msgNoMemberProfile, http.StatusNotFound)
		return
	case errors.Is(err, user.ErrInactive):
		http.Error(w, msgAccountDisabled, http.StatusForbidden)
		return
	case err != nil:
		internalError(w, err)
		return
	}
	if dash.Email == "" {
		dash.Email = sess.Email
	}
	renderTemplate(w, r, "dashboard.html", map[string]any{"Dashboard": dash})
}
