package middleware

import (
	"context"
	"net/http"
	"slices"
	"time"

	domainAccount "innercircle/internal/domain/account"
)

type sessionKey struct{}

const sessionCookieName = "innercircle_session"

// SecureCookies marks session and CSRF cookies Secure. Set from config before serving.
var SecureCookies bool

// ExtraTrustedOrigins are hosts besides the serving host allowed to post forms.
var ExtraTrustedOrigins []string

// Auth puts the session from a valid cookie into the request context.
// Anonymous requests pass through; RequireRole does the gating.
func Auth(sessions *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess, ok := sessions.Get(SessionToken(r)); ok {
				r = r.WithContext(ContextWithSession(r.Context(), sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole sends anonymous visitors to /login and answers 403 to
// sessions whose role is not listed.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := GetSessionFromContext(r.Context())
			switch {
			case !ok:
				http.Redirect(w, r, "/login", http.StatusSeeOther)
			case !slices.Contains(roles, sess.Role):
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// ContextWithSession attaches sess to ctx.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// GetSessionFromContext returns the session Auth attached, if any.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(Session)
	return sess, ok
}

// IsAdmin reports whether ctx carries an admin session.
func IsAdmin(ctx context.Context) bool {
	sess, ok := GetSessionFromContext(ctx)
	return ok && sess.Role == domainAccount.RoleAdmin
}

// SessionToken is the raw session cookie value, or "".
func SessionToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// SetSessionCookie stores token for SessionTTL.
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, sessionCookie(token, int(SessionTTL/time.Second)))
}

// ClearSessionCookie tells the browser to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, sessionCookie("", -1))
}

func sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
