// Package middleware holds the HTTP middleware chain: request logging,
// rate limiting, sessions, CSRF protection and security headers.
package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/gorilla/csrf"
)

// Chain wraps h so that the first middleware is the outermost.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// TrustedProxies are the peers whose X-Forwarded-For header is believed.
// Empty means the header is ignored.
var TrustedProxies []netip.Prefix

// ClientIP is the peer address from RemoteAddr. When the peer is a trusted
// proxy, X-Forwarded-For is walked from the right and the first hop that is
// not itself a trusted proxy wins.
func ClientIP(r *http.Request) string {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = h
	}
	peer, err := netip.ParseAddr(host)
	if err != nil || !trustedProxy(peer) {
		return host
	}
	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			// Anything left of a malformed hop was written by the client.
			break
		}
		if !trustedProxy(addr) {
			return addr.Unmap().String()
		}
	}
	return host
}

func trustedProxy(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range TrustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

const contentSecurityPolicy = "default-src 'self'; " +
	"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; " +
	"font-src https://fonts.gstatic.com; " +
	"script-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data: https:; " +
	"connect-src 'self'"

var securityHeaders = [][2]string{
	{"Content-Security-Policy", contentSecurityPolicy},
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Permissions-Policy", "camera=(), microphone=(), geolocation=()"},
}

// SecurityHeaders sets the browser hardening headers; HSTS only with secure cookies.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range securityHeaders {
			h.Set(kv[0], kv[1])
		}
		if SecureCookies {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// CSRF guards form posts with gorilla/csrf. Requests declaring a JSON body skip
// the check since browsers cannot send them cross-site without CORS.
// PRE: len(authKey) == 32
func CSRF(authKey []byte) func(http.Handler) http.Handler {
	trusted := append([]string{"localhost:8080", "127.0.0.1:8080"}, ExtraTrustedOrigins...)
	protect := csrf.Protect(authKey,
		csrf.Path("/"),
		csrf.Secure(SecureCookies),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.TrustedOrigins(trusted),
		csrf.ErrorHandler(http.HandlerFunc(rejectCSRF)),
	)
	return func(next http.Handler) http.Handler {
		guarded := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isJSON(r) {
				next.ServeHTTP(w, r)
				return
			}
			if !SecureCookies {
				r = csrf.PlaintextHTTPRequest(r)
			}
			guarded.ServeHTTP(w, r)
		})
	}
}

func rejectCSRF(w http.ResponseWriter, r *http.Request) {
	slog.Warn("csrf_rejected", "path", r.URL.Path, "ip", ClientIP(r), "reason", csrf.FailureReason(r))
	http.Error(w, "Sitzung abgelaufen. Bitte laden Sie die Seite neu.", http.StatusForbidden)
}

func isJSON(r *http.Request) bool {
	ct, _, _ := strings.Cut(r.Header.Get("Content-Type"), ";")
	return strings.EqualFold(strings.TrimSpace(ct), "application/json")
}
