package web

import (
	"net/http"
	"time"

	"innercircle/internal/adapters/http/middleware"
	"innercircle/internal/adapters/http/perf"
	accountStore "innercircle/internal/adapters/storage/account"
	auditStore "innercircle/internal/adapters/storage/audit"
	invitationStore "innercircle/internal/adapters/storage/invitation"
	leadStore "innercircle/internal/adapters/storage/lead"
	outboxStore "innercircle/internal/adapters/storage/outbox"
	recipeStore "innercircle/internal/adapters/storage/recipe"
	userStore "innercircle/internal/adapters/storage/user"
	"innercircle/internal/application/orchestrators"
	"innercircle/internal/domain/landing"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore    accountStore.Store
	LeadStore       leadStore.Store
	RecipeStore     recipeStore.Store
	InvitationStore invitationStore.Store
	UserStore       userStore.Store
	AuditStore      auditStore.Store
	OutboxStore     outboxStore.Store
}

// Settings carries the request-independent configuration the handlers need.
type Settings struct {
	BaseURL         string
	Location        *time.Location
	CountdownTarget time.Time
	InvitationTTL   time.Duration
	CSRFKey         []byte
	SessionKey      []byte
	SlowRequest     time.Duration
	Content         landing.Content
	Limiter         *middleware.RateLimiter // nil builds one from RateLimitPerSecond
	OutboxExecutors map[string]orchestrators.ActionExecutor
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global settings (set by NewMux)
var settings Settings

// Global session manager (set by NewMux)
var sessions *middleware.SessionManager

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// NewMux wires HTTP handlers for the app.
// PRE: cfg.CSRFKey and cfg.SessionKey are 32 bytes
func NewMux(s *Stores, cfg Settings, collector *perf.Collector) http.Handler {
	stores = s
	perfCollector = collector
	settings = withDefaults(cfg)
	sessions = middleware.NewSessionManager(settings.SessionKey)

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter := settings.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(RateLimitPerSecond, time.Second)
	}

	return middleware.Chain(mux,
		middleware.RequestLog(collector, settings.SlowRequest),
		middleware.RateLimit(limiter),
		middleware.Auth(sessions),
		middleware.CSRF(settings.CSRFKey),
		middleware.SecurityHeaders,
	)
}

func withDefaults(cfg Settings) Settings {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.InvitationTTL <= 0 {
		cfg.InvitationTTL = 7 * 24 * time.Hour
	}
	if len(cfg.Content.Testimonials) == 0 {
		cfg.Content = landing.Default()
	}
	return cfg
}
