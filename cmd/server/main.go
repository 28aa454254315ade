package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"innercircle/internal/adapters/cache"
	emailPkg "innercircle/internal/adapters/email"
	web "innercircle/internal/adapters/http"
	"innercircle/internal/adapters/http/middleware"
	"innercircle/internal/adapters/http/perf"
	"innercircle/internal/adapters/storage"
	accountStore "innercircle/internal/adapters/storage/account"
	auditStore "innercircle/internal/adapters/storage/audit"
	invitationStore "innercircle/internal/adapters/storage/invitation"
	leadStore "innercircle/internal/adapters/storage/lead"
	outboxStore "innercircle/internal/adapters/storage/outbox"
	recipeStore "innercircle/internal/adapters/storage/recipe"
	userStore "innercircle/internal/adapters/storage/user"
	"innercircle/internal/application/orchestrators"
	"innercircle/internal/config"
	"innercircle/internal/domain/countdown"
	"innercircle/internal/domain/landing"
	"innercircle/internal/domain/outbox"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	setupLogging(cfg)

	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Performance instrumentation: the collector feeds /admin/perf
	collector := perf.NewCollector(perf.DefaultCapacity)

	stores, closeStores, err := openStores(ctx, cfg, collector)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer closeStores()

	created, err := orchestrators.ExecuteSeedAdmin(ctx, orchestrators.SeedAdminInput{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	}, orchestrators.SeedAdminDeps{
		AccountStore: stores.AccountStore,
		GenerateID:   func() string { return uuid.New().String() },
		Now:          time.Now,
	})
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	if created {
		slog.Info("admin_seeded", "email", cfg.AdminEmail)
	}

	target, err := countdown.ParseTarget(cfg.CountdownTarget, cfg.Location)
	if err != nil {
		log.Fatalf("invalid COUNTDOWN_TARGET: %v", err)
	}

	sender := newSender(cfg)
	executors := map[string]orchestrators.ActionExecutor{
		outbox.KindInvitationEmail: &orchestrators.InvitationEmailExecutor{Sender: sender, Location: cfg.Location},
	}

	middleware.SecureCookies = cfg.IsProduction()
	middleware.ExtraTrustedOrigins = cfg.TrustedOrigins
	middleware.TrustedProxies = cfg.TrustedProxies
	limiter := middleware.NewRateLimiter(web.RateLimitPerSecond, time.Second)

	handler := web.NewMux(stores, web.Settings{
		BaseURL:         cfg.BaseURL,
		Location:        cfg.Location,
		CountdownTarget: target,
		InvitationTTL:   cfg.InvitationTTL,
		CSRFKey:         cfg.CSRFKey,
		SessionKey:      cfg.SessionKey,
		SlowRequest:     cfg.SlowRequest(),
		Content:         landing.Default(),
		Limiter:         limiter,
		OutboxExecutors: executors,
	}, collector)

	// Background workers
	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, executors)
	stopOutbox := orchestrators.StartScheduler(ctx, "outbox", cfg.OutboxInterval, processor.ProcessPending)
	defer stopOutbox()
	stopPrune := orchestrators.StartScheduler(ctx, "outbox_prune", 24*time.Hour, processor.Prune)
	defer stopPrune()
	stopAuditPrune := orchestrators.StartScheduler(ctx, "audit_prune", 24*time.Hour, func(ctx context.Context) error {
		_, err := orchestrators.ExecutePruneAudit(ctx, stores.AuditStore, time.Now)
		return err
	})
	defer stopAuditPrune()

	stopExpiry := orchestrators.StartScheduler(ctx, "invitation_expiry", cfg.ExpiryInterval, func(ctx context.Context) error {
		n, err := orchestrators.ExecuteExpireInvitations(ctx, orchestrators.ExpireInvitationsDeps{
			InvitationStore: stores.InvitationStore,
			Now:             time.Now,
		})
		if n > 0 {
			slog.Info("invitations_expired", "count", n)
		}
		return err
	})
	defer stopExpiry()

	stopSweep := orchestrators.StartScheduler(ctx, "rate_limit_sweep", 5*time.Minute, func(context.Context) error {
		limiter.Sweep(10 * time.Minute)
		return nil
	})
	defer stopSweep()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("server_starting",
			"version", version,
			"addr", cfg.Addr,
			"env", cfg.Env,
			"db_driver", cfg.DBDriver,
			"countdown_target", target,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server_shutdown_failed", "error", err)
	}
}

// setupLogging installs the default slog handler: JSON in production, text otherwise.
func setupLogging(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

// openStores connects the configured database and builds every store.
// The returned close func releases the database and cache connections.
func openStores(ctx context.Context, cfg config.Config, collector *perf.Collector) (*web.Stores, func(), error) {
	var (
		stores  *web.Stores
		closers []func() error
	)

	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := storage.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, db.Close)
		if err := storage.MigratePostgres(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		stores = &web.Stores{
			AccountStore:    accountStore.NewPostgresStore(db),
			LeadStore:       leadStore.NewPostgresStore(db),
			RecipeStore:     recipeStore.NewPostgresStore(db),
			InvitationStore: invitationStore.NewPostgresStore(db),
			UserStore:       userStore.NewPostgresStore(db),
			AuditStore:      auditStore.NewPostgresStore(db),
			OutboxStore:     outboxStore.NewPostgresStore(db),
		}
	default:
		db, err := openSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, db.Close)
		timedDB := storage.NewTimedDB(db, collector, cfg.SlowQuery())
		stores = &web.Stores{
			AccountStore:    accountStore.NewSQLiteStore(timedDB),
			LeadStore:       leadStore.NewSQLiteStore(timedDB),
			RecipeStore:     recipeStore.NewSQLiteStore(timedDB),
			InvitationStore: invitationStore.NewSQLiteStore(timedDB),
			UserStore:       userStore.NewSQLiteStore(timedDB),
			AuditStore:      auditStore.NewSQLiteStore(timedDB),
			OutboxStore:     outboxStore.NewSQLiteStore(timedDB),
		}
	}

	var recipeCache cache.Cache = cache.NewMemory()
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL, "innercircle:")
		if err != nil {
			slog.Warn("redis_unavailable", "error", err, "fallback", "memory")
		} else {
			recipeCache = rc
			closers = append(closers, rc.Close)
		}
	}
	stores.RecipeStore = cache.NewRecipeStore(stores.RecipeStore, recipeCache, cfg.RecipeCacheTTL)

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				slog.Error("close_failed", "error", err)
			}
		}
	}
	return stores, closeAll, nil
}

// openSQLite opens the database file with WAL mode, foreign keys and a busy timeout,
// then applies pending migrations.
func openSQLite(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if err := storage.MigrateDB(db, path); err != nil {
		db.Close()
		return nil, err
	}
	slog.Info("database_ready", "path", path, "schema", storage.LatestSchemaVersion())
	return db, nil
}

func newSender(cfg config.Config) emailPkg.Sender {
	if cfg.ResendKey != "" {
		slog.Info("email_sender_configured", "provider", "resend")
		return emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom, cfg.ReplyTo)
	}
	if cfg.IsProduction() {
		slog.Warn("email_delivery_disabled", "reason", "INNERCIRCLE_RESEND_KEY is not set")
	} else {
		slog.Info("email_sender_configured", "provider", "noop")
	}
	return emailPkg.NewNoopSender()
}
