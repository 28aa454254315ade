// Package config loads process configuration from INNERCIRCLE_* environment variables.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
)

// Supported values of Env and DBDriver.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the full process configuration.
type Config struct {
	Addr     string `env:"ADDR" envDefault:":8080"`
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBPath      string `env:"DB_PATH" envDefault:"innercircle.db"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	AdminEmail     string   `env:"ADMIN_EMAIL" envDefault:"admin@coachisi.de"`
	AdminPassword  string   `env:"ADMIN_PASSWORD"`
	CSRFKeyHex     string   `env:"CSRF_KEY"`
	SessionKeyHex  string   `env:"SESSION_KEY"`
	TrustedOrigins []string `env:"TRUSTED_ORIGINS" envSeparator:","`

	// Peers allowed to set X-Forwarded-For, as CIDRs or bare addresses.
	TrustedProxyList []string `env:"TRUSTED_PROXIES" envSeparator:","`

	ResendKey string `env:"RESEND_KEY"`
	EmailFrom string `env:"EMAIL_FROM" envDefault:"Coach Isi <hallo@coachisi.de>"`
	ReplyTo   string `env:"REPLY_TO"`
	BaseURL   string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	CountdownTarget string `env:"COUNTDOWN_TARGET" envDefault:"2025-08-15T00:00:00"`
	Timezone        string `env:"TIMEZONE" envDefault:"Europe/Berlin"`

	InvitationTTL  time.Duration `env:"INVITATION_TTL" envDefault:"168h"`
	ExpiryInterval time.Duration `env:"EXPIRY_INTERVAL" envDefault:"1h"`
	OutboxInterval time.Duration `env:"OUTBOX_INTERVAL" envDefault:"1m"`
	RecipeCacheTTL time.Duration `env:"RECIPE_CACHE_TTL" envDefault:"60s"`
	SlowQueryMS    int           `env:"SLOW_QUERY_MS" envDefault:"50"`
	SlowRequestMS  int           `env:"SLOW_REQUEST_MS" envDefault:"500"`

	// Decoded by Load.
	CSRFKey        []byte         `env:"-"`
	SessionKey     []byte         `env:"-"`
	Location       *time.Location `env:"-"`
	TrustedProxies []netip.Prefix `env:"-"`
}

// Load parses the environment and validates the result.
// PRE: none
// POST: Returns a validated config; production refuses missing secrets
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "INNERCIRCLE_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// finish validates fields and decodes derived values.
func (c *Config) finish() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("ENV must be %s or %s, got %q", EnvDevelopment, EnvProduction, c.Env)
	}
	switch c.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %s or %s, got %q", DriverSQLite, DriverPostgres, c.DBDriver)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	c.Location = loc

	if c.CSRFKey, err = decodeKey("CSRF_KEY", c.CSRFKeyHex, c.IsProduction()); err != nil {
		return err
	}
	if c.SessionKey, err = decodeKey("SESSION_KEY", c.SessionKeyHex, c.IsProduction()); err != nil {
		return err
	}
	if c.IsProduction() && c.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD is required in production")
	}
	if c.InvitationTTL <= 0 {
		return errors.New("INVITATION_TTL must be positive")
	}
	if c.TrustedProxies, err = parseProxies(c.TrustedProxyList); err != nil {
		return err
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	return nil
}

// parseProxies accepts CIDRs ("10.0.0.0/8") and single addresses ("127.0.0.1").
func parseProxies(list []string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, raw := range list {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// decodeKey decodes a 32-byte hex key. Outside production an empty key yields a fixed
// development key so sessions survive restarts.
func decodeKey(name, value string, required bool) ([]byte, error) {
	if value == "" {
		if required {
			return nil, fmt.Errorf("%s is required in production", name)
		}
		return []byte("innercircle-development-key-32b!"), nil
	}
	key, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%s must be hex: %w", name, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%s must decode to 32 bytes, got %d", name, len(key))
	}
	return key, nil
}

// IsProduction reports whether secure cookies and required secrets apply.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SlowQuery is the TimedDB warning threshold.
func (c Config) SlowQuery() time.Duration {
	return time.Duration(c.SlowQueryMS) * time.Millisecond
}

// SlowRequest is the Timing middleware warning threshold.
func (c Config) SlowRequest() time.Duration {
	return time.Duration(c.SlowRequestMS) * time.Millisecond
}
