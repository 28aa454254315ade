package config

import (
	"log/slog"
	"net/netip"
	"strings"
	"testing"
	"time"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// TestLoad_Defaults verifies the development defaults.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.DBDriver != DriverSQLite || cfg.DBPath != "innercircle.db" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.InvitationTTL != 7*24*time.Hour {
		t.Errorf("InvitationTTL = %v, want 168h", cfg.InvitationTTL)
	}
	if cfg.Location.String() != "Europe/Berlin" {
		t.Errorf("Location = %v", cfg.Location)
	}
	if len(cfg.SessionKey) != 32 || len(cfg.CSRFKey) != 32 {
		t.Errorf("development keys must be 32 bytes")
	}
	if cfg.SlowQuery() != 50*time.Millisecond {
		t.Errorf("SlowQuery = %v", cfg.SlowQuery())
	}
}

// TestLoad_Overrides verifies prefixed variables are read.
func TestLoad_Overrides(t *testing.T) {
	t.Setenv("INNERCIRCLE_ADDR", ":9000")
	t.Setenv("INNERCIRCLE_INVITATION_TTL", "48h")
	t.Setenv("INNERCIRCLE_SESSION_KEY", testKey)
	t.Setenv("INNERCIRCLE_BASE_URL", "https://innercircle.coachisi.de/")
	t.Setenv("INNERCIRCLE_TRUSTED_ORIGINS", "a.example.de,b.example.de")
	t.Setenv("INNERCIRCLE_LOG_LEVEL", "DEBUG")
	t.Setenv("INNERCIRCLE_TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.InvitationTTL != 48*time.Hour {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.SessionKey[31] != 0x1f {
		t.Errorf("session key not decoded")
	}
	if cfg.BaseURL != "https://innercircle.coachisi.de" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if len(cfg.TrustedOrigins) != 2 {
		t.Errorf("TrustedOrigins = %v", cfg.TrustedOrigins)
	}
	if len(cfg.TrustedProxies) != 2 ||
		!cfg.TrustedProxies[0].Contains(netip.MustParseAddr("10.1.2.3")) ||
		!cfg.TrustedProxies[1].Contains(netip.MustParseAddr("127.0.0.1")) ||
		cfg.TrustedProxies[1].Contains(netip.MustParseAddr("127.0.0.2")) {
		t.Errorf("TrustedProxies = %v", cfg.TrustedProxies)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel = %v", cfg.SlogLevel())
	}
}

// TestLoad_Errors covers the validation failures.
func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad duration", map[string]string{"INNERCIRCLE_INVITATION_TTL": "soon"}, "parse env"},
		{"bad env", map[string]string{"INNERCIRCLE_ENV": "staging"}, "ENV must be"},
		{"postgres without url", map[string]string{"INNERCIRCLE_DB_DRIVER": "postgres"}, "DATABASE_URL"},
		{"bad timezone", map[string]string{"INNERCIRCLE_TIMEZONE": "Mars/Olympus"}, "TIMEZONE"},
		{"bad proxy", map[string]string{"INNERCIRCLE_TRUSTED_PROXIES": "10.0.0.0/33"}, "TRUSTED_PROXIES"},
		{"short key", map[string]string{"INNERCIRCLE_CSRF_KEY": "abcd"}, "32 bytes"},
		{"production without secrets", map[string]string{"INNERCIRCLE_ENV": "production"}, "required in production"},
		{"production without admin password", map[string]string{
			"INNERCIRCLE_ENV": "production", "INNERCIRCLE_CSRF_KEY": testKey, "INNERCIRCLE_SESSION_KEY": testKey,
		}, "ADMIN_PASSWORD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
