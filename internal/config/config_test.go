package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
http:
  addr: ":9090"
auth:
  jwt_access_ttl: 5m
ledger:
  overdue_sweep_interval: 15m
reports:
  stats_cache_ttl: 1m
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Auth.JWTAccessTTL != 5*time.Minute {
		t.Fatalf("unexpected access ttl: %s", cfg.Auth.JWTAccessTTL)
	}
	if cfg.Ledger.OverdueSweepInterval != 15*time.Minute {
		t.Fatalf("unexpected sweep interval: %s", cfg.Ledger.OverdueSweepInterval)
	}
	if cfg.Reports.StatsCacheTTL != time.Minute {
		t.Fatalf("unexpected stats cache ttl: %s", cfg.Reports.StatsCacheTTL)
	}

	// Untouched keys keep their defaults.
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected redis addr: %s", cfg.Redis.Addr)
	}
	if cfg.Auth.SessionTTL != 720*time.Hour {
		t.Fatalf("unexpected session ttl: %s", cfg.Auth.SessionTTL)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("POSTGRES_DSN", "postgres://other:other@db:5432/ledger")
	t.Setenv("OVERDUE_SWEEP_INTERVAL", "30s")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Postgres.DSN != "postgres://other:other@db:5432/ledger" {
		t.Fatalf("unexpected dsn: %s", cfg.Postgres.DSN)
	}
	if cfg.Ledger.OverdueSweepInterval != 30*time.Second {
		t.Fatalf("unexpected sweep interval: %s", cfg.Ledger.OverdueSweepInterval)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Fatalf("unexpected jwt secret: %s", cfg.Auth.JWTSecret)
	}
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("STATS_CACHE_TTL", "not-a-duration")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for malformed duration")
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "HTTP_ADDR", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL", "POSTGRES_DSN", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"JWT_SECRET", "JWT_ACCESS_TTL", "SESSION_TTL", "TELEGRAM_TOKEN",
		"OVERDUE_SWEEP_INTERVAL", "STATS_CACHE_TTL",
	} {
		t.Setenv(key, "")
	}
}
