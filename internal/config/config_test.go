package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAMLWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
  corsOrigins: ["http://localhost:3000"]
auth:
  jwtSecret: from-file
  jwtExpiration: 2h
database:
  driver: sqlite
  dsn: file:quiz.db
redis:
  addr: localhost:6379
seed: true
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Database.Driver != "sqlite" || !cfg.Seed {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Auth.JWTSecret != "from-env" || cfg.Redis.DB != 3 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.example" {
		t.Fatalf("unexpected origins %v", cfg.Server.CORSOrigins)
	}
	if d := TTLDuration(cfg.Auth.JWTExpiration, time.Hour); d != 2*time.Hour {
		t.Fatalf("unexpected expiration %v", d)
	}
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if d := TTLDuration("", time.Minute); d != time.Minute {
		t.Fatalf("empty: %v", d)
	}
	if d := TTLDuration("bogus", time.Minute); d != time.Minute {
		t.Fatalf("invalid: %v", d)
	}
	if d := TTLDuration("90s", time.Minute); d != 90*time.Second {
		t.Fatalf("valid: %v", d)
	}
}
