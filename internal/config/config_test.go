package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_USER", "voyage")
	t.Setenv("PG_PASSWORD", "pw")
	t.Setenv("PG_DB", "voyagedesk")
	t.Setenv("USE_REDIS", "false")
	t.Setenv("STATE_CACHE_TTL_SECONDS", "15")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.HTTPPort != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.HTTPPort)
	}
	if cfg.UseRedis {
		t.Error("Expected USE_REDIS=false to disable redis")
	}
	if cfg.StateCacheTTL != 15*time.Second {
		t.Errorf("Expected state cache TTL 15s, got %s", cfg.StateCacheTTL)
	}
	if cfg.BacklogInterval != 15*time.Minute {
		t.Errorf("Expected backlog interval 15m, got %s", cfg.BacklogInterval)
	}
	if got := cfg.PostgresDSN(); got != "postgres://voyage:pw@db:5432/voyagedesk?sslmode=disable" {
		t.Errorf("Unexpected DSN %s", got)
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("Expected error when JWT_SECRET is missing")
	}
}
