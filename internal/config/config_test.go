package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"PORT", "API_TIMEOUT", "CATALOG_REFRESH", "SESSION_PURGE", "REDIS_ADDR"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg := Load()
	if cfg.Port != "8081" || cfg.APITimeout != 10*time.Second {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.CatalogRefresh != "@every 30s" || cfg.SessionPurge != "@hourly" {
		t.Fatalf("schedules: %q %q", cfg.CatalogRefresh, cfg.SessionPurge)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("redis should be off by default, got %q", cfg.RedisAddr)
	}
}

func TestLoadEnvOverridesAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=9000\nSTORE_NAME=Hanil\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STORE_NAME", "FromEnv")
	t.Setenv("PORT", "")
	os.Unsetenv("PORT")
	t.Setenv("API_TIMEOUT", "nonsense")
	t.Setenv("CATALOG_REFRESH", "")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Fatalf(".env PORT not applied: %q", cfg.Port)
	}
	if cfg.StoreName != "FromEnv" {
		t.Fatalf("real env must win over .env: %q", cfg.StoreName)
	}
	if cfg.APITimeout != 10*time.Second {
		t.Fatalf("bad duration falls back: %s", cfg.APITimeout)
	}
	if cfg.CatalogRefresh != "" {
		t.Fatalf("explicitly empty schedule disables refresh: %q", cfg.CatalogRefresh)
	}
}
