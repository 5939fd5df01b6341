package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Driver != "sqlite3" || cfg.Database.Path != "wallets.db" {
		t.Errorf("Unexpected database defaults %+v", cfg.Database)
	}
	if !cfg.KYC.Enforce {
		t.Errorf("Expected the KYC gate to be enforced by default")
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected default addr :8080, got %s", cfg.Server.Addr)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DB_BUSY_TIMEOUT", "2s")
	t.Setenv("KYC_ENFORCE", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.BusyTimeout != 2*time.Second {
		t.Errorf("Unexpected database config %+v", cfg.Database)
	}
	if cfg.KYC.Enforce {
		t.Errorf("Expected KYC_ENFORCE=false to switch to advisory mode")
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Unexpected origins %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("DB_PING_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Errorf("Expected an error for an invalid duration")
	}
}
