package common

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"wallet-ledger-go/internal/database"
	"wallet-ledger-go/internal/models"

	"go.uber.org/zap"
)

func setupTestDb(t *testing.T) *database.Service {
	t.Helper()

	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Driver:           "sqlite3",
		Path:             filepath.Join(t.TempDir(), "common.db"),
		MaxOpenConns:     2,
		MaxIdleConns:     1,
		PingTimeout:      time.Second,
		BusyTimeout:      5 * time.Second,
		CreateDummyUsers: true,
	})
	if err != nil {
		t.Fatalf("Failed to create database service: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestInitializeUsers(t *testing.T) {
	db := setupTestDb(t)
	ctx := context.Background()
	logger := zap.NewNop()

	all, err := InitializeUsers(ctx, db, "", logger)
	if err != nil {
		t.Fatalf("InitializeUsers failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected the 3 seeded users, got %d", len(all))
	}

	one, err := InitializeUsers(ctx, db, "bob", logger)
	if err != nil {
		t.Fatalf("InitializeUsers with filter failed: %v", err)
	}
	if len(one) != 1 || one[0].Username != "bob" {
		t.Errorf("Expected only bob, got %+v", one)
	}

	if _, err := InitializeUsers(ctx, db, "nobody", logger); err == nil {
		t.Error("Expected an error for an unknown username")
	}
}

func TestInitializeServices_KYCPolicyFile(t *testing.T) {
	cfg := &models.Config{
		Database: models.DatabaseConfig{
			Driver:       "sqlite3",
			Path:         filepath.Join(t.TempDir(), "services.db"),
			MaxOpenConns: 2,
			PingTimeout:  time.Second,
			BusyTimeout:  time.Second,
		},
		KYC: models.KYCConfig{PolicyFile: filepath.Join(t.TempDir(), "missing.yaml"), Enforce: true},
	}
	if _, err := InitializeServices(context.Background(), cfg); err == nil {
		t.Fatal("Expected an error for a missing policy file")
	}

	cfg.KYC.PolicyFile = ""
	services, err := InitializeServices(context.Background(), cfg)
	if err != nil {
		t.Fatalf("InitializeServices failed: %v", err)
	}
	defer services.Close()
	if services.Engine == nil || services.KYCConfig == nil {
		t.Error("Expected the engine and KYC policy to be wired")
	}
}

func TestInitializeLogger_ReplacesGlobals(t *testing.T) {
	previous := zap.L()
	defer zap.ReplaceGlobals(previous)

	logger, cleanup := InitializeLogger()
	defer cleanup()

	// Fatal paths during config loading log through the global logger
	if zap.L() != logger {
		t.Fatal("Expected InitializeLogger to install the global logger")
	}
	if !zap.L().Core().Enabled(zap.InfoLevel) {
		t.Error("Expected the global logger to emit info level")
	}
}
