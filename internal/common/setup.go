package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"wallet-ledger-go/internal/database"
	"wallet-ledger-go/internal/kyc"
	"wallet-ledger-go/internal/ledger"
	"wallet-ledger-go/internal/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService *database.Service
	Engine    *ledger.Engine
	KYCConfig *kyc.Config
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the store, loads the KYC policy and builds the
// ledger engine on top of them.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	zap.L().Info("Loading KYC policy", zap.String("policy_file", cfg.KYC.PolicyFile))
	kycConfig, err := kyc.LoadConfig(cfg.KYC.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("unable to load kyc policy: %w", err)
	}

	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if !cfg.KYC.Enforce {
		zap.L().Warn("KYC gate running in advisory mode (KYC_ENFORCE=false)")
	}

	return &Services{
		DbService: dbService,
		Engine:    ledger.NewEngine(dbService, kycConfig, cfg.KYC.Enforce),
		KYCConfig: kycConfig,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service
// Useful for read-only operations like querying balances
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
