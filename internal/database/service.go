/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wallet-ledger-go/internal/kyc"
	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.LedgerStore.
var _ store.LedgerStore = (*Service)(nil)

type Service struct {
	db      *sql.DB
	dialect dialect
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	d, err := newDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn := d.dsn(cfg.Path, cfg.BusyTimeout)

	if err := runMigrations(d, dsn); err != nil {
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Opening database", zap.String("driver", d.driver))
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := newService(db, d)
	if cfg.CreateDummyUsers {
		service.createDummyUsers(ctx)
	} else {
		zap.L().Info("Skipping dummy user creation (CREATE_DUMMY_USERS=false)")
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func newService(db *sql.DB, d dialect) *Service {
	return &Service{db: db, dialect: d}
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

// Ping is used by the health endpoints.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// q rebinds a query for the active dialect.
func (s *Service) q(query string) string {
	return s.dialect.rebind(query)
}

// withTx runs fn inside one database transaction. Any error rolls back
// every write fn made.
func (s *Service) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Warn("Failed to roll back transaction", zap.Error(err))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Service) createDummyUsers(ctx context.Context) {
	users := []store.CreateUserParams{
		{Username: "alice", Name: "Alice Johnson", Email: "alice.johnson@example.com"},
		{Username: "bob", Name: "Bob Smith", Email: "bob.smith@example.com"},
		{Username: "carol", Name: "Carol Williams", Email: "carol.williams@example.com"},
	}

	for _, params := range users {
		params.Id = uuid.New().String()
		user, err := s.CreateUser(ctx, params)
		if err != nil {
			zap.L().Error("Failed to insert dummy user", zap.String("name", params.Name), zap.Error(err))
			continue
		}
		if _, err := s.CreateWallet(ctx, user.Id, defaultWalletName); err != nil {
			zap.L().Error("Failed to create dummy wallet", zap.String("user_id", user.Id), zap.Error(err))
			continue
		}
		reviewed := now()
		if _, err := s.UpsertKYCProfile(ctx, store.UpsertKYCProfileParams{
			UserId:     user.Id,
			Status:     kyc.StatusApproved,
			Level:      kyc.LevelBasic,
			ReviewedAt: &reviewed,
		}); err != nil {
			zap.L().Error("Failed to approve dummy user", zap.String("user_id", user.Id), zap.Error(err))
			continue
		}
		zap.L().Info("Dummy user created", zap.String("id", user.Id), zap.String("name", user.Name))
	}
}

func now() time.Time {
	return time.Now().UTC()
}
