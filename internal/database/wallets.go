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
	"strings"

	"wallet-ledger-go/internal/access"
	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/money"
	"wallet-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultWalletName = "My Wallet"

// CreateWallet opens a zero-balance wallet for an active user.
func (s *Service) CreateWallet(ctx context.Context, userId, name string) (*models.Wallet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultWalletName
	}
	if _, err := s.GetUserById(ctx, userId); err != nil {
		return nil, err
	}

	ts := now()
	wallet := &models.Wallet{
		Id:        uuid.New().String(),
		UserId:    userId,
		Name:      name,
		Balance:   decimal.Zero,
		Version:   1,
		Active:    true,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	_, err := s.db.ExecContext(ctx, s.q(queryInsertWallet),
		wallet.Id, wallet.UserId, wallet.Name, money.Format(wallet.Balance), ts, ts)
	if err != nil {
		zap.L().Error("Failed to insert wallet", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to insert wallet: %w", err)
	}

	zap.L().Info("Wallet created",
		zap.String("wallet_id", wallet.Id),
		zap.String("user_id", userId),
		zap.String("name", name))
	return wallet, nil
}

func (s *Service) GetWallet(ctx context.Context, walletId string) (*models.Wallet, error) {
	wallet, err := scanWallet(s.db.QueryRowContext(ctx, s.q(queryGetWallet), walletId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: wallet %s", store.ErrNotFound, walletId)
		}
		return nil, fmt.Errorf("unable to query wallet: %w", err)
	}
	return wallet, nil
}

// GetUserWallets lists the active wallets of a user.
func (s *Service) GetUserWallets(ctx context.Context, userId string) ([]models.Wallet, error) {
	zap.L().Debug("Querying user wallets", zap.String("user_id", userId))

	rows, err := s.db.QueryContext(ctx, s.q(queryGetUserWallets), userId)
	if err != nil {
		zap.L().Error("Failed to query user wallets", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to query wallets: %w", err)
	}
	defer closeRows(rows)

	return collectWallets(rows)
}

// GetAllWallets includes deactivated wallets; reconciliation covers them too.
func (s *Service) GetAllWallets(ctx context.Context) ([]models.Wallet, error) {
	rows, err := s.db.QueryContext(ctx, s.q(queryGetAllWallets))
	if err != nil {
		return nil, fmt.Errorf("unable to query wallets: %w", err)
	}
	defer closeRows(rows)

	return collectWallets(rows)
}

// DeactivateWallet soft-deletes a wallet owned by actorId. History is kept.
func (s *Service) DeactivateWallet(ctx context.Context, actorId, walletId string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		wallet, err := s.lockWallet(ctx, tx, walletId)
		if err != nil {
			return err
		}
		if err := access.CanOperateWallet(actorId, wallet); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, s.q(queryDeactivateWallet), now(), wallet.Id, wallet.Version)
		if err != nil {
			return fmt.Errorf("failed to deactivate wallet: %w", err)
		}
		return requireOneRow(res, "wallet", wallet.Id)
	})
	if err != nil {
		return err
	}

	zap.L().Info("Wallet deactivated", zap.String("wallet_id", walletId), zap.String("actor_id", actorId))
	return nil
}

// lockWallet reads a wallet and holds it for the rest of tx.
func (s *Service) lockWallet(ctx context.Context, tx *sql.Tx, walletId string) (*models.Wallet, error) {
	wallet, err := scanWallet(tx.QueryRowContext(ctx, s.dialect.lock(queryLockWallet), walletId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: wallet %s", store.ErrNotFound, walletId)
		}
		return nil, fmt.Errorf("unable to lock wallet: %w", err)
	}
	return wallet, nil
}

// updateWalletBalance writes the new balance guarded by the version read
// under lock. The stored balance can never go negative.
func (s *Service) updateWalletBalance(ctx context.Context, tx *sql.Tx, wallet *models.Wallet, balance decimal.Decimal) error {
	if err := money.RequireNonNegative(balance); err != nil {
		return fmt.Errorf("%w: wallet %s balance would become %s", store.ErrInsufficientBalance, wallet.Id, money.Format(balance))
	}

	ts := now()
	res, err := tx.ExecContext(ctx, s.q(queryUpdateWalletBalance), money.Format(balance), ts, wallet.Id, wallet.Version)
	if err != nil {
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}
	if err := requireOneRow(res, "wallet", wallet.Id); err != nil {
		return err
	}

	wallet.Balance = balance
	wallet.Version++
	wallet.UpdatedAt = ts
	return nil
}

func requireOneRow(res sql.Result, what, id string) error {
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s %s", store.ErrConcurrentModification, what, id)
	}
	return nil
}

func collectWallets(rows *sql.Rows) ([]models.Wallet, error) {
	var wallets []models.Wallet
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			zap.L().Error("Failed to scan wallet row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan wallet row: %w", err)
		}
		wallets = append(wallets, *wallet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet rows: %w", err)
	}
	return wallets, nil
}
