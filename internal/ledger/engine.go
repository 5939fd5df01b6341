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

// Package ledger is the entry point for every money movement. It validates
// amounts, applies the KYC gate and hands the atomic work to the store.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"wallet-ledger-go/internal/access"
	"wallet-ledger-go/internal/kyc"
	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/money"
	"wallet-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultDepositDescription  = "Wallet deposit"
	DefaultTransferDescription = "Peer-to-peer transfer"
	DefaultPaymentDescription  = "Piggy bank payment"

	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

type Engine struct {
	store   store.LedgerStore
	kyc     *kyc.Config
	enforce bool
}

// NewEngine wires the store and KYC policy. With enforce false a gate
// denial is logged and the movement still proceeds.
func NewEngine(s store.LedgerStore, kycConfig *kyc.Config, enforce bool) *Engine {
	if kycConfig == nil {
		kycConfig = kyc.DefaultConfig()
	}
	return &Engine{store: s, kyc: kycConfig, enforce: enforce}
}

func (e *Engine) Store() store.LedgerStore { return e.store }

// ParseAmount parses user input into a positive two-decimal amount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := money.ParsePositive(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", store.ErrInvalidAmount, err)
	}
	return amount, nil
}

func validate(amount decimal.Decimal) error {
	if _, err := money.Normalize(amount); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidAmount, err)
	}
	if err := money.RequirePositive(amount); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidAmount, err)
	}
	return nil
}

// authorize runs the KYC gate for the actor.
func (e *Engine) authorize(ctx context.Context, actorId string, amount decimal.Decimal) error {
	state, err := e.kycState(ctx, actorId)
	if err != nil {
		return err
	}

	decision := kyc.Authorize(e.kyc, state, amount)
	if decision.Allowed {
		if decision.UpgradeRequired {
			zap.L().Info("KYC upgrade suggested",
				zap.String("user_id", actorId),
				zap.String("amount", money.Format(amount)),
				zap.String("reason", decision.UpgradeReason))
		}
		return nil
	}

	if !e.enforce {
		zap.L().Warn("KYC gate denied movement (advisory mode)",
			zap.String("user_id", actorId),
			zap.String("amount", money.Format(amount)),
			zap.String("reason", decision.Reason))
		return nil
	}
	return fmt.Errorf("%w: %s", store.ErrPolicyDenied, decision.Reason)
}

func (e *Engine) kycState(ctx context.Context, userId string) (kyc.State, error) {
	profile, err := e.store.GetKYCProfile(ctx, userId)
	if err != nil {
		return kyc.State{}, fmt.Errorf("failed to load kyc profile: %w", err)
	}
	return kyc.FromProfile(profile), nil
}

func (e *Engine) CreateWallet(ctx context.Context, actorId, name string) (*models.Wallet, error) {
	return e.store.CreateWallet(ctx, actorId, name)
}

func (e *Engine) ListWallets(ctx context.Context, actorId string) ([]models.Wallet, error) {
	return e.store.GetUserWallets(ctx, actorId)
}

// GetWallet returns a wallet the actor owns; other wallets read as forbidden.
func (e *Engine) GetWallet(ctx context.Context, actorId, walletId string) (*models.Wallet, error) {
	wallet, err := e.store.GetWallet(ctx, walletId)
	if err != nil {
		return nil, err
	}
	if err := access.CanViewWallet(actorId, wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

func (e *Engine) DeactivateWallet(ctx context.Context, actorId, walletId string) error {
	return e.store.DeactivateWallet(ctx, actorId, walletId)
}

func (e *Engine) Deposit(ctx context.Context, actorId, walletId string, amount decimal.Decimal, description, idempotencyKey string) (*models.Entry, error) {
	if err := validate(amount); err != nil {
		return nil, err
	}
	if err := e.authorize(ctx, actorId, amount); err != nil {
		return nil, err
	}

	description = strings.TrimSpace(description)
	if description == "" {
		description = DefaultDepositDescription
	}
	return e.store.Deposit(ctx, store.DepositParams{
		ActorId:        actorId,
		WalletId:       walletId,
		Amount:         amount,
		Description:    description,
		IdempotencyKey: idempotencyKey,
	})
}

// Transfer moves money out of the actor's wallet. Both legs are returned;
// the TRANSFER_OUT leg is the primary result.
func (e *Engine) Transfer(ctx context.Context, actorId, senderWalletId, recipientWalletId string, amount decimal.Decimal, description string) (*models.TransferResult, error) {
	if err := validate(amount); err != nil {
		return nil, err
	}
	if senderWalletId == recipientWalletId {
		return nil, fmt.Errorf("%w: cannot transfer to the same wallet", store.ErrInvalidTransfer)
	}
	if err := e.authorize(ctx, actorId, amount); err != nil {
		return nil, err
	}

	description = strings.TrimSpace(description)
	if description == "" {
		description = DefaultTransferDescription
	}
	return e.store.Transfer(ctx, store.TransferParams{
		ActorId:           actorId,
		SenderWalletId:    senderWalletId,
		RecipientWalletId: recipientWalletId,
		Amount:            amount,
		Description:       description,
	})
}

// ListTransactions returns the newest entries of an owned wallet. The limit
// defaults to 20 and is capped at 100.
func (e *Engine) ListTransactions(ctx context.Context, actorId, walletId string, limit, offset int) ([]models.Entry, error) {
	if _, err := e.GetWallet(ctx, actorId, walletId); err != nil {
		return nil, err
	}
	return e.store.GetTransactionHistory(ctx, walletId, ClampLimit(limit), max(offset, 0))
}

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	}
	return limit
}
