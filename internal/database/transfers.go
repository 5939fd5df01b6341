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

	"wallet-ledger-go/internal/access"
	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/money"
	"wallet-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Deposit credits a wallet owned by the actor with one COMPLETED DEPOSIT entry.
func (s *Service) Deposit(ctx context.Context, params store.DepositParams) (*models.Entry, error) {
	zap.L().Info("Processing deposit",
		zap.String("actor_id", params.ActorId),
		zap.String("wallet_id", params.WalletId),
		zap.String("amount", money.Format(params.Amount)))

	if err := validAmount(params.Amount); err != nil {
		return nil, err
	}

	var entry *models.Entry
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		wallet, err := s.lockWallet(ctx, tx, params.WalletId)
		if err != nil {
			return err
		}
		if err := access.CanOperateWallet(params.ActorId, wallet); err != nil {
			return err
		}

		// Keys are scoped to the wallet; checked under the wallet lock
		if params.IdempotencyKey != "" {
			var existingId string
			err := tx.QueryRowContext(ctx, s.q(queryCheckIdempotencyKey), wallet.Id, params.IdempotencyKey).Scan(&existingId)
			if err == nil {
				zap.L().Warn("Duplicate idempotency key detected, skipping",
					zap.String("wallet_id", wallet.Id),
					zap.String("idempotency_key", params.IdempotencyKey),
					zap.String("existing_entry_id", existingId))
				return fmt.Errorf("%w: idempotency key %s already used", store.ErrDuplicateTransaction, params.IdempotencyKey)
			} else if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("failed to check for duplicate transaction: %w", err)
			}
		}

		ts := now()
		newBalance := wallet.Balance.Add(params.Amount)
		entry = &models.Entry{
			Id:             uuid.New().String(),
			WalletId:       wallet.Id,
			Kind:           models.EntryDeposit,
			Amount:         params.Amount,
			BalanceBefore:  wallet.Balance,
			BalanceAfter:   newBalance,
			Status:         models.StatusCompleted,
			Description:    params.Description,
			IdempotencyKey: params.IdempotencyKey,
			CreatedAt:      ts,
			UpdatedAt:      ts,
		}
		if err := s.insertEntry(ctx, tx, entry); err != nil {
			return err
		}
		return s.updateWalletBalance(ctx, tx, wallet, newBalance)
	})
	if err != nil {
		zap.L().Warn("Deposit rejected", zap.String("wallet_id", params.WalletId), zap.Error(err))
		return nil, err
	}

	zap.L().Info("Deposit processed successfully",
		zap.String("entry_id", entry.Id),
		zap.String("wallet_id", entry.WalletId),
		zap.String("old_balance", money.Format(entry.BalanceBefore)),
		zap.String("new_balance", money.Format(entry.BalanceAfter)))
	return entry, nil
}

// Transfer moves money between two wallets as a TRANSFER_OUT / TRANSFER_IN
// pair that reference each other. Both wallets are locked in id order.
func (s *Service) Transfer(ctx context.Context, params store.TransferParams) (*models.TransferResult, error) {
	zap.L().Info("Processing transfer",
		zap.String("actor_id", params.ActorId),
		zap.String("sender_wallet_id", params.SenderWalletId),
		zap.String("recipient_wallet_id", params.RecipientWalletId),
		zap.String("amount", money.Format(params.Amount)))

	if err := validAmount(params.Amount); err != nil {
		return nil, err
	}
	if params.SenderWalletId == params.RecipientWalletId {
		return nil, fmt.Errorf("%w: cannot transfer to the same wallet", store.ErrInvalidTransfer)
	}

	var result *models.TransferResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		sender, recipient, err := s.lockWalletPair(ctx, tx, params.SenderWalletId, params.RecipientWalletId)
		if err != nil {
			return err
		}
		if err := access.CanOperateWallet(params.ActorId, sender); err != nil {
			return err
		}
		if err := access.CanCreditWallet(recipient); err != nil {
			return err
		}
		if sender.Balance.LessThan(params.Amount) {
			return fmt.Errorf("%w: available %s, required %s", store.ErrInsufficientBalance,
				money.Format(sender.Balance), money.Format(params.Amount))
		}

		senderName, err := s.usernameTx(ctx, tx, sender.UserId)
		if err != nil {
			return err
		}
		recipientName, err := s.usernameTx(ctx, tx, recipient.UserId)
		if err != nil {
			return err
		}

		ts := now()
		out := &models.Entry{
			Id:                  uuid.New().String(),
			WalletId:            sender.Id,
			Kind:                models.EntryTransferOut,
			Amount:              params.Amount,
			BalanceBefore:       sender.Balance,
			BalanceAfter:        sender.Balance.Sub(params.Amount),
			Status:              models.StatusCompleted,
			Description:         fmt.Sprintf("Transfer to %s: %s", recipientName, params.Description),
			CounterpartWalletId: recipient.Id,
			CreatedAt:           ts,
			UpdatedAt:           ts,
		}
		in := &models.Entry{
			Id:                  uuid.New().String(),
			WalletId:            recipient.Id,
			Kind:                models.EntryTransferIn,
			Amount:              params.Amount,
			BalanceBefore:       recipient.Balance,
			BalanceAfter:        recipient.Balance.Add(params.Amount),
			Status:              models.StatusCompleted,
			Description:         fmt.Sprintf("Transfer from %s: %s", senderName, params.Description),
			CounterpartWalletId: sender.Id,
			CounterpartEntryId:  out.Id,
			CreatedAt:           ts,
			UpdatedAt:           ts,
		}

		if err := s.insertEntry(ctx, tx, out); err != nil {
			return err
		}
		if err := s.insertEntry(ctx, tx, in); err != nil {
			return err
		}
		if err := s.linkCounterpart(ctx, tx, out, in.Id); err != nil {
			return err
		}
		if err := s.updateWalletBalance(ctx, tx, sender, out.BalanceAfter); err != nil {
			return err
		}
		if err := s.updateWalletBalance(ctx, tx, recipient, in.BalanceAfter); err != nil {
			return err
		}

		result = &models.TransferResult{Out: *out, In: *in}
		return nil
	})
	if err != nil {
		zap.L().Warn("Transfer rejected",
			zap.String("sender_wallet_id", params.SenderWalletId),
			zap.String("recipient_wallet_id", params.RecipientWalletId),
			zap.Error(err))
		return nil, err
	}

	zap.L().Info("Transfer processed successfully",
		zap.String("out_entry_id", result.Out.Id),
		zap.String("in_entry_id", result.In.Id),
		zap.String("sender_balance", money.Format(result.Out.BalanceAfter)),
		zap.String("recipient_balance", money.Format(result.In.BalanceAfter)))
	return result, nil
}

// lockWalletPair locks two distinct wallets in ascending id order so that
// opposite transfers between the same wallets cannot deadlock.
func (s *Service) lockWalletPair(ctx context.Context, tx *sql.Tx, senderId, recipientId string) (*models.Wallet, *models.Wallet, error) {
	first, second := senderId, recipientId
	if second < first {
		first, second = second, first
	}

	a, err := s.lockWallet(ctx, tx, first)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.lockWallet(ctx, tx, second)
	if err != nil {
		return nil, nil, err
	}

	if a.Id == senderId {
		return a, b, nil
	}
	return b, a, nil
}

func validAmount(amount decimal.Decimal) error {
	if _, err := money.Normalize(amount); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidAmount, err)
	}
	if err := money.RequirePositive(amount); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidAmount, err)
	}
	return nil
}
