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
	"fmt"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/money"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReconcileWallet verifies that the stored balance matches the sum of the
// wallet's completed entries, and that every outgoing transfer is mutually
// linked to an incoming entry of the same amount.
func (s *Service) ReconcileWallet(ctx context.Context, walletId string) error {
	zap.L().Info("Reconciling wallet", zap.String("wallet_id", walletId))

	wallet, err := s.GetWallet(ctx, walletId)
	if err != nil {
		return fmt.Errorf("failed to get wallet: %w", err)
	}
	entries, err := s.getWalletEntries(ctx, walletId)
	if err != nil {
		return fmt.Errorf("failed to get wallet entries: %w", err)
	}

	calculated := decimal.Zero
	for _, entry := range entries {
		if entry.Status != models.StatusCompleted {
			continue
		}
		switch entry.Kind {
		case models.EntryDeposit, models.EntryTransferIn:
			calculated = calculated.Add(entry.Amount)
		case models.EntryTransferOut, models.EntryContribution, models.EntryWithdrawal:
			calculated = calculated.Sub(entry.Amount)
		}

		if entry.Kind == models.EntryTransferOut {
			if err := s.checkTransferPair(ctx, entry); err != nil {
				zap.L().Error("Transfer pair reconciliation failed",
					zap.String("wallet_id", walletId),
					zap.String("entry_id", entry.Id),
					zap.Error(err))
				return err
			}
		}
	}

	if !wallet.Balance.Equal(calculated) {
		zap.L().Error("Balance reconciliation failed",
			zap.String("wallet_id", walletId),
			zap.String("current_balance", money.Format(wallet.Balance)),
			zap.String("calculated_balance", money.Format(calculated)),
			zap.String("difference", money.Format(wallet.Balance.Sub(calculated))))
		return fmt.Errorf("balance mismatch: current=%s, calculated=%s", money.Format(wallet.Balance), money.Format(calculated))
	}
	if wallet.Balance.IsNegative() {
		return fmt.Errorf("negative balance: %s", money.Format(wallet.Balance))
	}

	zap.L().Info("Balance reconciliation successful",
		zap.String("wallet_id", walletId),
		zap.String("balance", money.Format(wallet.Balance)))
	return nil
}

func (s *Service) checkTransferPair(ctx context.Context, out models.Entry) error {
	if out.CounterpartEntryId == "" {
		return fmt.Errorf("transfer %s has no counterpart entry", out.Id)
	}
	in, err := s.GetEntry(ctx, out.CounterpartEntryId)
	if err != nil {
		return fmt.Errorf("transfer %s counterpart: %w", out.Id, err)
	}
	switch {
	case in.Kind != models.EntryTransferIn:
		return fmt.Errorf("transfer %s counterpart %s is %s", out.Id, in.Id, in.Kind)
	case in.CounterpartEntryId != out.Id:
		return fmt.Errorf("transfer %s counterpart %s does not link back", out.Id, in.Id)
	case in.WalletId != out.CounterpartWalletId:
		return fmt.Errorf("transfer %s credited wallet %s, expected %s", out.Id, in.WalletId, out.CounterpartWalletId)
	case !in.Amount.Equal(out.Amount):
		return fmt.Errorf("transfer %s amount %s, counterpart amount %s", out.Id, money.Format(out.Amount), money.Format(in.Amount))
	}
	return nil
}

// ReconcilePiggyBank verifies current_amount against completed contributions
// minus completed disbursements.
func (s *Service) ReconcilePiggyBank(ctx context.Context, piggyBankId string) error {
	zap.L().Info("Reconciling piggy bank", zap.String("piggy_bank_id", piggyBankId))

	pool, err := s.GetPiggyBank(ctx, piggyBankId)
	if err != nil {
		return fmt.Errorf("failed to get piggy bank: %w", err)
	}

	contributed, err := s.sumAmounts(ctx, s.q(queryPoolContributionAmounts), piggyBankId)
	if err != nil {
		return fmt.Errorf("failed to sum contributions: %w", err)
	}
	disbursed, err := s.sumAmounts(ctx, s.q(queryPoolDisbursementAmounts), piggyBankId)
	if err != nil {
		return fmt.Errorf("failed to sum disbursements: %w", err)
	}

	calculated := contributed.Sub(disbursed)
	if !pool.CurrentAmount.Equal(calculated) {
		zap.L().Error("Piggy bank reconciliation failed",
			zap.String("piggy_bank_id", piggyBankId),
			zap.String("current_amount", money.Format(pool.CurrentAmount)),
			zap.String("contributed", money.Format(contributed)),
			zap.String("disbursed", money.Format(disbursed)))
		return fmt.Errorf("amount mismatch: current=%s, calculated=%s", money.Format(pool.CurrentAmount), money.Format(calculated))
	}
	if pool.CurrentAmount.IsNegative() {
		return fmt.Errorf("negative pool amount: %s", money.Format(pool.CurrentAmount))
	}

	zap.L().Info("Piggy bank reconciliation successful",
		zap.String("piggy_bank_id", piggyBankId),
		zap.String("current_amount", money.Format(pool.CurrentAmount)))
	return nil
}

// GetStats builds the system overview served to bots.
func (s *Service) GetStats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{}

	if err := s.db.QueryRowContext(ctx, s.q(queryCountUsers)).Scan(&stats.Users); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, s.q(queryCountCompletedEntries)).Scan(&stats.CompletedEntries); err != nil {
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, s.q(queryCountVerifiedKYC)).Scan(&stats.VerifiedKYCUsers); err != nil {
		return nil, fmt.Errorf("failed to count verified users: %w", err)
	}

	var err error
	if stats.TotalBalance, stats.ActiveWallets, err = s.sumColumn(ctx, s.q(queryActiveWalletBalances)); err != nil {
		return nil, fmt.Errorf("failed to sum wallet balances: %w", err)
	}
	if stats.TotalPooled, stats.ActivePiggyBanks, err = s.sumColumn(ctx, s.q(queryActivePoolAmounts)); err != nil {
		return nil, fmt.Errorf("failed to sum piggy bank amounts: %w", err)
	}
	return stats, nil
}

func (s *Service) sumAmounts(ctx context.Context, query string, args ...any) (decimal.Decimal, error) {
	total, _, err := s.sumColumn(ctx, query, args...)
	return total, err
}

// sumColumn adds up a single text amount column in Go so that both
// backends produce exact totals.
func (s *Service) sumColumn(ctx context.Context, query string, args ...any) (decimal.Decimal, int, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, 0, err
	}
	defer closeRows(rows)

	total := decimal.Zero
	count := 0
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, 0, err
		}
		amount, err := money.FromStorage("amount", raw)
		if err != nil {
			return decimal.Zero, 0, err
		}
		total = total.Add(amount)
		count++
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, 0, err
	}
	return total, count, nil
}
