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

func (s *Service) CreatePiggyBank(ctx context.Context, params store.CreatePiggyBankParams) (*models.PiggyBank, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: piggy bank name cannot be empty", store.ErrInvalidInput)
	}
	if err := validAmount(params.TargetAmount); err != nil {
		return nil, err
	}
	if _, err := s.GetUserById(ctx, params.CreatorId); err != nil {
		return nil, err
	}

	ts := now()
	pool := &models.PiggyBank{
		Id:            uuid.New().String(),
		CreatorId:     params.CreatorId,
		Name:          name,
		Description:   params.Description,
		TargetAmount:  params.TargetAmount,
		CurrentAmount: decimal.Zero,
		Version:       1,
		Active:        true,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}

	_, err := s.db.ExecContext(ctx, s.q(queryInsertPiggyBank),
		pool.Id, pool.CreatorId, pool.Name, pool.Description,
		money.Format(pool.TargetAmount), money.Format(pool.CurrentAmount), ts, ts)
	if err != nil {
		zap.L().Error("Failed to insert piggy bank", zap.String("creator_id", params.CreatorId), zap.Error(err))
		return nil, fmt.Errorf("unable to insert piggy bank: %w", err)
	}

	zap.L().Info("Piggy bank created",
		zap.String("piggy_bank_id", pool.Id),
		zap.String("creator_id", pool.CreatorId),
		zap.String("target_amount", money.Format(pool.TargetAmount)))
	return pool, nil
}

func (s *Service) GetPiggyBank(ctx context.Context, piggyBankId string) (*models.PiggyBank, error) {
	pool, err := scanPiggyBank(s.db.QueryRowContext(ctx, s.q(queryGetPiggyBank), piggyBankId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: piggy bank %s", store.ErrNotFound, piggyBankId)
		}
		return nil, fmt.Errorf("unable to query piggy bank: %w", err)
	}
	return pool, nil
}

// GetUserPiggyBanks lists active pools the user created or is a member of.
func (s *Service) GetUserPiggyBanks(ctx context.Context, userId string) ([]models.PiggyBank, error) {
	rows, err := s.db.QueryContext(ctx, s.q(queryGetUserPiggyBanks), userId, userId)
	if err != nil {
		return nil, fmt.Errorf("unable to query piggy banks: %w", err)
	}
	defer closeRows(rows)

	return collectPiggyBanks(rows)
}

func (s *Service) GetAllPiggyBanks(ctx context.Context) ([]models.PiggyBank, error) {
	rows, err := s.db.QueryContext(ctx, s.q(queryGetAllPiggyBanks))
	if err != nil {
		return nil, fmt.Errorf("unable to query piggy banks: %w", err)
	}
	defer closeRows(rows)

	return collectPiggyBanks(rows)
}

// DeactivatePiggyBank moves a pool to INACTIVE. The transition is one-way.
func (s *Service) DeactivatePiggyBank(ctx context.Context, actorId, piggyBankId string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		pool, err := s.lockPiggyBank(ctx, tx, piggyBankId)
		if err != nil {
			return err
		}
		if err := access.CanManagePool(actorId, pool); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, s.q(queryDeactivatePiggyBank), now(), pool.Id, pool.Version)
		if err != nil {
			return fmt.Errorf("failed to deactivate piggy bank: %w", err)
		}
		return requireOneRow(res, "piggy bank", pool.Id)
	})
	if err != nil {
		return err
	}

	zap.L().Info("Piggy bank deactivated", zap.String("piggy_bank_id", piggyBankId), zap.String("actor_id", actorId))
	return nil
}

// AddMember invites a user into a pool. Only the creator may invite, and a
// user can hold at most one membership per pool.
func (s *Service) AddMember(ctx context.Context, actorId, piggyBankId, userId string) (*models.Membership, error) {
	var membership *models.Membership
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		pool, err := s.lockPiggyBank(ctx, tx, piggyBankId)
		if err != nil {
			return err
		}
		if err := access.CanManagePool(actorId, pool); err != nil {
			return err
		}

		username, err := s.usernameTx(ctx, tx, userId)
		if err != nil {
			return err
		}
		if userId == pool.CreatorId {
			return fmt.Errorf("%w: user is the creator of this piggy bank", store.ErrConflict)
		}

		existing, err := s.membershipTx(ctx, tx, pool.Id, userId)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: user is already a member of this piggy bank", store.ErrConflict)
		}

		ts := now()
		membership = &models.Membership{
			Id:          uuid.New().String(),
			PiggyBankId: pool.Id,
			UserId:      userId,
			Username:    username,
			Active:      true,
			InvitedAt:   ts,
			JoinedAt:    ts,
		}
		_, err = tx.ExecContext(ctx, s.q(queryInsertMembership), membership.Id, pool.Id, userId, ts, ts)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: user is already a member of this piggy bank", store.ErrConflict)
			}
			return fmt.Errorf("failed to insert membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Piggy bank member added",
		zap.String("piggy_bank_id", piggyBankId),
		zap.String("user_id", userId),
		zap.String("actor_id", actorId))
	return membership, nil
}

func (s *Service) GetMembership(ctx context.Context, piggyBankId, userId string) (*models.Membership, error) {
	m, err := scanMembership(s.db.QueryRowContext(ctx, s.q(queryGetMembership), piggyBankId, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: membership of user %s in piggy bank %s", store.ErrNotFound, userId, piggyBankId)
		}
		return nil, fmt.Errorf("unable to query membership: %w", err)
	}
	return m, nil
}

func (s *Service) GetMembers(ctx context.Context, piggyBankId string) ([]models.Membership, error) {
	rows, err := s.db.QueryContext(ctx, s.q(queryGetMembers), piggyBankId)
	if err != nil {
		return nil, fmt.Errorf("unable to query members: %w", err)
	}
	defer closeRows(rows)

	var members []models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan membership row: %w", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating membership rows: %w", err)
	}
	return members, nil
}

// GetContributions returns a pool's contributions newest first.
func (s *Service) GetContributions(ctx context.Context, piggyBankId string) ([]models.Contribution, error) {
	rows, err := s.db.QueryContext(ctx, s.q(queryGetContributions), piggyBankId)
	if err != nil {
		return nil, fmt.Errorf("unable to query contributions: %w", err)
	}
	defer closeRows(rows)

	var contributions []models.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan contribution row: %w", err)
		}
		contributions = append(contributions, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contribution rows: %w", err)
	}
	return contributions, nil
}

func (s *Service) GetDisbursements(ctx context.Context, piggyBankId string) ([]models.Disbursement, error) {
	rows, err := s.db.QueryContext(ctx, s.q(queryGetDisbursements), piggyBankId)
	if err != nil {
		return nil, fmt.Errorf("unable to query disbursements: %w", err)
	}
	defer closeRows(rows)

	var disbursements []models.Disbursement
	for rows.Next() {
		d, err := scanDisbursement(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan disbursement row: %w", err)
		}
		disbursements = append(disbursements, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating disbursement rows: %w", err)
	}
	return disbursements, nil
}

// Contribute debits the actor's wallet into the pool. The pool is locked
// before the wallet, the same order Disburse uses.
func (s *Service) Contribute(ctx context.Context, params store.ContributeParams) (*models.Contribution, error) {
	zap.L().Info("Processing contribution",
		zap.String("actor_id", params.ActorId),
		zap.String("piggy_bank_id", params.PiggyBankId),
		zap.String("wallet_id", params.WalletId),
		zap.String("amount", money.Format(params.Amount)))

	if err := validAmount(params.Amount); err != nil {
		return nil, err
	}

	var contribution *models.Contribution
	var poolAfter decimal.Decimal
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		pool, err := s.lockPiggyBank(ctx, tx, params.PiggyBankId)
		if err != nil {
			return err
		}
		membership, err := s.membershipTx(ctx, tx, pool.Id, params.ActorId)
		if err != nil {
			return err
		}
		if err := access.CanContribute(params.ActorId, pool, membership); err != nil {
			return err
		}

		wallet, err := s.lockWallet(ctx, tx, params.WalletId)
		if err != nil {
			return err
		}
		if err := access.CanOperateWallet(params.ActorId, wallet); err != nil {
			return err
		}
		if wallet.Balance.LessThan(params.Amount) {
			return fmt.Errorf("%w: available %s, required %s", store.ErrInsufficientBalance,
				money.Format(wallet.Balance), money.Format(params.Amount))
		}

		ts := now()
		entry := &models.Entry{
			Id:            uuid.New().String(),
			WalletId:      wallet.Id,
			Kind:          models.EntryContribution,
			Amount:        params.Amount,
			BalanceBefore: wallet.Balance,
			BalanceAfter:  wallet.Balance.Sub(params.Amount),
			Status:        models.StatusCompleted,
			Description:   fmt.Sprintf("Contribution to %s", pool.Name),
			ReferenceId:   pool.Id,
			CreatedAt:     ts,
			UpdatedAt:     ts,
		}
		if err := s.insertEntry(ctx, tx, entry); err != nil {
			return err
		}

		contribution = &models.Contribution{
			Id:          uuid.New().String(),
			PiggyBankId: pool.Id,
			UserId:      params.ActorId,
			WalletId:    wallet.Id,
			EntryId:     entry.Id,
			Amount:      params.Amount,
			CreatedAt:   ts,
		}
		_, err = tx.ExecContext(ctx, s.q(queryInsertContribution),
			contribution.Id, contribution.PiggyBankId, contribution.UserId, contribution.WalletId,
			contribution.EntryId, money.Format(contribution.Amount), ts)
		if err != nil {
			return fmt.Errorf("failed to insert contribution: %w", err)
		}

		if err := s.updateWalletBalance(ctx, tx, wallet, entry.BalanceAfter); err != nil {
			return err
		}
		poolAfter = pool.CurrentAmount.Add(params.Amount)
		return s.updatePiggyBankAmount(ctx, tx, pool, poolAfter)
	})
	if err != nil {
		zap.L().Warn("Contribution rejected", zap.String("piggy_bank_id", params.PiggyBankId), zap.Error(err))
		return nil, err
	}

	zap.L().Info("Contribution processed successfully",
		zap.String("contribution_id", contribution.Id),
		zap.String("piggy_bank_id", contribution.PiggyBankId),
		zap.String("current_amount", money.Format(poolAfter)))
	return contribution, nil
}

// Disburse pays out of a pool into any active wallet. Only the creator can
// disburse. The pool has no ledger entry of its own; current_amount is its
// balance.
func (s *Service) Disburse(ctx context.Context, params store.DisburseParams) (*models.Entry, error) {
	zap.L().Info("Processing disbursement",
		zap.String("actor_id", params.ActorId),
		zap.String("piggy_bank_id", params.PiggyBankId),
		zap.String("recipient_wallet_id", params.RecipientWalletId),
		zap.String("amount", money.Format(params.Amount)))

	if err := validAmount(params.Amount); err != nil {
		return nil, err
	}

	var entry *models.Entry
	var poolAfter decimal.Decimal
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		pool, err := s.lockPiggyBank(ctx, tx, params.PiggyBankId)
		if err != nil {
			return err
		}
		if err := access.CanDisburse(params.ActorId, pool); err != nil {
			return err
		}

		recipient, err := s.lockWallet(ctx, tx, params.RecipientWalletId)
		if err != nil {
			return err
		}
		if err := access.CanCreditWallet(recipient); err != nil {
			return err
		}
		if pool.CurrentAmount.LessThan(params.Amount) {
			return fmt.Errorf("%w: piggy bank holds %s, requested %s", store.ErrInsufficientFunds,
				money.Format(pool.CurrentAmount), money.Format(params.Amount))
		}

		ts := now()
		entry = &models.Entry{
			Id:            uuid.New().String(),
			WalletId:      recipient.Id,
			Kind:          models.EntryTransferIn,
			Amount:        params.Amount,
			BalanceBefore: recipient.Balance,
			BalanceAfter:  recipient.Balance.Add(params.Amount),
			Status:        models.StatusCompleted,
			Description:   fmt.Sprintf("Payment from %s: %s", pool.Name, params.Description),
			ReferenceId:   pool.Id,
			CreatedAt:     ts,
			UpdatedAt:     ts,
		}
		if err := s.insertEntry(ctx, tx, entry); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, s.q(queryInsertDisbursement),
			uuid.New().String(), pool.Id, params.ActorId, recipient.Id, entry.Id, money.Format(params.Amount), ts)
		if err != nil {
			return fmt.Errorf("failed to insert disbursement: %w", err)
		}

		if err := s.updateWalletBalance(ctx, tx, recipient, entry.BalanceAfter); err != nil {
			return err
		}
		poolAfter = pool.CurrentAmount.Sub(params.Amount)
		return s.updatePiggyBankAmount(ctx, tx, pool, poolAfter)
	})
	if err != nil {
		zap.L().Warn("Disbursement rejected", zap.String("piggy_bank_id", params.PiggyBankId), zap.Error(err))
		return nil, err
	}

	zap.L().Info("Disbursement processed successfully",
		zap.String("entry_id", entry.Id),
		zap.String("piggy_bank_id", params.PiggyBankId),
		zap.String("current_amount", money.Format(poolAfter)))
	return entry, nil
}

func (s *Service) lockPiggyBank(ctx context.Context, tx *sql.Tx, piggyBankId string) (*models.PiggyBank, error) {
	pool, err := scanPiggyBank(tx.QueryRowContext(ctx, s.dialect.lock(queryLockPiggyBank), piggyBankId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: piggy bank %s", store.ErrNotFound, piggyBankId)
		}
		return nil, fmt.Errorf("unable to lock piggy bank: %w", err)
	}
	return pool, nil
}

// membershipTx returns nil, nil when the user holds no membership.
func (s *Service) membershipTx(ctx context.Context, tx *sql.Tx, piggyBankId, userId string) (*models.Membership, error) {
	m, err := scanMembership(tx.QueryRowContext(ctx, s.q(queryGetMembership), piggyBankId, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to query membership: %w", err)
	}
	return m, nil
}

func (s *Service) updatePiggyBankAmount(ctx context.Context, tx *sql.Tx, pool *models.PiggyBank, amount decimal.Decimal) error {
	if err := money.RequireNonNegative(amount); err != nil {
		return fmt.Errorf("%w: piggy bank %s would hold %s", store.ErrInsufficientFunds, pool.Id, money.Format(amount))
	}

	ts := now()
	res, err := tx.ExecContext(ctx, s.q(queryUpdatePiggyBankAmount), money.Format(amount), ts, pool.Id, pool.Version)
	if err != nil {
		return fmt.Errorf("failed to update piggy bank amount: %w", err)
	}
	if err := requireOneRow(res, "piggy bank", pool.Id); err != nil {
		return err
	}

	pool.CurrentAmount = amount
	pool.Version++
	pool.UpdatedAt = ts
	return nil
}

func collectPiggyBanks(rows *sql.Rows) ([]models.PiggyBank, error) {
	var pools []models.PiggyBank
	for rows.Next() {
		pool, err := scanPiggyBank(rows)
		if err != nil {
			zap.L().Error("Failed to scan piggy bank row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan piggy bank row: %w", err)
		}
		pools = append(pools, *pool)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating piggy bank rows: %w", err)
	}
	return pools, nil
}
