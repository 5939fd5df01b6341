package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/money"
	"wallet-ledger-go/internal/store"

	"go.uber.org/zap"
)

// insertEntry appends one ledger entry. Entries are never updated afterwards
// except to back-fill the counterpart link of a transfer.
func (s *Service) insertEntry(ctx context.Context, tx *sql.Tx, entry *models.Entry) error {
	_, err := tx.ExecContext(ctx, s.q(queryInsertEntry),
		entry.Id,
		entry.WalletId,
		string(entry.Kind),
		money.Format(entry.Amount),
		money.Format(entry.BalanceBefore),
		money.Format(entry.BalanceAfter),
		string(entry.Status),
		entry.Description,
		entry.ReferenceId,
		nullString(entry.IdempotencyKey),
		nullString(entry.CounterpartWalletId),
		nullString(entry.CounterpartEntryId),
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		if entry.IdempotencyKey != "" && isUniqueViolation(err) {
			return fmt.Errorf("%w: idempotency key %s already used", store.ErrDuplicateTransaction, entry.IdempotencyKey)
		}
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

// linkCounterpart sets the counterpart entry of an entry exactly once.
func (s *Service) linkCounterpart(ctx context.Context, tx *sql.Tx, entry *models.Entry, counterpartId string) error {
	res, err := tx.ExecContext(ctx, s.q(querySetCounterpartEntry), counterpartId, entry.UpdatedAt, entry.Id)
	if err != nil {
		return fmt.Errorf("failed to link counterpart entry: %w", err)
	}
	if err := requireOneRow(res, "ledger entry", entry.Id); err != nil {
		return err
	}
	entry.CounterpartEntryId = counterpartId
	return nil
}

func (s *Service) GetEntry(ctx context.Context, entryId string) (*models.Entry, error) {
	entry, err := scanEntry(s.db.QueryRowContext(ctx, s.q(queryGetEntry), entryId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: ledger entry %s", store.ErrNotFound, entryId)
		}
		return nil, fmt.Errorf("unable to query ledger entry: %w", err)
	}
	return entry, nil
}

// GetTransactionHistory returns a wallet's entries newest first.
func (s *Service) GetTransactionHistory(ctx context.Context, walletId string, limit, offset int) ([]models.Entry, error) {
	zap.L().Debug("Querying transaction history",
		zap.String("wallet_id", walletId),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	rows, err := s.db.QueryContext(ctx, s.q(queryGetTransactionHistory), walletId, limit, offset)
	if err != nil {
		zap.L().Error("Failed to query transaction history", zap.String("wallet_id", walletId), zap.Error(err))
		return nil, fmt.Errorf("unable to query transaction history: %w", err)
	}
	defer closeRows(rows)

	return collectEntries(rows)
}

// GetEntriesSince pages through all entries ordered by (created_at, id).
// With an empty afterId it returns entries strictly newer than after;
// otherwise it resumes right behind the entry (after, afterId).
func (s *Service) GetEntriesSince(ctx context.Context, after time.Time, afterId string, limit int) ([]models.Entry, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if afterId == "" {
		rows, err = s.db.QueryContext(ctx, s.q(queryGetEntriesSince), after.UTC(), limit)
	} else {
		rows, err = s.db.QueryContext(ctx, s.q(queryGetEntriesAfterKey), after.UTC(), after.UTC(), afterId, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query ledger entries: %w", err)
	}
	defer closeRows(rows)

	return collectEntries(rows)
}

func (s *Service) getWalletEntries(ctx context.Context, walletId string) ([]models.Entry, error) {
	rows, err := s.db.QueryContext(ctx, s.q(queryGetWalletEntries), walletId)
	if err != nil {
		return nil, fmt.Errorf("unable to query wallet entries: %w", err)
	}
	defer closeRows(rows)

	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]models.Entry, error) {
	var entries []models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			zap.L().Error("Failed to scan ledger entry row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan ledger entry row: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during ledger entry row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating ledger entry rows: %w", err)
	}
	return entries, nil
}
