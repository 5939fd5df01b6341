package formance

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/money"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Numscript templates. Every transaction records the local entry it came
// from via set_tx_meta() so the Formance side is self-describing.
// ---------------------------------------------------------------------------

const numscriptDeposit = `vars {
  asset $asset
  number $amount
  account $wallet
  string $entry_id
  string $description
  string $amount_human
}

send [$asset $amount] (
  source = @world
  destination = $wallet
)

set_tx_meta("event_type", "deposit")
set_tx_meta("entry_id", $entry_id)
set_tx_meta("description", $description)
set_tx_meta("amount_human", $amount_human)
`

const numscriptTransfer = `vars {
  asset $asset
  number $amount
  account $sender
  account $recipient
  string $entry_id
  string $description
  string $amount_human
}

send [$asset $amount] (
  source = $sender
  destination = $recipient
)

set_tx_meta("event_type", "transfer")
set_tx_meta("entry_id", $entry_id)
set_tx_meta("description", $description)
set_tx_meta("amount_human", $amount_human)
`

const numscriptContribution = `vars {
  asset $asset
  number $amount
  account $wallet
  account $piggy_bank
  string $entry_id
  string $description
  string $amount_human
}

send [$asset $amount] (
  source = $wallet
  destination = $piggy_bank
)

set_tx_meta("event_type", "contribution")
set_tx_meta("entry_id", $entry_id)
set_tx_meta("description", $description)
set_tx_meta("amount_human", $amount_human)
`

const numscriptDisbursement = `vars {
  asset $asset
  number $amount
  account $piggy_bank
  account $wallet
  string $entry_id
  string $description
  string $amount_human
}

send [$asset $amount] (
  source = $piggy_bank
  destination = $wallet
)

set_tx_meta("event_type", "disbursement")
set_tx_meta("entry_id", $entry_id)
set_tx_meta("description", $description)
set_tx_meta("amount_human", $amount_human)
`

const numscriptWithdrawal = `vars {
  asset $asset
  number $amount
  account $wallet
  string $entry_id
  string $description
  string $amount_human
}

send [$asset $amount] (
  source = $wallet
  destination = @world
)

set_tx_meta("event_type", "withdrawal")
set_tx_meta("entry_id", $entry_id)
set_tx_meta("description", $description)
set_tx_meta("amount_human", $amount_human)
`

const defaultExportBatch = 100

// ExportResult summarises one export run. Cursor and CursorId identify the
// last entry walked; passing them back resumes right after it.
type ExportResult struct {
	Exported       int
	AlreadyPresent int
	Skipped        int
	Cursor         time.Time
	CursorId       string
}

// entrySource is the slice of the store the export walk reads from.
type entrySource interface {
	GetEntriesSince(ctx context.Context, after time.Time, afterId string, limit int) ([]models.Entry, error)
}

// walkEntries visits every entry after (after, afterId) in (created_at, id)
// order, one page at a time. It returns the key of the last entry visited.
func walkEntries(ctx context.Context, src entrySource, after time.Time, afterId string, batch int, visit func(models.Entry) error) (time.Time, string, error) {
	for {
		entries, err := src.GetEntriesSince(ctx, after, afterId, batch)
		if err != nil {
			return after, afterId, err
		}
		for _, entry := range entries {
			if err := visit(entry); err != nil {
				return after, afterId, err
			}
			after, afterId = entry.CreatedAt, entry.Id
		}
		if len(entries) < batch {
			return after, afterId, nil
		}
	}
}

// buildTransaction maps a completed entry to a Formance transaction. The
// second return is false for entries that carry no movement of their own:
// the receiving leg of a wallet-to-wallet transfer is posted with its
// sending leg.
func buildTransaction(entry models.Entry, currency string) (shared.V2PostTransaction, bool, error) {
	if entry.Status != models.StatusCompleted {
		return shared.V2PostTransaction{}, false, nil
	}

	vars := map[string]string{
		"asset":        formanceAsset(currency),
		"amount":       entry.Amount.Shift(int32(precisionFor(currency))).BigInt().String(),
		"entry_id":     entry.Id,
		"description":  entry.Description,
		"amount_human": money.Format(entry.Amount),
	}

	var script string
	switch entry.Kind {
	case models.EntryDeposit:
		script = numscriptDeposit
		vars["wallet"] = walletAccount(entry.WalletId)
	case models.EntryTransferOut:
		if entry.CounterpartWalletId == "" {
			return shared.V2PostTransaction{}, false, fmt.Errorf("transfer entry %s has no counterpart wallet", entry.Id)
		}
		script = numscriptTransfer
		vars["sender"] = walletAccount(entry.WalletId)
		vars["recipient"] = walletAccount(entry.CounterpartWalletId)
	case models.EntryTransferIn:
		if entry.CounterpartEntryId != "" || entry.ReferenceId == "" {
			return shared.V2PostTransaction{}, false, nil
		}
		script = numscriptDisbursement
		vars["piggy_bank"] = piggyBankAccount(entry.ReferenceId)
		vars["wallet"] = walletAccount(entry.WalletId)
	case models.EntryContribution:
		if entry.ReferenceId == "" {
			return shared.V2PostTransaction{}, false, fmt.Errorf("contribution entry %s has no piggy bank reference", entry.Id)
		}
		script = numscriptContribution
		vars["wallet"] = walletAccount(entry.WalletId)
		vars["piggy_bank"] = piggyBankAccount(entry.ReferenceId)
	case models.EntryWithdrawal:
		script = numscriptWithdrawal
		vars["wallet"] = walletAccount(entry.WalletId)
	default:
		return shared.V2PostTransaction{}, false, fmt.Errorf("unknown entry kind %q", entry.Kind)
	}

	ts := entry.CreatedAt
	return shared.V2PostTransaction{
		Reference: strPtr(entry.Id),
		Timestamp: &ts,
		Script: &shared.V2PostTransactionScript{
			Plain: script,
			Vars:  vars,
		},
	}, true, nil
}

// ExportEntry posts a single entry. It returns false when the entry was
// already present in Formance or has nothing to post.
func (e *Exporter) ExportEntry(ctx context.Context, entry models.Entry) (bool, error) {
	postTx, ok, err := buildTransaction(entry, e.currency)
	if err != nil || !ok {
		return false, err
	}

	_, err = e.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger:            e.ledger,
		V2PostTransaction: postTx,
	})
	if err != nil {
		if isConflictError(err) {
			zap.L().Debug("Entry already exported", zap.String("entry_id", entry.Id))
			return false, nil
		}
		return false, fmt.Errorf("error exporting entry %s: %w", entry.Id, err)
	}

	zap.L().Info("Entry exported to Formance",
		zap.String("entry_id", entry.Id),
		zap.String("kind", string(entry.Kind)),
		zap.String("amount", money.Format(entry.Amount)))
	return true, nil
}

// ExportSince walks entries after the cursor in (created_at, id) order and
// posts each one. An empty afterId starts strictly after the timestamp.
// Re-running over the same range is safe: entry ids are used as Formance
// references.
func (e *Exporter) ExportSince(ctx context.Context, after time.Time, afterId string, batch int) (*ExportResult, error) {
	if batch <= 0 {
		batch = defaultExportBatch
	}
	result := &ExportResult{Cursor: after, CursorId: afterId}

	cursor, cursorId, err := walkEntries(ctx, e.store, after, afterId, batch, func(entry models.Entry) error {
		if entry.Status != models.StatusCompleted {
			result.Skipped++
			return nil
		}
		exported, err := e.ExportEntry(ctx, entry)
		if err != nil {
			return err
		}
		switch {
		case exported:
			result.Exported++
		case entry.Kind == models.EntryTransferIn && entry.CounterpartEntryId != "":
			result.Skipped++
		default:
			result.AlreadyPresent++
		}
		return nil
	})
	result.Cursor, result.CursorId = cursor, cursorId
	if err != nil {
		return result, err
	}

	zap.L().Info("Formance export finished",
		zap.Int("exported", result.Exported),
		zap.Int("already_present", result.AlreadyPresent),
		zap.Int("skipped", result.Skipped),
		zap.Time("cursor", result.Cursor),
		zap.String("cursor_id", result.CursorId))
	return result, nil
}
