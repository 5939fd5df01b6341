package database

import (
	"database/sql"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/money"

	"go.uber.org/zap"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zap.L().Warn("Failed to close rows", zap.Error(err))
	}
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	if err := row.Scan(&user.Id, &user.Username, &user.Name, &user.Email, &user.Active, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}

func scanWallet(row rowScanner) (*models.Wallet, error) {
	var wallet models.Wallet
	var balanceStr string
	err := row.Scan(&wallet.Id, &wallet.UserId, &wallet.Name, &balanceStr, &wallet.Version,
		&wallet.Active, &wallet.CreatedAt, &wallet.UpdatedAt)
	if err != nil {
		return nil, err
	}
	wallet.Balance, err = money.FromStorage("balance", balanceStr)
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var entry models.Entry
	var kind, status string
	var amountStr, balanceBeforeStr, balanceAfterStr string
	var idempotencyKey, counterpartWallet, counterpartEntry sql.NullString
	err := row.Scan(&entry.Id, &entry.WalletId, &kind, &amountStr, &balanceBeforeStr, &balanceAfterStr,
		&status, &entry.Description, &entry.ReferenceId, &idempotencyKey, &counterpartWallet, &counterpartEntry,
		&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return nil, err
	}

	entry.Kind = models.EntryKind(kind)
	entry.Status = models.EntryStatus(status)
	entry.IdempotencyKey = idempotencyKey.String
	entry.CounterpartWalletId = counterpartWallet.String
	entry.CounterpartEntryId = counterpartEntry.String

	if entry.Amount, err = money.FromStorage("amount", amountStr); err != nil {
		return nil, err
	}
	if entry.BalanceBefore, err = money.FromStorage("balance_before", balanceBeforeStr); err != nil {
		return nil, err
	}
	if entry.BalanceAfter, err = money.FromStorage("balance_after", balanceAfterStr); err != nil {
		return nil, err
	}
	return &entry, nil
}

func scanPiggyBank(row rowScanner) (*models.PiggyBank, error) {
	var pool models.PiggyBank
	var targetStr, currentStr string
	err := row.Scan(&pool.Id, &pool.CreatorId, &pool.Name, &pool.Description, &targetStr, &currentStr,
		&pool.Version, &pool.Active, &pool.CreatedAt, &pool.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if pool.TargetAmount, err = money.FromStorage("target_amount", targetStr); err != nil {
		return nil, err
	}
	if pool.CurrentAmount, err = money.FromStorage("current_amount", currentStr); err != nil {
		return nil, err
	}
	return &pool, nil
}

func scanMembership(row rowScanner) (*models.Membership, error) {
	var m models.Membership
	if err := row.Scan(&m.Id, &m.PiggyBankId, &m.UserId, &m.Username, &m.Active, &m.InvitedAt, &m.JoinedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func scanContribution(row rowScanner) (*models.Contribution, error) {
	var c models.Contribution
	var amountStr string
	err := row.Scan(&c.Id, &c.PiggyBankId, &c.UserId, &c.WalletId, &c.EntryId, &amountStr, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if c.Amount, err = money.FromStorage("amount", amountStr); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanDisbursement(row rowScanner) (*models.Disbursement, error) {
	var d models.Disbursement
	var amountStr string
	err := row.Scan(&d.Id, &d.PiggyBankId, &d.ActorId, &d.RecipientWalletId, &d.EntryId, &amountStr, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	if d.Amount, err = money.FromStorage("amount", amountStr); err != nil {
		return nil, err
	}
	return &d, nil
}

// nullString stores "" as NULL so optional references keep FK semantics.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
