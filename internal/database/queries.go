package database

// Queries use ? placeholders; Service.q rebinds them for Postgres.

// User queries
const (
	userColumns = `id, username, name, email, active, created_at, updated_at`

	queryInsertUser = `
		INSERT INTO users (id, username, name, email, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, TRUE, ?, ?)`

	queryGetUsers = `
		SELECT ` + userColumns + `
		FROM users
		WHERE active = TRUE
		ORDER BY created_at ASC`

	queryGetUserById = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = ? AND active = TRUE`

	queryGetUserByUsername = `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = ? AND active = TRUE`

	querySearchUsers = `
		SELECT ` + userColumns + `
		FROM users
		WHERE active = TRUE
		  AND (LOWER(username) LIKE ? OR LOWER(name) LIKE ? OR LOWER(email) LIKE ?)
		ORDER BY username ASC
		LIMIT ?`
)

// KYC queries
const (
	queryGetKYCProfile = `
		SELECT user_id, status, level, rejection_reason, reviewed_at, created_at, updated_at
		FROM kyc_profiles
		WHERE user_id = ?`

	queryInsertKYCProfile = `
		INSERT INTO kyc_profiles (user_id, status, level, rejection_reason, reviewed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryUpdateKYCProfile = `
		UPDATE kyc_profiles
		SET status = ?, level = ?, rejection_reason = ?, reviewed_at = ?, updated_at = ?
		WHERE user_id = ?`

	queryInsertKYCDocument = `
		INSERT INTO kyc_documents (id, user_id, document_type, uploaded_at)
		VALUES (?, ?, ?, ?)`

	queryGetKYCDocuments = `
		SELECT document_type
		FROM kyc_documents
		WHERE user_id = ?
		ORDER BY uploaded_at ASC`
)

// Wallet queries
const (
	walletColumns = `id, user_id, name, balance, version, active, created_at, updated_at`

	queryInsertWallet = `
		INSERT INTO wallets (id, user_id, name, balance, version, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, TRUE, ?, ?)`

	queryGetWallet = `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE id = ?`

	queryGetUserWallets = `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE user_id = ? AND active = TRUE
		ORDER BY created_at ASC`

	queryGetAllWallets = `
		SELECT ` + walletColumns + `
		FROM wallets
		ORDER BY user_id ASC, created_at ASC`

	// Row lock on Postgres via dialect.lock.
	queryLockWallet = `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE id = ?`

	queryUpdateWalletBalance = `
		UPDATE wallets
		SET balance = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`

	queryDeactivateWallet = `
		UPDATE wallets
		SET active = FALSE, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`
)

// Ledger entry queries
const (
	entryColumns = `id, wallet_id, kind, amount, balance_before, balance_after, status, description,
		reference_id, idempotency_key, counterpart_wallet_id, counterpart_entry_id, created_at, updated_at`

	queryInsertEntry = `
		INSERT INTO ledger_entries (id, wallet_id, kind, amount, balance_before, balance_after, status, description,
			reference_id, idempotency_key, counterpart_wallet_id, counterpart_entry_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	querySetCounterpartEntry = `
		UPDATE ledger_entries
		SET counterpart_entry_id = ?, updated_at = ?
		WHERE id = ? AND counterpart_entry_id IS NULL`

	queryCheckIdempotencyKey = `
		SELECT id
		FROM ledger_entries
		WHERE wallet_id = ? AND idempotency_key = ?`

	queryGetEntry = `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE id = ?`

	queryGetTransactionHistory = `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE wallet_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	queryGetWalletEntries = `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE wallet_id = ?
		ORDER BY created_at ASC, id ASC`

	queryGetEntriesSince = `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE created_at > ?
		ORDER BY created_at ASC, id ASC
		LIMIT ?`

	queryGetEntriesAfterKey = `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE created_at > ? OR (created_at = ? AND id > ?)
		ORDER BY created_at ASC, id ASC
		LIMIT ?`
)

// Piggy bank queries
const (
	piggyBankColumns = `id, creator_id, name, description, target_amount, current_amount, version, active, created_at, updated_at`

	queryInsertPiggyBank = `
		INSERT INTO piggy_banks (id, creator_id, name, description, target_amount, current_amount, version, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, TRUE, ?, ?)`

	queryGetPiggyBank = `
		SELECT ` + piggyBankColumns + `
		FROM piggy_banks
		WHERE id = ?`

	// Row lock on Postgres via dialect.lock.
	queryLockPiggyBank = queryGetPiggyBank

	queryGetUserPiggyBanks = `
		SELECT p.id, p.creator_id, p.name, p.description, p.target_amount, p.current_amount,
			p.version, p.active, p.created_at, p.updated_at
		FROM piggy_banks p
		LEFT JOIN piggy_bank_memberships m
			ON m.piggy_bank_id = p.id AND m.user_id = ? AND m.active = TRUE
		WHERE p.active = TRUE AND (p.creator_id = ? OR m.id IS NOT NULL)
		ORDER BY p.created_at DESC`

	queryGetAllPiggyBanks = `
		SELECT ` + piggyBankColumns + `
		FROM piggy_banks
		ORDER BY created_at ASC`

	queryUpdatePiggyBankAmount = `
		UPDATE piggy_banks
		SET current_amount = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`

	queryDeactivatePiggyBank = `
		UPDATE piggy_banks
		SET active = FALSE, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`

	queryInsertMembership = `
		INSERT INTO piggy_bank_memberships (id, piggy_bank_id, user_id, active, invited_at, joined_at)
		VALUES (?, ?, ?, TRUE, ?, ?)`

	queryGetMembership = `
		SELECT m.id, m.piggy_bank_id, m.user_id, u.username, m.active, m.invited_at, m.joined_at
		FROM piggy_bank_memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.piggy_bank_id = ? AND m.user_id = ?`

	queryGetMembers = `
		SELECT m.id, m.piggy_bank_id, m.user_id, u.username, m.active, m.invited_at, m.joined_at
		FROM piggy_bank_memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.piggy_bank_id = ? AND m.active = TRUE
		ORDER BY m.invited_at ASC`

	queryCountMembers = `
		SELECT COUNT(*)
		FROM piggy_bank_memberships
		WHERE piggy_bank_id = ? AND active = TRUE`

	queryInsertContribution = `
		INSERT INTO piggy_bank_contributions (id, piggy_bank_id, user_id, wallet_id, entry_id, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetContributions = `
		SELECT id, piggy_bank_id, user_id, wallet_id, entry_id, amount, created_at
		FROM piggy_bank_contributions
		WHERE piggy_bank_id = ?
		ORDER BY created_at DESC, id DESC`

	queryInsertDisbursement = `
		INSERT INTO piggy_bank_disbursements (id, piggy_bank_id, actor_id, recipient_wallet_id, entry_id, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetDisbursements = `
		SELECT id, piggy_bank_id, actor_id, recipient_wallet_id, entry_id, amount, created_at
		FROM piggy_bank_disbursements
		WHERE piggy_bank_id = ?
		ORDER BY created_at DESC, id DESC`

	// Only entries whose status is COMPLETED count towards the pool.
	queryPoolContributionAmounts = `
		SELECT c.amount
		FROM piggy_bank_contributions c
		JOIN ledger_entries e ON e.id = c.entry_id
		WHERE c.piggy_bank_id = ? AND e.status = 'COMPLETED'`

	queryPoolDisbursementAmounts = `
		SELECT d.amount
		FROM piggy_bank_disbursements d
		JOIN ledger_entries e ON e.id = d.entry_id
		WHERE d.piggy_bank_id = ? AND e.status = 'COMPLETED'`
)

// API key queries
const (
	queryInsertAPIKey = `
		INSERT INTO api_keys (id, name, key_hash, active, created_at)
		VALUES (?, ?, ?, TRUE, ?)`

	queryFindAPIKeyByHash = `
		SELECT id, name, key_hash, active, created_at, last_used_at
		FROM api_keys
		WHERE key_hash = ? AND active = TRUE`

	queryTouchAPIKey = `
		UPDATE api_keys
		SET last_used_at = ?
		WHERE id = ?`
)

// Stats queries
const (
	queryCountUsers = `SELECT COUNT(*) FROM users WHERE active = TRUE`

	queryActiveWalletBalances = `SELECT balance FROM wallets WHERE active = TRUE`

	queryActivePoolAmounts = `SELECT current_amount FROM piggy_banks WHERE active = TRUE`

	queryCountCompletedEntries = `SELECT COUNT(*) FROM ledger_entries WHERE status = 'COMPLETED'`

	queryCountVerifiedKYC = `SELECT COUNT(*) FROM kyc_profiles WHERE status = 'APPROVED'`
)
