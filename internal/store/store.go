package store

import (
	"context"
	"errors"
	"time"

	"wallet-ledger-go/internal/kyc"
	"wallet-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations. Each failure
// wraps exactly one of these with a specific reason.
var (
	ErrNotFound               = errors.New("not found")
	ErrInactive               = errors.New("inactive")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrForbidden              = errors.New("forbidden")
	ErrConflict               = errors.New("conflict")
	ErrDuplicateTransaction   = errors.New("duplicate transaction")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidTransfer        = errors.New("invalid transfer")
	ErrInvalidInput           = errors.New("invalid input")
	ErrPolicyDenied           = errors.New("policy denied")
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// CreateUserParams contains the parameters for registering a user.
type CreateUserParams struct {
	Id       string
	Username string
	Name     string
	Email    string
}

// UpsertKYCProfileParams replaces the verification record of a user.
type UpsertKYCProfileParams struct {
	UserId          string
	Status          kyc.Status
	Level           kyc.Level
	RejectionReason string
	ReviewedAt      *time.Time
}

// DepositParams credits a wallet from outside the system.
type DepositParams struct {
	ActorId        string
	WalletId       string
	Amount         decimal.Decimal
	Description    string
	IdempotencyKey string
}

// TransferParams moves money between two wallets as one paired movement.
type TransferParams struct {
	ActorId           string
	SenderWalletId    string
	RecipientWalletId string
	Amount            decimal.Decimal
	Description       string
}

// CreatePiggyBankParams opens a new pool owned by CreatorId.
type CreatePiggyBankParams struct {
	CreatorId    string
	Name         string
	Description  string
	TargetAmount decimal.Decimal
}

// ContributeParams debits a member's wallet into a pool.
type ContributeParams struct {
	ActorId     string
	PiggyBankId string
	WalletId    string
	Amount      decimal.Decimal
}

// DisburseParams pays out of a pool into any active wallet.
type DisburseParams struct {
	ActorId           string
	PiggyBankId       string
	RecipientWalletId string
	Amount            decimal.Decimal
	Description       string
}

// LedgerStore defines the contract that every backend (SQLite, Postgres) must satisfy.
// Every money movement is a single atomic unit: either all of its entries,
// balance and pool mutations commit, or none do.
type LedgerStore interface {
	// --- Users ---
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)

	// --- KYC ---
	// GetKYCProfile returns nil, nil when the user has no profile.
	GetKYCProfile(ctx context.Context, userId string) (*kyc.Profile, error)
	UpsertKYCProfile(ctx context.Context, params UpsertKYCProfileParams) (*kyc.Profile, error)
	RecordKYCDocument(ctx context.Context, userId, documentType string) error
	GetKYCDocuments(ctx context.Context, userId string) ([]string, error)

	// --- Wallets ---
	CreateWallet(ctx context.Context, userId, name string) (*models.Wallet, error)
	GetWallet(ctx context.Context, walletId string) (*models.Wallet, error)
	GetUserWallets(ctx context.Context, userId string) ([]models.Wallet, error)
	GetAllWallets(ctx context.Context) ([]models.Wallet, error)
	DeactivateWallet(ctx context.Context, actorId, walletId string) error

	// --- Movements ---
	Deposit(ctx context.Context, params DepositParams) (*models.Entry, error)
	Transfer(ctx context.Context, params TransferParams) (*models.TransferResult, error)
	Contribute(ctx context.Context, params ContributeParams) (*models.Contribution, error)
	Disburse(ctx context.Context, params DisburseParams) (*models.Entry, error)

	// --- Entries ---
	GetEntry(ctx context.Context, entryId string) (*models.Entry, error)
	GetTransactionHistory(ctx context.Context, walletId string, limit, offset int) ([]models.Entry, error)
	GetEntriesSince(ctx context.Context, after time.Time, afterId string, limit int) ([]models.Entry, error)

	// --- Piggy banks ---
	CreatePiggyBank(ctx context.Context, params CreatePiggyBankParams) (*models.PiggyBank, error)
	GetPiggyBank(ctx context.Context, piggyBankId string) (*models.PiggyBank, error)
	GetUserPiggyBanks(ctx context.Context, userId string) ([]models.PiggyBank, error)
	GetAllPiggyBanks(ctx context.Context) ([]models.PiggyBank, error)
	DeactivatePiggyBank(ctx context.Context, actorId, piggyBankId string) error
	AddMember(ctx context.Context, actorId, piggyBankId, userId string) (*models.Membership, error)
	GetMembership(ctx context.Context, piggyBankId, userId string) (*models.Membership, error)
	GetMembers(ctx context.Context, piggyBankId string) ([]models.Membership, error)
	GetContributions(ctx context.Context, piggyBankId string) ([]models.Contribution, error)
	GetDisbursements(ctx context.Context, piggyBankId string) ([]models.Disbursement, error)

	// --- Reconciliation ---
	ReconcileWallet(ctx context.Context, walletId string) error
	ReconcilePiggyBank(ctx context.Context, piggyBankId string) error
	GetStats(ctx context.Context) (*models.Stats, error)

	// --- Bot API keys ---
	CreateAPIKey(ctx context.Context, name, keyHash string) (*models.APIKey, error)
	FindAPIKeyByHash(ctx context.Context, keyHash string) (*models.APIKey, error)

	// --- Lifecycle ---
	Close()
}
