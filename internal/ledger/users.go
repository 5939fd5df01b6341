package ledger

import (
	"context"
	"fmt"
	"strings"

	"wallet-ledger-go/internal/kyc"
	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

const (
	minSearchLength = 2
	searchLimit     = 10
)

// KYCStatus summarises the verification state of a user.
func (e *Engine) KYCStatus(ctx context.Context, userId string) (*kyc.Summary, error) {
	if _, err := e.store.GetUserById(ctx, userId); err != nil {
		return nil, err
	}
	state, err := e.kycState(ctx, userId)
	if err != nil {
		return nil, err
	}
	uploaded, err := e.store.GetKYCDocuments(ctx, userId)
	if err != nil {
		return nil, err
	}
	summary := kyc.Summarize(e.kyc, state, uploaded)
	return &summary, nil
}

// ValidateTransaction previews the gate decision without moving money.
func (e *Engine) ValidateTransaction(ctx context.Context, userId string, amount decimal.Decimal) (*kyc.Decision, error) {
	if err := validate(amount); err != nil {
		return nil, err
	}
	if _, err := e.store.GetUserById(ctx, userId); err != nil {
		return nil, err
	}
	state, err := e.kycState(ctx, userId)
	if err != nil {
		return nil, err
	}
	decision := kyc.Authorize(e.kyc, state, amount)
	return &decision, nil
}

// SearchUsers requires at least two characters.
func (e *Engine) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if len(query) < minSearchLength {
		return nil, fmt.Errorf("%w: search query must be at least %d characters", store.ErrInvalidInput, minSearchLength)
	}
	return e.store.SearchUsers(ctx, query, searchLimit)
}

func (e *Engine) UserSummary(ctx context.Context, userId string) (*models.UserSummary, error) {
	user, err := e.store.GetUserById(ctx, userId)
	if err != nil {
		return nil, err
	}
	wallets, err := e.store.GetUserWallets(ctx, userId)
	if err != nil {
		return nil, err
	}
	pools, err := e.store.GetUserPiggyBanks(ctx, userId)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, w := range wallets {
		total = total.Add(w.Balance)
	}
	if wallets == nil {
		wallets = []models.Wallet{}
	}
	return &models.UserSummary{
		User:         *user,
		Wallets:      wallets,
		TotalBalance: total,
		PiggyBanks:   len(pools),
	}, nil
}
