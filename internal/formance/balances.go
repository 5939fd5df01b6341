package formance

import (
	"context"
	"math/big"

	"wallet-ledger-go/internal/money"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Comparison holds the local and exported balance of one account.
type Comparison struct {
	Account string
	Local   decimal.Decimal
	Remote  decimal.Decimal
}

func (c Comparison) Match() bool { return c.Local.Equal(c.Remote) }

// CompareWallet reads the exported wallet account and compares it with the
// local balance.
func (e *Exporter) CompareWallet(ctx context.Context, walletId string) (*Comparison, error) {
	wallet, err := e.store.GetWallet(ctx, walletId)
	if err != nil {
		return nil, err
	}
	remote, err := e.accountBalance(ctx, walletAccount(walletId))
	if err != nil {
		return nil, err
	}
	return &Comparison{Account: walletAccount(walletId), Local: wallet.Balance, Remote: remote}, nil
}

// ComparePiggyBank reads the exported pool account and compares it with
// the local current amount.
func (e *Exporter) ComparePiggyBank(ctx context.Context, poolId string) (*Comparison, error) {
	pool, err := e.store.GetPiggyBank(ctx, poolId)
	if err != nil {
		return nil, err
	}
	remote, err := e.accountBalance(ctx, piggyBankAccount(poolId))
	if err != nil {
		return nil, err
	}
	c := &Comparison{Account: piggyBankAccount(poolId), Local: pool.CurrentAmount, Remote: remote}
	if !c.Match() {
		zap.L().Warn("Piggy bank differs from Formance",
			zap.String("piggy_bank_id", poolId),
			zap.String("local", money.Format(c.Local)),
			zap.String("remote", money.Format(c.Remote)))
	}
	return c, nil
}

// accountBalance returns zero for accounts Formance has never seen.
func (e *Exporter) accountBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	resp, err := e.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  e.ledger,
		Address: address,
		Expand:  v3.Pointer("volumes"),
	})
	if err != nil {
		if isNotFoundError(err) {
			return decimal.Zero, nil
		}
		zap.L().Warn("Failed to get account volumes", zap.String("address", address), zap.Error(err))
		return decimal.Zero, err
	}

	fAsset := formanceAsset(e.currency)
	if bal := volumeBalance(resp.V2AccountResponse.Data.Volumes, fAsset); bal != nil {
		return bigIntToDecimal(bal, e.currency), nil
	}
	return decimal.Zero, nil
}

// volumeBalance extracts the balance for a specific asset from volumes.
func volumeBalance(vols map[string]shared.V2Volume, fAsset string) *big.Int {
	vol, ok := vols[fAsset]
	if !ok {
		return nil
	}
	if vol.Balance != nil {
		return vol.Balance
	}
	if vol.Input == nil {
		return nil
	}
	result := new(big.Int).Set(vol.Input)
	if vol.Output != nil {
		result.Sub(result, vol.Output)
	}
	return result
}

// bigIntToDecimal converts a minor-unit amount to a decimal.
func bigIntToDecimal(raw *big.Int, currency string) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(precisionFor(currency)))
}

// assetSymbol extracts the currency from a Formance asset like "ZAR/2".
func assetSymbol(fAsset string) string {
	for i, c := range fAsset {
		if c == '/' {
			return fAsset[:i]
		}
	}
	return fAsset
}
