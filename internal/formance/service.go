package formance

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/sdkerrors"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// currencyPrecision maps ISO currency codes to their minor-unit precision.
var currencyPrecision = map[string]int{
	"ZAR": 2,
	"USD": 2,
	"EUR": 2,
	"GBP": 2,
	"JPY": 0,
}

const defaultPrecision = 2

// Exporter mirrors committed ledger entries into a Formance Stack ledger
// as an external audit trail. The local store stays authoritative.
type Exporter struct {
	client   *v3.Formance
	ledger   string
	currency string
	store    store.LedgerStore
}

// NewExporter connects to the stack and creates the ledger if it doesn't
// already exist.
func NewExporter(ctx context.Context, cfg models.FormanceConfig, src store.LedgerStore) (*Exporter, error) {
	if cfg.StackURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("formance config requires StackURL, ClientID, and ClientSecret")
	}
	if cfg.LedgerName == "" {
		cfg.LedgerName = "wallets"
	}
	if cfg.Currency == "" {
		cfg.Currency = "ZAR"
	}

	zap.L().Info("Connecting to Formance Stack",
		zap.String("stack_url", cfg.StackURL),
		zap.String("ledger", cfg.LedgerName))

	client := v3.New(
		v3.WithServerURL(cfg.StackURL),
		v3.WithSecurity(shared.Security{
			ClientID:     v3.Pointer(cfg.ClientID),
			ClientSecret: v3.Pointer(cfg.ClientSecret),
		}),
	)

	e := &Exporter{client: client, ledger: cfg.LedgerName, currency: cfg.Currency, store: src}
	if err := e.ensureLedger(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure ledger exists: %w", err)
	}

	zap.L().Info("Formance exporter initialized",
		zap.String("ledger", cfg.LedgerName),
		zap.String("asset", formanceAsset(cfg.Currency)))
	return e, nil
}

func (e *Exporter) ensureLedger(ctx context.Context) error {
	_, err := e.client.Ledger.V2.CreateLedger(ctx, operations.V2CreateLedgerRequest{
		Ledger: e.ledger,
		V2CreateLedgerRequest: shared.V2CreateLedgerRequest{
			Metadata: map[string]string{
				"application": "wallet-ledger-go",
			},
		},
	})
	if err != nil {
		var apiErr *sdkerrors.V2ErrorResponse
		if errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumLedgerAlreadyExists {
			zap.L().Info("Ledger already exists", zap.String("ledger", e.ledger))
			return nil
		}
		return err
	}
	zap.L().Info("Ledger created", zap.String("ledger", e.ledger))
	return nil
}

// ---------- helpers ----------

// formanceAsset returns the Formance UMN notation, e.g. "ZAR/2".
func formanceAsset(currency string) string {
	return fmt.Sprintf("%s/%d", currency, precisionFor(currency))
}

func precisionFor(currency string) int {
	if p, ok := currencyPrecision[currency]; ok {
		return p
	}
	return defaultPrecision
}

func walletAccount(walletId string) string { return "wallets:" + walletId }

func piggyBankAccount(poolId string) string { return "piggybanks:" + poolId }

// isConflictError checks whether a Formance SDK error is a CONFLICT (duplicate reference).
func isConflictError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumConflict
}

// isNotFoundError checks whether a Formance SDK error is NOT_FOUND.
func isNotFoundError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumNotFound
}

func strPtr(s string) *string { return &s }
