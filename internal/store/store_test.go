package store

import (
	"errors"
	"fmt"
	"testing"
)

// Compile-time checks that the interface is importable and usable.
func TestLedgerStoreInterfaceExists(t *testing.T) {
	_ = TransferParams{}
	_ = ContributeParams{}
	_ = DisburseParams{}

	// Ensure the interface is non-nil type.
	var _ LedgerStore
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrInactive, ErrInsufficientBalance, ErrInsufficientFunds,
		ErrForbidden, ErrConflict, ErrDuplicateTransaction, ErrInvalidAmount,
		ErrInvalidTransfer, ErrInvalidInput, ErrPolicyDenied, ErrConcurrentModification,
	}
	for i, a := range sentinels {
		wrapped := fmt.Errorf("%w: shortfall 0.01", a)
		for j, b := range sentinels {
			if got := errors.Is(wrapped, b); got != (i == j) {
				t.Errorf("errors.Is(%v, %v) = %v", wrapped, b, got)
			}
		}
	}
}
