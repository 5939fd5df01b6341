package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"golang.org/x/sync/errgroup"
)

func TestDeposit(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	alice := createTestUser(t, service, "alice")
	wallet := createFundedWallet(t, service, alice, "")

	entry, err := service.Deposit(ctx, store.DepositParams{
		ActorId:     alice.Id,
		WalletId:    wallet.Id,
		Amount:      amount("125.50"),
		Description: "Wallet deposit",
	})
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	if entry.Kind != models.EntryDeposit || entry.Status != models.StatusCompleted {
		t.Errorf("Expected COMPLETED DEPOSIT, got %s %s", entry.Status, entry.Kind)
	}
	if !entry.BalanceBefore.IsZero() || !entry.BalanceAfter.Equal(amount("125.50")) {
		t.Errorf("Unexpected balances before=%s after=%s", entry.BalanceBefore, entry.BalanceAfter)
	}
	if entry.CounterpartWalletId != "" || entry.CounterpartEntryId != "" {
		t.Errorf("Deposit must have no counterpart, got %+v", entry)
	}
	requireBalance(t, service, wallet.Id, "125.50")
}

func TestDeposit_RejectsInvalidAmounts(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	alice := createTestUser(t, service, "alice")
	wallet := createFundedWallet(t, service, alice, "")

	for _, value := range []string{"0", "-5.00", "1.001"} {
		_, err := service.Deposit(ctx, store.DepositParams{ActorId: alice.Id, WalletId: wallet.Id, Amount: amount(value)})
		if !errors.Is(err, store.ErrInvalidAmount) {
			t.Errorf("Deposit(%s): expected invalid amount, got: %v", value, err)
		}
	}
	requireBalance(t, service, wallet.Id, "0.00")
}

func TestDeposit_IdempotencyKey(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	alice := createTestUser(t, service, "alice")
	wallet := createFundedWallet(t, service, alice, "")

	params := store.DepositParams{ActorId: alice.Id, WalletId: wallet.Id, Amount: amount("10.00"), IdempotencyKey: "dep-1"}
	if _, err := service.Deposit(ctx, params); err != nil {
		t.Fatalf("First Deposit failed: %v", err)
	}

	// Process same deposit again - should return error for duplicate
	_, err := service.Deposit(ctx, params)
	if !errors.Is(err, store.ErrDuplicateTransaction) {
		t.Errorf("Expected duplicate transaction error, got: %v", err)
	}
	requireBalance(t, service, wallet.Id, "10.00")
}

func TestDeposit_IdempotencyKeyScopedToWallet(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	alice := createTestUser(t, service, "alice")
	bob := createTestUser(t, service, "bob")
	aliceWallet := createFundedWallet(t, service, alice, "")
	bobWallet := createFundedWallet(t, service, bob, "")

	if _, err := service.Deposit(ctx, store.DepositParams{ActorId: alice.Id, WalletId: aliceWallet.Id, Amount: amount("10.00"), IdempotencyKey: "k1"}); err != nil {
		t.Fatalf("Deposit into alice's wallet failed: %v", err)
	}
	if _, err := service.Deposit(ctx, store.DepositParams{ActorId: bob.Id, WalletId: bobWallet.Id, Amount: amount("7.00"), IdempotencyKey: "k1"}); err != nil {
		t.Fatalf("Same key on bob's wallet should be accepted, got: %v", err)
	}
	requireBalance(t, service, aliceWallet.Id, "10.00")
	requireBalance(t, service, bobWallet.Id, "7.00")
}

func TestDeposit_ForeignWalletCheckedBeforeIdempotencyKey(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	alice := createTestUser(t, service, "alice")
	bob := createTestUser(t, service, "bob")
	wallet := createFundedWallet(t, service, alice, "")

	if _, err := service.Deposit(ctx, store.DepositParams{ActorId: alice.Id, WalletId: wallet.Id, Amount: amount("10.00"), IdempotencyKey: "k1"}); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	// A replayed key on somebody else's wallet must not reveal that it exists
	_, err := service.Deposit(ctx, store.DepositParams{ActorId: bob.Id, WalletId: wallet.Id, Amount: amount("10.00"), IdempotencyKey: "k1"})
	if !errors.Is(err, store.ErrForbidden) {
		t.Errorf("Expected forbidden, got: %v", err)
	}
	requireBalance(t, service, wallet.Id, "10.00")
}

func TestDeposit_ForeignOrInactiveWallet(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	alice := createTestUser(t, service, "alice")
	bob := createTestUser(t, service, "bob")
	wallet := createFundedWallet(t, service, alice, "")

	_, err := service.Deposit(ctx, store.DepositParams{ActorId: bob.Id, WalletId: wallet.Id, Amount: amount("1.00")})
	if !errors.Is(err, store.ErrForbidden) {
		t.Errorf("Expected forbidden for foreign wallet, got: %v", err)
	}

	if err := service.DeactivateWallet(ctx, alice.Id, wallet.Id); err != nil {
		t.Fatalf("DeactivateWallet failed: %v", err)
	}
	_, err = service.Deposit(ctx, store.DepositParams{ActorId: alice.Id, WalletId: wallet.Id, Amount: amount("1.00")})
	if !errors.Is(err, store.ErrInactive) {
		t.Errorf("Expected inactive for deactivated wallet, got: %v", err)
	}
}

// Wallet A 500.00 transfers 100.00 to wallet B holding 400.00.
func TestTransfer_PairedEntries(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	alice := createTestUser(t, service, "alice")
	bob := createTestUser(t, service, "bob")
	walletA := createFundedWallet(t, service, alice, "500.00")
	walletB := createFundedWallet(t, service, bob, "400.00")

	result, err := service.Transfer(ctx, store.TransferParams{
		ActorId:           alice.Id,
		SenderWalletId:    walletA.Id,
		RecipientWalletId: walletB.Id,
		Amount:            amount("100.00"),
		Description:       "dinner",
	})
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}

	requireBalance(t, service, walletA.Id, "400.00")
	requireBalance(t, service, walletB.Id, "500.00")

	out, err := service.GetEntry(ctx, result.Out.Id)
	if err != nil {
		t.Fatalf("GetEntry(out) failed: %v", err)
	}
	in, err := service.GetEntry(ctx, result.In.Id)
	if err != nil {
		t.Fatalf("GetEntry(in) failed: %v", err)
	}

	if out.Kind != models.EntryTransferOut || in.Kind != models.EntryTransferIn {
		t.Errorf("Expected TRANSFER_OUT/TRANSFER_IN, got %s/%s", out.Kind, in.Kind)
	}
	if out.CounterpartEntryId != in.Id || in.CounterpartEntryId != out.Id {
		t.Errorf("Expected mutual entry links, got out->%s in->%s", out.CounterpartEntryId, in.CounterpartEntryId)
	}
	if out.CounterpartWalletId != walletB.Id || in.CounterpartWalletId != walletA.Id {
		t.Errorf("Expected counterpart wallets to point at each other")
	}
	if !out.Amount.Equal(in.Amount) {
		t.Errorf("Expected equal amounts, got %s and %s", out.Amount, in.Amount)
	}
	if out.Description != "Transfer to bob: dinner" || in.Description != "Transfer from alice: dinner" {
		t.Errorf("Unexpected descriptions %q / %q", out.Description, in.Description)
	}

	for _, id := range []string{walletA.Id, walletB.Id} {
		if err := service.ReconcileWallet(ctx, id); err != nil {
			t.Errorf("ReconcileWallet(%s) failed: %v", id, err)
		}
	}
}

func TestTransfer_Boundaries(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	alice := createTestUser(t, service, "alice")
	bob := createTestUser(t, service, "bob")
	walletA := createFundedWallet(t, service, alice, "50.00")
	walletB := createFundedWallet(t, service, bob, "")

	_, err := service.Transfer(ctx, store.TransferParams{
		ActorId: alice.Id, SenderWalletId: walletA.Id, RecipientWalletId: walletB.Id, Amount: amount("50.01"),
	})
	if !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("Expected insufficient balance, got: %v", err)
	}
	requireBalance(t, service, walletA.Id, "50.00")
	requireBalance(t, service, walletB.Id, "0.00")

	history, err := service.GetTransactionHistory(ctx, walletA.Id, 10, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("Rejected transfer must not write entries, got %d entries", len(history))
	}

	// Transferring exactly the full balance leaves zero
	if _, err := service.Transfer(ctx, store.TransferParams{
		ActorId: alice.Id, SenderWalletId: walletA.Id, RecipientWalletId: walletB.Id, Amount: amount("50.00"),
	}); err != nil {
		t.Fatalf("Full balance transfer failed: %v", err)
	}
	requireBalance(t, service, walletA.Id, "0.00")
	requireBalance(t, service, walletB.Id, "50.00")
}

func TestTransfer_Rejections(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	alice := createTestUser(t, service, "alice")
	bob := createTestUser(t, service, "bob")
	walletA := createFundedWallet(t, service, alice, "100.00")
	walletB := createFundedWallet(t, service, bob, "100.00")
	closed := createFundedWallet(t, service, bob, "")
	if err := service.DeactivateWallet(ctx, bob.Id, closed.Id); err != nil {
		t.Fatalf("DeactivateWallet failed: %v", err)
	}

	tests := []struct {
		name   string
		params store.TransferParams
		want   error
	}{
		{"self transfer", store.TransferParams{ActorId: alice.Id, SenderWalletId: walletA.Id, RecipientWalletId: walletA.Id, Amount: amount("1.00")}, store.ErrInvalidTransfer},
		{"not owner", store.TransferParams{ActorId: bob.Id, SenderWalletId: walletA.Id, RecipientWalletId: walletB.Id, Amount: amount("1.00")}, store.ErrForbidden},
		{"missing recipient", store.TransferParams{ActorId: alice.Id, SenderWalletId: walletA.Id, RecipientWalletId: "missing", Amount: amount("1.00")}, store.ErrNotFound},
		{"inactive recipient", store.TransferParams{ActorId: alice.Id, SenderWalletId: walletA.Id, RecipientWalletId: closed.Id, Amount: amount("1.00")}, store.ErrNotFound},
		{"zero amount", store.TransferParams{ActorId: alice.Id, SenderWalletId: walletA.Id, RecipientWalletId: walletB.Id, Amount: amount("0")}, store.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Transfer(ctx, tt.params)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got: %v", tt.want, err)
			}
		})
	}

	requireBalance(t, service, walletA.Id, "100.00")
	requireBalance(t, service, walletB.Id, "100.00")
}

func TestTransfer_RoundTrip(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	alice := createTestUser(t, service, "alice")
	bob := createTestUser(t, service, "bob")
	walletA := createFundedWallet(t, service, alice, "20.00")
	walletB := createFundedWallet(t, service, bob, "")

	if _, err := service.Deposit(ctx, store.DepositParams{ActorId: alice.Id, WalletId: walletA.Id, Amount: amount("33.33")}); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if _, err := service.Transfer(ctx, store.TransferParams{
		ActorId: alice.Id, SenderWalletId: walletA.Id, RecipientWalletId: walletB.Id, Amount: amount("33.33"),
	}); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	requireBalance(t, service, walletA.Id, "20.00")
}

func TestTransfer_ConcurrentOppositeDirections(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	alice := createTestUser(t, service, "alice")
	bob := createTestUser(t, service, "bob")
	walletA := createFundedWallet(t, service, alice, "100.00")
	walletB := createFundedWallet(t, service, bob, "100.00")

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := service.Transfer(gctx, store.TransferParams{
				ActorId: alice.Id, SenderWalletId: walletA.Id, RecipientWalletId: walletB.Id, Amount: amount("3.00"),
			})
			return err
		})
		g.Go(func() error {
			_, err := service.Transfer(gctx, store.TransferParams{
				ActorId: bob.Id, SenderWalletId: walletB.Id, RecipientWalletId: walletA.Id, Amount: amount("1.00"),
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Concurrent transfers failed: %v", err)
	}

	requireBalance(t, service, walletA.Id, "80.00")
	requireBalance(t, service, walletB.Id, "120.00")
	for _, id := range []string{walletA.Id, walletB.Id} {
		if err := service.ReconcileWallet(ctx, id); err != nil {
			t.Errorf("ReconcileWallet(%s) failed: %v", id, err)
		}
	}
}

func TestGetTransactionHistory_NewestFirst(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	alice := createTestUser(t, service, "alice")
	wallet := createFundedWallet(t, service, alice, "")
	for _, value := range []string{"1.00", "2.00", "3.00"} {
		if _, err := service.Deposit(ctx, store.DepositParams{ActorId: alice.Id, WalletId: wallet.Id, Amount: amount(value)}); err != nil {
			t.Fatalf("Deposit failed: %v", err)
		}
	}

	history, err := service.GetTransactionHistory(ctx, wallet.Id, 2, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(history))
	}
	if !history[0].Amount.Equal(amount("3.00")) || !history[1].Amount.Equal(amount("2.00")) {
		t.Errorf("Expected newest first, got %s, %s", history[0].Amount, history[1].Amount)
	}

	since, err := service.GetEntriesSince(ctx, history[1].CreatedAt, "", 10)
	if err != nil {
		t.Fatalf("GetEntriesSince failed: %v", err)
	}
	if len(since) != 1 || since[0].Id != history[0].Id {
		t.Errorf("Expected only the newest entry after the cursor, got %d entries", len(since))
	}
}

func TestGetEntriesSince_PagesThroughSharedTimestamp(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	alice := createTestUser(t, service, "alice")
	wallet := createFundedWallet(t, service, alice, "")

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	err := service.withTx(ctx, func(tx *sql.Tx) error {
		for i := 0; i < 5; i++ {
			if err := service.insertEntry(ctx, tx, &models.Entry{
				Id:            fmt.Sprintf("entry-%d", i),
				WalletId:      wallet.Id,
				Kind:          models.EntryDeposit,
				Amount:        amount("1.00"),
				BalanceBefore: amount("0.00"),
				BalanceAfter:  amount("1.00"),
				Status:        models.StatusCompleted,
				CreatedAt:     ts,
				UpdatedAt:     ts,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to insert entries: %v", err)
	}

	var ids []string
	after, afterId := time.Time{}, ""
	for pages := 0; pages < 10; pages++ {
		page, err := service.GetEntriesSince(ctx, after, afterId, 2)
		if err != nil {
			t.Fatalf("GetEntriesSince failed: %v", err)
		}
		for _, e := range page {
			ids = append(ids, e.Id)
		}
		if len(page) < 2 {
			break
		}
		last := page[len(page)-1]
		after, afterId = last.CreatedAt, last.Id
	}

	want := []string{"entry-0", "entry-1", "entry-2", "entry-3", "entry-4"}
	if fmt.Sprint(ids) != fmt.Sprint(want) {
		t.Errorf("Expected %v, got %v", want, ids)
	}

	// Without an id the timestamp itself is excluded
	rest, err := service.GetEntriesSince(ctx, ts, "", 10)
	if err != nil {
		t.Fatalf("GetEntriesSince failed: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("Expected no entries strictly after %s, got %d", ts, len(rest))
	}
}
