package database

import (
	"context"
	"errors"
	"testing"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"golang.org/x/sync/errgroup"
)

func createTestPool(t *testing.T, s *Service, creator *models.User, target string) *models.PiggyBank {
	t.Helper()
	pool, err := s.CreatePiggyBank(context.Background(), store.CreatePiggyBankParams{
		CreatorId:    creator.Id,
		Name:         "Team Dinner",
		Description:  "Friday dinner",
		TargetAmount: amount(target),
	})
	if err != nil {
		t.Fatalf("CreatePiggyBank failed: %v", err)
	}
	return pool
}

func addTestMember(t *testing.T, s *Service, creator *models.User, pool *models.PiggyBank, user *models.User) {
	t.Helper()
	if _, err := s.AddMember(context.Background(), creator.Id, pool.Id, user.Id); err != nil {
		t.Fatalf("AddMember(%s) failed: %v", user.Username, err)
	}
}

// fundedPool builds a 300.00 pool that four contributors fill exactly.
func fundedPool(t *testing.T, s *Service) (*models.User, *models.PiggyBank) {
	t.Helper()
	ctx := context.Background()

	creator := createTestUser(t, s, "alice")
	pool := createTestPool(t, s, creator, "300.00")

	contributors := []struct {
		user   *models.User
		amount string
	}{
		{creator, "50.00"},
		{createTestUser(t, s, "bob"), "100.00"},
		{createTestUser(t, s, "carol"), "80.00"},
		{createTestUser(t, s, "dave"), "70.00"},
	}

	for _, c := range contributors {
		if c.user.Id != creator.Id {
			addTestMember(t, s, creator, pool, c.user)
		}
		wallet := createFundedWallet(t, s, c.user, c.amount)
		if _, err := s.Contribute(ctx, store.ContributeParams{
			ActorId:     c.user.Id,
			PiggyBankId: pool.Id,
			WalletId:    wallet.Id,
			Amount:      amount(c.amount),
		}); err != nil {
			t.Fatalf("Contribute(%s) failed: %v", c.user.Username, err)
		}
		requireBalance(t, s, wallet.Id, "0.00")
	}
	return creator, pool
}

func TestContribute_FillsPool(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	_, pool := fundedPool(t, service)

	requirePoolAmount(t, service, pool.Id, "300.00")

	contributions, err := service.GetContributions(ctx, pool.Id)
	if err != nil {
		t.Fatalf("GetContributions failed: %v", err)
	}
	if len(contributions) != 4 {
		t.Errorf("Expected 4 contributions, got %d", len(contributions))
	}

	for _, c := range contributions {
		entry, err := service.GetEntry(ctx, c.EntryId)
		if err != nil {
			t.Fatalf("GetEntry failed: %v", err)
		}
		if entry.Kind != models.EntryContribution || entry.ReferenceId != pool.Id {
			t.Errorf("Expected CONTRIBUTION entry tagged with pool id, got %s %q", entry.Kind, entry.ReferenceId)
		}
		if !entry.Amount.Equal(c.Amount) {
			t.Errorf("Entry amount %s does not match contribution %s", entry.Amount, c.Amount)
		}
	}

	if err := service.ReconcilePiggyBank(ctx, pool.Id); err != nil {
		t.Errorf("ReconcilePiggyBank failed: %v", err)
	}
}

func TestDisburse_CreatorPaysRestaurant(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	creator, pool := fundedPool(t, service)
	restaurant := createTestUser(t, service, "restaurant")
	restaurantWallet := createFundedWallet(t, service, restaurant, "")

	entry, err := service.Disburse(ctx, store.DisburseParams{
		ActorId:           creator.Id,
		PiggyBankId:       pool.Id,
		RecipientWalletId: restaurantWallet.Id,
		Amount:            amount("300.00"),
		Description:       "Piggy bank payment",
	})
	if err != nil {
		t.Fatalf("Disburse failed: %v", err)
	}

	requireBalance(t, service, restaurantWallet.Id, "300.00")
	requirePoolAmount(t, service, pool.Id, "0.00")

	history, err := service.GetTransactionHistory(ctx, restaurantWallet.Id, 10, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(history) != 1 || history[0].Id != entry.Id || history[0].Kind != models.EntryTransferIn {
		t.Fatalf("Expected one TRANSFER_IN entry on the recipient, got %+v", history)
	}
	if history[0].ReferenceId != pool.Id || history[0].Description != "Payment from Team Dinner: Piggy bank payment" {
		t.Errorf("Unexpected entry tagging %q / %q", history[0].ReferenceId, history[0].Description)
	}

	if err := service.ReconcilePiggyBank(ctx, pool.Id); err != nil {
		t.Errorf("ReconcilePiggyBank failed: %v", err)
	}
	if err := service.ReconcileWallet(ctx, restaurantWallet.Id); err != nil {
		t.Errorf("ReconcileWallet failed: %v", err)
	}
}

func TestDisburse_InsufficientFunds(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	creator := createTestUser(t, service, "alice")
	pool := createTestPool(t, service, creator, "300.00")
	wallet := createFundedWallet(t, service, creator, "50.00")
	if _, err := service.Contribute(ctx, store.ContributeParams{
		ActorId: creator.Id, PiggyBankId: pool.Id, WalletId: wallet.Id, Amount: amount("50.00"),
	}); err != nil {
		t.Fatalf("Contribute failed: %v", err)
	}

	_, err := service.Disburse(ctx, store.DisburseParams{
		ActorId: creator.Id, PiggyBankId: pool.Id, RecipientWalletId: wallet.Id, Amount: amount("100.00"),
	})
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("Expected insufficient funds, got: %v", err)
	}
	requirePoolAmount(t, service, pool.Id, "50.00")
	requireBalance(t, service, wallet.Id, "0.00")
}

func TestDisburse_InactiveRecipient(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	creator, pool := fundedPool(t, service)
	bob, err := service.GetUserByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	recipient := createFundedWallet(t, service, bob, "")
	if err := service.DeactivateWallet(ctx, bob.Id, recipient.Id); err != nil {
		t.Fatalf("DeactivateWallet failed: %v", err)
	}

	_, err = service.Disburse(ctx, store.DisburseParams{
		ActorId: creator.Id, PiggyBankId: pool.Id, RecipientWalletId: recipient.Id, Amount: amount("10.00"),
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected not found for inactive recipient, got: %v", err)
	}
	requirePoolAmount(t, service, pool.Id, "300.00")
	requireBalance(t, service, recipient.Id, "0.00")
}

func TestDisburse_ConcurrentNoOverdraw(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	creator := createTestUser(t, service, "alice")
	bob := createTestUser(t, service, "bob")
	pool := createTestPool(t, service, creator, "300.00")
	source := createFundedWallet(t, service, creator, "100.00")
	if _, err := service.Contribute(ctx, store.ContributeParams{
		ActorId: creator.Id, PiggyBankId: pool.Id, WalletId: source.Id, Amount: amount("100.00"),
	}); err != nil {
		t.Fatalf("Contribute failed: %v", err)
	}
	recipient := createFundedWallet(t, service, bob, "")

	const attempts = 15
	results := make([]error, attempts)
	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		i := i
		g.Go(func() error {
			_, results[i] = service.Disburse(ctx, store.DisburseParams{
				ActorId: creator.Id, PiggyBankId: pool.Id, RecipientWalletId: recipient.Id, Amount: amount("10.00"),
			})
			return nil
		})
	}
	_ = g.Wait()

	succeeded, insufficient := 0, 0
	for i, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, store.ErrInsufficientFunds):
			insufficient++
		default:
			t.Errorf("Disburse #%d failed unexpectedly: %v", i, err)
		}
	}
	if succeeded != 10 || insufficient != 5 {
		t.Errorf("Expected 10 successes and 5 insufficient funds, got %d and %d", succeeded, insufficient)
	}

	requirePoolAmount(t, service, pool.Id, "0.00")
	requireBalance(t, service, recipient.Id, "100.00")
	if err := service.ReconcilePiggyBank(ctx, pool.Id); err != nil {
		t.Errorf("ReconcilePiggyBank failed: %v", err)
	}
}

func TestDisburse_NonCreatorForbidden(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	_, pool := fundedPool(t, service)
	bob, err := service.GetUserByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	bobWallet := createFundedWallet(t, service, bob, "")

	for _, value := range []string{"1.00", "300.00", "5000.00"} {
		_, err := service.Disburse(ctx, store.DisburseParams{
			ActorId: bob.Id, PiggyBankId: pool.Id, RecipientWalletId: bobWallet.Id, Amount: amount(value),
		})
		if !errors.Is(err, store.ErrForbidden) {
			t.Errorf("Disburse(%s) by member: expected forbidden, got: %v", value, err)
		}
	}
	requirePoolAmount(t, service, pool.Id, "300.00")
}

func TestContribute_Rejections(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	creator := createTestUser(t, service, "alice")
	member := createTestUser(t, service, "bob")
	outsider := createTestUser(t, service, "mallory")
	pool := createTestPool(t, service, creator, "100.00")
	addTestMember(t, service, creator, pool, member)

	memberWallet := createFundedWallet(t, service, member, "10.00")
	outsiderWallet := createFundedWallet(t, service, outsider, "10.00")

	tests := []struct {
		name   string
		params store.ContributeParams
		want   error
	}{
		{"outsider", store.ContributeParams{ActorId: outsider.Id, PiggyBankId: pool.Id, WalletId: outsiderWallet.Id, Amount: amount("1.00")}, store.ErrForbidden},
		{"foreign wallet", store.ContributeParams{ActorId: member.Id, PiggyBankId: pool.Id, WalletId: outsiderWallet.Id, Amount: amount("1.00")}, store.ErrForbidden},
		{"overdraw", store.ContributeParams{ActorId: member.Id, PiggyBankId: pool.Id, WalletId: memberWallet.Id, Amount: amount("10.01")}, store.ErrInsufficientBalance},
		{"negative", store.ContributeParams{ActorId: member.Id, PiggyBankId: pool.Id, WalletId: memberWallet.Id, Amount: amount("-1.00")}, store.ErrInvalidAmount},
		{"missing pool", store.ContributeParams{ActorId: member.Id, PiggyBankId: "missing", WalletId: memberWallet.Id, Amount: amount("1.00")}, store.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Contribute(ctx, tt.params)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got: %v", tt.want, err)
			}
		})
	}

	requirePoolAmount(t, service, pool.Id, "0.00")
	requireBalance(t, service, memberWallet.Id, "10.00")

	if err := service.DeactivatePiggyBank(ctx, creator.Id, pool.Id); err != nil {
		t.Fatalf("DeactivatePiggyBank failed: %v", err)
	}
	_, err := service.Contribute(ctx, store.ContributeParams{ActorId: member.Id, PiggyBankId: pool.Id, WalletId: memberWallet.Id, Amount: amount("1.00")})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected not found for inactive pool, got: %v", err)
	}
}

func TestAddMember(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	creator := createTestUser(t, service, "alice")
	bob := createTestUser(t, service, "bob")
	carol := createTestUser(t, service, "carol")
	pool := createTestPool(t, service, creator, "100.00")

	membership, err := service.AddMember(ctx, creator.Id, pool.Id, bob.Id)
	if err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if membership.Username != "bob" || !membership.Active {
		t.Errorf("Unexpected membership %+v", membership)
	}

	if _, err := service.AddMember(ctx, creator.Id, pool.Id, bob.Id); !errors.Is(err, store.ErrConflict) {
		t.Errorf("Expected conflict for duplicate member, got: %v", err)
	}
	if _, err := service.AddMember(ctx, creator.Id, pool.Id, creator.Id); !errors.Is(err, store.ErrConflict) {
		t.Errorf("Expected conflict for creator, got: %v", err)
	}
	if _, err := service.AddMember(ctx, bob.Id, pool.Id, carol.Id); !errors.Is(err, store.ErrForbidden) {
		t.Errorf("Expected forbidden for non-creator invite, got: %v", err)
	}
	if _, err := service.AddMember(ctx, creator.Id, pool.Id, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected not found for unknown user, got: %v", err)
	}

	members, err := service.GetMembers(ctx, pool.Id)
	if err != nil {
		t.Fatalf("GetMembers failed: %v", err)
	}
	if len(members) != 1 {
		t.Errorf("Expected 1 member, got %d", len(members))
	}

	pools, err := service.GetUserPiggyBanks(ctx, bob.Id)
	if err != nil {
		t.Fatalf("GetUserPiggyBanks failed: %v", err)
	}
	if len(pools) != 1 || pools[0].Id != pool.Id {
		t.Errorf("Expected member to see the pool, got %d pools", len(pools))
	}
}

func TestContribute_ConcurrentNoLostUpdate(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	creator := createTestUser(t, service, "alice")
	bob := createTestUser(t, service, "bob")
	pool := createTestPool(t, service, creator, "500.00")
	addTestMember(t, service, creator, pool, bob)

	creatorWallet := createFundedWallet(t, service, creator, "50.00")
	bobWallet := createFundedWallet(t, service, bob, "80.00")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := service.Contribute(gctx, store.ContributeParams{
			ActorId: creator.Id, PiggyBankId: pool.Id, WalletId: creatorWallet.Id, Amount: amount("50.00"),
		})
		return err
	})
	g.Go(func() error {
		_, err := service.Contribute(gctx, store.ContributeParams{
			ActorId: bob.Id, PiggyBankId: pool.Id, WalletId: bobWallet.Id, Amount: amount("80.00"),
		})
		return err
	})
	if err := g.Wait(); err != nil {
		t.Fatalf("Concurrent contributions failed: %v", err)
	}

	requirePoolAmount(t, service, pool.Id, "130.00")
	if err := service.ReconcilePiggyBank(ctx, pool.Id); err != nil {
		t.Errorf("ReconcilePiggyBank failed: %v", err)
	}
}

func TestGetStats(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	fundedPool(t, service)

	stats, err := service.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.Users != 4 || stats.ActiveWallets != 4 || stats.ActivePiggyBanks != 1 {
		t.Errorf("Unexpected counts %+v", stats)
	}
	if !stats.TotalBalance.IsZero() || !stats.TotalPooled.Equal(amount("300.00")) {
		t.Errorf("Expected 0.00 in wallets and 300.00 pooled, got %s / %s", stats.TotalBalance, stats.TotalPooled)
	}
	// 4 deposits and 4 contributions
	if stats.CompletedEntries != 8 {
		t.Errorf("Expected 8 completed entries, got %d", stats.CompletedEntries)
	}
}
