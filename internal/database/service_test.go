package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func setupTestDb(t *testing.T) (*Service, func()) {
	t.Helper()

	d, err := newDialect(driverSQLite)
	if err != nil {
		t.Fatalf("Failed to create dialect: %v", err)
	}
	dsn := d.dsn(filepath.Join(t.TempDir(), "ledger.db"), 5*time.Second)

	// Use the embedded migrations
	if err := runMigrations(d, dsn); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(4)

	service := newService(db, d)
	cleanup := func() {
		service.Close()
	}
	return service, cleanup
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createTestUser(t *testing.T, s *Service, username string) *models.User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), store.CreateUserParams{
		Username: username,
		Name:     username,
		Email:    username + "@example.com",
	})
	if err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", username, err)
	}
	return user
}

// createFundedWallet opens a wallet for the user and deposits balance into it.
func createFundedWallet(t *testing.T, s *Service, user *models.User, balance string) *models.Wallet {
	t.Helper()
	ctx := context.Background()

	wallet, err := s.CreateWallet(ctx, user.Id, "")
	if err != nil {
		t.Fatalf("CreateWallet failed: %v", err)
	}
	if balance != "" && balance != "0.00" {
		if _, err := s.Deposit(ctx, store.DepositParams{
			ActorId:     user.Id,
			WalletId:    wallet.Id,
			Amount:      amount(balance),
			Description: "initial funding",
		}); err != nil {
			t.Fatalf("Deposit failed: %v", err)
		}
	}
	return wallet
}

func requireBalance(t *testing.T, s *Service, walletId, expected string) {
	t.Helper()
	wallet, err := s.GetWallet(context.Background(), walletId)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if !wallet.Balance.Equal(amount(expected)) {
		t.Errorf("Expected wallet balance %s, got %s", expected, wallet.Balance.StringFixed(2))
	}
}

func requirePoolAmount(t *testing.T, s *Service, poolId, expected string) {
	t.Helper()
	pool, err := s.GetPiggyBank(context.Background(), poolId)
	if err != nil {
		t.Fatalf("GetPiggyBank failed: %v", err)
	}
	if !pool.CurrentAmount.Equal(amount(expected)) {
		t.Errorf("Expected pool amount %s, got %s", expected, pool.CurrentAmount.StringFixed(2))
	}
}

func TestNewService_ValidatesConfig(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  models.DatabaseConfig
	}{
		{"empty path", models.DatabaseConfig{MaxOpenConns: 1, PingTimeout: time.Second}},
		{"no connections", models.DatabaseConfig{Path: "x.db", PingTimeout: time.Second}},
		{"negative idle", models.DatabaseConfig{Path: "x.db", MaxOpenConns: 1, MaxIdleConns: -1, PingTimeout: time.Second}},
		{"no ping timeout", models.DatabaseConfig{Path: "x.db", MaxOpenConns: 1}},
		{"unknown driver", models.DatabaseConfig{Driver: "mysql", Path: "x.db", MaxOpenConns: 1, PingTimeout: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewService(ctx, tt.cfg); err == nil {
				t.Errorf("Expected configuration error, got nil")
			}
		})
	}
}

func TestNewService_SQLiteFile(t *testing.T) {
	ctx := context.Background()
	cfg := models.DatabaseConfig{
		Driver:           driverSQLite,
		Path:             filepath.Join(t.TempDir(), "service.db"),
		MaxOpenConns:     2,
		MaxIdleConns:     1,
		PingTimeout:      time.Second,
		BusyTimeout:      time.Second,
		CreateDummyUsers: true,
	}

	service, err := NewService(ctx, cfg)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	defer service.Close()

	users, err := service.GetUsers(ctx)
	if err != nil {
		t.Fatalf("GetUsers failed: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("Expected 3 dummy users, got %d", len(users))
	}

	wallets, err := service.GetUserWallets(ctx, users[0].Id)
	if err != nil {
		t.Fatalf("GetUserWallets failed: %v", err)
	}
	if len(wallets) != 1 || wallets[0].Name != "My Wallet" {
		t.Errorf("Expected one default wallet, got %+v", wallets)
	}
}
