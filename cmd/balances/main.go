/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"

	"wallet-ledger-go/internal/common"
	"wallet-ledger-go/internal/config"
	"wallet-ledger-go/internal/database"
	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/money"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type balanceStats struct {
	totalUsers       int
	totalWallets     int
	usersWithWallets int
	totalBalance     decimal.Decimal
}

func formatWalletStatus(wallet models.Wallet) string {
	if wallet.Active {
		return "active"
	}
	return "inactive"
}

func printWallet(wallet models.Wallet, isLast bool) {
	symbol := common.BoxPrefix(isLast)

	fmt.Printf("%s %-20s: %15s (%s, id: %s, updated: %s)\n",
		symbol,
		wallet.Name,
		money.Format(wallet.Balance),
		formatWalletStatus(wallet),
		wallet.Id[:8]+"...",
		wallet.UpdatedAt.Format("2006-01-02 15:04:05"))
}

func printUserHeader(user common.UserInfo, walletCount int) {
	common.PrintSection(fmt.Sprintf("User: %s (@%s, %s)", user.Name, user.Username, user.Email),
		"ID: "+user.Id,
		fmt.Sprintf("Wallets: %d", walletCount))
}

func processUser(ctx context.Context, user common.UserInfo, dbService *database.Service) (int, decimal.Decimal, error) {
	wallets, err := dbService.GetUserWallets(ctx, user.Id)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to get wallets: %w", err)
	}

	if len(wallets) == 0 {
		return 0, decimal.Zero, nil
	}

	printUserHeader(user, len(wallets))
	total := decimal.Zero
	for i, wallet := range wallets {
		printWallet(wallet, i == len(wallets)-1)
		total = total.Add(wallet.Balance)
	}
	return len(wallets), total, nil
}

func processUsersAndGenerateReport(ctx context.Context, users []common.UserInfo, dbService *database.Service, logger *zap.Logger) balanceStats {
	stats := balanceStats{totalBalance: decimal.Zero}

	for _, user := range users {
		stats.totalUsers++

		walletCount, total, err := processUser(ctx, user, dbService)
		if err != nil {
			logger.Error("Failed to process user",
				zap.String("user_id", user.Id),
				zap.String("username", user.Username),
				zap.Error(err))
			continue
		}

		if walletCount > 0 {
			stats.usersWithWallets++
			stats.totalWallets += walletCount
			stats.totalBalance = stats.totalBalance.Add(total)
		}
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	usernameFlag := flag.String("username", "", "Filter by specific username (optional)")
	flag.Parse()

	logger.Info("Starting wallet balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	users, err := common.InitializeUsers(ctx, dbService, *usernameFlag, logger)
	if err != nil {
		logger.Fatal("Failed to initialize users", zap.Error(err))
	}

	common.PrintHeader("WALLET BALANCE REPORT", common.DefaultWidth)

	stats := processUsersAndGenerateReport(ctx, users, dbService, logger)

	summary := fmt.Sprintf("SUMMARY: %d wallets holding %s across %d of %d users queried",
		stats.totalWallets, money.Format(stats.totalBalance), stats.usersWithWallets, stats.totalUsers)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("users_with_wallets", stats.usersWithWallets),
		zap.Int("total_wallets", stats.totalWallets),
		zap.String("total_balance", money.Format(stats.totalBalance)))
}
