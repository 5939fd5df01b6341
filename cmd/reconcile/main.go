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
	"os"

	"wallet-ledger-go/internal/common"
	"wallet-ledger-go/internal/config"
	"wallet-ledger-go/internal/money"

	"go.uber.org/zap"
)

type reconcileStats struct {
	wallets    int
	pools      int
	mismatches int
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	verboseFlag := flag.Bool("v", false, "Print every account, not just mismatches")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	common.PrintHeader("LEDGER RECONCILIATION", common.DefaultWidth)
	stats := reconcileStats{}

	wallets, err := dbService.GetAllWallets(ctx)
	if err != nil {
		logger.Fatal("Failed to list wallets", zap.Error(err))
	}
	common.PrintSection(fmt.Sprintf("Wallets: %d", len(wallets)))
	for i, wallet := range wallets {
		stats.wallets++
		isLast := i == len(wallets)-1
		if err := dbService.ReconcileWallet(ctx, wallet.Id); err != nil {
			stats.mismatches++
			fmt.Printf("%s %s ✗ %v\n", common.BoxPrefix(isLast), wallet.Id, err)
			logger.Error("Wallet failed reconciliation", zap.String("wallet_id", wallet.Id), zap.Error(err))
			continue
		}
		if *verboseFlag {
			fmt.Printf("%s %s ✓ %s\n", common.BoxPrefix(isLast), wallet.Id, money.Format(wallet.Balance))
		}
	}

	pools, err := dbService.GetAllPiggyBanks(ctx)
	if err != nil {
		logger.Fatal("Failed to list piggy banks", zap.Error(err))
	}
	common.PrintSection(fmt.Sprintf("Piggy banks: %d", len(pools)))
	for i, pool := range pools {
		stats.pools++
		isLast := i == len(pools)-1
		if err := dbService.ReconcilePiggyBank(ctx, pool.Id); err != nil {
			stats.mismatches++
			fmt.Printf("%s %s ✗ %v\n", common.BoxPrefix(isLast), pool.Id, err)
			logger.Error("Piggy bank failed reconciliation", zap.String("piggy_bank_id", pool.Id), zap.Error(err))
			continue
		}
		if *verboseFlag {
			fmt.Printf("%s %-20s ✓ %s / %s\n", common.BoxPrefix(isLast), pool.Name,
				money.Format(pool.CurrentAmount), money.Format(pool.TargetAmount))
		}
	}

	summary := fmt.Sprintf("SUMMARY: %d wallets, %d piggy banks checked, %d mismatches",
		stats.wallets, stats.pools, stats.mismatches)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Reconciliation completed",
		zap.Int("wallets", stats.wallets),
		zap.Int("piggy_banks", stats.pools),
		zap.Int("mismatches", stats.mismatches))

	if stats.mismatches > 0 {
		loggerCleanup()
		os.Exit(1)
	}
}
