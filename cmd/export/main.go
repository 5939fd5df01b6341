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
	"time"

	"wallet-ledger-go/internal/common"
	"wallet-ledger-go/internal/config"
	"wallet-ledger-go/internal/formance"
	"wallet-ledger-go/internal/money"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	sinceFlag := flag.String("since", "", "Export entries created after this RFC3339 time (default: everything)")
	sinceIdFlag := flag.String("since-id", "", "Resume after this entry id at the --since time (the Cursor id of a previous run)")
	batchFlag := flag.Int("batch", 100, "Entries per page")
	compareFlag := flag.Bool("compare", true, "Compare piggy bank amounts with Formance after export")
	flag.Parse()

	var since time.Time
	if *sinceFlag != "" {
		t, err := time.Parse(time.RFC3339Nano, *sinceFlag)
		if err != nil {
			logger.Fatal("Invalid --since", zap.Error(err))
		}
		since = t
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	exporter, err := formance.NewExporter(ctx, cfg.Formance, dbService)
	if err != nil {
		logger.Fatal("Failed to connect to Formance", zap.Error(err))
	}

	result, err := exporter.ExportSince(ctx, since, *sinceIdFlag, *batchFlag)
	if err != nil {
		logger.Error("Export stopped",
			zap.Time("cursor", result.Cursor),
			zap.String("cursor_id", result.CursorId),
			zap.Error(err))
	}

	common.PrintHeader("FORMANCE EXPORT", common.DefaultWidth)
	common.PrintField("Exported", result.Exported)
	common.PrintField("Already present", result.AlreadyPresent)
	common.PrintField("Skipped", result.Skipped)
	common.PrintField("Cursor", result.Cursor.Format(time.RFC3339Nano))
	common.PrintField("Cursor id", result.CursorId)

	if *compareFlag && err == nil {
		wallets, err := dbService.GetAllWallets(ctx)
		if err != nil {
			logger.Fatal("Failed to list wallets", zap.Error(err))
		}
		mismatched := 0
		for _, wallet := range wallets {
			c, err := exporter.CompareWallet(ctx, wallet.Id)
			if err != nil {
				logger.Error("Failed to compare wallet", zap.String("wallet_id", wallet.Id), zap.Error(err))
				continue
			}
			if !c.Match() {
				mismatched++
				logger.Warn("Wallet differs from Formance",
					zap.String("wallet_id", wallet.Id),
					zap.String("local", money.Format(c.Local)),
					zap.String("remote", money.Format(c.Remote)))
			}
		}
		common.PrintField("Wallets checked", len(wallets))
		common.PrintField("Wallet mismatches", mismatched)

		pools, err := dbService.GetAllPiggyBanks(ctx)
		if err != nil {
			logger.Fatal("Failed to list piggy banks", zap.Error(err))
		}
		common.PrintSection(fmt.Sprintf("Piggy banks: %d", len(pools)))
		for i, pool := range pools {
			c, err := exporter.ComparePiggyBank(ctx, pool.Id)
			if err != nil {
				logger.Error("Failed to compare piggy bank", zap.String("piggy_bank_id", pool.Id), zap.Error(err))
				continue
			}
			mark := "✓"
			if !c.Match() {
				mark = "✗"
			}
			fmt.Printf("%s %-20s %s local %s, formance %s\n", common.BoxPrefix(i == len(pools)-1),
				pool.Name, mark, money.Format(c.Local), money.Format(c.Remote))
		}
	}
	common.PrintSeparator("=", common.DefaultWidth)
}
