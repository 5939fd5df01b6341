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
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"

	"wallet-ledger-go/internal/api"
	"wallet-ledger-go/internal/common"
	"wallet-ledger-go/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// newKey returns "wl_" followed by a uuid and 16 random bytes.
func newKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("wl_%s%s", uuid.New().String(), hex.EncodeToString(buf)), nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	nameFlag := flag.String("name", "", "Label for the bot key (required)")
	flag.Parse()

	if *nameFlag == "" {
		zap.L().Fatal("--name is required")
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	plain, err := newKey()
	if err != nil {
		zap.L().Fatal("Failed to generate key material", zap.Error(err))
	}

	key, err := dbService.CreateAPIKey(ctx, *nameFlag, api.HashAPIKey(plain))
	if err != nil {
		zap.L().Fatal("Failed to store api key", zap.Error(err))
	}

	fmt.Println()
	common.PrintHeader("BOT API KEY CREATED", common.DefaultWidth)
	fmt.Printf("ID:   %s\n", key.Id)
	fmt.Printf("Name: %s\n", key.Name)
	fmt.Printf("Key:  %s\n", plain)
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println("Store the key now. Only its hash is kept and it cannot be shown again.")
	fmt.Println()

	zap.L().Info("API key created", zap.String("id", key.Id), zap.String("name", key.Name))
}
