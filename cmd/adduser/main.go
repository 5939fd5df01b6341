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
	"errors"
	"flag"
	"fmt"
	"regexp"
	"time"

	"wallet-ledger-go/internal/api"
	"wallet-ledger-go/internal/common"
	"wallet-ledger-go/internal/config"
	"wallet-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{3,30}$`)
)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

func validateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-30 letters, digits, '.', '_' or '-': %s", username)
	}
	return nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	usernameFlag := flag.String("username", "", "Unique username (required)")
	nameFlag := flag.String("name", "", "User's full name (required)")
	emailFlag := flag.String("email", "", "User's email address (required)")
	walletFlag := flag.String("wallet", "My Wallet", "Name of the first wallet; empty to skip")
	tokenTTLFlag := flag.Duration("token-ttl", 0, "Print a session token valid for this long (requires JWT_SECRET)")
	flag.Parse()

	if *usernameFlag == "" || *nameFlag == "" || *emailFlag == "" {
		zap.L().Fatal("All flags are required: --username, --name and --email")
	}
	if err := validateUsername(*usernameFlag); err != nil {
		zap.L().Fatal("Invalid username", zap.Error(err))
	}
	if err := validateName(*nameFlag); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}
	if err := validateEmail(*emailFlag); err != nil {
		zap.L().Fatal("Invalid email", zap.Error(err))
	}

	zap.L().Info("Starting user creation process",
		zap.String("username", *usernameFlag),
		zap.String("email", *emailFlag))

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	user, err := services.DbService.CreateUser(ctx, store.CreateUserParams{
		Id:       uuid.New().String(),
		Username: *usernameFlag,
		Name:     *nameFlag,
		Email:    *emailFlag,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			zap.L().Fatal("User already exists", zap.String("username", *usernameFlag), zap.String("email", *emailFlag))
		}
		zap.L().Fatal("Failed to create user", zap.Error(err))
	}

	fmt.Println()
	common.PrintHeader("USER CREATED", common.DefaultWidth)
	fmt.Printf("ID:       %s\n", user.Id)
	fmt.Printf("Username: %s\n", user.Username)
	fmt.Printf("Name:     %s\n", user.Name)
	fmt.Printf("Email:    %s\n", user.Email)

	if *walletFlag != "" {
		wallet, err := services.Engine.CreateWallet(ctx, user.Id, *walletFlag)
		if err != nil {
			zap.L().Fatal("Failed to create wallet", zap.Error(err))
		}
		fmt.Printf("Wallet:   %s (%s)\n", wallet.Name, wallet.Id)
	}

	if *tokenTTLFlag > 0 {
		token, err := api.IssueToken(cfg.Auth.JWTSecret, user.Id, *tokenTTLFlag)
		if err != nil {
			zap.L().Fatal("Failed to issue session token", zap.Error(err))
		}
		fmt.Printf("Token:    %s\n", token)
		fmt.Printf("Expires:  %s\n", time.Now().Add(*tokenTTLFlag).UTC().Format(time.RFC3339))
	}
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	fmt.Println("KYC: no profile yet. Money movements are denied until verification is approved.")
	fmt.Printf("Run: go run cmd/kyc/main.go --username %s --status APPROVED --level BASIC\n", user.Username)

	zap.L().Info("User created successfully", zap.String("id", user.Id))
}
