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

package common

import (
	"context"
	"fmt"

	"wallet-ledger-go/internal/store"

	"go.uber.org/zap"
)

// UserInfo represents simplified user information for command-line utilities
type UserInfo struct {
	Id       string
	Username string
	Name     string
	Email    string
}

// InitializeUsers retrieves users based on an optional username filter.
// If usernameFilter is provided, returns a single user with that username.
// If usernameFilter is empty, returns all active users.
func InitializeUsers(ctx context.Context, dbService store.LedgerStore, usernameFilter string, logger *zap.Logger) ([]UserInfo, error) {
	var users []UserInfo

	if usernameFilter != "" {
		logger.Info("Looking up user by username", zap.String("username", usernameFilter))
		user, err := dbService.GetUserByUsername(ctx, usernameFilter)
		if err != nil {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		users = append(users, UserInfo{
			Id:       user.Id,
			Username: user.Username,
			Name:     user.Name,
			Email:    user.Email,
		})
	} else {
		allUsers, err := dbService.GetUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get users: %w", err)
		}
		for _, u := range allUsers {
			users = append(users, UserInfo{
				Id:       u.Id,
				Username: u.Username,
				Name:     u.Name,
				Email:    u.Email,
			})
		}
	}

	logger.Info("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}
