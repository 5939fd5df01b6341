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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	zap.L().Debug("Querying active users")

	rows, err := s.db.QueryContext(ctx, s.q(queryGetUsers))
	if err != nil {
		zap.L().Error("Failed to query users", zap.Error(err))
		return nil, fmt.Errorf("unable to query users: %w", err)
	}
	defer closeRows(rows)

	users, err := collectUsers(rows)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Retrieved users", zap.Int("count", len(users)))
	return users, nil
}

func (s *Service) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	zap.L().Debug("Querying user by ID", zap.String("user_id", userId))

	user, err := scanUser(s.db.QueryRowContext(ctx, s.q(queryGetUserById), userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", store.ErrNotFound, userId)
		}
		zap.L().Error("Failed to query user by ID", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to query user by ID: %w", err)
	}
	return user, nil
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	zap.L().Debug("Querying user by username", zap.String("username", username))

	user, err := scanUser(s.db.QueryRowContext(ctx, s.q(queryGetUserByUsername), username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", store.ErrNotFound, username)
		}
		zap.L().Error("Failed to query user by username", zap.String("username", username), zap.Error(err))
		return nil, fmt.Errorf("unable to query user by username: %w", err)
	}
	return user, nil
}

// SearchUsers matches username, name or email case-insensitively.
func (s *Service) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"

	rows, err := s.db.QueryContext(ctx, s.q(querySearchUsers), pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to search users: %w", err)
	}
	defer closeRows(rows)

	return collectUsers(rows)
}

func (s *Service) CreateUser(ctx context.Context, params store.CreateUserParams) (*models.User, error) {
	if params.Id == "" {
		params.Id = uuid.New().String()
	}
	zap.L().Info("Creating user",
		zap.String("id", params.Id),
		zap.String("username", params.Username),
		zap.String("email", params.Email))

	ts := now()
	_, err := s.db.ExecContext(ctx, s.q(queryInsertUser), params.Id, params.Username, params.Name, params.Email, ts, ts)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: username %s or email %s already exists", store.ErrConflict, params.Username, params.Email)
		}
		zap.L().Error("Failed to insert user", zap.String("email", params.Email), zap.Error(err))
		return nil, fmt.Errorf("unable to insert user: %w", err)
	}

	return &models.User{
		Id:        params.Id,
		Username:  params.Username,
		Name:      params.Name,
		Email:     params.Email,
		Active:    true,
		CreatedAt: ts,
		UpdatedAt: ts,
	}, nil
}

func collectUsers(rows *sql.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			zap.L().Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan user row: %w", err)
		}
		users = append(users, *user)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during user row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// usernameTx resolves a display name inside a running transaction.
func (s *Service) usernameTx(ctx context.Context, tx *sql.Tx, userId string) (string, error) {
	user, err := scanUser(tx.QueryRowContext(ctx, s.q(queryGetUserById), userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: user %s", store.ErrNotFound, userId)
		}
		return "", fmt.Errorf("unable to query user: %w", err)
	}
	return user.Username, nil
}
