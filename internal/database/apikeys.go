package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wallet-ledger-go/internal/models"
	"wallet-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateAPIKey stores the hash of a bot key. The plain key is never persisted.
func (s *Service) CreateAPIKey(ctx context.Context, name, keyHash string) (*models.APIKey, error) {
	ts := now()
	key := &models.APIKey{
		Id:        uuid.New().String(),
		Name:      name,
		KeyHash:   keyHash,
		Active:    true,
		CreatedAt: ts,
	}

	if _, err := s.db.ExecContext(ctx, s.q(queryInsertAPIKey), key.Id, key.Name, key.KeyHash, ts); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: api key already registered", store.ErrConflict)
		}
		return nil, fmt.Errorf("unable to insert api key: %w", err)
	}

	zap.L().Info("API key created", zap.String("id", key.Id), zap.String("name", name))
	return key, nil
}

// FindAPIKeyByHash resolves an active key and records its use.
func (s *Service) FindAPIKeyByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	var key models.APIKey
	var lastUsedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, s.q(queryFindAPIKeyByHash), keyHash).
		Scan(&key.Id, &key.Name, &key.KeyHash, &key.Active, &key.CreatedAt, &lastUsedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: api key", store.ErrNotFound)
		}
		return nil, fmt.Errorf("unable to query api key: %w", err)
	}
	if lastUsedAt.Valid {
		t := lastUsedAt.Time
		key.LastUsedAt = &t
	}

	if _, err := s.db.ExecContext(ctx, s.q(queryTouchAPIKey), now(), key.Id); err != nil {
		zap.L().Warn("Failed to update api key usage", zap.String("id", key.Id), zap.Error(err))
	}
	return &key, nil
}
