package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wallet-ledger-go/internal/kyc"
	"wallet-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) GetKYCProfile(ctx context.Context, userId string) (*kyc.Profile, error) {
	return scanKYCProfile(s.db.QueryRowContext(ctx, s.q(queryGetKYCProfile), userId))
}

// scanKYCProfile maps a missing row to nil, nil.
func scanKYCProfile(row rowScanner) (*kyc.Profile, error) {
	var profile kyc.Profile
	var status, level string
	var reviewedAt sql.NullTime
	err := row.Scan(&profile.UserId, &status, &level, &profile.RejectionReason, &reviewedAt,
		&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("unable to query kyc profile: %w", err)
	}

	if profile.Status, err = kyc.ParseStatus(status); err != nil {
		return nil, err
	}
	if profile.Level, err = kyc.ParseLevel(level); err != nil {
		return nil, err
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		profile.ReviewedAt = &t
	}
	return &profile, nil
}

// UpsertKYCProfile creates or replaces the profile of an existing user.
func (s *Service) UpsertKYCProfile(ctx context.Context, params store.UpsertKYCProfileParams) (*kyc.Profile, error) {
	if _, err := s.GetUserById(ctx, params.UserId); err != nil {
		return nil, err
	}

	var reviewedAt sql.NullTime
	if params.ReviewedAt != nil {
		reviewedAt = sql.NullTime{Time: params.ReviewedAt.UTC(), Valid: true}
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ts := now()
		res, err := tx.ExecContext(ctx, s.q(queryUpdateKYCProfile),
			string(params.Status), string(params.Level), params.RejectionReason, reviewedAt, ts, params.UserId)
		if err != nil {
			return fmt.Errorf("unable to update kyc profile: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		} else if n > 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx, s.q(queryInsertKYCProfile),
			params.UserId, string(params.Status), string(params.Level), params.RejectionReason, reviewedAt, ts, ts)
		if err != nil {
			return fmt.Errorf("unable to insert kyc profile: %w", err)
		}
		return nil
	})
	if err != nil {
		zap.L().Error("Failed to upsert kyc profile", zap.String("user_id", params.UserId), zap.Error(err))
		return nil, err
	}

	zap.L().Info("KYC profile updated",
		zap.String("user_id", params.UserId),
		zap.String("status", string(params.Status)),
		zap.String("level", string(params.Level)))

	return s.GetKYCProfile(ctx, params.UserId)
}

// RecordKYCDocument marks a document type as uploaded. Re-uploads are no-ops.
func (s *Service) RecordKYCDocument(ctx context.Context, userId, documentType string) error {
	if _, err := s.GetUserById(ctx, userId); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, s.q(queryInsertKYCDocument), uuid.New().String(), userId, documentType, now())
	if err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("unable to record kyc document: %w", err)
	}
	return nil
}

func (s *Service) GetKYCDocuments(ctx context.Context, userId string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q(queryGetKYCDocuments), userId)
	if err != nil {
		return nil, fmt.Errorf("unable to query kyc documents: %w", err)
	}
	defer closeRows(rows)

	var documents []string
	for rows.Next() {
		var documentType string
		if err := rows.Scan(&documentType); err != nil {
			return nil, fmt.Errorf("unable to scan kyc document row: %w", err)
		}
		documents = append(documents, documentType)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating kyc document rows: %w", err)
	}
	return documents, nil
}
