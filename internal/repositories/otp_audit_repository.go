package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"niplan/internal/models"
)

// OTPAuditRepository is the durable ledger of issued codes (hash only) and their delivery.
type OTPAuditRepository interface {
	RecordIssued(ctx context.Context, ch *models.OTPChallenge) error
	RecordDelivery(ctx context.Context, phoneKey, codeHash, channel string, delivered bool) error
	MarkConsumed(ctx context.Context, phoneKey, codeHash string, at time.Time) error
}

type otpAuditRepository struct {
	DB *sql.DB
}

func NewOTPAuditRepository(db *sql.DB) OTPAuditRepository {
	return &otpAuditRepository{DB: db}
}

func (r *otpAuditRepository) RecordIssued(ctx context.Context, ch *models.OTPChallenge) error {
	const q = `
		INSERT INTO otp_challenges (phone_key, code_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := r.DB.QueryRowContext(ctx, q, ch.PhoneKey, ch.CodeHash, ch.CreatedAt, ch.ExpiresAt).Scan(&ch.ID); err != nil {
		return fmt.Errorf("record otp issued: %w", err)
	}
	return nil
}

func (r *otpAuditRepository) RecordDelivery(ctx context.Context, phoneKey, codeHash, channel string, delivered bool) error {
	const q = `
		UPDATE otp_challenges
		SET channel = $3, delivered = $4
		WHERE phone_key = $1 AND code_hash = $2
	`
	if _, err := r.DB.ExecContext(ctx, q, phoneKey, codeHash, channel, delivered); err != nil {
		return fmt.Errorf("record otp delivery: %w", err)
	}
	return nil
}

func (r *otpAuditRepository) MarkConsumed(ctx context.Context, phoneKey, codeHash string, at time.Time) error {
	const q = `
		UPDATE otp_challenges
		SET consumed_at = $3
		WHERE phone_key = $1 AND code_hash = $2 AND consumed_at IS NULL
	`
	if _, err := r.DB.ExecContext(ctx, q, phoneKey, codeHash, at); err != nil {
		return fmt.Errorf("mark otp consumed: %w", err)
	}
	return nil
}
