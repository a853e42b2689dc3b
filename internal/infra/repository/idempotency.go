package repository

import (
	"context"
	"time"

	"garage-booking/internal/infra"
	"garage-booking/internal/infra/db"
	"garage-booking/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type IdempotencyRepository struct{}

func NewIdempotencyRepository() *IdempotencyRepository {
	return &IdempotencyRepository{}
}

const tryInsertIdempotencyKeyQuery = `
INSERT INTO idempotency_keys (key, user_id, endpoint, request_hash, status, expires_at)
VALUES ($1, $2, $3, $4, 'processing', $5)
ON CONFLICT (key) DO NOTHING
`

// TryInsert claims the key for this request. A false return means another
// request already holds the key; callers inspect the stored record to decide
// between replay and conflict.
func (r *IdempotencyRepository) TryInsert(
	ctx context.Context,
	tx db.DBTX,
	key, userID uuid.UUID,
	endpoint, requestHash string,
	expiresAt time.Time,
) (bool, error) {
	tag, err := tx.Exec(ctx, tryInsertIdempotencyKeyQuery,
		key, userID, endpoint, requestHash, pgconv.TimeToPgtype(expiresAt))
	if err != nil {
		return false, infra.WrapRepoErr("failed to try insert idempotency key", err)
	}

	return tag.RowsAffected() > 0, nil
}

const updateIdempotencyKeyCompletedQuery = `
UPDATE idempotency_keys
SET status = 'completed',
    response_body_hash = $3,
    result_appointment_id = $4,
    updated_at = now()
WHERE key = $1 AND user_id = $2
`

func (r *IdempotencyRepository) UpdateStatusCompleted(
	ctx context.Context,
	tx db.DBTX,
	key, userID uuid.UUID,
	responseHash string,
	appointmentID uuid.UUID,
) error {
	tag, err := tx.Exec(ctx, updateIdempotencyKeyCompletedQuery,
		key, userID, responseHash, appointmentID)
	if err != nil {
		return infra.WrapRepoErr("failed to update idempotency key status", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("idempotency key not found", pgx.ErrNoRows, infra.KindNotFound)
	}

	return nil
}

const claimExpiredIdempotencyKeyQuery = `
UPDATE idempotency_keys
SET user_id = $2,
    request_hash = $3,
    status = 'processing',
    response_body_hash = NULL,
    result_appointment_id = NULL,
    expires_at = $4,
    updated_at = now()
WHERE key = $1 AND expires_at <= now()
`

// ClaimExpiredIdempotencyKey takes over an expired key so a stale processing
// row cannot wedge the key forever. Returns the number of rows claimed.
func (r *IdempotencyRepository) ClaimExpiredIdempotencyKey(
	ctx context.Context,
	tx db.DBTX,
	key, userID uuid.UUID,
	requestHash string,
	expiresAt time.Time,
) (int64, error) {
	tag, err := tx.Exec(ctx, claimExpiredIdempotencyKeyQuery,
		key, userID, requestHash, pgconv.TimeToPgtype(expiresAt))
	if err != nil {
		return 0, infra.WrapRepoErr("failed to claim expired idempotency key", err)
	}

	return tag.RowsAffected(), nil
}
