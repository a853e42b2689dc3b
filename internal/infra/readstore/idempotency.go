package readstore

import (
	"context"
	"time"

	"garage-booking/internal/infra"
	"garage-booking/internal/infra/db"
	"garage-booking/internal/pkg/pgconv"
	"garage-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type IdempotencyReadStore struct{}

func NewIdempotencyReadStore() *IdempotencyReadStore {
	return &IdempotencyReadStore{}
}

const getIdempotencyKeyQuery = `
SELECT key, user_id, status, request_hash, result_appointment_id, expires_at
FROM idempotency_keys
WHERE key = $1 AND user_id = $2
`

// Get treats an expired record as absent so a stale key never replays.
func (r *IdempotencyReadStore) Get(ctx context.Context, tx db.DBTX, key uuid.UUID, userID uuid.UUID) (*shared.IdempotencyRecord, error) {
	var (
		record    shared.IdempotencyRecord
		resultID  pgtype.UUID
		expiresAt pgtype.Timestamptz
	)

	row := tx.QueryRow(ctx, getIdempotencyKeyQuery, key, userID)
	err := row.Scan(
		&record.Key,
		&record.UserID,
		&record.Status,
		&record.RequestHash,
		&resultID,
		&expiresAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("idempotency key not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get idempotency key", err)
	}

	record.ResultAppointmentID = pgconv.UUIDPtrFromPgtype(resultID)
	record.ExpiresAt = pgconv.TimeFromPgtype(expiresAt)

	if time.Now().After(record.ExpiresAt) {
		return nil, infra.WrapRepoErr("idempotency key expired", nil, infra.KindNotFound)
	}

	return &record, nil
}
