package repository

import (
	"context"

	"garage-booking/internal/infra"
	"garage-booking/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct{}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

const updateUserLastLoginQuery = `
UPDATE users
SET last_login = now(), updated_at = now()
WHERE id = $1
`

func (r *UserRepository) UpdateLastLogin(ctx context.Context, tx db.DBTX, userID uuid.UUID) error {
	tag, err := tx.Exec(ctx, updateUserLastLoginQuery, userID)
	if err != nil {
		return infra.WrapRepoErr("failed to update user last login", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("user not found", pgx.ErrNoRows, infra.KindNotFound)
	}

	return nil
}
