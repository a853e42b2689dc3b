package readstore

import (
	"context"

	"github.com/google/uuid"

	"garage-booking/internal/infra"
	"garage-booking/internal/infra/db"
	"garage-booking/internal/pkg/pgconv"
	"garage-booking/internal/usecase/queries"
)

type UserReadStore struct{}

func NewUserReadStore() *UserReadStore {
	return &UserReadStore{}
}

const findUserByIDQuery = `
SELECT id, email, role, name, phone, is_active
FROM users
WHERE id = $1
`

func (r *UserReadStore) FindByID(ctx context.Context, db db.DBTX, id uuid.UUID) (*queries.AuthorizedUserView, error) {
	var view queries.AuthorizedUserView

	row := db.QueryRow(ctx, findUserByIDQuery, id)
	err := row.Scan(
		&view.ID,
		&view.Email,
		&view.Role,
		&view.Name,
		&view.Phone,
		&view.IsActive,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find user by ID", err)
	}

	return &view, nil
}

const findUserByEmailQuery = `
SELECT id, email, role, name, phone, is_active, password_hash
FROM users
WHERE email = $1
`

// FindByEmail returns the password hash alongside the view so it never
// travels on the read model itself.
func (r *UserReadStore) FindByEmail(ctx context.Context, db db.DBTX, email string) (*queries.AuthorizedUserView, string, error) {
	var (
		view queries.AuthorizedUserView
		hash string
	)

	row := db.QueryRow(ctx, findUserByEmailQuery, email)
	err := row.Scan(
		&view.ID,
		&view.Email,
		&view.Role,
		&view.Name,
		&view.Phone,
		&view.IsActive,
		&hash,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, "", infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, "", infra.WrapRepoErr("failed to find user by email", err)
	}

	return &view, hash, nil
}
