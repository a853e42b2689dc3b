package readstore

import (
	"context"

	"github.com/google/uuid"

	"garage-booking/internal/infra"
	"garage-booking/internal/infra/db"
	"garage-booking/internal/pkg/pgconv"
	"garage-booking/internal/usecase/queries"
)

type ServiceReadStore struct{}

func NewServiceReadStore() *ServiceReadStore {
	return &ServiceReadStore{}
}

const findServiceByIDQuery = `
SELECT id, name, description, duration_minutes, price_cents, requires_vehicle, active, created_at, updated_at
FROM services
WHERE id = $1
`

func (r *ServiceReadStore) FindByID(ctx context.Context, db db.DBTX, id uuid.UUID) (*queries.ServiceView, error) {
	row := db.QueryRow(ctx, findServiceByIDQuery, id)

	view, err := scanServiceView(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("service not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find service by ID", err)
	}

	return view, nil
}

const listActiveServicesQuery = `
SELECT id, name, description, duration_minutes, price_cents, requires_vehicle, active, created_at, updated_at
FROM services
WHERE active
ORDER BY name, id
`

func (r *ServiceReadStore) ListActive(ctx context.Context, db db.DBTX) ([]*queries.ServiceView, error) {
	rows, err := db.Query(ctx, listActiveServicesQuery)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list active services", err)
	}
	defer rows.Close()

	var result []*queries.ServiceView
	for rows.Next() {
		view, err := scanServiceView(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan service row", err)
		}
		result = append(result, view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read service rows", err)
	}

	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanServiceView(row rowScanner) (*queries.ServiceView, error) {
	var view queries.ServiceView
	err := row.Scan(
		&view.ID,
		&view.Name,
		&view.Description,
		&view.DurationMinutes,
		&view.PriceCents,
		&view.RequiresVehicle,
		&view.Active,
		&view.CreatedAt,
		&view.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &view, nil
}
