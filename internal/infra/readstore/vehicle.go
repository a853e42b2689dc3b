package readstore

import (
	"context"

	"github.com/google/uuid"

	"garage-booking/internal/infra"
	"garage-booking/internal/infra/db"
	"garage-booking/internal/pkg/pgconv"
	"garage-booking/internal/usecase/shared"
)

// VehicleReadStore serves command-side ownership checks; vehicles have no
// query surface of their own.
type VehicleReadStore struct{}

func NewVehicleReadStore() *VehicleReadStore {
	return &VehicleReadStore{}
}

const findVehicleByIDQuery = `
SELECT id, customer_id, make, model, year, license_plate
FROM vehicles
WHERE id = $1
`

func (r *VehicleReadStore) FindByID(ctx context.Context, db db.DBTX, id uuid.UUID) (*shared.VehicleSnapshot, error) {
	var snapshot shared.VehicleSnapshot

	row := db.QueryRow(ctx, findVehicleByIDQuery, id)
	err := row.Scan(
		&snapshot.ID,
		&snapshot.CustomerID,
		&snapshot.Make,
		&snapshot.Model,
		&snapshot.Year,
		&snapshot.LicensePlate,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("vehicle not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find vehicle by ID", err)
	}

	return &snapshot, nil
}
