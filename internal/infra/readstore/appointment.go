package readstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"garage-booking/internal/domain/schedule"
	"garage-booking/internal/infra"
	"garage-booking/internal/infra/db"
	"garage-booking/internal/pkg/pgconv"
	"garage-booking/internal/usecase/queries"
)

type AppointmentReadStore struct{}

func NewAppointmentReadStore() *AppointmentReadStore {
	return &AppointmentReadStore{}
}

const findAppointmentByIDQuery = `
SELECT a.id, a.customer_id, u.email, u.name,
       a.vehicle_id, v.make, v.model, v.license_plate,
       a.service_id, a.service_name, a.duration_minutes, a.price_cents,
       a.scheduled_at, a.ends_at, a.status, a.confirmation_number,
       a.customer_note, a.internal_note, a.payment_intent_id,
       a.paid_at, a.cancelled_at, a.created_at, a.updated_at
FROM appointments a
JOIN users u ON u.id = a.customer_id
LEFT JOIN vehicles v ON v.id = a.vehicle_id
WHERE a.id = $1
`

func (r *AppointmentReadStore) FindByID(ctx context.Context, db db.DBTX, id uuid.UUID) (*queries.AppointmentView, error) {
	var view queries.AppointmentView

	row := db.QueryRow(ctx, findAppointmentByIDQuery, id)
	err := row.Scan(
		&view.ID,
		&view.CustomerID,
		&view.CustomerEmail,
		&view.CustomerName,
		&view.VehicleID,
		&view.VehicleMake,
		&view.VehicleModel,
		&view.VehiclePlate,
		&view.ServiceID,
		&view.ServiceName,
		&view.DurationMinutes,
		&view.PriceCents,
		&view.ScheduledAt,
		&view.EndsAt,
		&view.Status,
		&view.ConfirmationNumber,
		&view.CustomerNote,
		&view.InternalNote,
		&view.PaymentIntentID,
		&view.PaidAt,
		&view.CancelledAt,
		&view.CreatedAt,
		&view.UpdatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("appointment not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find appointment by ID", err)
	}

	return &view, nil
}

const listItemColumns = `
a.id, a.service_id, a.service_name, a.scheduled_at, a.duration_minutes,
a.price_cents, a.status, a.confirmation_number, a.created_at
`

// An empty status narrows nothing; list queries share one filter shape.
const findAppointmentsByCustomerFirstPageQuery = `
SELECT ` + listItemColumns + `
FROM appointments a
WHERE a.customer_id = $1 AND ($2 = '' OR a.status = $2)
ORDER BY a.created_at DESC, a.id DESC
LIMIT $3
`

func (r *AppointmentReadStore) FindByCustomerFirstPage(
	ctx context.Context,
	db db.DBTX,
	customerID uuid.UUID,
	status string,
	limit int32,
) ([]*queries.AppointmentListItem, error) {
	rows, err := db.Query(ctx, findAppointmentsByCustomerFirstPageQuery, customerID, status, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find appointments first page", err)
	}
	defer rows.Close()

	return collectListItems(rows)
}

const findAppointmentsByCustomerKeysetQuery = `
SELECT ` + listItemColumns + `
FROM appointments a
WHERE a.customer_id = $1 AND ($2 = '' OR a.status = $2)
  AND (a.created_at, a.id) < ($3, $4)
ORDER BY a.created_at DESC, a.id DESC
LIMIT $5
`

func (r *AppointmentReadStore) FindByCustomerKeyset(
	ctx context.Context,
	db db.DBTX,
	customerID uuid.UUID,
	status string,
	lastCreatedAt time.Time,
	lastID uuid.UUID,
	limit int32,
) ([]*queries.AppointmentListItem, error) {
	rows, err := db.Query(ctx, findAppointmentsByCustomerKeysetQuery,
		customerID, status, pgconv.TimeToPgtype(lastCreatedAt), lastID, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find appointments keyset", err)
	}
	defer rows.Close()

	return collectListItems(rows)
}

const findAllAppointmentsFirstPageQuery = `
SELECT ` + listItemColumns + `
FROM appointments a
WHERE ($1 = '' OR a.status = $1)
ORDER BY a.created_at DESC, a.id DESC
LIMIT $2
`

func (r *AppointmentReadStore) FindAllFirstPage(
	ctx context.Context,
	db db.DBTX,
	status string,
	limit int32,
) ([]*queries.AppointmentListItem, error) {
	rows, err := db.Query(ctx, findAllAppointmentsFirstPageQuery, status, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find all appointments first page", err)
	}
	defer rows.Close()

	return collectListItems(rows)
}

const findAllAppointmentsKeysetQuery = `
SELECT ` + listItemColumns + `
FROM appointments a
WHERE ($1 = '' OR a.status = $1)
  AND (a.created_at, a.id) < ($2, $3)
ORDER BY a.created_at DESC, a.id DESC
LIMIT $4
`

func (r *AppointmentReadStore) FindAllKeyset(
	ctx context.Context,
	db db.DBTX,
	status string,
	lastCreatedAt time.Time,
	lastID uuid.UUID,
	limit int32,
) ([]*queries.AppointmentListItem, error) {
	rows, err := db.Query(ctx, findAllAppointmentsKeysetQuery,
		status, pgconv.TimeToPgtype(lastCreatedAt), lastID, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find all appointments keyset", err)
	}
	defer rows.Close()

	return collectListItems(rows)
}

const listBookedBetweenQuery = `
SELECT scheduled_at, ends_at
FROM appointments
WHERE status <> 'cancelled' AND scheduled_at < $2 AND ends_at > $1
ORDER BY scheduled_at
`

// ListBookedBetween returns the busy intervals overlapping [from, to).
// The predicate matches the write side: only cancellation frees a slot.
func (r *AppointmentReadStore) ListBookedBetween(ctx context.Context, db db.DBTX, from, to time.Time) ([]schedule.Interval, error) {
	rows, err := db.Query(ctx, listBookedBetweenQuery,
		pgconv.TimeToPgtype(from), pgconv.TimeToPgtype(to))
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list booked intervals", err)
	}
	defer rows.Close()

	var intervals []schedule.Interval
	for rows.Next() {
		var iv schedule.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booked interval", err)
		}
		intervals = append(intervals, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read booked intervals", err)
	}

	return intervals, nil
}

func collectListItems(rows pgx.Rows) ([]*queries.AppointmentListItem, error) {
	var result []*queries.AppointmentListItem
	for rows.Next() {
		var item queries.AppointmentListItem
		err := rows.Scan(
			&item.ID,
			&item.ServiceID,
			&item.ServiceName,
			&item.ScheduledAt,
			&item.DurationMinutes,
			&item.PriceCents,
			&item.Status,
			&item.ConfirmationNumber,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan appointment row", err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read appointment rows", err)
	}

	return result, nil
}
