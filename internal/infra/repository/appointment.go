package repository

import (
	"context"
	"time"

	"garage-booking/internal/domain/appointment"
	"garage-booking/internal/infra"
	"garage-booking/internal/infra/db"
	"garage-booking/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type AppointmentRepository struct{}

func NewAppointmentRepository() *AppointmentRepository {
	return &AppointmentRepository{}
}

const lockBookingDayQuery = `SELECT pg_advisory_xact_lock(hashtext('appointments:' || $1))`

// LockBookingDay serializes concurrent bookings that target the same
// calendar day. The day is taken in the location of the passed time, so
// callers hand in shop-local time. The transaction-scoped advisory lock
// is released on commit or rollback; the exclusion constraint on the
// table remains the backstop for anything this cannot see.
func (r *AppointmentRepository) LockBookingDay(ctx context.Context, dbtx db.DBTX, day time.Time) error {
	key := day.Format("2006-01-02")
	if _, err := dbtx.Exec(ctx, lockBookingDayQuery, key); err != nil {
		return infra.WrapRepoErr("failed to lock booking day", err)
	}
	return nil
}

const listBlockingSlotsQuery = `
SELECT scheduled_at, duration_minutes
FROM appointments
WHERE status <> 'cancelled'
  AND scheduled_at < $2
  AND ends_at > $1
ORDER BY scheduled_at`

// ListBlockingBetween returns the time slots of every non-cancelled
// appointment intersecting [from, to).
func (r *AppointmentRepository) ListBlockingBetween(ctx context.Context, dbtx db.DBTX, from, to time.Time) ([]appointment.TimeSlot, error) {
	rows, err := dbtx.Query(ctx, listBlockingSlotsQuery, from, to)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list blocking appointments", err)
	}
	defer rows.Close()

	var slots []appointment.TimeSlot
	for rows.Next() {
		var scheduledAt time.Time
		var durationMinutes int32
		if err := rows.Scan(&scheduledAt, &durationMinutes); err != nil {
			return nil, infra.WrapRepoErr("failed to scan blocking appointment", err)
		}

		slot, err := appointment.NewTimeSlot(scheduledAt, durationMinutes)
		if err != nil {
			return nil, infra.WrapRepoErr("stored appointment has invalid slot", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read blocking appointments", err)
	}

	return slots, nil
}

const createAppointmentQuery = `
INSERT INTO appointments (
    id, confirmation_number, customer_id, vehicle_id, service_id, service_name,
    scheduled_at, ends_at, duration_minutes, price_cents, status,
    customer_note, internal_note
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING id`

func (r *AppointmentRepository) Create(ctx context.Context, dbtx db.DBTX, appt *appointment.Appointment) (uuid.UUID, error) {
	slot := appt.TimeSlot()

	var id uuid.UUID
	err := dbtx.QueryRow(ctx, createAppointmentQuery,
		appt.ID(),
		appt.ConfirmationNumber().String(),
		appt.CustomerID(),
		pgconv.UUIDPtrToPgtype(appt.VehicleID()),
		appt.ServiceID(),
		appt.ServiceName(),
		slot.Start(),
		slot.End(),
		slot.DurationMinutes(),
		appt.PriceCents(),
		appt.Status().String(),
		noteToPgtype(appt.CustomerNote()),
		noteToPgtype(appt.InternalNote()),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create appointment", err)
	}

	return id, nil
}

const getAppointmentForUpdateQuery = `
SELECT id, confirmation_number, customer_id, vehicle_id, service_id, service_name,
    scheduled_at, duration_minutes, price_cents, status,
    customer_note, internal_note, payment_intent_id, paid_at, cancelled_at,
    created_at, updated_at
FROM appointments
WHERE id = $1
FOR UPDATE`

// GetForUpdate loads the appointment with a row lock so a lifecycle
// transition reads and writes the same version.
func (r *AppointmentRepository) GetForUpdate(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*appointment.Appointment, error) {
	return scanAppointment(dbtx.QueryRow(ctx, getAppointmentForUpdateQuery, id))
}

const updateAppointmentQuery = `
UPDATE appointments
SET status = $2,
    payment_intent_id = $3,
    paid_at = $4,
    cancelled_at = $5,
    updated_at = now()
WHERE id = $1`

// Update persists the mutable lifecycle fields. Promoting a row to
// confirmed can violate the no-overlap exclusion constraint, which
// surfaces as KindConflict.
func (r *AppointmentRepository) Update(ctx context.Context, dbtx db.DBTX, appt *appointment.Appointment) error {
	tag, err := dbtx.Exec(ctx, updateAppointmentQuery,
		appt.ID(),
		appt.Status().String(),
		pgconv.StringPtrToPgtype(appt.PaymentIntentID()),
		pgconv.TimePtrToPgtype(appt.PaidAt()),
		pgconv.TimePtrToPgtype(appt.CancelledAt()),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update appointment", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("appointment not found", pgx.ErrNoRows, infra.KindNotFound)
	}
	return nil
}

func scanAppointment(row pgx.Row) (*appointment.Appointment, error) {
	var (
		id, customerID, serviceID         uuid.UUID
		vehicleID                         pgtype.UUID
		confirmation, serviceName, status string
		scheduledAt                       time.Time
		durationMinutes, priceCents       int32
		customerNote, internalNote        pgtype.Text
		paymentIntentID                   pgtype.Text
		paidAt, cancelledAt               pgtype.Timestamptz
		createdAt, updatedAt              pgtype.Timestamptz
	)

	err := row.Scan(
		&id, &confirmation, &customerID, &vehicleID, &serviceID, &serviceName,
		&scheduledAt, &durationMinutes, &priceCents, &status,
		&customerNote, &internalNote, &paymentIntentID, &paidAt, &cancelledAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("appointment not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to load appointment", err)
	}

	confirmationNumber, err := appointment.NewConfirmationNumber(confirmation)
	if err != nil {
		return nil, infra.WrapRepoErr("stored appointment has invalid confirmation number", err)
	}
	slot, err := appointment.NewTimeSlot(scheduledAt, durationMinutes)
	if err != nil {
		return nil, infra.WrapRepoErr("stored appointment has invalid slot", err)
	}
	apptStatus, err := appointment.NewStatus(status)
	if err != nil {
		return nil, infra.WrapRepoErr("stored appointment has invalid status", err)
	}

	return appointment.ReconstructAppointment(
		id,
		confirmationNumber,
		customerID,
		pgconv.UUIDPtrFromPgtype(vehicleID),
		serviceID,
		serviceName,
		slot,
		priceCents,
		apptStatus,
		appointment.NewNote(textOrEmpty(customerNote)),
		appointment.NewNote(textOrEmpty(internalNote)),
		pgconv.StringPtrFromPgtype(paymentIntentID),
		pgconv.TimePtrFromPgtype(paidAt),
		pgconv.TimePtrFromPgtype(cancelledAt),
		pgconv.TimeFromPgtype(createdAt),
		pgconv.TimeFromPgtype(updatedAt),
	), nil
}

func noteToPgtype(n appointment.Note) pgtype.Text {
	if n.IsEmpty() {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: n.String(), Valid: true}
}

func textOrEmpty(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}
