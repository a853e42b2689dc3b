package appointment

import (
	"errors"
	"time"

	"garage-booking/internal/pkg/clock"

	"github.com/google/uuid"
)

var (
	ErrInvalidDuration     = errors.New("duration must be positive")
	ErrLeadTimeNotMet      = errors.New("lead time requirement not met")
	ErrNegativePrice       = errors.New("price cannot be negative")
	ErrInvalidStatus       = errors.New("invalid appointment status")
	ErrInvalidConfirmation = errors.New("invalid confirmation number")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrCancellationWindow  = errors.New("cancellation window has passed")
	ErrVehicleRequired     = errors.New("service requires a vehicle")
	ErrNotStartedYet       = errors.New("appointment has not reached its scheduled time")
)

// ServiceSpec carries the catalog fields the booking snapshots. Later
// edits to the service never propagate into existing appointments.
type ServiceSpec struct {
	ID              uuid.UUID
	Name            string
	DurationMinutes int32
	PriceCents      int32
	RequiresVehicle bool
}

// Actor identifies who drives a lifecycle transition. Staff actors may
// cancel regardless of the cutoff window.
type Actor struct {
	UserID uuid.UUID
	Staff  bool
}

type Services struct {
	Clock clock.Clock
}

type Appointment struct {
	id                 uuid.UUID
	confirmationNumber ConfirmationNumber
	customerID         uuid.UUID
	vehicleID          *uuid.UUID
	serviceID          uuid.UUID
	serviceName        string
	timeSlot           TimeSlot
	priceCents         int32
	status             Status
	customerNote       Note
	internalNote       Note
	paymentIntentID    *string
	paidAt             *time.Time
	cancelledAt        *time.Time
	createdAt          time.Time
	updatedAt          time.Time
}

func NewAppointment(
	services *Services,
	svc ServiceSpec,
	customerID uuid.UUID,
	vehicleID *uuid.UUID,
	scheduledAt time.Time,
	minLead time.Duration,
	customerNote Note,
) (*Appointment, error) {
	if svc.RequiresVehicle && vehicleID == nil {
		return nil, ErrVehicleRequired
	}
	if svc.PriceCents < 0 {
		return nil, ErrNegativePrice
	}

	slot, err := NewTimeSlot(scheduledAt, svc.DurationMinutes)
	if err != nil {
		return nil, err
	}
	if err := slot.ValidateLeadTimeAt(services.Clock.Now(), minLead); err != nil {
		return nil, err
	}

	confirmation, err := GenerateConfirmationNumber()
	if err != nil {
		return nil, err
	}

	return &Appointment{
		id:                 uuid.New(),
		confirmationNumber: confirmation,
		customerID:         customerID,
		vehicleID:          vehicleID,
		serviceID:          svc.ID,
		serviceName:        svc.Name,
		timeSlot:           slot,
		priceCents:         svc.PriceCents,
		status:             StatusPending,
		customerNote:       customerNote,
	}, nil
}

func ReconstructAppointment(
	id uuid.UUID,
	confirmationNumber ConfirmationNumber,
	customerID uuid.UUID,
	vehicleID *uuid.UUID,
	serviceID uuid.UUID,
	serviceName string,
	timeSlot TimeSlot,
	priceCents int32,
	status Status,
	customerNote Note,
	internalNote Note,
	paymentIntentID *string,
	paidAt *time.Time,
	cancelledAt *time.Time,
	createdAt, updatedAt time.Time,
) *Appointment {
	return &Appointment{
		id:                 id,
		confirmationNumber: confirmationNumber,
		customerID:         customerID,
		vehicleID:          vehicleID,
		serviceID:          serviceID,
		serviceName:        serviceName,
		timeSlot:           timeSlot,
		priceCents:         priceCents,
		status:             status,
		customerNote:       customerNote,
		internalNote:       internalNote,
		paymentIntentID:    paymentIntentID,
		paidAt:             paidAt,
		cancelledAt:        cancelledAt,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// RegenerateConfirmation replaces the confirmation number after a
// persistence collision. Only valid before the first successful insert;
// a stored appointment keeps its number forever.
func (a *Appointment) RegenerateConfirmation() error {
	confirmation, err := GenerateConfirmationNumber()
	if err != nil {
		return err
	}
	a.confirmationNumber = confirmation
	return nil
}

// AttachPaymentIntent records the provider intent backing this booking.
func (a *Appointment) AttachPaymentIntent(intentID string) error {
	if a.status != StatusPending {
		return ErrInvalidTransition
	}
	a.paymentIntentID = &intentID
	return nil
}

// Confirm marks a pending appointment paid.
func (a *Appointment) Confirm(now time.Time) error {
	if !a.status.CanTransitionTo(StatusConfirmed) {
		return ErrInvalidTransition
	}
	a.status = StatusConfirmed
	a.paidAt = &now
	return nil
}

func (a *Appointment) Start() error {
	if !a.status.CanTransitionTo(StatusInProgress) {
		return ErrInvalidTransition
	}
	a.status = StatusInProgress
	return nil
}

func (a *Appointment) Complete() error {
	if !a.status.CanTransitionTo(StatusCompleted) {
		return ErrInvalidTransition
	}
	a.status = StatusCompleted
	return nil
}

// Cancel is idempotent: cancelling an already cancelled appointment is
// a no-op success so duplicate clicks and retried requests stay
// harmless. Customers must be outside the cutoff window; staff may
// cancel at any time.
func (a *Appointment) Cancel(now time.Time, actor Actor, cutoff time.Duration) error {
	if a.status == StatusCancelled {
		return nil
	}
	if !a.status.CanTransitionTo(StatusCancelled) {
		return ErrInvalidTransition
	}
	if !actor.Staff && a.timeSlot.Start().Sub(now) <= cutoff {
		return ErrCancellationWindow
	}
	a.status = StatusCancelled
	a.cancelledAt = &now
	return nil
}

// MarkNoShow records that the customer never arrived. Only allowed once
// the scheduled start has passed.
func (a *Appointment) MarkNoShow(now time.Time) error {
	if !a.status.CanTransitionTo(StatusNoShow) {
		return ErrInvalidTransition
	}
	if !now.After(a.timeSlot.Start()) {
		return ErrNotStartedYet
	}
	a.status = StatusNoShow
	return nil
}

func (a *Appointment) IsCancelled() bool {
	return a.status == StatusCancelled
}

func (a *Appointment) ID() uuid.UUID                          { return a.id }
func (a *Appointment) ConfirmationNumber() ConfirmationNumber { return a.confirmationNumber }
func (a *Appointment) CustomerID() uuid.UUID                  { return a.customerID }
func (a *Appointment) VehicleID() *uuid.UUID                  { return a.vehicleID }
func (a *Appointment) ServiceID() uuid.UUID                   { return a.serviceID }
func (a *Appointment) ServiceName() string                    { return a.serviceName }
func (a *Appointment) TimeSlot() TimeSlot                     { return a.timeSlot }
func (a *Appointment) ScheduledAt() time.Time                 { return a.timeSlot.Start() }
func (a *Appointment) PriceCents() int32                      { return a.priceCents }
func (a *Appointment) Status() Status                         { return a.status }
func (a *Appointment) CustomerNote() Note                     { return a.customerNote }
func (a *Appointment) InternalNote() Note                     { return a.internalNote }
func (a *Appointment) PaymentIntentID() *string               { return a.paymentIntentID }
func (a *Appointment) PaidAt() *time.Time                     { return a.paidAt }
func (a *Appointment) CancelledAt() *time.Time                { return a.cancelledAt }
func (a *Appointment) CreatedAt() time.Time                   { return a.createdAt }
func (a *Appointment) UpdatedAt() time.Time                   { return a.updatedAt }
