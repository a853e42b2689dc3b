package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"garage-booking/internal/domain/appointment"
	"garage-booking/internal/domain/schedule"
	"garage-booking/internal/domain/user"
	reqdto "garage-booking/internal/handler/dto/request"
	"garage-booking/internal/infra"
	"garage-booking/internal/infra/payment"
	"garage-booking/internal/pkg/clock"
	"garage-booking/internal/pkg/errs"
	"garage-booking/internal/usecase/queries"
	"garage-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrServiceNotFound         = errs.New("service not found")
	ErrVehicleRequired         = errs.New("service requires a vehicle")
	ErrVehicleNotFound         = errs.New("vehicle not found")
	ErrVehicleNotOwned         = errs.New("vehicle belongs to another customer")
	ErrInvalidDate             = errs.New("scheduled date is not bookable")
	ErrOutsideOperatingHours   = errs.New("slot is outside operating hours")
	ErrSlotConflict            = errs.New("slot already taken")
	ErrInvalidTransition       = errs.New("invalid status transition")
	ErrCancellationWindow      = errs.New("cancellation window has passed")
	ErrConfirmationGeneration  = errs.New("could not allocate a confirmation number")
	ErrAppointmentNotFound     = errs.New("appointment not found")
	ErrAppointmentAccess       = errs.New("appointment access denied")
	ErrPaymentIntentMissing    = errs.New("appointment has no payment intent")
	ErrPaymentNotSucceeded     = errs.New("payment has not succeeded")
	ErrPaymentGatewayFailed    = errs.New("payment gateway request failed")
	ErrDuplicateRequest        = errs.New("duplicate request")
	ErrIdempotencyInProgress   = errs.New("idempotency in progress")
	ErrIdempotencyCheckFailed  = errs.New("idempotency check failed")
	ErrDomainValidation        = errs.New("domain validation error")
	ErrDatabaseOperationFailed = errs.New("database operation failed")
)

const (
	bookingEndpoint   = "POST /appointments"
	idempotencyKeyTTL = 24 * time.Hour

	// Confirmation numbers carry ~40 bits of entropy, so a second
	// collision in a row is effectively a broken random source.
	maxConfirmationAttempts = 5
)

// BookingPolicy carries the shop-level scheduling rules the write side
// enforces.
type BookingPolicy struct {
	MinLead      time.Duration
	CancelCutoff time.Duration
	HorizonDays  int
}

type BookAppointmentResult struct {
	Appointment *queries.AppointmentView
	IsReplayed  bool
}

type PaymentIntentResult struct {
	IntentID     string
	ClientSecret string
}

type AppointmentCommands interface {
	Book(ctx context.Context, actorID uuid.UUID, req reqdto.CreateAppointmentRequest, idempotencyKey uuid.UUID) (*BookAppointmentResult, error)
	CreatePaymentIntent(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) (*PaymentIntentResult, error)
	ConfirmPayment(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) (*queries.AppointmentView, error)
	Cancel(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) (*queries.AppointmentView, error)
	Start(ctx context.Context, id uuid.UUID) (*queries.AppointmentView, error)
	Complete(ctx context.Context, id uuid.UUID) (*queries.AppointmentView, error)
	MarkNoShow(ctx context.Context, id uuid.UUID) (*queries.AppointmentView, error)
}

type appointmentUseCaseImpl struct {
	uow                shared.UnitOfWork
	gateway            payment.Gateway
	appointmentQueries queries.AppointmentQueries
	clock              clock.Clock
	loc                *time.Location
	policy             BookingPolicy
}

func NewAppointmentUseCase(
	uow shared.UnitOfWork,
	gateway payment.Gateway,
	appointmentQueries queries.AppointmentQueries,
	clock clock.Clock,
	loc *time.Location,
	policy BookingPolicy,
) AppointmentCommands {
	return &appointmentUseCaseImpl{
		uow:                uow,
		gateway:            gateway,
		appointmentQueries: appointmentQueries,
		clock:              clock,
		loc:                loc,
		policy:             policy,
	}
}

func (a *appointmentUseCaseImpl) Book(
	ctx context.Context,
	actorID uuid.UUID,
	req reqdto.CreateAppointmentRequest,
	idempotencyKey uuid.UUID,
) (*BookAppointmentResult, error) {
	requestHash := a.calculateRequestHash(req)
	expiresAt := a.clock.Now().Add(idempotencyKeyTTL)

	entity, err := a.buildAppointment(ctx, req, actorID)
	if err != nil {
		return nil, err
	}

	var (
		replayView *queries.AppointmentView
		committed  bool
	)

	for attempt := 0; attempt < maxConfirmationAttempts && !committed; attempt++ {
		txErr := a.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			replay, err := a.claimIdempotencyKey(ctx, tx, idempotencyKey, actorID, requestHash, expiresAt)
			if err != nil {
				return err
			}
			if replay != nil {
				replayView = replay
				return nil
			}

			return a.reserveSlot(ctx, tx, entity, idempotencyKey, actorID)
		})

		switch {
		case txErr == nil:
			committed = true
		case infra.IsKind(txErr, infra.KindDuplicateKey):
			// The confirmation number collided with an existing row. The
			// unique violation aborted the transaction, so regenerate and
			// rerun the whole attempt, idempotency claim included.
			if regenErr := entity.RegenerateConfirmation(); regenErr != nil {
				return nil, errs.Mark(regenErr, ErrConfirmationGeneration)
			}
		default:
			return nil, txErr
		}
	}
	if !committed {
		return nil, ErrConfirmationGeneration
	}

	if replayView != nil {
		return &BookAppointmentResult{
			Appointment: replayView,
			IsReplayed:  true,
		}, nil
	}

	// Read-after-write: serve the response from the read store
	view, err := a.appointmentQueries.GetByIDSystem(ctx, entity.ID())
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return &BookAppointmentResult{
		Appointment: view,
		IsReplayed:  false,
	}, nil
}

func (a *appointmentUseCaseImpl) buildAppointment(
	ctx context.Context,
	req reqdto.CreateAppointmentRequest,
	customerID uuid.UUID,
) (*appointment.Appointment, error) {
	reads := a.uow.CommandReads()

	svc, err := a.validateService(ctx, reads, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if err := a.validateVehicle(ctx, reads, svc, req.VehicleID, customerID); err != nil {
		return nil, err
	}
	if err := a.validateSchedule(ctx, reads, svc.DurationMinutes, req.ScheduledAt); err != nil {
		return nil, err
	}

	spec := appointment.ServiceSpec{
		ID:              svc.ID,
		Name:            svc.Name,
		DurationMinutes: svc.DurationMinutes,
		PriceCents:      svc.PriceCents,
		RequiresVehicle: svc.RequiresVehicle,
	}

	entity, err := req.ToDomain(&appointment.Services{Clock: a.clock}, spec, customerID, a.policy.MinLead)
	if err != nil {
		if errors.Is(err, appointment.ErrLeadTimeNotMet) {
			return nil, ErrInvalidDate
		}
		return nil, errs.Mark(err, ErrDomainValidation)
	}
	return entity, nil
}

func (a *appointmentUseCaseImpl) validateService(
	ctx context.Context,
	reads shared.CommandReads,
	serviceID uuid.UUID,
) (*shared.ServiceSnapshot, error) {
	svc, err := reads.ServiceByID(ctx, serviceID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, errs.Mark(err, ErrServiceNotFound)
	}
	if !svc.Active {
		// Deactivated services stay resolvable for history but take no
		// new bookings.
		return nil, ErrServiceNotFound
	}
	return svc, nil
}

func (a *appointmentUseCaseImpl) validateVehicle(
	ctx context.Context,
	reads shared.CommandReads,
	svc *shared.ServiceSnapshot,
	vehicleID *uuid.UUID,
	customerID uuid.UUID,
) error {
	if vehicleID == nil {
		if svc.RequiresVehicle {
			return ErrVehicleRequired
		}
		return nil
	}

	vehicle, err := reads.VehicleByID(ctx, *vehicleID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return ErrVehicleNotFound
		}
		return errs.Mark(err, ErrVehicleNotFound)
	}
	if vehicle.CustomerID != customerID {
		return ErrVehicleNotOwned
	}
	return nil
}

func (a *appointmentUseCaseImpl) validateSchedule(
	ctx context.Context,
	reads shared.CommandReads,
	durationMinutes int32,
	scheduledAt time.Time,
) error {
	local := scheduledAt.In(a.loc)
	now := a.clock.Now().In(a.loc)

	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, a.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc)
	if dayStart.Before(today) {
		return ErrInvalidDate
	}
	if a.policy.HorizonDays > 0 && dayStart.After(today.AddDate(0, 0, a.policy.HorizonDays)) {
		return ErrInvalidDate
	}

	hours, err := reads.HoursForWeekday(ctx, int(local.Weekday()))
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			// Closed day
			return ErrOutsideOperatingHours
		}
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	window, err := schedule.NewDayWindow(hours.Opens, hours.Closes, hours.Granularity)
	if err != nil {
		return errs.Wrap(err, "stored operating hours are invalid")
	}

	duration := time.Duration(durationMinutes) * time.Minute
	if !window.FitsSlot(local.Sub(dayStart), duration) {
		return ErrOutsideOperatingHours
	}
	return nil
}

// claimIdempotencyKey returns the replayed view when the key already
// completed, nil when this request freshly claimed the key, or an error
// when the key is held by an in-flight or divergent request.
func (a *appointmentUseCaseImpl) claimIdempotencyKey(
	ctx context.Context,
	tx shared.Tx,
	key, userID uuid.UUID,
	requestHash string,
	expiresAt time.Time,
) (*queries.AppointmentView, error) {
	inserted, err := tx.Idempotency().TryInsert(ctx, tx.DB(), key, userID, bookingEndpoint, requestHash, expiresAt)
	if err != nil {
		return nil, errs.Mark(err, ErrIdempotencyCheckFailed)
	}
	if inserted {
		return nil, nil
	}

	existing, err := tx.Reads().IdempotencyByKey(ctx, key, userID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			// The key row exists but its TTL has lapsed. Take it over in
			// place rather than treating the stale row as in-flight.
			claimed, claimErr := tx.Idempotency().ClaimExpiredIdempotencyKey(ctx, tx.DB(), key, userID, requestHash, expiresAt)
			if claimErr != nil {
				return nil, errs.Mark(claimErr, ErrIdempotencyCheckFailed)
			}
			if claimed == 0 {
				return nil, ErrIdempotencyInProgress
			}
			return nil, nil
		}
		return nil, errs.Mark(err, ErrIdempotencyCheckFailed)
	}

	if existing.RequestHash != requestHash {
		return nil, ErrDuplicateRequest
	}

	switch existing.Status {
	case "completed":
		if existing.ResultAppointmentID != nil {
			// Use system-level access for idempotency replay
			return a.appointmentQueries.GetByIDSystem(ctx, *existing.ResultAppointmentID)
		}
		return nil, errs.New("completed request missing result appointment ID")

	case "processing":
		return nil, ErrIdempotencyInProgress

	default:
		return nil, errs.New("invalid idempotency key status")
	}
}

// reserveSlot inserts the appointment while holding the per-day advisory
// lock, so at most one booking that touches a given day is in flight at
// a time and the overlap re-check cannot race a concurrent insert.
func (a *appointmentUseCaseImpl) reserveSlot(
	ctx context.Context,
	tx shared.Tx,
	entity *appointment.Appointment,
	idempotencyKey, userID uuid.UUID,
) error {
	repo := tx.Appointments()
	slot := entity.TimeSlot()

	if err := repo.LockBookingDay(ctx, tx.DB(), slot.Start().In(a.loc)); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	busy, err := repo.ListBlockingBetween(ctx, tx.DB(), slot.Start(), slot.End())
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	for _, taken := range busy {
		if slot.Overlaps(taken) {
			return ErrSlotConflict
		}
	}

	appointmentID, err := repo.Create(ctx, tx.DB(), entity)
	if err != nil {
		switch {
		case infra.IsKind(err, infra.KindDuplicateKey):
			// Confirmation number collision; bubbles up so Book can
			// regenerate and retry in a fresh transaction.
			return err
		case infra.IsKind(err, infra.KindConflict):
			return ErrSlotConflict
		case infra.IsKind(err, infra.KindForeignKeyViolated):
			return errs.Mark(err, ErrDomainValidation)
		default:
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
	}

	responseHash := a.calculateIDHash(appointmentID)
	if err := tx.Idempotency().UpdateStatusCompleted(ctx, tx.DB(), idempotencyKey, userID, responseHash, appointmentID); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return nil
}

func (a *appointmentUseCaseImpl) CreatePaymentIntent(
	ctx context.Context,
	actorID uuid.UUID,
	actorRole string,
	id uuid.UUID,
) (*PaymentIntentResult, error) {
	view, err := a.authorizedView(ctx, actorID, actorRole, id)
	if err != nil {
		return nil, err
	}
	if view.Status != appointment.StatusPending.String() {
		return nil, ErrInvalidTransition
	}

	// The gateway call is idempotent per appointment, so retries after a
	// failed persist land on the same intent.
	intent, err := a.gateway.CreateIntent(ctx, view.ID, view.ConfirmationNumber, int64(view.PriceCents))
	if err != nil {
		return nil, errs.Mark(err, ErrPaymentGatewayFailed)
	}

	txErr := a.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		appt, err := tx.Appointments().GetForUpdate(ctx, tx.DB(), id)
		if err != nil {
			return mapLoadErr(err)
		}
		if current := appt.PaymentIntentID(); current != nil && *current == intent.ID {
			return nil
		}
		if err := appt.AttachPaymentIntent(intent.ID); err != nil {
			return mapTransitionErr(err)
		}
		if err := tx.Appointments().Update(ctx, tx.DB(), appt); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return &PaymentIntentResult{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
	}, nil
}

func (a *appointmentUseCaseImpl) ConfirmPayment(
	ctx context.Context,
	actorID uuid.UUID,
	actorRole string,
	id uuid.UUID,
) (*queries.AppointmentView, error) {
	view, err := a.authorizedView(ctx, actorID, actorRole, id)
	if err != nil {
		return nil, err
	}
	if view.PaymentIntentID == nil {
		return nil, ErrPaymentIntentMissing
	}

	intent, err := a.gateway.GetIntent(ctx, *view.PaymentIntentID)
	if err != nil {
		return nil, errs.Mark(err, ErrPaymentGatewayFailed)
	}
	if intent.Status != payment.IntentStatusSucceeded {
		return nil, ErrPaymentNotSucceeded
	}

	txErr := a.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		appt, err := tx.Appointments().GetForUpdate(ctx, tx.DB(), id)
		if err != nil {
			return mapLoadErr(err)
		}
		if err := appt.Confirm(a.clock.Now()); err != nil {
			return mapTransitionErr(err)
		}
		if err := tx.Appointments().Update(ctx, tx.DB(), appt); err != nil {
			// The no-overlap exclusion constraint only spans confirmed
			// and in-progress rows, so promoting this hold collides
			// exactly when a competing appointment confirmed first.
			if infra.IsKind(err, infra.KindConflict) {
				return ErrSlotConflict
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, ErrSlotConflict) {
			// First successful payment wins the slot. This hold can never
			// be confirmed anymore, so release it for rebooking.
			a.cancelLosingHold(ctx, id)
			return nil, ErrSlotConflict
		}
		return nil, txErr
	}

	return a.readView(ctx, id)
}

// cancelLosingHold cancels a pending hold that lost the slot race at
// payment time. Best effort: when it fails the hold stays pending and
// the next confirmation attempt lands here again.
func (a *appointmentUseCaseImpl) cancelLosingHold(ctx context.Context, id uuid.UUID) {
	err := a.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		appt, err := tx.Appointments().GetForUpdate(ctx, tx.DB(), id)
		if err != nil {
			return err
		}

		system := appointment.Actor{Staff: true}
		if err := appt.Cancel(a.clock.Now(), system, 0); err != nil {
			return err
		}
		return tx.Appointments().Update(ctx, tx.DB(), appt)
	})
	if err != nil {
		slog.Warn("failed to cancel losing hold after payment conflict",
			"appointment_id", id,
			"error", err.Error())
	}
}

func (a *appointmentUseCaseImpl) Cancel(
	ctx context.Context,
	actorID uuid.UUID,
	actorRole string,
	id uuid.UUID,
) (*queries.AppointmentView, error) {
	role, err := user.NewRole(actorRole)
	if err != nil {
		return nil, ErrAppointmentAccess
	}
	actor := appointment.Actor{UserID: actorID, Staff: role.IsStaff()}

	txErr := a.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		appt, err := tx.Appointments().GetForUpdate(ctx, tx.DB(), id)
		if err != nil {
			return mapLoadErr(err)
		}
		if !actor.Staff && appt.CustomerID() != actorID {
			return ErrAppointmentAccess
		}
		if err := appt.Cancel(a.clock.Now(), actor, a.policy.CancelCutoff); err != nil {
			return mapTransitionErr(err)
		}
		if err := tx.Appointments().Update(ctx, tx.DB(), appt); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return a.readView(ctx, id)
}

func (a *appointmentUseCaseImpl) Start(ctx context.Context, id uuid.UUID) (*queries.AppointmentView, error) {
	return a.transition(ctx, id, func(appt *appointment.Appointment) error {
		return appt.Start()
	})
}

func (a *appointmentUseCaseImpl) Complete(ctx context.Context, id uuid.UUID) (*queries.AppointmentView, error) {
	return a.transition(ctx, id, func(appt *appointment.Appointment) error {
		return appt.Complete()
	})
}

func (a *appointmentUseCaseImpl) MarkNoShow(ctx context.Context, id uuid.UUID) (*queries.AppointmentView, error) {
	return a.transition(ctx, id, func(appt *appointment.Appointment) error {
		return appt.MarkNoShow(a.clock.Now())
	})
}

// transition applies one staff lifecycle change under a row lock.
// Authorization happens at the routing layer; these operations are not
// exposed to customers.
func (a *appointmentUseCaseImpl) transition(
	ctx context.Context,
	id uuid.UUID,
	apply func(*appointment.Appointment) error,
) (*queries.AppointmentView, error) {
	txErr := a.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		appt, err := tx.Appointments().GetForUpdate(ctx, tx.DB(), id)
		if err != nil {
			return mapLoadErr(err)
		}
		if err := apply(appt); err != nil {
			return mapTransitionErr(err)
		}
		if err := tx.Appointments().Update(ctx, tx.DB(), appt); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return a.readView(ctx, id)
}

// authorizedView loads the appointment and enforces customer ownership.
// Staff see any appointment.
func (a *appointmentUseCaseImpl) authorizedView(
	ctx context.Context,
	actorID uuid.UUID,
	actorRole string,
	id uuid.UUID,
) (*queries.AppointmentView, error) {
	view, err := a.appointmentQueries.GetByIDSystem(ctx, id)
	if err != nil {
		if errors.Is(err, queries.ErrAppointmentNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	role, err := user.NewRole(actorRole)
	if err != nil {
		return nil, ErrAppointmentAccess
	}
	if !role.IsStaff() && view.CustomerID != actorID {
		return nil, ErrAppointmentAccess
	}
	return view, nil
}

// Read-after-write: serve the response from the read store
func (a *appointmentUseCaseImpl) readView(ctx context.Context, id uuid.UUID) (*queries.AppointmentView, error) {
	view, err := a.appointmentQueries.GetByIDSystem(ctx, id)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return view, nil
}

func mapLoadErr(err error) error {
	if infra.IsKind(err, infra.KindNotFound) {
		return ErrAppointmentNotFound
	}
	return errs.Mark(err, ErrDatabaseOperationFailed)
}

func mapTransitionErr(err error) error {
	switch {
	case errors.Is(err, appointment.ErrCancellationWindow):
		return ErrCancellationWindow
	case errors.Is(err, appointment.ErrInvalidTransition),
		errors.Is(err, appointment.ErrNotStartedYet):
		return ErrInvalidTransition
	default:
		return errs.Mark(err, ErrDomainValidation)
	}
}

func (a *appointmentUseCaseImpl) calculateRequestHash(req reqdto.CreateAppointmentRequest) string {
	data, _ := json.Marshal(req)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func (a *appointmentUseCaseImpl) calculateIDHash(id uuid.UUID) string {
	hash := sha256.Sum256([]byte(id.String()))
	return hex.EncodeToString(hash[:])
}
