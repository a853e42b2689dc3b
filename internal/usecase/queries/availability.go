package queries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"garage-booking/internal/domain/schedule"
	"garage-booking/internal/infra"
	"garage-booking/internal/infra/db"
	"garage-booking/internal/pkg/clock"
	"garage-booking/internal/pkg/errs"
	"garage-booking/internal/usecase/shared"
)

var (
	ErrServiceNotFound = errs.New("service not found")
	ErrInvalidDate     = errs.New("invalid date")
)

const dateLayout = "2006-01-02"

type AvailabilityQueries interface {
	// GetDaySchedule returns the full slot grid for one service on one
	// date. Slots inside the lead window or already booked come back
	// marked unavailable rather than omitted.
	GetDaySchedule(ctx context.Context, serviceID uuid.UUID, date string) (*DayScheduleView, error)
}

type HoursReadStore interface {
	FindByWeekday(ctx context.Context, db db.DBTX, weekday int) (*shared.DayHours, error)
}

type BookedIntervalStore interface {
	ListBookedBetween(ctx context.Context, db db.DBTX, from, to time.Time) ([]schedule.Interval, error)
}

type availabilityQueriesImpl struct {
	uow         shared.UnitOfWork
	services    ServiceReadStore
	hours       HoursReadStore
	booked      BookedIntervalStore
	clock       clock.Clock
	loc         *time.Location
	minLead     time.Duration
	horizonDays int
}

func NewAvailabilityQueries(
	uow shared.UnitOfWork,
	services ServiceReadStore,
	hours HoursReadStore,
	booked BookedIntervalStore,
	clk clock.Clock,
	loc *time.Location,
	minLead time.Duration,
	horizonDays int,
) AvailabilityQueries {
	return &availabilityQueriesImpl{
		uow:         uow,
		services:    services,
		hours:       hours,
		booked:      booked,
		clock:       clk,
		loc:         loc,
		minLead:     minLead,
		horizonDays: horizonDays,
	}
}

func (q *availabilityQueriesImpl) GetDaySchedule(ctx context.Context, serviceID uuid.UUID, date string) (*DayScheduleView, error) {
	dayStart, err := time.ParseInLocation(dateLayout, date, q.loc)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidDate)
	}

	now := q.clock.Now().In(q.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, q.loc)
	if dayStart.Before(today) {
		return nil, ErrInvalidDate
	}
	if q.horizonDays > 0 && dayStart.After(today.AddDate(0, 0, q.horizonDays)) {
		return nil, ErrInvalidDate
	}

	view := &DayScheduleView{
		Date:      date,
		ServiceID: serviceID,
		TimeZone:  q.loc.String(),
		Slots:     []SlotView{},
	}

	// Service, hours and busy intervals read under one snapshot so a
	// concurrent booking cannot straddle the grid computation.
	err = q.uow.WithinReadOnly(ctx, func(ctx context.Context, db db.DBTX) error {
		svc, err := q.services.FindByID(ctx, db, serviceID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrServiceNotFound
			}
			return err
		}
		if !svc.Active {
			return ErrServiceNotFound
		}

		hours, err := q.hours.FindByWeekday(ctx, db, int(dayStart.Weekday()))
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				// Closed day: an empty grid, not an error
				return nil
			}
			return err
		}

		window, err := schedule.NewDayWindow(hours.Opens, hours.Closes, hours.Granularity)
		if err != nil {
			return errs.Wrap(err, "stored operating hours are invalid")
		}

		busy, err := q.booked.ListBookedBetween(ctx, db,
			dayStart.Add(hours.Opens), dayStart.Add(hours.Closes))
		if err != nil {
			return err
		}

		duration := time.Duration(svc.DurationMinutes) * time.Minute
		earliest := q.clock.Now().Add(q.minLead)

		slots := schedule.ComputeSlots(dayStart, window, duration, busy, earliest)
		view.Slots = make([]SlotView, len(slots))
		for i, s := range slots {
			view.Slots[i] = SlotView{
				Time:      s.Time,
				Label:     s.Time.In(q.loc).Format("15:04"),
				Available: s.Available,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}
