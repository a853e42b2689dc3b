//go:build unit || e2e

package builder

import (
	"time"

	"garage-booking/internal/domain/appointment"
	reqdto "garage-booking/internal/handler/dto/request"
	"garage-booking/internal/pkg/clock"
	"garage-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

// Monday 09:00 UTC. Booking defaults land the next day so lead-time
// checks pass without each test spelling out times.
var BaseTime = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

type AppointmentBuilder struct {
	Service      appointment.ServiceSpec
	CustomerID   uuid.UUID
	VehicleID    *uuid.UUID
	ScheduledAt  time.Time
	MinLead      time.Duration
	CustomerNote string
	Now          time.Time
}

func NewAppointmentBuilder() *AppointmentBuilder {
	return &AppointmentBuilder{
		Service: appointment.ServiceSpec{
			ID:              uuid.New(),
			Name:            "Oil Change",
			DurationMinutes: 60,
			PriceCents:      4999,
			RequiresVehicle: false,
		},
		CustomerID:  uuid.New(),
		ScheduledAt: BaseTime.Add(24 * time.Hour),
		MinLead:     30 * time.Minute,
		Now:         BaseTime,
	}
}

func (b *AppointmentBuilder) With(mutate func(*AppointmentBuilder)) *AppointmentBuilder {
	mutate(b)
	return b
}

func (b *AppointmentBuilder) BuildDomain() (*appointment.Appointment, error) {
	services := &appointment.Services{Clock: clock.NewMockClock(b.Now)}
	return appointment.NewAppointment(
		services,
		b.Service,
		b.CustomerID,
		b.VehicleID,
		b.ScheduledAt,
		b.MinLead,
		appointment.NewNote(b.CustomerNote),
	)
}

func (b *AppointmentBuilder) BuildDTO() reqdto.CreateAppointmentRequest {
	req := reqdto.CreateAppointmentRequest{
		ServiceID:   b.Service.ID,
		VehicleID:   b.VehicleID,
		ScheduledAt: b.ScheduledAt,
	}
	if b.CustomerNote != "" {
		note := b.CustomerNote
		req.Note = &note
	}
	return req
}

// BuildView mirrors what the read store would return right after a
// successful booking.
func (b *AppointmentBuilder) BuildView() *queries.AppointmentView {
	view := &queries.AppointmentView{
		ID:                 uuid.New(),
		CustomerID:         b.CustomerID,
		CustomerEmail:      "test@example.com",
		CustomerName:       "Test Customer",
		VehicleID:          b.VehicleID,
		ServiceID:          b.Service.ID,
		ServiceName:        b.Service.Name,
		DurationMinutes:    b.Service.DurationMinutes,
		PriceCents:         b.Service.PriceCents,
		ScheduledAt:        b.ScheduledAt,
		EndsAt:             b.ScheduledAt.Add(time.Duration(b.Service.DurationMinutes) * time.Minute),
		Status:             "pending",
		ConfirmationNumber: "APT-MK4T-R2D9",
		CreatedAt:          b.Now,
		UpdatedAt:          b.Now,
	}
	if b.CustomerNote != "" {
		note := b.CustomerNote
		view.CustomerNote = &note
	}
	return view
}

// Fluent builder methods
func (b *AppointmentBuilder) WithServiceID(id uuid.UUID) *AppointmentBuilder {
	b.Service.ID = id
	return b
}

func (b *AppointmentBuilder) WithDurationMinutes(minutes int32) *AppointmentBuilder {
	b.Service.DurationMinutes = minutes
	return b
}

func (b *AppointmentBuilder) WithPriceCents(cents int32) *AppointmentBuilder {
	b.Service.PriceCents = cents
	return b
}

func (b *AppointmentBuilder) RequiringVehicle() *AppointmentBuilder {
	b.Service.RequiresVehicle = true
	return b
}

func (b *AppointmentBuilder) WithVehicle(id uuid.UUID) *AppointmentBuilder {
	b.VehicleID = &id
	return b
}

func (b *AppointmentBuilder) WithScheduledAt(t time.Time) *AppointmentBuilder {
	b.ScheduledAt = t
	return b
}

func (b *AppointmentBuilder) WithNote(note string) *AppointmentBuilder {
	b.CustomerNote = note
	return b
}
