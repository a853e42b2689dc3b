package request

import (
	"strings"
	"time"

	"garage-booking/internal/domain/appointment"

	"github.com/google/uuid"
)

type CreateAppointmentRequest struct {
	ServiceID   uuid.UUID  `json:"service_id" binding:"required"`
	VehicleID   *uuid.UUID `json:"vehicle_id,omitempty"`
	ScheduledAt time.Time  `json:"scheduled_at" binding:"required"`
	Note        *string    `json:"note,omitempty"`
}

func (r CreateAppointmentRequest) ToDomain(
	services *appointment.Services,
	spec appointment.ServiceSpec,
	customerID uuid.UUID,
	minLead time.Duration,
) (*appointment.Appointment, error) {
	note := appointment.NewNote("")
	if r.Note != nil {
		note = appointment.NewNote(strings.TrimSpace(*r.Note))
	}

	return appointment.NewAppointment(services, spec, customerID, r.VehicleID, r.ScheduledAt, minLead, note)
}
