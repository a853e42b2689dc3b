package response

import (
	"garage-booking/internal/usecase/queries"
)

// Appointment payloads reuse the query views directly; the views already
// carry JSON tags and the booking-time snapshot semantics.

type BookAppointmentResponse struct {
	Appointment *queries.AppointmentView `json:"appointment"`
	IsReplayed  bool                     `json:"is_replayed"`
}

type AppointmentListResponse struct {
	Appointments []*queries.AppointmentListItem `json:"appointments"`
	NextCursor   *string                        `json:"next_cursor,omitempty"`
}

type PaymentIntentResponse struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
}
