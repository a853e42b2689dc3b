package queries

import (
	"time"

	"github.com/google/uuid"
)

// ServiceView represents read-optimized service catalog data
type ServiceView struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	DurationMinutes int32     `json:"duration_minutes"`
	PriceCents      int32     `json:"price_cents"`
	RequiresVehicle bool      `json:"requires_vehicle"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AppointmentView represents read-optimized appointment data.
// Service name, duration and price are the snapshot taken at booking
// time, not the current catalog values.
type AppointmentView struct {
	ID                 uuid.UUID  `json:"id"`
	CustomerID         uuid.UUID  `json:"customer_id"`
	CustomerEmail      string     `json:"customer_email"`
	CustomerName       string     `json:"customer_name"`
	VehicleID          *uuid.UUID `json:"vehicle_id,omitempty"`
	VehicleMake        *string    `json:"vehicle_make,omitempty"`
	VehicleModel       *string    `json:"vehicle_model,omitempty"`
	VehiclePlate       *string    `json:"vehicle_plate,omitempty"`
	ServiceID          uuid.UUID  `json:"service_id"`
	ServiceName        string     `json:"service_name"`
	DurationMinutes    int32      `json:"duration_minutes"`
	PriceCents         int32      `json:"price_cents"`
	ScheduledAt        time.Time  `json:"scheduled_at"`
	EndsAt             time.Time  `json:"ends_at"`
	Status             string     `json:"status"`
	ConfirmationNumber string     `json:"confirmation_number"`
	CustomerNote       *string    `json:"customer_note,omitempty"`
	InternalNote       *string    `json:"internal_note,omitempty"`
	PaymentIntentID    *string    `json:"payment_intent_id,omitempty"`
	PaidAt             *time.Time `json:"paid_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type AppointmentListItem struct {
	ID                 uuid.UUID `json:"id"`
	ServiceID          uuid.UUID `json:"service_id"`
	ServiceName        string    `json:"service_name"`
	ScheduledAt        time.Time `json:"scheduled_at"`
	DurationMinutes    int32     `json:"duration_minutes"`
	PriceCents         int32     `json:"price_cents"`
	Status             string    `json:"status"`
	ConfirmationNumber string    `json:"confirmation_number"`
	CreatedAt          time.Time `json:"created_at"`
}

// SlotView is one bookable start time in an availability grid. Time is
// the RFC3339 instant; Label is the same start rendered as HH:MM in the
// shop timezone.
type SlotView struct {
	Time      time.Time `json:"time"`
	Label     string    `json:"label"`
	Available bool      `json:"available"`
}

// DayScheduleView is the availability grid for one service on one date
type DayScheduleView struct {
	Date      string     `json:"date"`
	ServiceID uuid.UUID  `json:"service_id"`
	TimeZone  string     `json:"time_zone"`
	Slots     []SlotView `json:"slots"`
}

// AuthorizedUserView represents read-optimized user data with authorization info
type AuthorizedUserView struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	Name     string    `json:"name"`
	Phone    string    `json:"phone,omitempty"`
	IsActive bool      `json:"is_active"`
}
