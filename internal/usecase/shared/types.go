package shared

import (
	"time"

	"github.com/google/uuid"
)

type ServiceSnapshot struct {
	ID              uuid.UUID
	Name            string
	DurationMinutes int32
	PriceCents      int32
	RequiresVehicle bool
	Active          bool
}

type VehicleSnapshot struct {
	ID           uuid.UUID
	CustomerID   uuid.UUID
	Make         string
	Model        string
	Year         int32
	LicensePlate string
}

// DayHours is one row of the shop's weekly operating schedule.
// Opens and Closes are offsets from local midnight.
type DayHours struct {
	Weekday     int
	Opens       time.Duration
	Closes      time.Duration
	Granularity time.Duration
}

type AuthorizedUser struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         string
	Name         string
	IsActive     bool
}

type IdempotencyRecord struct {
	Key                 uuid.UUID
	UserID              uuid.UUID
	Status              string
	RequestHash         string
	ResultAppointmentID *uuid.UUID
	ExpiresAt           time.Time
}
