package shared

import (
	"context"
	"time"

	"garage-booking/internal/domain/appointment"
	"garage-booking/internal/infra/db"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithinReadOnly: Read-only transaction for multi-table consistent reads
	WithinReadOnly(ctx context.Context, fn func(ctx context.Context, db db.DBTX) error) error
	// WithDB: Single query operations using implicit transactions
	WithDB(ctx context.Context, fn func(ctx context.Context, db db.DBTX) error) error
	// CommandReads: Direct access to command reads for validation outside transactions
	CommandReads() CommandReads
}

type Tx interface {
	Appointments() AppointmentRepository
	Idempotency() IdempotencyRepository
	Users() UserRepository
	Reads() CommandReads
	DB() db.DBTX
}

type CommandReads interface {
	ServiceByID(ctx context.Context, id uuid.UUID) (*ServiceSnapshot, error)
	VehicleByID(ctx context.Context, id uuid.UUID) (*VehicleSnapshot, error)
	HoursForWeekday(ctx context.Context, weekday int) (*DayHours, error)
	UserByEmail(ctx context.Context, email string) (*AuthorizedUser, error)
	UserByID(ctx context.Context, id uuid.UUID) (*AuthorizedUser, error)
	IdempotencyByKey(ctx context.Context, key, userID uuid.UUID) (*IdempotencyRecord, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, tx db.DBTX, appt *appointment.Appointment) (uuid.UUID, error)
	GetForUpdate(ctx context.Context, tx db.DBTX, id uuid.UUID) (*appointment.Appointment, error)
	Update(ctx context.Context, tx db.DBTX, appt *appointment.Appointment) error
	// LockBookingDay: Advisory lock serializing all bookings that touch the given day
	LockBookingDay(ctx context.Context, tx db.DBTX, day time.Time) error
	ListBlockingBetween(ctx context.Context, tx db.DBTX, from, to time.Time) ([]appointment.TimeSlot, error)
}

type IdempotencyRepository interface {
	// TryInsert reports whether the key was freshly claimed by this request.
	TryInsert(ctx context.Context, tx db.DBTX, key, userID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error)
	UpdateStatusCompleted(ctx context.Context, tx db.DBTX, key, userID uuid.UUID, responseHash string, appointmentID uuid.UUID) error
	ClaimExpiredIdempotencyKey(ctx context.Context, tx db.DBTX, key, userID uuid.UUID, requestHash string, expiresAt time.Time) (int64, error)
}

type UserRepository interface {
	UpdateLastLogin(ctx context.Context, tx db.DBTX, userID uuid.UUID) error
}
