//go:build unit || e2e

package dbtest

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// bcrypt of "password123", precomputed so fixtures skip the hashing cost.
const testPasswordHash = "$2a$12$uhAjVE9f92IGYv3E25pJNetg.27lVt0p7jmLWjqjmhOg92ldPS0A."

func CreateTestUser(t *testing.T, db DBLike, email, role string) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	ctx := context.Background()

	tag, err := db.Exec(ctx, `INSERT INTO users (id, email, password_hash, role, name, phone, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		ON CONFLICT (email) DO NOTHING`,
		userID, email, testPasswordHash, role, "Test "+role, "+1-555-0100")
	require.NoError(t, err)

	if tag.RowsAffected() == 0 {
		_ = db.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&userID)
	}

	return userID
}

func DeactivateUser(t *testing.T, db DBLike, email string) {
	t.Helper()

	_, err := db.Exec(context.Background(), "UPDATE users SET is_active = false WHERE email = $1", email)
	require.NoError(t, err)
}

func CreateTestVehicle(t *testing.T, db DBLike, customerID uuid.UUID, plate string) uuid.UUID {
	t.Helper()

	vehicleID := uuid.New()
	_, err := db.Exec(context.Background(), `INSERT INTO vehicles (id, customer_id, make, model, year, license_plate)
		VALUES ($1, $2, 'Toyota', 'Corolla', 2019, $3)`,
		vehicleID, customerID, plate)
	require.NoError(t, err)

	return vehicleID
}

// CreateTestAppointment inserts an appointment row directly, bypassing the
// booking flow. Tests use it to stage states the API cannot reach on
// demand, like a hold starting within the cancellation cutoff or a
// confirmed visit already in the past. Snapshot columns come from the
// catalog row.
func CreateTestAppointment(t *testing.T, db DBLike, customerID, serviceID uuid.UUID, scheduledAt time.Time, durationMinutes int32, status string) uuid.UUID {
	t.Helper()

	appointmentID := uuid.New()
	endsAt := scheduledAt.Add(time.Duration(durationMinutes) * time.Minute)

	tag, err := db.Exec(context.Background(), `INSERT INTO appointments
		(id, confirmation_number, customer_id, service_id, service_name,
		 scheduled_at, ends_at, duration_minutes, price_cents, status)
		SELECT $1, $2, $3, s.id, s.name, $5, $6, $7, s.price_cents, $8
		FROM services s WHERE s.id = $4`,
		appointmentID, testConfirmationNumber(), customerID, serviceID, scheduledAt, endsAt, durationMinutes, status)
	require.NoError(t, err)
	require.EqualValues(t, 1, tag.RowsAffected(), "service %s not found for appointment fixture", serviceID)

	return appointmentID
}

// testConfirmationNumber builds a code in the same shape the domain
// generates, so rows staged here survive entity rehydration.
func testConfirmationNumber() string {
	const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	chars := make([]byte, 8)
	for i, b := range buf {
		chars[i] = alphabet[int(b)%len(alphabet)]
	}
	return fmt.Sprintf("APT-%s-%s", chars[:4], chars[4:])
}

// UpdateServiceCatalog rewrites a catalog row in place, simulating a
// price-list edit made after bookings were taken against the old values.
func UpdateServiceCatalog(t *testing.T, db DBLike, serviceID uuid.UUID, name string, durationMinutes, priceCents int32) {
	t.Helper()

	tag, err := db.Exec(context.Background(),
		`UPDATE services SET name = $2, duration_minutes = $3, price_cents = $4, updated_at = now() WHERE id = $1`,
		serviceID, name, durationMinutes, priceCents)
	require.NoError(t, err)
	require.EqualValues(t, 1, tag.RowsAffected(), "service %s not found", serviceID)
}

// GetServiceID looks up a catalog service seeded by SeedReferenceData.
func GetServiceID(t *testing.T, db DBLike, name string) uuid.UUID {
	t.Helper()

	var serviceID uuid.UUID
	err := db.QueryRow(context.Background(), "SELECT id FROM services WHERE name = $1", name).Scan(&serviceID)
	require.NoError(t, err, "service %q not seeded", name)

	return serviceID
}

// inserts basic reference data needed by tests
func SeedReferenceData(pool *pgxpool.Pool) error {
	ctx := context.Background()

	// Monday through Saturday 08:00-17:00 on a 30 minute grid. Sunday has
	// no row, which the availability query reads as closed.
	_, err := pool.Exec(ctx, `
		INSERT INTO operating_hours (weekday, opens_at, closes_at, granularity_minutes)
		SELECT d, '08:00'::time, '17:00'::time, 30 FROM generate_series(1, 6) AS d
		ON CONFLICT (weekday) DO NOTHING;
	`)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO services (name, description, duration_minutes, price_cents, requires_vehicle, active) VALUES
		    ('Oil Change', 'Full synthetic oil and filter', 60, 4999, true, true),
		    ('Tire Rotation', NULL, 30, 2999, true, true),
		    ('Estimate Consultation', 'Walk-in damage estimate', 30, 0, false, true),
		    ('Engine Overhaul', 'Retired from the catalog', 240, 99999, true, false)
		ON CONFLICT (name) DO NOTHING;
	`)
	return err
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables and reseeds reference data
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations', 'atlas_schema_revisions')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return SeedReferenceData(pool)
}
