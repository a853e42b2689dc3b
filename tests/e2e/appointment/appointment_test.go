//go:build e2e

package appointment_test

import (
	"context"
	"fmt"
	"net/http"
	nethttptest "net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"garage-booking/internal/domain/user"
	"garage-booking/internal/handler/dto/request"
	"garage-booking/internal/handler/dto/response"
	"garage-booking/internal/usecase/queries"
	"garage-booking/tests/common/authtest"
	"garage-booking/tests/common/builder"
	"garage-booking/tests/common/dbtest"
	"garage-booking/tests/common/httptest"
	"garage-booking/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	appointmentsURL      = "/api/appointments"
	appointmentDetailURL = "/api/appointments/%s"
	paymentIntentURL     = "/api/appointments/%s/payment-intent"
	confirmPaymentURL    = "/api/appointments/%s/confirm-payment"
	cancelURL            = "/api/appointments/%s/cancel"
	startURL             = "/api/appointments/%s/start"
	completeURL          = "/api/appointments/%s/complete"
	noShowURL            = "/api/appointments/%s/no-show"
)

type AppointmentSuite struct {
	e2e.SharedSuite
	customerID     uuid.UUID
	vehicleID      uuid.UUID
	customerToken  string
	oilChangeID    uuid.UUID
	consultationID uuid.UUID
}

func TestAppointmentSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(AppointmentSuite))
}

func (s *AppointmentSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()

	t := s.T()
	s.customerID = dbtest.CreateTestUser(t, s.DB, "customer@example.com", string(user.RoleCustomer))
	s.vehicleID = dbtest.CreateTestVehicle(t, s.DB, s.customerID, "TEST-001")
	s.customerToken = authtest.LoginUser(t, s.Router, "customer@example.com", "password123")
	s.oilChangeID = dbtest.GetServiceID(t, s.DB, "Oil Change")
	s.consultationID = dbtest.GetServiceID(t, s.DB, "Estimate Consultation")
}

// nextOpenDay returns midnight UTC of a day at least two days out on which
// the shop is open. That distance keeps the lead-time and cancellation-cutoff
// rules away from tests that only care about slot placement.
func nextOpenDay() time.Time {
	day := time.Now().UTC().AddDate(0, 0, 2)
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	for day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// nextClosedDay returns midnight UTC of the next Sunday at least two days out.
func nextClosedDay() time.Time {
	day := time.Now().UTC().AddDate(0, 0, 2)
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	for day.Weekday() != time.Sunday {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

func slotAt(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
}

func (s *AppointmentSuite) oilChangeAt(at time.Time) request.CreateAppointmentRequest {
	return builder.NewAppointmentBuilder().
		WithServiceID(s.oilChangeID).
		WithVehicle(s.vehicleID).
		WithScheduledAt(at).
		BuildDTO()
}

// book submits a booking with a fresh idempotency key.
func (s *AppointmentSuite) book(token string, body request.CreateAppointmentRequest) *nethttptest.ResponseRecorder {
	s.T().Helper()
	return s.bookWithKey(token, body, uuid.New())
}

func (s *AppointmentSuite) bookWithKey(token string, body request.CreateAppointmentRequest, key uuid.UUID) *nethttptest.ResponseRecorder {
	s.T().Helper()
	return httptest.PerformRequestWithHeaders(s.T(), s.Router, http.MethodPost, appointmentsURL, body,
		map[string]string{"Idempotency-Key": key.String()}, token)
}

// mustBook books a slot and requires success, returning the created view.
func (s *AppointmentSuite) mustBook(token string, body request.CreateAppointmentRequest) *queries.AppointmentView {
	t := s.T()
	t.Helper()

	w := s.book(token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res response.BookAppointmentResponse
	require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &res))
	require.NotNil(t, res.Appointment)
	return res.Appointment
}

// mustConfirm walks a pending hold through payment intent and confirmation.
func (s *AppointmentSuite) mustConfirm(token string, id uuid.UUID) *queries.AppointmentView {
	t := s.T()
	t.Helper()

	iw := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(paymentIntentURL, id), nil, token)
	require.Equal(t, http.StatusCreated, iw.Code, iw.Body.String())

	cw := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(confirmPaymentURL, id), nil, token)
	require.Equal(t, http.StatusOK, cw.Code, cw.Body.String())

	var view queries.AppointmentView
	require.NoError(t, httptest.DecodeResponseBody(t, cw.Body, &view))
	return &view
}

func (s *AppointmentSuite) getAppointment(token string, id uuid.UUID) *queries.AppointmentView {
	t := s.T()
	t.Helper()

	w := httptest.PerformRequest(t, s.Router, http.MethodGet, fmt.Sprintf(appointmentDetailURL, id), nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var view queries.AppointmentView
	require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &view))
	return &view
}

// =============================================================================
// TestBook - Booking API tests
// =============================================================================

func (s *AppointmentSuite) TestBook() {
	s.Run("Normal case: booking a free slot creates a pending hold", func() {
		t := s.T()

		at := slotAt(nextOpenDay(), 9, 0)
		w := s.book(s.customerToken, s.oilChangeAt(at))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var created response.BookAppointmentResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))
		require.False(t, created.IsReplayed)
		require.NotNil(t, created.Appointment)

		appt := created.Appointment
		require.Equal(t, "pending", appt.Status)
		require.Equal(t, s.customerID, appt.CustomerID)
		require.Equal(t, "Oil Change", appt.ServiceName)
		require.Equal(t, int32(60), appt.DurationMinutes)
		require.Equal(t, int32(4999), appt.PriceCents)
		require.True(t, appt.ScheduledAt.Equal(at), "scheduled_at should be the requested slot")
		require.True(t, appt.EndsAt.Equal(at.Add(60*time.Minute)))
		require.Regexp(t, `^APT-[A-HJKMNP-Z2-9]{4}-[A-HJKMNP-Z2-9]{4}$`, appt.ConfirmationNumber)
		require.Nil(t, appt.PaidAt)

		fetched := s.getAppointment(s.customerToken, appt.ID)
		if diff := cmp.Diff(appt, fetched); diff != "" {
			t.Errorf("Appointment view mismatch (-booked +fetched):\n%s", diff)
		}
	})

	s.Run("Normal case: a service without vehicle requirement books vehicle-free", func() {
		t := s.T()

		body := builder.NewAppointmentBuilder().
			WithServiceID(s.consultationID).
			WithScheduledAt(slotAt(nextOpenDay(), 10, 0)).
			BuildDTO()

		w := s.book(s.customerToken, body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var created response.BookAppointmentResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &created))
		require.Nil(t, created.Appointment.VehicleID)
		require.Equal(t, int32(30), created.Appointment.DurationMinutes)
		require.Equal(t, int32(0), created.Appointment.PriceCents)
	})

	s.Run("Error case: vehicle-required service rejects a vehicle-free booking", func() {
		t := s.T()

		body := builder.NewAppointmentBuilder().
			WithServiceID(s.oilChangeID).
			WithScheduledAt(slotAt(nextOpenDay(), 9, 0)).
			BuildDTO()

		w := s.book(s.customerToken, body)
		httptest.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, "requires a vehicle")
	})

	s.Run("Error case: booking with another customer's vehicle", func() {
		t := s.T()

		otherID := dbtest.CreateTestUser(t, s.DB, "other@example.com", string(user.RoleCustomer))
		otherVehicleID := dbtest.CreateTestVehicle(t, s.DB, otherID, "OTHER-01")

		body := builder.NewAppointmentBuilder().
			WithServiceID(s.oilChangeID).
			WithVehicle(otherVehicleID).
			WithScheduledAt(slotAt(nextOpenDay(), 9, 0)).
			BuildDTO()

		w := s.book(s.customerToken, body)
		require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	})

	s.Run("Error case: unknown and retired services are not bookable", func() {
		t := s.T()

		at := slotAt(nextOpenDay(), 9, 0)

		unknown := builder.NewAppointmentBuilder().
			WithServiceID(uuid.New()).
			WithVehicle(s.vehicleID).
			WithScheduledAt(at).
			BuildDTO()
		w := s.book(s.customerToken, unknown)
		require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

		retiredID := dbtest.GetServiceID(t, s.DB, "Engine Overhaul")
		retired := builder.NewAppointmentBuilder().
			WithServiceID(retiredID).
			WithVehicle(s.vehicleID).
			WithScheduledAt(at).
			BuildDTO()
		w = s.book(s.customerToken, retired)
		require.Equal(t, http.StatusNotFound, w.Code, "a deactivated service should look like a missing one")
	})

	s.Run("Error case: slots outside the operating grid", func() {
		t := s.T()

		day := nextOpenDay()
		cases := []struct {
			name string
			at   time.Time
		}{
			{"misaligned start", slotAt(day, 9, 15)},
			{"before opening", slotAt(day, 7, 30)},
			{"would run past closing", slotAt(day, 16, 30)},
			{"closed day", slotAt(nextClosedDay(), 10, 0)},
		}

		for _, tc := range cases {
			w := s.book(s.customerToken, s.oilChangeAt(tc.at))
			require.Equalf(t, http.StatusUnprocessableEntity, w.Code, "%s: %s", tc.name, w.Body.String())
		}
	})

	s.Run("Error case: dates outside the booking horizon", func() {
		t := s.T()

		past := slotAt(time.Now().UTC().AddDate(0, 0, -7), 9, 0)
		w := s.book(s.customerToken, s.oilChangeAt(past))
		httptest.AssertErrorResponse(t, w, http.StatusBadRequest, "not bookable")

		farOut := slotAt(time.Now().UTC().AddDate(0, 0, 120), 9, 0)
		w = s.book(s.customerToken, s.oilChangeAt(farOut))
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	})

	s.Run("Error case: a taken slot cannot be booked twice", func() {
		t := s.T()

		day := nextOpenDay()
		at := slotAt(day, 11, 0)
		s.mustBook(s.customerToken, s.oilChangeAt(at))

		rivalID := dbtest.CreateTestUser(t, s.DB, "rival@example.com", string(user.RoleCustomer))
		rivalVehicleID := dbtest.CreateTestVehicle(t, s.DB, rivalID, "RIVAL-01")
		rivalToken := authtest.LoginUser(t, s.Router, "rival@example.com", "password123")

		same := builder.NewAppointmentBuilder().
			WithServiceID(s.oilChangeID).
			WithVehicle(rivalVehicleID).
			WithScheduledAt(at).
			BuildDTO()
		w := s.book(rivalToken, same)
		httptest.AssertErrorResponse(t, w, http.StatusConflict, "no longer available")

		// A partial overlap conflicts just as much as the identical slot
		overlapping := builder.NewAppointmentBuilder().
			WithServiceID(s.oilChangeID).
			WithVehicle(rivalVehicleID).
			WithScheduledAt(slotAt(day, 10, 30)).
			BuildDTO()
		w = s.book(rivalToken, overlapping)
		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	})

	s.Run("Normal case: back-to-back slots do not conflict", func() {
		t := s.T()

		day := nextOpenDay()
		s.mustBook(s.customerToken, s.oilChangeAt(slotAt(day, 9, 0)))

		neighborID := dbtest.CreateTestUser(t, s.DB, "neighbor@example.com", string(user.RoleCustomer))
		neighborVehicleID := dbtest.CreateTestVehicle(t, s.DB, neighborID, "NEXT-001")
		neighborToken := authtest.LoginUser(t, s.Router, "neighbor@example.com", "password123")

		before := builder.NewAppointmentBuilder().
			WithServiceID(s.oilChangeID).
			WithVehicle(neighborVehicleID).
			WithScheduledAt(slotAt(day, 8, 0)).
			BuildDTO()
		w := s.book(neighborToken, before)
		require.Equal(t, http.StatusCreated, w.Code, "a slot ending exactly at the hold's start stays free")

		after := builder.NewAppointmentBuilder().
			WithServiceID(s.oilChangeID).
			WithVehicle(neighborVehicleID).
			WithScheduledAt(slotAt(day, 10, 0)).
			BuildDTO()
		w = s.book(neighborToken, after)
		require.Equal(t, http.StatusCreated, w.Code, "a slot starting exactly at the hold's end stays free")
	})

	s.Run("Normal case: catalog edits do not touch booked snapshots", func() {
		t := s.T()

		appt := s.mustBook(s.customerToken, s.oilChangeAt(slotAt(nextOpenDay(), 9, 0)))

		dbtest.UpdateServiceCatalog(t, s.DB, s.oilChangeID, "Premium Oil Change", 90, 7999)

		fetched := s.getAppointment(s.customerToken, appt.ID)
		require.Equal(t, "Oil Change", fetched.ServiceName)
		require.Equal(t, int32(60), fetched.DurationMinutes)
		require.Equal(t, int32(4999), fetched.PriceCents)
		require.True(t, fetched.EndsAt.Equal(appt.EndsAt))
	})

	s.Run("Error case: missing or malformed Idempotency-Key header", func() {
		t := s.T()

		body := s.oilChangeAt(slotAt(nextOpenDay(), 9, 0))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, appointmentsURL, body, s.customerToken)
		httptest.AssertErrorResponse(t, w, http.StatusBadRequest, "idempotency key required")

		w = httptest.PerformRequestWithHeaders(t, s.Router, http.MethodPost, appointmentsURL, body,
			map[string]string{"Idempotency-Key": "not-a-uuid"}, s.customerToken)
		httptest.AssertErrorResponse(t, w, http.StatusBadRequest, "invalid idempotency key format")
	})

	s.Run("Auth test - Unauthorized when not logged in", func() {
		t := s.T()

		w := s.book("", s.oilChangeAt(slotAt(nextOpenDay(), 9, 0)))
		require.Equal(t, http.StatusUnauthorized, w.Code, "Should reject unauthorized access")
	})
}

// =============================================================================
// TestIdempotency - Idempotency-Key behavior over the booking endpoint
// =============================================================================

func (s *AppointmentSuite) TestIdempotency() {
	s.Run("Normal case: replaying the same key returns the original booking", func() {
		t := s.T()

		key := uuid.New()
		body := s.oilChangeAt(slotAt(nextOpenDay(), 9, 0))

		w1 := s.bookWithKey(s.customerToken, body, key)
		require.Equal(t, http.StatusCreated, w1.Code, w1.Body.String())
		var first response.BookAppointmentResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w1.Body, &first))
		require.False(t, first.IsReplayed)

		w2 := s.bookWithKey(s.customerToken, body, key)
		require.Equal(t, http.StatusOK, w2.Code, "a replay responds 200, not 201")
		var second response.BookAppointmentResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w2.Body, &second))
		require.True(t, second.IsReplayed)
		require.Equal(t, first.Appointment.ID, second.Appointment.ID)

		var count int
		require.NoError(t, s.DB.QueryRow(context.Background(),
			"SELECT COUNT(*) FROM appointments").Scan(&count))
		require.Equal(t, 1, count, "the retry must not create a second row")
	})

	s.Run("Error case: same key with a different payload", func() {
		t := s.T()

		key := uuid.New()
		day := nextOpenDay()

		w1 := s.bookWithKey(s.customerToken, s.oilChangeAt(slotAt(day, 9, 0)), key)
		require.Equal(t, http.StatusCreated, w1.Code, w1.Body.String())

		w2 := s.bookWithKey(s.customerToken, s.oilChangeAt(slotAt(day, 13, 0)), key)
		httptest.AssertErrorResponse(t, w2, http.StatusConflict, "Duplicate request")
	})

	s.Run("Normal case: a failed booking does not burn the key", func() {
		t := s.T()

		day := nextOpenDay()
		s.mustBook(s.customerToken, s.oilChangeAt(slotAt(day, 9, 0)))

		key := uuid.New()
		w := s.bookWithKey(s.customerToken, s.oilChangeAt(slotAt(day, 9, 30)), key)
		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

		// The conflict rolled the claim back, so the same key can retry
		// against a free slot.
		w = s.bookWithKey(s.customerToken, s.oilChangeAt(slotAt(day, 14, 0)), key)
		require.Equal(t, http.StatusCreated, w.Code, "a rolled-back attempt must not poison the key")
	})
}

// =============================================================================
// TestConcurrentBooking - Racing bookings for a single slot
// =============================================================================

func (s *AppointmentSuite) TestConcurrentBooking() {
	s.Run("Normal case: parallel requests for one slot produce exactly one hold", func() {
		t := s.T()

		body := s.oilChangeAt(slotAt(nextOpenDay(), 10, 0))

		const attempts = 50
		codes := make(chan int, attempts)

		var wg sync.WaitGroup
		for range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := s.bookWithKey(s.customerToken, body, uuid.New())
				codes <- w.Code
			}()
		}
		wg.Wait()
		close(codes)

		var created, conflicted, unexpected int
		for code := range codes {
			switch code {
			case http.StatusCreated:
				created++
			case http.StatusConflict:
				conflicted++
			default:
				unexpected++
			}
		}

		require.Equal(t, 1, created, "exactly one request may win the slot")
		require.Equal(t, attempts-1, conflicted)
		require.Zero(t, unexpected, "bookings either win or conflict, nothing else")

		var count int
		require.NoError(t, s.DB.QueryRow(context.Background(),
			"SELECT COUNT(*) FROM appointments WHERE status <> 'cancelled'").Scan(&count))
		require.Equal(t, 1, count, "the database holds a single live appointment")
	})
}

// =============================================================================
// TestPaymentFlow - Payment intent and confirmation API tests
// =============================================================================

func (s *AppointmentSuite) TestPaymentFlow() {
	s.Run("Normal case: intent then confirmation promotes the hold", func() {
		t := s.T()

		appt := s.mustBook(s.customerToken, s.oilChangeAt(slotAt(nextOpenDay(), 9, 0)))

		iw := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(paymentIntentURL, appt.ID), nil, s.customerToken)
		require.Equal(t, http.StatusCreated, iw.Code, iw.Body.String())

		var intent response.PaymentIntentResponse
		require.NoError(t, httptest.DecodeResponseBody(t, iw.Body, &intent))
		require.NotEmpty(t, intent.IntentID)
		require.Equal(t, intent.IntentID+"_secret", intent.ClientSecret)

		cw := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(confirmPaymentURL, appt.ID), nil, s.customerToken)
		require.Equal(t, http.StatusOK, cw.Code, cw.Body.String())

		var confirmed queries.AppointmentView
		require.NoError(t, httptest.DecodeResponseBody(t, cw.Body, &confirmed))
		require.Equal(t, "confirmed", confirmed.Status)
		require.NotNil(t, confirmed.PaidAt)
		require.NotNil(t, confirmed.PaymentIntentID)
		require.Equal(t, intent.IntentID, *confirmed.PaymentIntentID)
	})

	s.Run("Error case: confirming with no intent attached", func() {
		t := s.T()

		appt := s.mustBook(s.customerToken, s.oilChangeAt(slotAt(nextOpenDay(), 9, 0)))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(confirmPaymentURL, appt.ID), nil, s.customerToken)
		httptest.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, "No payment intent")
	})

	s.Run("Error case: a confirmed appointment cannot open another intent", func() {
		t := s.T()

		appt := s.mustBook(s.customerToken, s.oilChangeAt(slotAt(nextOpenDay(), 9, 0)))
		s.mustConfirm(s.customerToken, appt.ID)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(paymentIntentURL, appt.ID), nil, s.customerToken)
		httptest.AssertErrorResponse(t, w, http.StatusConflict, "Invalid status transition")
	})

	s.Run("Error case: only the owner may take the appointment to payment", func() {
		t := s.T()

		appt := s.mustBook(s.customerToken, s.oilChangeAt(slotAt(nextOpenDay(), 9, 0)))

		intruderToken := authtest.CreateAndLogin(t, s.DB, s.Router, "intruder@example.com", string(user.RoleCustomer))
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(paymentIntentURL, appt.ID), nil, intruderToken)
		require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	})

	s.Run("Normal case: paying first wins the slot and cancels the losing hold", func() {
		t := s.T()

		at := slotAt(nextOpenDay(), 11, 0)
		winner := s.mustBook(s.customerToken, s.oilChangeAt(at))

		// A second pending hold on the same slot cannot arise through the
		// API because bookings on one day are serialized, so stage the
		// loser directly.
		loserCustomerID := dbtest.CreateTestUser(t, s.DB, "loser@example.com", string(user.RoleCustomer))
		loserApptID := dbtest.CreateTestAppointment(t, s.DB, loserCustomerID, s.oilChangeID, at, 60, "pending")
		loserToken := authtest.LoginUser(t, s.Router, "loser@example.com", "password123")

		s.mustConfirm(s.customerToken, winner.ID)

		iw := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(paymentIntentURL, loserApptID), nil, loserToken)
		require.Equal(t, http.StatusCreated, iw.Code, "the losing hold is still pending, so an intent opens fine")

		cw := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(confirmPaymentURL, loserApptID), nil, loserToken)
		httptest.AssertErrorResponse(t, cw, http.StatusConflict, "taken by a confirmed appointment")

		losing := s.getAppointment(loserToken, loserApptID)
		require.Equal(t, "cancelled", losing.Status, "losing the payment race cancels the hold")
		require.NotNil(t, losing.CancelledAt)

		winning := s.getAppointment(s.customerToken, winner.ID)
		require.Equal(t, "confirmed", winning.Status, "the winner keeps the slot")
	})
}

// =============================================================================
// TestCancellation - Cancellation API tests
// =============================================================================

func (s *AppointmentSuite) TestCancellation() {
	s.Run("Normal case: cancelling ahead of the cutoff frees the slot", func() {
		t := s.T()

		at := slotAt(nextOpenDay(), 9, 0)
		appt := s.mustBook(s.customerToken, s.oilChangeAt(at))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(cancelURL, appt.ID), nil, s.customerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var cancelled queries.AppointmentView
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &cancelled))
		require.Equal(t, "cancelled", cancelled.Status)
		require.NotNil(t, cancelled.CancelledAt)

		// The freed slot is immediately bookable by someone else
		walkinID := dbtest.CreateTestUser(t, s.DB, "walkin@example.com", string(user.RoleCustomer))
		walkinVehicleID := dbtest.CreateTestVehicle(t, s.DB, walkinID, "WALK-001")
		walkinToken := authtest.LoginUser(t, s.Router, "walkin@example.com", "password123")

		rebook := builder.NewAppointmentBuilder().
			WithServiceID(s.oilChangeID).
			WithVehicle(walkinVehicleID).
			WithScheduledAt(at).
			BuildDTO()
		rw := s.book(walkinToken, rebook)
		require.Equal(t, http.StatusCreated, rw.Code, "cancellation should free the slot")
	})

	s.Run("Normal case: cancelling twice is a no-op", func() {
		t := s.T()

		appt := s.mustBook(s.customerToken, s.oilChangeAt(slotAt(nextOpenDay(), 9, 0)))

		w1 := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(cancelURL, appt.ID), nil, s.customerToken)
		require.Equal(t, http.StatusOK, w1.Code, w1.Body.String())
		var first queries.AppointmentView
		require.NoError(t, httptest.DecodeResponseBody(t, w1.Body, &first))

		w2 := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(cancelURL, appt.ID), nil, s.customerToken)
		require.Equal(t, http.StatusOK, w2.Code, "repeating a cancel stays a success")
		var second queries.AppointmentView
		require.NoError(t, httptest.DecodeResponseBody(t, w2.Body, &second))
		require.Equal(t, "cancelled", second.Status)
		require.NotNil(t, second.CancelledAt)
		require.True(t, first.CancelledAt.Equal(*second.CancelledAt), "a repeated cancel must not re-stamp the timestamp")
	})

	s.Run("Error case: customers cannot cancel inside the cutoff window", func() {
		t := s.T()

		// The API cannot create an appointment this close to its start, so
		// stage the row directly.
		apptID := dbtest.CreateTestAppointment(t, s.DB, s.customerID, s.oilChangeID,
			time.Now().UTC().Add(time.Hour), 60, "pending")

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(cancelURL, apptID), nil, s.customerToken)
		httptest.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, "Cancellation window")
	})

	s.Run("Normal case: staff bypass the cancellation cutoff", func() {
		t := s.T()

		apptID := dbtest.CreateTestAppointment(t, s.DB, s.customerID, s.oilChangeID,
			time.Now().UTC().Add(time.Hour), 60, "pending")

		staffToken := authtest.CreateAndLogin(t, s.DB, s.Router, "staff@example.com", string(user.RoleStaff))
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(cancelURL, apptID), nil, staffToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var cancelled queries.AppointmentView
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &cancelled))
		require.Equal(t, "cancelled", cancelled.Status)
	})

	s.Run("Error case: another customer cannot cancel someone's booking", func() {
		t := s.T()

		appt := s.mustBook(s.customerToken, s.oilChangeAt(slotAt(nextOpenDay(), 9, 0)))

		intruderToken := authtest.CreateAndLogin(t, s.DB, s.Router, "intruder@example.com", string(user.RoleCustomer))
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(cancelURL, appt.ID), nil, intruderToken)
		require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	})
}

// =============================================================================
// TestLifecycle - Staff lifecycle transition API tests
// =============================================================================

func (s *AppointmentSuite) TestLifecycle() {
	s.Run("Normal case: a confirmed visit runs through start and complete", func() {
		t := s.T()

		appt := s.mustBook(s.customerToken, s.oilChangeAt(slotAt(nextOpenDay(), 9, 0)))
		s.mustConfirm(s.customerToken, appt.ID)

		staffToken := authtest.CreateAndLogin(t, s.DB, s.Router, "staff@example.com", string(user.RoleStaff))

		sw := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(startURL, appt.ID), nil, staffToken)
		require.Equal(t, http.StatusOK, sw.Code, sw.Body.String())
		var started queries.AppointmentView
		require.NoError(t, httptest.DecodeResponseBody(t, sw.Body, &started))
		require.Equal(t, "in_progress", started.Status)

		cw := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(completeURL, appt.ID), nil, staffToken)
		require.Equal(t, http.StatusOK, cw.Code, cw.Body.String())
		var completed queries.AppointmentView
		require.NoError(t, httptest.DecodeResponseBody(t, cw.Body, &completed))
		require.Equal(t, "completed", completed.Status)
	})

	s.Run("Error case: lifecycle endpoints are staff-only", func() {
		t := s.T()

		appt := s.mustBook(s.customerToken, s.oilChangeAt(slotAt(nextOpenDay(), 9, 0)))

		for _, urlFmt := range []string{startURL, completeURL, noShowURL} {
			w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(urlFmt, appt.ID), nil, s.customerToken)
			require.Equalf(t, http.StatusForbidden, w.Code, "%s should be staff-only", urlFmt)
		}
	})

	s.Run("Error case: an unpaid hold cannot be started", func() {
		t := s.T()

		appt := s.mustBook(s.customerToken, s.oilChangeAt(slotAt(nextOpenDay(), 9, 0)))

		staffToken := authtest.CreateAndLogin(t, s.DB, s.Router, "staff@example.com", string(user.RoleStaff))
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(startURL, appt.ID), nil, staffToken)
		httptest.AssertErrorResponse(t, w, http.StatusConflict, "Invalid status transition")
	})

	s.Run("Error case: future appointments cannot be marked no-show", func() {
		t := s.T()

		appt := s.mustBook(s.customerToken, s.oilChangeAt(slotAt(nextOpenDay(), 9, 0)))
		s.mustConfirm(s.customerToken, appt.ID)

		staffToken := authtest.CreateAndLogin(t, s.DB, s.Router, "staff@example.com", string(user.RoleStaff))
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(noShowURL, appt.ID), nil, staffToken)
		require.Equal(t, http.StatusConflict, w.Code, "no-show needs the start time to have passed")
	})

	s.Run("Normal case: a missed confirmed visit can be marked no-show", func() {
		t := s.T()

		apptID := dbtest.CreateTestAppointment(t, s.DB, s.customerID, s.oilChangeID,
			time.Now().UTC().Add(-2*time.Hour), 60, "confirmed")

		staffToken := authtest.CreateAndLogin(t, s.DB, s.Router, "staff@example.com", string(user.RoleStaff))
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(noShowURL, apptID), nil, staffToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var view queries.AppointmentView
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &view))
		require.Equal(t, "no_show", view.Status)
	})

	s.Run("Error case: terminal states reject further transitions", func() {
		t := s.T()

		apptID := dbtest.CreateTestAppointment(t, s.DB, s.customerID, s.oilChangeID,
			time.Now().UTC().Add(-3*time.Hour), 60, "completed")

		staffToken := authtest.CreateAndLogin(t, s.DB, s.Router, "staff@example.com", string(user.RoleStaff))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(completeURL, apptID), nil, staffToken)
		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(startURL, apptID), nil, staffToken)
		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	})
}

// =============================================================================
// TestListing - Appointment list API tests
// =============================================================================

func (s *AppointmentSuite) TestListing() {
	s.Run("Normal case: customers see only their own appointments", func() {
		t := s.T()

		day := nextOpenDay()
		mine1 := s.mustBook(s.customerToken, s.oilChangeAt(slotAt(day, 9, 0)))
		mine2 := s.mustBook(s.customerToken, s.oilChangeAt(slotAt(day, 13, 0)))

		otherID := dbtest.CreateTestUser(t, s.DB, "other@example.com", string(user.RoleCustomer))
		otherVehicleID := dbtest.CreateTestVehicle(t, s.DB, otherID, "OTHER-01")
		otherToken := authtest.LoginUser(t, s.Router, "other@example.com", "password123")
		theirs := s.mustBook(otherToken, builder.NewAppointmentBuilder().
			WithServiceID(s.oilChangeID).
			WithVehicle(otherVehicleID).
			WithScheduledAt(slotAt(day, 11, 0)).
			BuildDTO())

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, appointmentsURL, nil, s.customerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var mineList response.AppointmentListResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &mineList))
		require.Len(t, mineList.Appointments, 2)
		ids := []uuid.UUID{mineList.Appointments[0].ID, mineList.Appointments[1].ID}
		require.ElementsMatch(t, []uuid.UUID{mine1.ID, mine2.ID}, ids)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, appointmentsURL, nil, otherToken)
		require.Equal(t, http.StatusOK, w.Code)
		var theirList response.AppointmentListResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &theirList))
		require.Len(t, theirList.Appointments, 1)
		require.Equal(t, theirs.ID, theirList.Appointments[0].ID)
	})

	s.Run("Normal case: staff see every customer's appointments", func() {
		t := s.T()

		day := nextOpenDay()
		s.mustBook(s.customerToken, s.oilChangeAt(slotAt(day, 9, 0)))

		otherID := dbtest.CreateTestUser(t, s.DB, "other@example.com", string(user.RoleCustomer))
		otherVehicleID := dbtest.CreateTestVehicle(t, s.DB, otherID, "OTHER-01")
		otherToken := authtest.LoginUser(t, s.Router, "other@example.com", "password123")
		s.mustBook(otherToken, builder.NewAppointmentBuilder().
			WithServiceID(s.oilChangeID).
			WithVehicle(otherVehicleID).
			WithScheduledAt(slotAt(day, 11, 0)).
			BuildDTO())

		staffToken := authtest.CreateAndLogin(t, s.DB, s.Router, "staff@example.com", string(user.RoleStaff))
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, appointmentsURL, nil, staffToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var list response.AppointmentListResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &list))
		require.Len(t, list.Appointments, 2, "staff should see appointments across customers")
	})

	s.Run("Normal case: filtering by status", func() {
		t := s.T()

		day := nextOpenDay()
		kept := s.mustBook(s.customerToken, s.oilChangeAt(slotAt(day, 9, 0)))
		dropped := s.mustBook(s.customerToken, s.oilChangeAt(slotAt(day, 13, 0)))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(cancelURL, dropped.ID), nil, s.customerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, appointmentsURL+"?status=cancelled", nil, s.customerToken)
		require.Equal(t, http.StatusOK, w.Code)
		var cancelledList response.AppointmentListResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &cancelledList))
		require.Len(t, cancelledList.Appointments, 1)
		require.Equal(t, dropped.ID, cancelledList.Appointments[0].ID)
		require.Equal(t, "cancelled", cancelledList.Appointments[0].Status)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, appointmentsURL+"?status=pending", nil, s.customerToken)
		require.Equal(t, http.StatusOK, w.Code)
		var pendingList response.AppointmentListResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &pendingList))
		require.Len(t, pendingList.Appointments, 1)
		require.Equal(t, kept.ID, pendingList.Appointments[0].ID)
	})

	s.Run("Normal case: keyset pagination walks the whole set", func() {
		t := s.T()

		day := nextOpenDay()
		booked := map[uuid.UUID]bool{
			s.mustBook(s.customerToken, s.oilChangeAt(slotAt(day, 9, 0))).ID:  true,
			s.mustBook(s.customerToken, s.oilChangeAt(slotAt(day, 11, 0))).ID: true,
			s.mustBook(s.customerToken, s.oilChangeAt(slotAt(day, 13, 0))).ID: true,
		}

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, appointmentsURL+"?limit=2", nil, s.customerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var page1 response.AppointmentListResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &page1))
		require.Len(t, page1.Appointments, 2)
		require.NotNil(t, page1.NextCursor, "a full page should carry a cursor")

		w = httptest.PerformRequest(t, s.Router, http.MethodGet,
			appointmentsURL+"?limit=2&cursor="+url.QueryEscape(*page1.NextCursor), nil, s.customerToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var page2 response.AppointmentListResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &page2))
		require.Len(t, page2.Appointments, 1)
		require.Nil(t, page2.NextCursor, "the last page carries no cursor")

		seen := map[uuid.UUID]bool{}
		for _, item := range append(page1.Appointments, page2.Appointments...) {
			require.False(t, seen[item.ID], "pages must not overlap")
			require.True(t, booked[item.ID], "pages must only contain booked appointments")
			seen[item.ID] = true
		}
		require.Len(t, seen, 3)
	})

	s.Run("Error case: a malformed cursor is rejected", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, appointmentsURL+"?cursor=garbage", nil, s.customerToken)
		httptest.AssertErrorResponse(t, w, http.StatusBadRequest, "Invalid cursor")
	})
}
