package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	reqdto "garage-booking/internal/handler/dto/request"
	resdto "garage-booking/internal/handler/dto/response"
	"garage-booking/internal/handler/httperr"
	"garage-booking/internal/handler/middleware"
	"garage-booking/internal/usecase/commands"
	"garage-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var errIdempotencyKeyRequired = errors.New("idempotency key required")

type AppointmentHandler struct {
	appointmentCommands commands.AppointmentCommands
	appointmentQueries  queries.AppointmentQueries
}

func NewAppointmentHandler(
	appointmentCommands commands.AppointmentCommands,
	appointmentQueries queries.AppointmentQueries,
) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentCommands: appointmentCommands,
		appointmentQueries:  appointmentQueries,
	}
}

// @Summary Book appointment
// @Description Book a service slot; requires an Idempotency-Key header so retries are safe
// @Tags appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key for duplicate prevention"
// @Param request body reqdto.CreateAppointmentRequest true "Booking request"
// @Success 201 {object} resdto.BookAppointmentResponse
// @Success 200 {object} resdto.BookAppointmentResponse "Replayed from a previous identical request"
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /appointments [post]
func (h *AppointmentHandler) Book(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errors.New("user_id missing from context"), "Internal server error", nil)
		return
	}

	idempotencyKey, err := h.getIdempotencyKey(c)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, err.Error(), nil)
		return
	}

	var req reqdto.CreateAppointmentRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	result, err := h.appointmentCommands.Book(c.Request.Context(), userID, req, idempotencyKey)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrServiceNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Service not found", nil)
		case errors.Is(err, commands.ErrVehicleNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Vehicle not found", nil)
		case errors.Is(err, commands.ErrVehicleNotOwned):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Vehicle belongs to another customer", nil)
		case errors.Is(err, commands.ErrVehicleRequired):
			httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "This service requires a vehicle", nil)
		case errors.Is(err, commands.ErrInvalidDate):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Scheduled time is not bookable", nil)
		case errors.Is(err, commands.ErrOutsideOperatingHours):
			httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Slot is outside operating hours", nil)
		case errors.Is(err, commands.ErrSlotConflict):
			httperr.AbortWithError(c, http.StatusConflict, err, "Slot is no longer available", nil)
		case errors.Is(err, commands.ErrDuplicateRequest):
			httperr.AbortWithError(c, http.StatusConflict, err, "Duplicate request with different parameters", nil)
		case errors.Is(err, commands.ErrIdempotencyInProgress):
			httperr.AbortWithError(c, http.StatusConflict, err, "Request is currently being processed", nil)
		case errors.Is(err, commands.ErrDomainValidation):
			httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Domain validation failed", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	status := http.StatusCreated
	if result.IsReplayed {
		status = http.StatusOK
	}
	c.JSON(status, resdto.BookAppointmentResponse{
		Appointment: result.Appointment,
		IsReplayed:  result.IsReplayed,
	})
}

// @Summary Get appointment
// @Description Get appointment by ID; customers only see their own
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} queries.AppointmentView
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) GetByID(c *gin.Context) {
	actorID, role, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	view, err := h.appointmentQueries.GetByID(c.Request.Context(), actorID, role, id)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrAppointmentNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Appointment not found", nil)
		case errors.Is(err, queries.ErrAppointmentAccess):
			httperr.AbortWithError(c, http.StatusForbidden, err, "Access denied", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	c.JSON(http.StatusOK, view)
}

// @Summary List appointments
// @Description List appointments; staff see every customer, customers see their own
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param cursor query string false "Keyset pagination cursor"
// @Param limit query int false "Page size (default 20, max 200)"
// @Success 200 {object} resdto.AppointmentListResponse
// @Failure 400 {object} httperr.Response
// @Router /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	actorID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errors.New("user_id missing from context"), "Internal server error", nil)
		return
	}
	role, _ := middleware.GetUserRole(c)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid limit", nil)
			return
		}
		limit = parsed
	}

	var cursor *queries.Cursor
	if after := c.Query("cursor"); after != "" {
		cursor = &queries.Cursor{After: after}
	}

	filters := queries.AppointmentFilters{Status: c.Query("status")}

	items, next, err := h.appointmentQueries.List(c.Request.Context(), actorID, role.String(), filters, cursor, limit)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrInvalidCursor):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid cursor", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	response := resdto.AppointmentListResponse{Appointments: items}
	if next != nil {
		response.NextCursor = &next.After
	}
	c.JSON(http.StatusOK, response)
}

// @Summary Create payment intent
// @Description Open a payment intent for a pending appointment
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 201 {object} resdto.PaymentIntentResponse
// @Failure 402 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /appointments/{id}/payment-intent [post]
func (h *AppointmentHandler) CreatePaymentIntent(c *gin.Context) {
	actorID, role, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	result, err := h.appointmentCommands.CreatePaymentIntent(c.Request.Context(), actorID, role, id)
	if err != nil {
		h.abortPaymentError(c, id, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.PaymentIntentResponse{
		IntentID:     result.IntentID,
		ClientSecret: result.ClientSecret,
	})
}

// @Summary Confirm payment
// @Description Verify the payment succeeded and promote the hold to confirmed
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} queries.AppointmentView
// @Failure 402 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /appointments/{id}/confirm-payment [post]
func (h *AppointmentHandler) ConfirmPayment(c *gin.Context) {
	actorID, role, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	view, err := h.appointmentCommands.ConfirmPayment(c.Request.Context(), actorID, role, id)
	if err != nil {
		h.abortPaymentError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// @Summary Cancel appointment
// @Description Cancel an appointment; customers are bound to the cancellation cutoff, staff are not
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} queries.AppointmentView
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /appointments/{id}/cancel [post]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	actorID, role, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	view, err := h.appointmentCommands.Cancel(c.Request.Context(), actorID, role, id)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrCancellationWindow):
			httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Cancellation window has passed", nil)
		default:
			h.abortLifecycleError(c, id, err)
		}
		return
	}

	c.JSON(http.StatusOK, view)
}

// @Summary Start appointment
// @Description Move a confirmed appointment to in progress (staff only)
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} queries.AppointmentView
// @Failure 409 {object} httperr.Response
// @Router /appointments/{id}/start [post]
func (h *AppointmentHandler) Start(c *gin.Context) {
	h.lifecycle(c, h.appointmentCommands.Start)
}

// @Summary Complete appointment
// @Description Move an in-progress appointment to completed (staff only)
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} queries.AppointmentView
// @Failure 409 {object} httperr.Response
// @Router /appointments/{id}/complete [post]
func (h *AppointmentHandler) Complete(c *gin.Context) {
	h.lifecycle(c, h.appointmentCommands.Complete)
}

// @Summary Mark no-show
// @Description Mark a confirmed appointment whose start has passed as a no-show (staff only)
// @Tags appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} queries.AppointmentView
// @Failure 409 {object} httperr.Response
// @Router /appointments/{id}/no-show [post]
func (h *AppointmentHandler) MarkNoShow(c *gin.Context) {
	h.lifecycle(c, h.appointmentCommands.MarkNoShow)
}

func (h *AppointmentHandler) lifecycle(c *gin.Context, op func(ctx context.Context, id uuid.UUID) (*queries.AppointmentView, error)) {
	_, _, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	view, err := op(c.Request.Context(), id)
	if err != nil {
		h.abortLifecycleError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *AppointmentHandler) getIdempotencyKey(c *gin.Context) (uuid.UUID, error) {
	keyStr := c.GetHeader("Idempotency-Key")
	if keyStr == "" {
		return uuid.Nil, errIdempotencyKeyRequired
	}

	key, err := uuid.Parse(keyStr)
	if err != nil {
		return uuid.Nil, errors.New("invalid idempotency key format")
	}

	return key, nil
}

// actorAndID pulls the authenticated principal and the path ID, aborting
// the request itself when either is unusable.
func (h *AppointmentHandler) actorAndID(c *gin.Context) (uuid.UUID, string, uuid.UUID, bool) {
	actorID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errors.New("user_id missing from context"), "Internal server error", nil)
		return uuid.Nil, "", uuid.Nil, false
	}
	role, _ := middleware.GetUserRole(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid appointment ID format", nil)
		return uuid.Nil, "", uuid.Nil, false
	}

	return actorID, role.String(), id, true
}

func (h *AppointmentHandler) abortPaymentError(c *gin.Context, id uuid.UUID, err error) {
	switch {
	case errors.Is(err, commands.ErrPaymentIntentMissing):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "No payment intent attached", nil)
	case errors.Is(err, commands.ErrPaymentNotSucceeded):
		httperr.AbortWithError(c, http.StatusPaymentRequired, err, "Payment has not succeeded", nil)
	case errors.Is(err, commands.ErrPaymentGatewayFailed):
		httperr.AbortWithError(c, http.StatusBadGateway, err, "Payment gateway unavailable", nil)
	case errors.Is(err, commands.ErrSlotConflict):
		httperr.AbortWithError(c, http.StatusConflict, err, "Slot was taken by a confirmed appointment; this hold has been cancelled", nil)
	default:
		h.abortLifecycleError(c, id, err)
	}
}

func (h *AppointmentHandler) abortLifecycleError(c *gin.Context, id uuid.UUID, err error) {
	switch {
	case errors.Is(err, commands.ErrAppointmentNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Appointment not found", nil)
	case errors.Is(err, commands.ErrAppointmentAccess):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Access denied", nil)
	case errors.Is(err, commands.ErrInvalidTransition):
		// A client driving an impossible transition points at a bug or a
		// stale UI, so it is logged louder than a plain 4xx.
		slog.Error("invalid appointment transition requested",
			"appointment_id", id,
			"path", c.Request.URL.Path,
			"error", err.Error())
		httperr.AbortWithError(c, http.StatusConflict, err, "Invalid status transition", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
