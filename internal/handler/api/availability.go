package api

import (
	"errors"
	"net/http"

	"garage-booking/internal/handler/httperr"
	"garage-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AvailabilityHandler struct {
	availabilityQueries queries.AvailabilityQueries
}

func NewAvailabilityHandler(availabilityQueries queries.AvailabilityQueries) *AvailabilityHandler {
	return &AvailabilityHandler{
		availabilityQueries: availabilityQueries,
	}
}

// @Summary Get day availability
// @Description Slot grid for one service on one date; booked and lead-window slots come back marked unavailable
// @Tags services
// @Produce json
// @Param id path string true "Service ID"
// @Param date query string true "Date in YYYY-MM-DD (shop timezone)"
// @Success 200 {object} queries.DayScheduleView
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /services/{id}/availability [get]
func (h *AvailabilityHandler) GetDaySchedule(c *gin.Context) {
	serviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid service ID format", nil)
		return
	}

	date := c.Query("date")
	if date == "" {
		httperr.AbortWithError(c, http.StatusBadRequest, errors.New("missing date parameter"), "Query parameter date is required", nil)
		return
	}

	schedule, err := h.availabilityQueries.GetDaySchedule(c.Request.Context(), serviceID, date)
	if err != nil {
		switch {
		case errors.Is(err, queries.ErrServiceNotFound):
			httperr.AbortWithError(c, http.StatusNotFound, err, "Service not found", nil)
		case errors.Is(err, queries.ErrInvalidDate):
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Date is invalid or out of the booking horizon", nil)
		default:
			httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		}
		return
	}

	c.JSON(http.StatusOK, schedule)
}
