//go:build unit

package api_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"garage-booking/internal/handler/api"
	"garage-booking/internal/usecase/queries"
	"garage-booking/tests/common/builder"
	"garage-booking/tests/common/httptest"
	queriesmock "garage-booking/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type AvailabilityHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockCtrl    *gomock.Controller
	mockQueries *queriesmock.MockAvailabilityQueries
	handler     *api.AvailabilityHandler
}

func (s *AvailabilityHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockQueries = queriesmock.NewMockAvailabilityQueries(s.mockCtrl)
	s.handler = api.NewAvailabilityHandler(s.mockQueries)

	s.router.GET("/services/:id/availability", s.handler.GetDaySchedule)
}

func (s *AvailabilityHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestAvailabilityHandlerSuite(t *testing.T) {
	suite.Run(t, new(AvailabilityHandlerTestSuite))
}

func (s *AvailabilityHandlerTestSuite) TestGetDaySchedule() {
	serviceID := uuid.New()
	url := "/services/" + serviceID.String() + "/availability"
	date := "2025-06-03"

	grid := &queries.DayScheduleView{
		Date:      date,
		ServiceID: serviceID,
		TimeZone:  "UTC",
		Slots: []queries.SlotView{
			{Time: builder.BaseTime.Add(23 * time.Hour), Label: "08:00", Available: true},
			{Time: builder.BaseTime.Add(23*time.Hour + 30*time.Minute), Label: "08:30", Available: false},
			{Time: builder.BaseTime.Add(24 * time.Hour), Label: "09:00", Available: true},
		},
	}

	s.Run("success: returns the slot grid for the date", func() {
		s.mockQueries.EXPECT().GetDaySchedule(gomock.Any(), serviceID, date).
			Return(grid, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url+"?date="+date, nil, "")

		var response queries.DayScheduleView
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &response)
		s.Equal(date, response.Date)
		s.Equal(serviceID, response.ServiceID)
		s.Len(response.Slots, 3)
		s.True(response.Slots[0].Available)
		s.False(response.Slots[1].Available)
	})

	s.Run("error: 400 on malformed service ID", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/services/not-a-uuid/availability?date="+date, nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid service ID format")
	})

	s.Run("error: 400 when the date parameter is missing", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Query parameter date is required")
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		testCases := []struct {
			name           string
			queriesError   error
			expectedStatus int
			expectedMsg    string
		}{
			{
				name:           "unknown or inactive service",
				queriesError:   queries.ErrServiceNotFound,
				expectedStatus: http.StatusNotFound,
				expectedMsg:    "Service not found",
			},
			{
				name:           "date outside the booking horizon",
				queriesError:   queries.ErrInvalidDate,
				expectedStatus: http.StatusBadRequest,
				expectedMsg:    "Date is invalid or out of the booking horizon",
			},
			{
				name:           "internal server error",
				queriesError:   errors.New("database error"),
				expectedStatus: http.StatusInternalServerError,
				expectedMsg:    "Internal server error",
			},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockQueries.EXPECT().GetDaySchedule(gomock.Any(), serviceID, date).
					Return(nil, tc.queriesError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url+"?date="+date, nil, "")
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})
}
