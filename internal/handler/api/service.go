package api

import (
	"net/http"

	"garage-booking/internal/handler/httperr"
	"garage-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type ServiceHandler struct {
	serviceQueries queries.ServiceQueries
}

func NewServiceHandler(serviceQueries queries.ServiceQueries) *ServiceHandler {
	return &ServiceHandler{
		serviceQueries: serviceQueries,
	}
}

// @Summary List services
// @Description List the bookable service catalog
// @Tags services
// @Produce json
// @Success 200 {array} queries.ServiceView
// @Router /services [get]
func (h *ServiceHandler) List(c *gin.Context) {
	services, err := h.serviceQueries.ListActive(c.Request.Context())
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}

	c.JSON(http.StatusOK, services)
}
