package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pediforte/registration-api/internal/middleware"
	"github.com/pediforte/registration-api/internal/models"
	"github.com/pediforte/registration-api/pkg/response"
)

type dashboardService interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
}

type courseCatalog interface {
	Options() models.CourseOptions
}

// DashboardHandler wires dashboard aggregates and course options to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
	catalog courseCatalog
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService, catalog courseCatalog) *DashboardHandler {
	return &DashboardHandler{service: service, catalog: catalog}
}

// Stats godoc
// @Summary Admin dashboard summary
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}

// CourseOptions godoc
// @Summary Course and payment method options
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /course-options [get]
func (h *DashboardHandler) CourseOptions(c *gin.Context) {
	var options models.CourseOptions
	if h.catalog != nil {
		options = h.catalog.Options()
	}
	response.JSON(c, http.StatusOK, options, nil)
}
