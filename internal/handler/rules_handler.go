package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pediforte/registration-api/internal/dto"
	"github.com/pediforte/registration-api/internal/models"
	appErrors "github.com/pediforte/registration-api/pkg/errors"
	"github.com/pediforte/registration-api/pkg/response"
)

type rulesService interface {
	Active(ctx context.Context) (*models.StudentRules, error)
	List(ctx context.Context) ([]models.StudentRules, error)
	Create(ctx context.Context, req dto.CreateRulesRequest, adminID *int64) (*models.StudentRules, error)
	Activate(ctx context.Context, req dto.ActivateRulesRequest, adminID *int64) (*models.StudentRules, error)
	Analytics(ctx context.Context) (*models.RulesAnalytics, error)
}

// RulesHandler exposes versioned student rules.
type RulesHandler struct {
	service rulesService
}

// NewRulesHandler constructs the handler.
func NewRulesHandler(svc rulesService) *RulesHandler {
	return &RulesHandler{service: svc}
}

// Active godoc
// @Summary Active student rules
// @Tags Rules
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student-rules [get]
func (h *RulesHandler) Active(c *gin.Context) {
	rules, err := h.service.Active(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// List godoc
// @Summary List every rules version
// @Tags Rules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/student-rules [get]
func (h *RulesHandler) List(c *gin.Context) {
	rules, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// Create godoc
// @Summary Create a rules version
// @Tags Rules
// @Accept json
// @Produce json
// @Param payload body dto.CreateRulesRequest true "Rules payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/student-rules [post]
func (h *RulesHandler) Create(c *gin.Context) {
	var req dto.CreateRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, http.StatusBadRequest, "invalid rules payload"))
		return
	}
	rules, err := h.service.Create(c.Request.Context(), req, adminIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rules)
}

// Activate godoc
// @Summary Activate a rules version
// @Description Deactivates every other version; creates the version when content is supplied for an unknown label
// @Tags Rules
// @Accept json
// @Produce json
// @Param payload body dto.ActivateRulesRequest true "Activation payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/student-rules [put]
func (h *RulesHandler) Activate(c *gin.Context) {
	var req dto.ActivateRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, http.StatusBadRequest, "invalid rules payload"))
		return
	}
	rules, err := h.service.Activate(c.Request.Context(), req, adminIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// Analytics godoc
// @Summary Rules agreement coverage
// @Tags Rules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/rules-analytics [get]
func (h *RulesHandler) Analytics(c *gin.Context) {
	analytics, err := h.service.Analytics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analytics, nil)
}
