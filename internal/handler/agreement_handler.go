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

type agreementService interface {
	Record(ctx context.Context, studentID int64, req dto.AgreementRequest) (*models.RuleAgreement, error)
	History(ctx context.Context, studentID int64) ([]models.RuleAgreement, error)
}

// AgreementHandler records and lists rules agreements.
type AgreementHandler struct {
	service agreementService
}

// NewAgreementHandler constructs the handler.
func NewAgreementHandler(svc agreementService) *AgreementHandler {
	return &AgreementHandler{service: svc}
}

// Record godoc
// @Summary Record agreement to the active rules
// @Tags Agreements
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body dto.AgreementRequest true "Agreement payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/agreement [post]
func (h *AgreementHandler) Record(c *gin.Context) {
	id, err := studentIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, http.StatusBadRequest, "invalid agreement payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	agreement, err := h.service.Record(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	text := "Terms and conditions accepted successfully"
	if !agreement.Agreed {
		text = "Terms and conditions declined"
	}
	response.Created(c, dto.AgreementResponse{Message: text, Agreement: agreement})
}

// History godoc
// @Summary Agreement history of a student
// @Tags Agreements
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/agreement [get]
func (h *AgreementHandler) History(c *gin.Context) {
	id, err := studentIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	history, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}
