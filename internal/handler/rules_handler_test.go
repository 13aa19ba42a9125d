package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pediforte/registration-api/internal/dto"
	"github.com/pediforte/registration-api/internal/middleware"
	"github.com/pediforte/registration-api/internal/models"
	appErrors "github.com/pediforte/registration-api/pkg/errors"
)

type rulesServiceMock struct {
	active      *models.StudentRules
	err         error
	createReq   dto.CreateRulesRequest
	activateReq dto.ActivateRulesRequest
	adminID     *int64
}

func (m *rulesServiceMock) Active(ctx context.Context) (*models.StudentRules, error) {
	if m.active == nil {
		return nil, appErrors.Clone(appErrors.ErrNoActiveRules, "")
	}
	return m.active, nil
}

func (m *rulesServiceMock) List(ctx context.Context) ([]models.StudentRules, error) {
	return []models.StudentRules{{Version: "v2.0"}, {Version: "v1.0"}}, m.err
}

func (m *rulesServiceMock) Create(ctx context.Context, req dto.CreateRulesRequest, adminID *int64) (*models.StudentRules, error) {
	m.createReq = req
	m.adminID = adminID
	if m.err != nil {
		return nil, m.err
	}
	return &models.StudentRules{ID: 3, Version: "v3.0", RulesContent: req.RulesContent}, nil
}

func (m *rulesServiceMock) Activate(ctx context.Context, req dto.ActivateRulesRequest, adminID *int64) (*models.StudentRules, error) {
	m.activateReq = req
	m.adminID = adminID
	if m.err != nil {
		return nil, m.err
	}
	return &models.StudentRules{Version: req.Version, IsActive: true}, nil
}

func (m *rulesServiceMock) Analytics(ctx context.Context) (*models.RulesAnalytics, error) {
	return &models.RulesAnalytics{TotalStudents: 4, StudentsAgreed: 3, AgreementPercentage: 75}, m.err
}

func TestRulesHandlerActiveMissing(t *testing.T) {
	handler := NewRulesHandler(&rulesServiceMock{})

	c, w := newGinContext(http.MethodGet, "/api/student-rules", nil)
	handler.Active(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, appErrors.ErrNoActiveRules.Code, errorCode(t, w))
}

func TestRulesHandlerCreateRecordsAdmin(t *testing.T) {
	svc := &rulesServiceMock{}
	handler := NewRulesHandler(svc)

	c, w := newGinContext(http.MethodPost, "/api/admin/student-rules", []byte(`{"rules_content":"Be kind","activate":true}`))
	c.Set(middleware.ContextAdminKey, &models.Admin{ID: 9})
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, svc.createReq.Activate)
	require.NotNil(t, svc.adminID)
	assert.Equal(t, int64(9), *svc.adminID)
}

func TestRulesHandlerActivate(t *testing.T) {
	svc := &rulesServiceMock{}
	handler := NewRulesHandler(svc)

	c, w := newGinContext(http.MethodPut, "/api/admin/student-rules", []byte(`{"version":"v1.0"}`))
	handler.Activate(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "v1.0", svc.activateReq.Version)
	assert.Nil(t, svc.adminID)

	svc.err = appErrors.Clone(appErrors.ErrNotFound, "rules version v9.0 not found")
	c, w = newGinContext(http.MethodPut, "/api/admin/student-rules", []byte(`{"version":"v9.0"}`))
	handler.Activate(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRulesHandlerAnalytics(t *testing.T) {
	handler := NewRulesHandler(&rulesServiceMock{})

	c, w := newGinContext(http.MethodGet, "/api/admin/rules-analytics", nil)
	handler.Analytics(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"agreement_percentage":75`)
}
