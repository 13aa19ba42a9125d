package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pediforte/registration-api/internal/dto"
	"github.com/pediforte/registration-api/internal/models"
	appErrors "github.com/pediforte/registration-api/pkg/errors"
)

type fakeDashboardSrv struct {
	stats *models.DashboardStats
	err   error
}

func (f *fakeDashboardSrv) Stats(context.Context) (*models.DashboardStats, error) {
	return f.stats, f.err
}

type fakeCatalog struct{}

func (fakeCatalog) Options() models.CourseOptions {
	return models.CourseOptions{Courses: []string{"Web Development"}, PaymentMethods: []string{"cash"}}
}

type fakeExportSrv struct {
	query dto.ExportQuery
	err   error
}

func (f *fakeExportSrv) Export(_ context.Context, query dto.ExportQuery) (*dto.ExportFile, error) {
	f.query = query
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ExportFile{Filename: "students_export_all_20240101_000000.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("ID\n1\n"), Rows: 1}, nil
}

func TestDashboardHandlerStats(t *testing.T) {
	handler := NewDashboardHandler(&fakeDashboardSrv{stats: &models.DashboardStats{TotalStudents: 7, CourseStatistics: map[string]int{"Web Development": 7}}}, fakeCatalog{})

	c, w := newGinContext(http.MethodGet, "/api/admin/dashboard", nil)
	handler.Stats(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"total_students":7`)
}

func TestDashboardHandlerStatsFailure(t *testing.T) {
	handler := NewDashboardHandler(&fakeDashboardSrv{err: appErrors.Wrap(errors.New("boom"), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed")}, nil)

	c, w := newGinContext(http.MethodGet, "/api/admin/dashboard", nil)
	handler.Stats(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestDashboardHandlerCourseOptions(t *testing.T) {
	handler := NewDashboardHandler(&fakeDashboardSrv{}, fakeCatalog{})

	c, w := newGinContext(http.MethodGet, "/api/course-options", nil)
	handler.CourseOptions(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"courses":["Web Development"],"payment_methods":["cash"]}`, string(decodeEnvelope(t, w).Data))
}

func TestExportHandlerAttachment(t *testing.T) {
	svc := &fakeExportSrv{}
	handler := NewExportHandler(svc)

	c, w := newGinContext(http.MethodGet, "/api/admin/export?type=pending&format=csv", nil)
	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ExportQuery{Type: "pending", Format: "csv"}, svc.query)
	assert.Equal(t, `attachment; filename="students_export_all_20240101_000000.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "1", w.Header().Get("X-Export-Rows"))
	assert.Equal(t, "ID\n1\n", w.Body.String())
}

func TestExportHandlerInvalidType(t *testing.T) {
	handler := NewExportHandler(&fakeExportSrv{err: appErrors.Clone(appErrors.ErrInvalidQueryParameter, "bad type")})

	c, w := newGinContext(http.MethodGet, "/api/admin/export?type=archived", nil)
	handler.Export(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrInvalidQueryParameter.Code, errorCode(t, w))
}
