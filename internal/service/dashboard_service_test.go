package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pediforte/registration-api/internal/models"
	appErrors "github.com/pediforte/registration-api/pkg/errors"
)

type fakeDashboardRepo struct {
	total     int
	recent    int
	since     time.Time
	courses   []models.CountByKey
	genders   []models.CountByKey
	ages      models.AgeGroups
	payments  []models.PaymentMethodTotal
	courseErr error
	calls     int
}

func (f *fakeDashboardRepo) CountStudents(context.Context) (int, error) {
	f.calls++
	return f.total, nil
}

func (f *fakeDashboardRepo) CountRegisteredSince(_ context.Context, since time.Time) (int, error) {
	f.since = since
	return f.recent, nil
}

func (f *fakeDashboardRepo) CourseCounts(context.Context) ([]models.CountByKey, error) {
	return f.courses, f.courseErr
}

func (f *fakeDashboardRepo) GenderCounts(context.Context) ([]models.CountByKey, error) {
	return f.genders, nil
}

func (f *fakeDashboardRepo) AgeGroups(context.Context, time.Time) (*models.AgeGroups, error) {
	ages := f.ages
	return &ages, nil
}

func (f *fakeDashboardRepo) PaymentTotals(context.Context) ([]models.PaymentMethodTotal, error) {
	return f.payments, nil
}

func TestDashboardServiceStats(t *testing.T) {
	repo := &fakeDashboardRepo{
		total:   5,
		recent:  2,
		courses: []models.CountByKey{{Key: "Web Development", Count: 3}, {Key: "Data Science", Count: 2}},
		genders: []models.CountByKey{{Key: "female", Count: 4}, {Key: "unspecified", Count: 1}},
		ages:    models.AgeGroups{Adults: 3, Minors: 1, Unknown: 1, Total: 5},
	}
	repo.payments = []models.PaymentMethodTotal{
		{Method: "cash", Count: 2, TotalAmount: 150},
		{Method: "unspecified", Count: 3},
	}
	catalog := NewCatalogService([]string{"Web Development", "Data Science"}, []string{"cash"})
	svc := NewDashboardService(repo, catalog, zap.NewNop(), DashboardServiceConfig{RecentDays: 7})
	fixed := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalStudents)
	assert.Equal(t, 2, stats.RecentRegistrations)
	assert.Equal(t, fixed.AddDate(0, 0, -7), repo.since)
	assert.Equal(t, map[string]int{"Web Development": 3, "Data Science": 2}, stats.CourseStatistics)
	assert.Equal(t, 4, stats.GenderStatistics["female"])
	assert.Equal(t, []string{"Web Development", "Data Science"}, stats.CourseOptions)
	assert.Equal(t, []string{"cash"}, stats.PaymentMethods)
	assert.Equal(t, 3, stats.AgeGroups.Adults)
	require.Len(t, stats.PaymentStatistics, 2)
	assert.Equal(t, 2, stats.PaymentStatistics["cash"].Count)
	assert.InDelta(t, 150, stats.PaymentStatistics["cash"].TotalAmount, 0.001)
	assert.Equal(t, 3, stats.PaymentStatistics["unspecified"].Count)

	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestDashboardServiceStatsFailure(t *testing.T) {
	repo := &fakeDashboardRepo{courseErr: errors.New("boom")}
	svc := NewDashboardService(repo, nil, nil, DashboardServiceConfig{})

	_, err := svc.Stats(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceReturnsCopies(t *testing.T) {
	catalog := NewCatalogService([]string{"Web Development"}, []string{"cash", "bank_transfer"})
	options := catalog.Options()
	options.Courses[0] = "mutated"
	assert.Equal(t, []string{"Web Development"}, catalog.Courses())
	assert.Equal(t, []string{"cash", "bank_transfer"}, catalog.Options().PaymentMethods)
}
