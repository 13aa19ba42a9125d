package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pediforte/registration-api/internal/models"
	appErrors "github.com/pediforte/registration-api/pkg/errors"
)

type dashboardRepository interface {
	CountStudents(ctx context.Context) (int, error)
	CountRegisteredSince(ctx context.Context, since time.Time) (int, error)
	CourseCounts(ctx context.Context) ([]models.CountByKey, error)
	GenderCounts(ctx context.Context) ([]models.CountByKey, error)
	AgeGroups(ctx context.Context, today time.Time) (*models.AgeGroups, error)
	PaymentTotals(ctx context.Context) ([]models.PaymentMethodTotal, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	RecentDays int
}

// DashboardService composes admin dashboard figures. Results are never cached.
type DashboardService struct {
	repo    dashboardRepository
	catalog *CatalogService
	logger  *zap.Logger
	now     func() time.Time
	cfg     DashboardServiceConfig
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(repo dashboardRepository, catalog *CatalogService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RecentDays <= 0 {
		cfg.RecentDays = 30
	}
	return &DashboardService{
		repo:    repo,
		catalog: catalog,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		cfg:     cfg,
	}
}

// Stats returns current registration figures.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	now := s.now()

	total, err := s.repo.CountStudents(ctx)
	if err != nil {
		return nil, s.internal(err, "failed to count students")
	}
	recent, err := s.repo.CountRegisteredSince(ctx, now.AddDate(0, 0, -s.cfg.RecentDays))
	if err != nil {
		return nil, s.internal(err, "failed to count recent registrations")
	}
	courses, err := s.repo.CourseCounts(ctx)
	if err != nil {
		return nil, s.internal(err, "failed to compute course statistics")
	}
	genders, err := s.repo.GenderCounts(ctx)
	if err != nil {
		return nil, s.internal(err, "failed to compute gender statistics")
	}
	ages, err := s.repo.AgeGroups(ctx, now)
	if err != nil {
		return nil, s.internal(err, "failed to compute age groups")
	}
	payments, err := s.repo.PaymentTotals(ctx)
	if err != nil {
		return nil, s.internal(err, "failed to compute payment statistics")
	}

	options := s.catalog.Options()
	return &models.DashboardStats{
		TotalStudents:       total,
		RecentRegistrations: recent,
		CourseStatistics:    countMap(courses),
		CourseOptions:       options.Courses,
		PaymentMethods:      options.PaymentMethods,
		GenderStatistics:    countMap(genders),
		AgeGroups:           *ages,
		PaymentStatistics:   paymentMap(payments),
	}, nil
}

func (s *DashboardService) internal(err error, message string) error {
	s.logger.Error(message, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func countMap(rows []models.CountByKey) map[string]int {
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Count
	}
	return out
}

func paymentMap(rows []models.PaymentMethodTotal) map[string]models.PaymentMethodTotal {
	out := make(map[string]models.PaymentMethodTotal, len(rows))
	for _, row := range rows {
		out[row.Method] = row
	}
	return out
}
