package service

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pediforte/registration-api/internal/dto"
	"github.com/pediforte/registration-api/internal/models"
	"github.com/pediforte/registration-api/internal/repository"
	appErrors "github.com/pediforte/registration-api/pkg/errors"
)

//go:embed default_rules.txt
var defaultRulesContent string

// DefaultRulesVersion labels the rules document seeded on an empty database.
const DefaultRulesVersion = "v1.0"

type rulesRepository interface {
	FindActive(ctx context.Context) (*models.StudentRules, error)
	List(ctx context.Context) ([]models.StudentRules, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, rules *models.StudentRules, activate bool) error
	Activate(ctx context.Context, version string, content *string, createdBy *int64) (*models.StudentRules, error)
	Analytics(ctx context.Context) (*models.RulesAnalytics, error)
}

// RulesService manages versioned rules documents.
type RulesService struct {
	repo      rulesRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRulesService constructs the rules service.
func NewRulesService(repo rulesRepository, validate *validator.Validate, logger *zap.Logger) *RulesService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RulesService{repo: repo, validator: validate, logger: logger}
}

// Active returns the active rules version.
func (s *RulesService) Active(ctx context.Context) (*models.StudentRules, error) {
	rules, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNoActiveRules, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active rules")
	}
	return rules, nil
}

// List returns every rules version, newest first.
func (s *RulesService) List(ctx context.Context) ([]models.StudentRules, error) {
	rules, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rules")
	}
	return rules, nil
}

// Create stores a new version, inactive unless req.Activate is set. The
// version label defaults to v<N+1>.0.
func (s *RulesService) Create(ctx context.Context, req dto.CreateRulesRequest, adminID *int64) (*models.StudentRules, error) {
	req.RulesContent = strings.TrimSpace(req.RulesContent)
	req.Version = strings.TrimSpace(req.Version)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	if req.Version == "" {
		total, err := s.repo.Count(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count rules")
		}
		req.Version = fmt.Sprintf("v%d.0", total+1)
	}

	rules := &models.StudentRules{RulesContent: req.RulesContent, Version: req.Version, CreatedBy: adminID}
	if err := s.repo.Create(ctx, rules, req.Activate); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("rules version %s already exists", req.Version))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rules")
	}
	s.logger.Info("rules version created", zap.String("version", rules.Version), zap.Bool("active", rules.IsActive))
	return rules, nil
}

// Activate makes req.Version the single active version, creating it when
// content is supplied for an unknown version.
func (s *RulesService) Activate(ctx context.Context, req dto.ActivateRulesRequest, adminID *int64) (*models.StudentRules, error) {
	req.Version = strings.TrimSpace(req.Version)
	if req.RulesContent != nil {
		trimmed := strings.TrimSpace(*req.RulesContent)
		req.RulesContent = &trimmed
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	rules, err := s.repo.Activate(ctx, req.Version, req.RulesContent, adminID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("rules version %s not found", req.Version))
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("rules version %s already exists", req.Version))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate rules")
	}
	s.logger.Info("rules version activated", zap.String("version", rules.Version))
	return rules, nil
}

// Analytics reports agreement coverage with a percentage rounded to two decimals.
func (s *RulesService) Analytics(ctx context.Context) (*models.RulesAnalytics, error) {
	analytics, err := s.repo.Analytics(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute rules analytics")
	}
	if analytics.TotalStudents > 0 {
		pct := float64(analytics.StudentsAgreed) / float64(analytics.TotalStudents) * 100
		analytics.AgreementPercentage = math.Round(pct*100) / 100
	}
	return analytics, nil
}

// SeedDefault stores and activates the built-in rules document when no version exists.
func (s *RulesService) SeedDefault(ctx context.Context, adminID *int64) error {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count rules")
	}
	if total > 0 {
		return nil
	}
	rules := &models.StudentRules{RulesContent: strings.TrimSpace(defaultRulesContent), Version: DefaultRulesVersion, CreatedBy: adminID}
	if err := s.repo.Create(ctx, rules, true); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed rules")
	}
	s.logger.Info("seeded default rules", zap.String("version", rules.Version))
	return nil
}
