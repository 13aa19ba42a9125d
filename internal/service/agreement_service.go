package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/pediforte/registration-api/internal/dto"
	"github.com/pediforte/registration-api/internal/models"
	appErrors "github.com/pediforte/registration-api/pkg/errors"
)

type agreementRepository interface {
	Record(ctx context.Context, studentID int64, change models.AgreementChange) (*models.RuleAgreement, error)
	ListByStudent(ctx context.Context, studentID int64) ([]models.RuleAgreement, error)
}

type studentLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// AgreementService records student answers to the active rules version.
type AgreementService struct {
	agreements agreementRepository
	students   studentLookup
	rules      activeRulesReader
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewAgreementService constructs the agreement service.
func NewAgreementService(agreements agreementRepository, students studentLookup, rules activeRulesReader, metrics *MetricsService, logger *zap.Logger) *AgreementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgreementService{agreements: agreements, students: students, rules: rules, metrics: metrics, logger: logger}
}

// Record appends an agreement bound to the active rules and mirrors it onto the student.
func (s *AgreementService) Record(ctx context.Context, studentID int64, req dto.AgreementRequest) (*models.RuleAgreement, error) {
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}
	if req.Agreed == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, "agreed must be a boolean")
	}

	rules, err := s.rules.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNoActiveRules, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active rules")
	}

	agreement, err := s.agreements.Record(ctx, studentID, models.AgreementChange{
		Agreed:    *req.Agreed,
		Rules:     rules,
		IPAddress: req.IP,
		UserAgent: req.UserAgent,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record agreement")
	}
	s.metrics.RecordAgreement(agreement.Agreed)
	s.logger.Info("agreement recorded", zap.Int64("student_id", studentID), zap.Bool("agreed", agreement.Agreed), zap.String("rules_version", rules.Version))
	return agreement, nil
}

// History returns a student's agreement log, oldest first.
func (s *AgreementService) History(ctx context.Context, studentID int64) ([]models.RuleAgreement, error) {
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}
	agreements, err := s.agreements.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list agreements")
	}
	return agreements, nil
}

func (s *AgreementService) ensureStudent(ctx context.Context, id int64) error {
	exists, err := s.students.Exists(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return nil
}
