package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/pediforte/registration-api/internal/dto"
	"github.com/pediforte/registration-api/internal/models"
	"github.com/pediforte/registration-api/internal/repository"
	appErrors "github.com/pediforte/registration-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	Create(ctx context.Context, student *models.Student, agreement *models.AgreementChange) error
	Update(ctx context.Context, student *models.Student, agreement *models.AgreementChange) error
	Delete(ctx context.Context, id int64) (*string, error)
}

type activeRulesReader interface {
	FindActive(ctx context.Context) (*models.StudentRules, error)
}

type fileRemover interface {
	Delete(filename string) error
}

// StudentService handles registration use-cases.
type StudentService struct {
	repo      studentRepository
	rules     activeRulesReader
	files     fileRemover
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, rules activeRulesReader, files fileRemover, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, rules: rules, files: files, validator: validate, metrics: metrics, logger: logger}
}

// List returns students ordered by id. Pagination is nil unless a limit was requested.
func (s *StudentService) List(ctx context.Context, query dto.StudentQuery) ([]models.Student, *models.Pagination, error) {
	status := strings.ToLower(strings.TrimSpace(query.Status))
	switch status {
	case "", models.StudentStatusAll, models.StudentStatusRegistered, models.StudentStatusPending:
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidQueryParameter, "status must be one of all, registered, pending")
	}
	if query.Page < 0 || query.Limit < 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidQueryParameter, "page and limit must be positive")
	}
	if query.Limit > 0 && query.Page > 1 && query.Page-1 > math.MaxInt/query.Limit {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidQueryParameter, "page is out of range")
	}

	filter := models.StudentFilter{Search: query.Search, Status: status, Page: query.Page, PageSize: query.Limit}
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if filter.PageSize == 0 {
		return students, nil, nil
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	return students, &models.Pagination{Page: page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a student with course information.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student. Agreeing to the terms appends an agreement
// bound to the active rules version, when there is one.
func (s *StudentService) Create(ctx context.Context, req dto.StudentRequest) (*models.Student, error) {
	normalizeStudentRequest(&req)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	student, err := studentFromRequest(req)
	if err != nil {
		return nil, err
	}
	if student.PaymentInfo, err = applyPayment(nil, req.PaymentInfo, time.Now().UTC()); err != nil {
		return nil, err
	}

	var change *models.AgreementChange
	if student.TermsAgreed {
		if change, err = s.agreementChange(ctx, true, req.IP, req.UserAgent); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, student, change); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a student with this email address already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.metrics.RecordRegistration(student.TermsAgreed)
	if change != nil {
		s.metrics.RecordAgreement(change.Agreed)
	}
	s.logger.Info("student registered", zap.Int64("student_id", student.ID), zap.Bool("terms_agreed", student.TermsAgreed))
	return student, nil
}

// Update overwrites a student. A change of terms_agreed is logged as an agreement.
func (s *StudentService) Update(ctx context.Context, id int64, req dto.StudentRequest) (*models.Student, error) {
	normalizeStudentRequest(&req)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	student, err := studentFromRequest(req)
	if err != nil {
		return nil, err
	}
	student.ID = existing.ID
	student.CreatedAt = existing.CreatedAt
	student.TermsAgreedAt = existing.TermsAgreedAt
	student.PassportFilename = existing.PassportFilename
	if existing.CourseInfo != nil {
		student.CourseInfo.ID = existing.CourseInfo.ID
		student.CourseInfo.CreatedAt = existing.CourseInfo.CreatedAt
	}
	if req.PaymentInfo != nil {
		if student.PaymentInfo, err = applyPayment(existing.PaymentInfo, req.PaymentInfo, time.Now().UTC()); err != nil {
			return nil, err
		}
	}

	var change *models.AgreementChange
	if student.TermsAgreed != existing.TermsAgreed {
		if change, err = s.agreementChange(ctx, student.TermsAgreed, req.IP, req.UserAgent); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, student, change); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Clone(appErrors.ErrConflict, "a student with this email address already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	if student.PaymentInfo == nil {
		student.PaymentInfo = existing.PaymentInfo
	}
	if change != nil {
		s.metrics.RecordAgreement(change.Agreed)
	}
	return student, nil
}

// Delete removes the student, its course and agreements, then the stored passport.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	passport, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	if passport != nil && *passport != "" && s.files != nil {
		if err := s.files.Delete(*passport); err != nil {
			s.logger.Warn("failed to remove passport file", zap.Int64("student_id", id), zap.String("file", *passport), zap.Error(err))
		}
	}
	s.logger.Info("student deleted", zap.Int64("student_id", id))
	return nil
}

func (s *StudentService) agreementChange(ctx context.Context, agreed bool, ip, userAgent string) (*models.AgreementChange, error) {
	change := &models.AgreementChange{Agreed: agreed, IPAddress: ip, UserAgent: userAgent}
	if s.rules == nil {
		return change, nil
	}
	rules, err := s.rules.FindActive(ctx)
	switch {
	case err == nil:
		change.Rules = rules
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active rules")
	}
	return change, nil
}

func normalizeStudentRequest(req *dto.StudentRequest) {
	req.Surname = strings.TrimSpace(req.Surname)
	req.GivenName = strings.TrimSpace(req.GivenName)
	req.EmailAddress = strings.TrimSpace(req.EmailAddress)
	req.OtherNames = trimOptional(req.OtherNames)
	req.PhoneNumber = trimOptional(req.PhoneNumber)
	req.HomeAddress = trimOptional(req.HomeAddress)
	req.DOB = trimOptional(req.DOB)
	req.Gender = trimOptional(req.Gender)
	if course := req.CourseInfo; course != nil {
		course.PreferredCourse = strings.TrimSpace(course.PreferredCourse)
		course.PriorComputerKnowledge = trimOptional(course.PriorComputerKnowledge)
		course.HearAboutPediforte = trimOptional(course.HearAboutPediforte)
		course.RegistrationDate = trimOptional(course.RegistrationDate)
		course.ResumptionDate = trimOptional(course.ResumptionDate)
	}
	if payment := req.PaymentInfo; payment != nil {
		payment.PaymentMethod = trimOptional(payment.PaymentMethod)
		payment.ReceiptNo = trimOptional(payment.ReceiptNo)
		payment.PaymentStatus = trimOptional(payment.PaymentStatus)
	}
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// studentFromRequest maps a validated request onto the persistence model.
func studentFromRequest(req dto.StudentRequest) (*models.Student, error) {
	dob, err := optionalDate("dob", req.DOB)
	if err != nil {
		return nil, err
	}
	course := req.CourseInfo
	registered, err := optionalDate("course_info.registration_date", course.RegistrationDate)
	if err != nil {
		return nil, err
	}
	resumption, err := optionalDate("course_info.resumption_date", course.ResumptionDate)
	if err != nil {
		return nil, err
	}

	objectives := types.JSONText(`{}`)
	if raw := bytes.TrimSpace(course.Objectives); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		objectives = types.JSONText(raw)
	}

	return &models.Student{
		Surname:      req.Surname,
		GivenName:    req.GivenName,
		OtherNames:   req.OtherNames,
		EmailAddress: req.EmailAddress,
		PhoneNumber:  req.PhoneNumber,
		HomeAddress:  req.HomeAddress,
		DOB:          dob,
		Gender:       req.Gender,
		TermsAgreed:  *req.TermsAgreed,
		CourseInfo: &models.Course{
			PreferredCourse:             course.PreferredCourse,
			Objectives:                  objectives,
			PriorComputerKnowledge:      course.PriorComputerKnowledge,
			SeekEmploymentOpportunities: course.SeekEmploymentOpportunities,
			HearAboutPediforte:          course.HearAboutPediforte,
			RegistrationDate:            registered,
			ResumptionDate:              resumption,
		},
	}, nil
}

// applyPayment merges req over current, or over an empty pending record. Without
// an explicit status the status follows the amounts. Every change of
// amount_paid is appended to the payment history.
func applyPayment(current *models.Payment, req *dto.PaymentRequest, now time.Time) (*models.Payment, error) {
	payment := models.Payment{PaymentStatus: models.PaymentStatusPending, Payments: types.JSONText(`[]`)}
	if current != nil {
		payment = *current
	}
	if req == nil {
		return &payment, nil
	}

	previousPaid := payment.AmountPaid
	if req.CoursePrice != nil {
		payment.CoursePrice = roundMoney(*req.CoursePrice)
	}
	if req.AmountPaid != nil {
		payment.AmountPaid = roundMoney(*req.AmountPaid)
	}
	if req.PaymentMethod != nil {
		payment.PaymentMethod = req.PaymentMethod
	}
	if req.ReceiptNo != nil {
		payment.ReceiptNo = req.ReceiptNo
	}
	switch {
	case req.PaymentStatus != nil:
		payment.PaymentStatus = *req.PaymentStatus
	case req.CoursePrice != nil || req.AmountPaid != nil:
		payment.PaymentStatus = paymentStatus(payment.CoursePrice, payment.AmountPaid)
	}

	if delta := roundMoney(payment.AmountPaid - previousPaid); delta != 0 {
		history := []models.PaymentEntry{}
		if len(payment.Payments) > 0 {
			if err := json.Unmarshal(payment.Payments, &history); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read payment history")
			}
		}
		history = append(history, models.PaymentEntry{
			Amount:     delta,
			Method:     payment.PaymentMethod,
			ReceiptNo:  payment.ReceiptNo,
			RecordedAt: now,
		})
		raw, err := json.Marshal(history)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write payment history")
		}
		payment.Payments = types.JSONText(raw)
	}
	payment.Balance = roundMoney(payment.CoursePrice - payment.AmountPaid)
	return &payment, nil
}

func paymentStatus(price, paid float64) string {
	switch {
	case paid <= 0:
		return models.PaymentStatusPending
	case paid >= price:
		return models.PaymentStatusCompleted
	default:
		return models.PaymentStatusPartial
	}
}

func roundMoney(value float64) float64 {
	return math.Round(value*100) / 100
}

func optionalDate(field string, raw *string) (*models.Date, error) {
	if raw == nil {
		return nil, nil
	}
	date, err := models.ParseDate(*raw)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, field+" must be a date in YYYY-MM-DD format")
	}
	return &date, nil
}
