package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pediforte/registration-api/internal/dto"
	"github.com/pediforte/registration-api/internal/models"
	"github.com/pediforte/registration-api/internal/repository"
	appErrors "github.com/pediforte/registration-api/pkg/errors"
)

type mockStudentRepo struct {
	students   map[int64]*models.Student
	agreements map[int64][]models.AgreementChange
	nextID     int64
	lastFilter models.StudentFilter
	listTotal  int
	createErr  error
	creates    int
	passports  map[int64]string
	err        error
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{
		students:   map[int64]*models.Student{},
		agreements: map[int64][]models.AgreementChange{},
		passports:  map[int64]string{},
		nextID:     1,
	}
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, 0, m.err
	}
	result := []models.Student{}
	for id := int64(1); id < m.nextID; id++ {
		if s, ok := m.students[id]; ok {
			result = append(result, *s)
		}
	}
	return result, m.listTotal, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	if s, ok := m.students[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student, agreement *models.AgreementChange) error {
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	student.ID = m.nextID
	m.nextID++
	if agreement != nil {
		now := time.Now().UTC()
		student.TermsAgreedAt = &now
		m.agreements[student.ID] = append(m.agreements[student.ID], *agreement)
	}
	stored := *student
	m.students[student.ID] = &stored
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student, agreement *models.AgreementChange) error {
	if _, ok := m.students[student.ID]; !ok {
		return sql.ErrNoRows
	}
	if agreement != nil {
		now := time.Now().UTC()
		student.TermsAgreedAt = &now
		m.agreements[student.ID] = append(m.agreements[student.ID], *agreement)
	}
	stored := *student
	m.students[student.ID] = &stored
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id int64) (*string, error) {
	if _, ok := m.students[id]; !ok {
		return nil, sql.ErrNoRows
	}
	delete(m.students, id)
	delete(m.agreements, id)
	if name, ok := m.passports[id]; ok {
		return &name, nil
	}
	return nil, nil
}

type stubRulesReader struct {
	active *models.StudentRules
	err    error
}

func (s *stubRulesReader) FindActive(ctx context.Context) (*models.StudentRules, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.active == nil {
		return nil, sql.ErrNoRows
	}
	return s.active, nil
}

type recordingRemover struct {
	removed []string
	err     error
}

func (r *recordingRemover) Delete(filename string) error {
	r.removed = append(r.removed, filename)
	return r.err
}

func newTestStudentService(repo *mockStudentRepo, rules *stubRulesReader, files *recordingRemover) *StudentService {
	return NewStudentService(repo, rules, files, NewValidator([]string{"Web Development", "Data Science"}, []string{"cash", "bank_transfer"}), nil, zap.NewNop())
}

func TestStudentServiceCreateWebDevelopmentExample(t *testing.T) {
	repo := newMockStudentRepo()
	rules := &stubRulesReader{active: &models.StudentRules{ID: 4, Version: "v1.0", IsActive: true}}
	svc := newTestStudentService(repo, rules, &recordingRemover{})

	req := validRequest()
	req.Surname = "  Doe "
	req.DOB = strPtr("2000-05-17")
	req.CourseInfo.Objectives = json.RawMessage(`{"learn_html": true}`)
	req.IP = "10.0.0.5"

	student, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), student.ID)
	assert.Equal(t, "Doe", student.Surname)
	require.NotNil(t, student.DOB)
	assert.Equal(t, "2000-05-17", student.DOB.String())
	assert.JSONEq(t, `{"learn_html": true}`, string(student.CourseInfo.Objectives))

	require.Len(t, repo.agreements[1], 1)
	change := repo.agreements[1][0]
	assert.True(t, change.Agreed)
	require.NotNil(t, change.Rules)
	assert.Equal(t, "v1.0", change.Rules.Version)
	assert.Equal(t, "10.0.0.5", change.IPAddress)
}

func TestStudentServiceCreatePendingSkipsAgreement(t *testing.T) {
	repo := newMockStudentRepo()
	svc := newTestStudentService(repo, &stubRulesReader{}, &recordingRemover{})

	req := validRequest()
	req.TermsAgreed = boolPtr(false)
	student, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, student.TermsAgreed)
	assert.Nil(t, student.TermsAgreedAt)
	assert.Empty(t, repo.agreements)
	assert.JSONEq(t, `{}`, string(student.CourseInfo.Objectives))
}

func TestStudentServiceCreateAgreedWithoutActiveRules(t *testing.T) {
	repo := newMockStudentRepo()
	svc := newTestStudentService(repo, &stubRulesReader{}, &recordingRemover{})

	_, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	require.Len(t, repo.agreements[1], 1)
	assert.Nil(t, repo.agreements[1][0].Rules)
}

func TestStudentServiceCreateValidationStopsBeforeInsert(t *testing.T) {
	repo := newMockStudentRepo()
	svc := newTestStudentService(repo, &stubRulesReader{}, &recordingRemover{})

	req := validRequest()
	req.CourseInfo = nil
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMissingField.Code, appErrors.FromError(err).Code)

	req = validRequest()
	req.CourseInfo.PreferredCourse = "Knitting"
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCourse.Code, appErrors.FromError(err).Code)

	assert.Zero(t, repo.creates)
}

func TestStudentServiceCreateDuplicateEmail(t *testing.T) {
	repo := newMockStudentRepo()
	repo.createErr = repository.ErrDuplicate
	svc := newTestStudentService(repo, &stubRulesReader{}, &recordingRemover{})

	_, err := svc.Create(context.Background(), validRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceCreateRulesLookupFailure(t *testing.T) {
	repo := newMockStudentRepo()
	svc := newTestStudentService(repo, &stubRulesReader{err: errors.New("db down")}, &recordingRemover{})

	_, err := svc.Create(context.Background(), validRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.creates)
}

func TestStudentServiceListValidatesQuery(t *testing.T) {
	repo := newMockStudentRepo()
	svc := newTestStudentService(repo, &stubRulesReader{}, &recordingRemover{})

	_, _, err := svc.List(context.Background(), dto.StudentQuery{Status: "archived"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidQueryParameter.Code, appErrors.FromError(err).Code)

	_, pagination, err := svc.List(context.Background(), dto.StudentQuery{Status: "Registered"})
	require.NoError(t, err)
	assert.Nil(t, pagination)
	assert.Equal(t, models.StudentStatusRegistered, repo.lastFilter.Status)

	repo.listTotal = 42
	_, pagination, err = svc.List(context.Background(), dto.StudentQuery{Limit: 10})
	require.NoError(t, err)
	require.NotNil(t, pagination)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 10, pagination.PageSize)
	assert.Equal(t, 42, pagination.TotalCount)
}

func TestStudentServiceListRejectsPageBeyondOffsetRange(t *testing.T) {
	repo := newMockStudentRepo()
	svc := newTestStudentService(repo, &stubRulesReader{}, &recordingRemover{})

	_, _, err := svc.List(context.Background(), dto.StudentQuery{Page: math.MaxInt, Limit: 2})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidQueryParameter.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.StudentFilter{}, repo.lastFilter)

	_, pagination, err := svc.List(context.Background(), dto.StudentQuery{Page: math.MaxInt / 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt/2, pagination.Page)
}

func TestStudentServiceGetNotFound(t *testing.T) {
	svc := newTestStudentService(newMockStudentRepo(), &stubRulesReader{}, &recordingRemover{})
	_, err := svc.Get(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceUpdateLogsTermsChange(t *testing.T) {
	repo := newMockStudentRepo()
	rules := &stubRulesReader{active: &models.StudentRules{ID: 2, Version: "v2.0", IsActive: true}}
	svc := newTestStudentService(repo, rules, &recordingRemover{})

	pending := validRequest()
	pending.TermsAgreed = boolPtr(false)
	created, err := svc.Create(context.Background(), pending)
	require.NoError(t, err)
	repo.passports[created.ID] = "student_1_passport.png"
	repo.students[created.ID].PassportFilename = strPtr("student_1_passport.png")

	update := validRequest()
	update.GivenName = "Janet"
	updated, err := svc.Update(context.Background(), created.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "Janet", updated.GivenName)
	assert.True(t, updated.TermsAgreed)
	assert.NotNil(t, updated.TermsAgreedAt)
	require.NotNil(t, updated.PassportFilename)
	require.Len(t, repo.agreements[created.ID], 1)
	assert.Equal(t, "v2.0", repo.agreements[created.ID][0].Rules.Version)

	_, err = svc.Update(context.Background(), created.ID, update)
	require.NoError(t, err)
	assert.Len(t, repo.agreements[created.ID], 1)
}

func TestStudentServiceUpdateNotFound(t *testing.T) {
	svc := newTestStudentService(newMockStudentRepo(), &stubRulesReader{}, &recordingRemover{})
	_, err := svc.Update(context.Background(), 7, validRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceDeleteRemovesPassport(t *testing.T) {
	repo := newMockStudentRepo()
	files := &recordingRemover{err: errors.New("gone")}
	svc := newTestStudentService(repo, &stubRulesReader{}, files)

	created, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	repo.passports[created.ID] = "student_1_passport.pdf"

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.Equal(t, []string{"student_1_passport.pdf"}, files.removed)
	assert.Empty(t, repo.agreements)

	err = svc.Delete(context.Background(), created.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceCreateDefaultsPendingPayment(t *testing.T) {
	repo := newMockStudentRepo()
	svc := newTestStudentService(repo, &stubRulesReader{}, &recordingRemover{})

	student, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, student.PaymentInfo)
	assert.Equal(t, models.PaymentStatusPending, student.PaymentInfo.PaymentStatus)
	assert.Nil(t, student.PaymentInfo.PaymentMethod)
	assert.JSONEq(t, `[]`, string(student.PaymentInfo.Payments))
}

func TestStudentServiceCreateWithPayment(t *testing.T) {
	repo := newMockStudentRepo()
	svc := newTestStudentService(repo, &stubRulesReader{}, &recordingRemover{})

	req := validRequest()
	req.PaymentInfo = &dto.PaymentRequest{
		CoursePrice:   floatPtr(150000),
		AmountPaid:    floatPtr(50000.004),
		PaymentMethod: strPtr(" cash "),
		ReceiptNo:     strPtr("RCP-001"),
	}
	student, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	payment := student.PaymentInfo
	require.NotNil(t, payment)
	assert.InDelta(t, 50000, payment.AmountPaid, 0.0001)
	assert.InDelta(t, 100000, payment.Balance, 0.0001)
	assert.Equal(t, "cash", *payment.PaymentMethod)
	assert.Equal(t, models.PaymentStatusPartial, payment.PaymentStatus)

	var history []models.PaymentEntry
	require.NoError(t, json.Unmarshal(payment.Payments, &history))
	require.Len(t, history, 1)
	assert.InDelta(t, 50000, history[0].Amount, 0.0001)
	assert.Equal(t, "RCP-001", *history[0].ReceiptNo)
}

func TestStudentServiceCreateRejectsUnknownPaymentMethod(t *testing.T) {
	repo := newMockStudentRepo()
	svc := newTestStudentService(repo, &stubRulesReader{}, &recordingRemover{})

	req := validRequest()
	req.PaymentInfo = &dto.PaymentRequest{PaymentMethod: strPtr("cheque")}
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidInput.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.creates)
}

func TestStudentServiceUpdateMergesPayment(t *testing.T) {
	repo := newMockStudentRepo()
	svc := newTestStudentService(repo, &stubRulesReader{}, &recordingRemover{})

	req := validRequest()
	req.PaymentInfo = &dto.PaymentRequest{CoursePrice: floatPtr(200), AmountPaid: floatPtr(50), PaymentMethod: strPtr("cash")}
	created, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	update := validRequest()
	update.PaymentInfo = &dto.PaymentRequest{AmountPaid: floatPtr(200), PaymentMethod: strPtr("bank_transfer")}
	updated, err := svc.Update(context.Background(), created.ID, update)
	require.NoError(t, err)

	payment := updated.PaymentInfo
	require.NotNil(t, payment)
	assert.InDelta(t, 200, payment.CoursePrice, 0.0001)
	assert.Zero(t, payment.Balance)
	assert.Equal(t, models.PaymentStatusCompleted, payment.PaymentStatus)
	assert.Equal(t, "bank_transfer", *payment.PaymentMethod)

	var history []models.PaymentEntry
	require.NoError(t, json.Unmarshal(payment.Payments, &history))
	require.Len(t, history, 2)
	assert.InDelta(t, 150, history[1].Amount, 0.0001)
	assert.Equal(t, "bank_transfer", *history[1].Method)

	plain := validRequest()
	kept, err := svc.Update(context.Background(), created.ID, plain)
	require.NoError(t, err)
	require.NotNil(t, kept.PaymentInfo)
	assert.Equal(t, models.PaymentStatusCompleted, kept.PaymentInfo.PaymentStatus)
}

func TestApplyPaymentStatus(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		req  dto.PaymentRequest
		want string
	}{
		{name: "nothing paid", req: dto.PaymentRequest{CoursePrice: floatPtr(100)}, want: models.PaymentStatusPending},
		{name: "partly paid", req: dto.PaymentRequest{CoursePrice: floatPtr(100), AmountPaid: floatPtr(40)}, want: models.PaymentStatusPartial},
		{name: "fully paid", req: dto.PaymentRequest{CoursePrice: floatPtr(100), AmountPaid: floatPtr(100)}, want: models.PaymentStatusCompleted},
		{name: "explicit status wins", req: dto.PaymentRequest{CoursePrice: floatPtr(100), AmountPaid: floatPtr(40), PaymentStatus: strPtr("completed")}, want: models.PaymentStatusCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			payment, err := applyPayment(nil, &req, now)
			require.NoError(t, err)
			assert.Equal(t, tc.want, payment.PaymentStatus)
		})
	}

	current := &models.Payment{PaymentStatus: models.PaymentStatusPartial, Payments: []byte(`not json`), AmountPaid: 10}
	_, err := applyPayment(current, &dto.PaymentRequest{AmountPaid: floatPtr(20)}, now)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
