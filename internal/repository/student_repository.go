package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/pediforte/registration-api/internal/models"
)

// StudentRepository manages persistence for students, their course selection and fee record.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentSelect = `SELECT s.id, s.surname, s.given_name, s.other_names,
        concat_ws(' ', s.surname, s.given_name, NULLIF(s.other_names, '')) AS full_name,
        s.email_address, s.phone_number, s.home_address, s.dob, s.gender, s.terms_agreed, s.terms_agreed_at,
        s.passport_filename, s.created_at, s.updated_at,
        c.id AS "course.id", c.student_id AS "course.student_id", c.preferred_course AS "course.preferred_course",
        c.objectives AS "course.objectives", c.prior_computer_knowledge AS "course.prior_computer_knowledge",
        c.seek_employment_opportunities AS "course.seek_employment_opportunities",
        c.hear_about_pediforte AS "course.hear_about_pediforte", c.registration_date AS "course.registration_date",
        c.resumption_date AS "course.resumption_date", c.created_at AS "course.created_at",
        p.id AS "payment.id", p.student_id AS "payment.student_id", p.course_price AS "payment.course_price",
        p.amount_paid AS "payment.amount_paid", p.course_price - p.amount_paid AS "payment.balance",
        p.payment_method AS "payment.payment_method", p.receipt_no AS "payment.receipt_no",
        p.payment_status AS "payment.payment_status", p.payments AS "payment.payments",
        p.created_at AS "payment.created_at", p.updated_at AS "payment.updated_at"
        FROM student_information s
        JOIN payment_information p ON p.student_id = s.id
        JOIN course_information c ON c.student_id = s.id`

// List returns students matching the filter ordered by id. A zero PageSize returns every match.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	switch filter.Status {
	case models.StudentStatusRegistered:
		conditions = append(conditions, "s.terms_agreed = TRUE")
	case models.StudentStatusPending:
		conditions = append(conditions, "s.terms_agreed = FALSE")
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.surname) LIKE $%d OR LOWER(s.given_name) LIKE $%d OR LOWER(COALESCE(s.other_names, '')) LIKE $%d OR LOWER(s.email_address) LIKE $%d)", idx, idx, idx, idx))
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	query := studentSelect + where + " ORDER BY s.id ASC"
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PageSize, (page-1)*filter.PageSize)
	}

	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	if filter.PageSize <= 0 {
		return students, len(students), nil
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM student_information s" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student with course information.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	var student models.Student
	if err := r.db.GetContext(ctx, &student, studentSelect+" WHERE s.id = $1", id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Exists reports whether a student with id is stored.
func (r *StudentRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM student_information WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("check student: %w", err)
	}
	return exists, nil
}

// Create inserts the student, course and payment rows, and the optional agreement, in one
// transaction. A nil PaymentInfo stores an empty pending fee record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student, agreement *models.AgreementChange) (err error) {
	if student.CourseInfo == nil {
		return fmt.Errorf("create student: course information required")
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin student transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if agreement != nil {
		student.TermsAgreedAt = &now
	}

	const insertStudent = `INSERT INTO student_information (surname, given_name, other_names, email_address, phone_number, home_address, dob, gender, terms_agreed, terms_agreed_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11) RETURNING id, created_at, updated_at`
	if err = tx.QueryRowxContext(ctx, insertStudent,
		student.Surname, student.GivenName, student.OtherNames, student.EmailAddress, student.PhoneNumber,
		student.HomeAddress, student.DOB, student.Gender, student.TermsAgreed, student.TermsAgreedAt, now,
	).Scan(&student.ID, &student.CreatedAt, &student.UpdatedAt); err != nil {
		return fmt.Errorf("insert student: %w", mapUniqueViolation(err))
	}

	course := student.CourseInfo
	course.StudentID = student.ID
	const insertCourse = `INSERT INTO course_information (student_id, preferred_course, objectives, prior_computer_knowledge, seek_employment_opportunities, hear_about_pediforte, registration_date, resumption_date, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at`
	if err = tx.QueryRowxContext(ctx, insertCourse,
		course.StudentID, course.PreferredCourse, course.Objectives, course.PriorComputerKnowledge,
		course.SeekEmploymentOpportunities, course.HearAboutPediforte, course.RegistrationDate, course.ResumptionDate, now,
	).Scan(&course.ID, &course.CreatedAt); err != nil {
		return fmt.Errorf("insert course information: %w", err)
	}

	if student.PaymentInfo == nil {
		student.PaymentInfo = &models.Payment{PaymentStatus: models.PaymentStatusPending, Payments: types.JSONText(`[]`)}
	}
	payment := student.PaymentInfo
	payment.StudentID = student.ID
	if len(payment.Payments) == 0 {
		payment.Payments = types.JSONText(`[]`)
	}
	const insertPayment = `INSERT INTO payment_information (student_id, course_price, amount_paid, payment_method, receipt_no, payment_status, payments, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8) RETURNING id, created_at, updated_at`
	if err = tx.QueryRowxContext(ctx, insertPayment,
		payment.StudentID, payment.CoursePrice, payment.AmountPaid, payment.PaymentMethod, payment.ReceiptNo,
		payment.PaymentStatus, payment.Payments, now,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt); err != nil {
		return fmt.Errorf("insert payment information: %w", err)
	}
	payment.Balance = payment.CoursePrice - payment.AmountPaid

	if agreement != nil {
		if _, err = appendAgreement(ctx, tx, student.ID, *agreement, now); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit student transaction: %w", err)
	}
	student.FullName = fullName(student)
	return nil
}

// Update overwrites the student and course rows, and the payment row when
// PaymentInfo is set. A non-nil agreement is appended to the log and mirrored
// onto terms_agreed_at within the same transaction.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student, agreement *models.AgreementChange) (err error) {
	if student.CourseInfo == nil {
		return fmt.Errorf("update student: course information required")
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin student transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if agreement != nil {
		student.TermsAgreedAt = &now
	}

	const updateStudent = `UPDATE student_information SET surname = $2, given_name = $3, other_names = $4, email_address = $5,
        phone_number = $6, home_address = $7, dob = $8, gender = $9, terms_agreed = $10, terms_agreed_at = $11, updated_at = $12
        WHERE id = $1 RETURNING updated_at`
	if err = tx.QueryRowxContext(ctx, updateStudent,
		student.ID, student.Surname, student.GivenName, student.OtherNames, student.EmailAddress, student.PhoneNumber,
		student.HomeAddress, student.DOB, student.Gender, student.TermsAgreed, student.TermsAgreedAt, now,
	).Scan(&student.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("update student: %w", mapUniqueViolation(err))
	}

	course := student.CourseInfo
	course.StudentID = student.ID
	const updateCourse = `UPDATE course_information SET preferred_course = $2, objectives = $3, prior_computer_knowledge = $4,
        seek_employment_opportunities = $5, hear_about_pediforte = $6, registration_date = $7, resumption_date = $8
        WHERE student_id = $1`
	if _, err = tx.ExecContext(ctx, updateCourse,
		course.StudentID, course.PreferredCourse, course.Objectives, course.PriorComputerKnowledge,
		course.SeekEmploymentOpportunities, course.HearAboutPediforte, course.RegistrationDate, course.ResumptionDate,
	); err != nil {
		return fmt.Errorf("update course information: %w", err)
	}

	if payment := student.PaymentInfo; payment != nil {
		payment.StudentID = student.ID
		if len(payment.Payments) == 0 {
			payment.Payments = types.JSONText(`[]`)
		}
		const updatePayment = `UPDATE payment_information SET course_price = $2, amount_paid = $3, payment_method = $4,
        receipt_no = $5, payment_status = $6, payments = $7, updated_at = $8
        WHERE student_id = $1 RETURNING id, updated_at`
		if err = tx.QueryRowxContext(ctx, updatePayment,
			payment.StudentID, payment.CoursePrice, payment.AmountPaid, payment.PaymentMethod, payment.ReceiptNo,
			payment.PaymentStatus, payment.Payments, now,
		).Scan(&payment.ID, &payment.UpdatedAt); err != nil {
			return fmt.Errorf("update payment information: %w", err)
		}
		payment.Balance = payment.CoursePrice - payment.AmountPaid
	}

	if agreement != nil {
		if _, err = appendAgreement(ctx, tx, student.ID, *agreement, now); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit student transaction: %w", err)
	}
	student.FullName = fullName(student)
	return nil
}

// Delete removes a student with its course, payment and agreement rows. It returns the
// passport filename that was attached so the caller can remove the file.
func (r *StudentRepository) Delete(ctx context.Context, id int64) (passport *string, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin student transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = tx.GetContext(ctx, &passport, `SELECT passport_filename FROM student_information WHERE id = $1 FOR UPDATE`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock student: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM rule_agreements WHERE student_id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete agreements: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM course_information WHERE student_id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete course information: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM payment_information WHERE student_id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete payment information: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM student_information WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete student: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit student transaction: %w", err)
	}
	return passport, nil
}

// UpdatePassport records the stored passport filename.
func (r *StudentRepository) UpdatePassport(ctx context.Context, id int64, filename string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE student_information SET passport_filename = $2, updated_at = $3 WHERE id = $1`, id, filename, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update passport filename: %w", err)
	}
	return expectAffected(res)
}

func fullName(student *models.Student) string {
	names := []string{student.Surname, student.GivenName}
	if student.OtherNames != nil && *student.OtherNames != "" {
		names = append(names, *student.OtherNames)
	}
	return strings.Join(names, " ")
}
