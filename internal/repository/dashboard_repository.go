package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pediforte/registration-api/internal/models"
)

// DashboardRepository exposes the aggregate queries behind the admin dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository instantiates the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// CountStudents returns the number of registered students.
func (r *DashboardRepository) CountStudents(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM student_information`); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// CountRegisteredSince returns the number of students created at or after since.
func (r *DashboardRepository) CountRegisteredSince(ctx context.Context, since time.Time) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM student_information WHERE created_at >= $1`, since); err != nil {
		return 0, fmt.Errorf("count recent registrations: %w", err)
	}
	return total, nil
}

// CourseCounts groups students by preferred course.
func (r *DashboardRepository) CourseCounts(ctx context.Context) ([]models.CountByKey, error) {
	const query = `SELECT c.preferred_course AS key, COUNT(*) AS count
        FROM course_information c
        JOIN student_information s ON s.id = c.student_id
        GROUP BY c.preferred_course ORDER BY c.preferred_course`
	var rows []models.CountByKey
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("course statistics: %w", err)
	}
	return rows, nil
}

// GenderCounts groups students by gender; a missing gender is reported as "unspecified".
func (r *DashboardRepository) GenderCounts(ctx context.Context) ([]models.CountByKey, error) {
	const query = `SELECT COALESCE(NULLIF(TRIM(gender), ''), 'unspecified') AS key, COUNT(*) AS count
        FROM student_information GROUP BY 1 ORDER BY 1`
	var rows []models.CountByKey
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("gender statistics: %w", err)
	}
	return rows, nil
}

// AgeGroups buckets students by the difference between today's year and their birth year.
func (r *DashboardRepository) AgeGroups(ctx context.Context, today time.Time) (*models.AgeGroups, error) {
	const query = `SELECT
        COUNT(*) FILTER (WHERE dob IS NOT NULL AND $1 - EXTRACT(YEAR FROM dob) >= 18) AS adults,
        COUNT(*) FILTER (WHERE dob IS NOT NULL AND $1 - EXTRACT(YEAR FROM dob) < 18) AS minors,
        COUNT(*) FILTER (WHERE dob IS NULL) AS unknown_age,
        COUNT(*) AS total
        FROM student_information`
	var groups models.AgeGroups
	if err := r.db.GetContext(ctx, &groups, query, today.Year()); err != nil {
		return nil, fmt.Errorf("age groups: %w", err)
	}
	return &groups, nil
}

// PaymentTotals groups fee records by payment method; records without a method are "unspecified".
func (r *DashboardRepository) PaymentTotals(ctx context.Context) ([]models.PaymentMethodTotal, error) {
	const query = `SELECT COALESCE(NULLIF(TRIM(payment_method), ''), 'unspecified') AS method,
        COUNT(*) AS count, COALESCE(SUM(amount_paid), 0) AS total_amount
        FROM payment_information GROUP BY 1 ORDER BY 1`
	var rows []models.PaymentMethodTotal
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("payment statistics: %w", err)
	}
	return rows, nil
}
