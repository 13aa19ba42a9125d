package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardRepositoryCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)
	ctx := context.Background()

	since := time.Now().AddDate(0, 0, -30)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM student_information")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM student_information WHERE created_at >= $1")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	total, err := repo.CountStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, total)

	recent, err := repo.CountRegisteredSince(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, 4, recent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepositoryGroupedCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)
	ctx := context.Background()

	mock.ExpectQuery("GROUP BY c.preferred_course").
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("Data Science", 2).AddRow("Web Development", 5))
	mock.ExpectQuery("'unspecified'").
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("female", 4).AddRow("unspecified", 3))

	courses, err := repo.CourseCounts(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Web Development", courses[1].Key)
	assert.Equal(t, 5, courses[1].Count)

	genders, err := repo.GenderCounts(ctx)
	require.NoError(t, err)
	assert.Len(t, genders, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepositoryAgeGroups(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	today := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("AS adults").
		WithArgs(2026).
		WillReturnRows(sqlmock.NewRows([]string{"adults", "minors", "unknown_age", "total"}).AddRow(6, 2, 1, 9))

	groups, err := repo.AgeGroups(context.Background(), today)
	require.NoError(t, err)
	assert.Equal(t, 6, groups.Adults)
	assert.Equal(t, 2, groups.Minors)
	assert.Equal(t, 1, groups.Unknown)
	assert.Equal(t, 9, groups.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepositoryPaymentTotals(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery("FROM payment_information GROUP BY 1").
		WillReturnRows(sqlmock.NewRows([]string{"method", "count", "total_amount"}).
			AddRow("bank_transfer", 1, 200.5).
			AddRow("cash", 2, 150.0).
			AddRow("unspecified", 4, 0.0))

	totals, err := repo.PaymentTotals(context.Background())
	require.NoError(t, err)
	require.Len(t, totals, 3)
	assert.Equal(t, "bank_transfer", totals[0].Method)
	assert.InDelta(t, 200.5, totals[0].TotalAmount, 0.001)
	assert.Equal(t, 4, totals[2].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
