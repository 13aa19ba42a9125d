package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pediforte/registration-api/internal/models"
)

// AgreementRepository manages the append-only rule agreement log.
type AgreementRepository struct {
	db *sqlx.DB
}

// NewAgreementRepository constructs an AgreementRepository.
func NewAgreementRepository(db *sqlx.DB) *AgreementRepository {
	return &AgreementRepository{db: db}
}

const agreementColumns = `id, student_id, rules_id, rules_version, agreed, agreed_at, ip_address, user_agent`

// Record appends an agreement row and mirrors it onto the student's
// terms_agreed fields in one transaction. The student row is locked first so
// concurrent answers for the same student serialize.
func (r *AgreementRepository) Record(ctx context.Context, studentID int64, change models.AgreementChange) (agreement *models.RuleAgreement, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin agreement transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var locked int64
	if err = tx.GetContext(ctx, &locked, `SELECT id FROM student_information WHERE id = $1 FOR UPDATE`, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock student: %w", err)
	}

	now := time.Now().UTC()
	if agreement, err = appendAgreement(ctx, tx, studentID, change, now); err != nil {
		return nil, err
	}
	const updateStudent = `UPDATE student_information SET terms_agreed = $2, terms_agreed_at = $3, updated_at = $3 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, updateStudent, studentID, change.Agreed, now); err != nil {
		return nil, fmt.Errorf("update student agreement: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit agreement transaction: %w", err)
	}
	return agreement, nil
}

// ListByStudent returns the agreement log for a student, oldest first.
func (r *AgreementRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.RuleAgreement, error) {
	query := `SELECT ` + agreementColumns + ` FROM rule_agreements WHERE student_id = $1 ORDER BY agreed_at ASC, id ASC`
	agreements := []models.RuleAgreement{}
	if err := r.db.SelectContext(ctx, &agreements, query, studentID); err != nil {
		return nil, fmt.Errorf("list agreements: %w", err)
	}
	return agreements, nil
}

// appendAgreement inserts one agreement row inside tx.
func appendAgreement(ctx context.Context, tx *sqlx.Tx, studentID int64, change models.AgreementChange, at time.Time) (*models.RuleAgreement, error) {
	agreement := &models.RuleAgreement{
		StudentID: studentID,
		Agreed:    change.Agreed,
		AgreedAt:  at,
		IPAddress: nullableString(change.IPAddress),
		UserAgent: nullableString(truncate(change.UserAgent, 500)),
	}
	if change.Rules != nil {
		agreement.RulesID = &change.Rules.ID
		agreement.RulesVersion = &change.Rules.Version
	}

	const query = `INSERT INTO rule_agreements (student_id, rules_id, rules_version, agreed, agreed_at, ip_address, user_agent)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := tx.QueryRowxContext(ctx, query,
		agreement.StudentID, agreement.RulesID, agreement.RulesVersion, agreement.Agreed, agreement.AgreedAt,
		agreement.IPAddress, agreement.UserAgent,
	).Scan(&agreement.ID); err != nil {
		return nil, fmt.Errorf("insert agreement: %w", err)
	}
	return agreement, nil
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}
