package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pediforte/registration-api/internal/models"
)

// RulesRepository manages versioned student rules documents.
type RulesRepository struct {
	db *sqlx.DB
}

// NewRulesRepository constructs a RulesRepository.
func NewRulesRepository(db *sqlx.DB) *RulesRepository {
	return &RulesRepository{db: db}
}

const rulesColumns = `id, rules_content, version, is_active, created_by, created_at, updated_at`

// FindActive returns the active rules version.
func (r *RulesRepository) FindActive(ctx context.Context) (*models.StudentRules, error) {
	var rules models.StudentRules
	if err := r.db.GetContext(ctx, &rules, `SELECT `+rulesColumns+` FROM student_rules WHERE is_active = TRUE LIMIT 1`); err != nil {
		return nil, err
	}
	return &rules, nil
}

// List returns every rules version, newest first.
func (r *RulesRepository) List(ctx context.Context) ([]models.StudentRules, error) {
	rules := []models.StudentRules{}
	if err := r.db.SelectContext(ctx, &rules, `SELECT `+rulesColumns+` FROM student_rules ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return rules, nil
}

// Count returns the number of stored versions.
func (r *RulesRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM student_rules`); err != nil {
		return 0, fmt.Errorf("count rules: %w", err)
	}
	return total, nil
}

// Create inserts a new inactive version. With activate set the new row
// becomes the single active version in the same transaction.
func (r *RulesRepository) Create(ctx context.Context, rules *models.StudentRules, activate bool) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rules transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if activate {
		if err = lockRules(ctx, tx); err != nil {
			return err
		}
	}
	if err = insertRules(ctx, tx, rules); err != nil {
		return err
	}
	if activate {
		if err = setActive(ctx, tx, rules.ID); err != nil {
			return err
		}
		rules.IsActive = true
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit rules transaction: %w", err)
	}
	return nil
}

// Activate makes version the single active rules row. When content is given
// the target's text is replaced, or a missing version is created from it.
// A missing version without content yields sql.ErrNoRows.
func (r *RulesRepository) Activate(ctx context.Context, version string, content *string, createdBy *int64) (rules *models.StudentRules, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin rules transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockRules(ctx, tx); err != nil {
		return nil, err
	}

	var target models.StudentRules
	err = tx.GetContext(ctx, &target, `SELECT `+rulesColumns+` FROM student_rules WHERE version = $1`, version)
	switch {
	case err == sql.ErrNoRows && content != nil:
		target = models.StudentRules{RulesContent: *content, Version: version, CreatedBy: createdBy}
		if err = insertRules(ctx, tx, &target); err != nil {
			return nil, err
		}
	case err == sql.ErrNoRows:
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("find rules version: %w", err)
	case content != nil:
		const updateContent = `UPDATE student_rules SET rules_content = $2, updated_at = $3 WHERE id = $1 RETURNING updated_at`
		if err = tx.QueryRowxContext(ctx, updateContent, target.ID, *content, time.Now().UTC()).Scan(&target.UpdatedAt); err != nil {
			return nil, fmt.Errorf("update rules content: %w", err)
		}
		target.RulesContent = *content
	}

	if err = setActive(ctx, tx, target.ID); err != nil {
		return nil, err
	}
	target.IsActive = true

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rules transaction: %w", err)
	}
	return &target, nil
}

// Analytics aggregates agreement coverage across students.
func (r *RulesRepository) Analytics(ctx context.Context) (*models.RulesAnalytics, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM student_information) AS total_students,
        (SELECT COUNT(*) FROM student_information WHERE terms_agreed = TRUE) AS students_agreed,
        (SELECT COUNT(*) FROM student_information WHERE terms_agreed = FALSE) AS students_not_agreed,
        (SELECT COUNT(*) FROM rule_agreements a JOIN student_rules sr ON sr.id = a.rules_id WHERE sr.is_active = TRUE AND a.agreed = TRUE) AS current_version_agreements,
        (SELECT version FROM student_rules WHERE is_active = TRUE LIMIT 1) AS active_rules_version`
	var analytics models.RulesAnalytics
	if err := r.db.GetContext(ctx, &analytics, query); err != nil {
		return nil, fmt.Errorf("rules analytics: %w", err)
	}
	return &analytics, nil
}

// lockRules serializes writers that touch the active flag.
func lockRules(ctx context.Context, tx *sqlx.Tx) error {
	if _, err := tx.ExecContext(ctx, `LOCK TABLE student_rules IN EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock rules: %w", err)
	}
	return nil
}

func insertRules(ctx context.Context, tx *sqlx.Tx, rules *models.StudentRules) error {
	const query = `INSERT INTO student_rules (rules_content, version, is_active, created_by) VALUES ($1, $2, FALSE, $3) RETURNING id, created_at, updated_at`
	if err := tx.QueryRowxContext(ctx, query, rules.RulesContent, rules.Version, rules.CreatedBy).Scan(&rules.ID, &rules.CreatedAt, &rules.UpdatedAt); err != nil {
		return fmt.Errorf("insert rules: %w", mapUniqueViolation(err))
	}
	rules.IsActive = false
	return nil
}

// setActive clears every other active row before flagging id; the partial
// unique index on is_active rejects two active rows even mid-statement.
func setActive(ctx context.Context, tx *sqlx.Tx, id int64) error {
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE student_rules SET is_active = FALSE, updated_at = $2 WHERE is_active = TRUE AND id <> $1`, id, now); err != nil {
		return fmt.Errorf("deactivate rules: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE student_rules SET is_active = TRUE, updated_at = $2 WHERE id = $1`, id, now)
	if err != nil {
		return fmt.Errorf("activate rules: %w", err)
	}
	return expectAffected(res)
}
