package models

import "time"

// StudentRules is one version of the rules document students agree to.
type StudentRules struct {
	ID           int64     `db:"id" json:"id"`
	RulesContent string    `db:"rules_content" json:"rules_content"`
	Version      string    `db:"version" json:"version"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedBy    *int64    `db:"created_by" json:"created_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// RuleAgreement is an append-only record of a student accepting or declining a rules version.
type RuleAgreement struct {
	ID           int64     `db:"id" json:"id"`
	StudentID    int64     `db:"student_id" json:"student_id"`
	RulesID      *int64    `db:"rules_id" json:"rules_id"`
	RulesVersion *string   `db:"rules_version" json:"rules_version"`
	Agreed       bool      `db:"agreed" json:"agreed"`
	AgreedAt     time.Time `db:"agreed_at" json:"agreed_at"`
	IPAddress    *string   `db:"ip_address" json:"ip_address"`
	UserAgent    *string   `db:"user_agent" json:"user_agent"`
}

// RulesAnalytics summarises agreement coverage.
type RulesAnalytics struct {
	TotalStudents            int     `db:"total_students" json:"total_students"`
	StudentsAgreed           int     `db:"students_agreed" json:"students_agreed"`
	StudentsNotAgreed        int     `db:"students_not_agreed" json:"students_not_agreed"`
	AgreementPercentage      float64 `db:"-" json:"agreement_percentage"`
	CurrentVersionAgreements int     `db:"current_version_agreements" json:"current_version_agreements"`
	ActiveRulesVersion       *string `db:"active_rules_version" json:"active_rules_version"`
}
