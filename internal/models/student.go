package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Student is a registrant together with the course they picked.
type Student struct {
	ID               int64      `db:"id" json:"id"`
	Surname          string     `db:"surname" json:"surname"`
	GivenName        string     `db:"given_name" json:"given_name"`
	OtherNames       *string    `db:"other_names" json:"other_names"`
	FullName         string     `db:"full_name" json:"full_name"`
	EmailAddress     string     `db:"email_address" json:"email_address"`
	PhoneNumber      *string    `db:"phone_number" json:"phone_number"`
	HomeAddress      *string    `db:"home_address" json:"home_address"`
	DOB              *Date      `db:"dob" json:"dob"`
	Gender           *string    `db:"gender" json:"gender"`
	TermsAgreed      bool       `db:"terms_agreed" json:"terms_agreed"`
	TermsAgreedAt    *time.Time `db:"terms_agreed_at" json:"terms_agreed_at"`
	PassportFilename *string    `db:"passport_filename" json:"passport_filename"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
	CourseInfo       *Course    `db:"course" json:"course_info"`
	PaymentInfo      *Payment   `db:"payment" json:"payment_info,omitempty"`
}

// Course is the course selection owned by exactly one student.
type Course struct {
	ID                          int64          `db:"id" json:"id"`
	StudentID                   int64          `db:"student_id" json:"-"`
	PreferredCourse             string         `db:"preferred_course" json:"preferred_course"`
	Objectives                  types.JSONText `db:"objectives" json:"objectives"`
	PriorComputerKnowledge      *string        `db:"prior_computer_knowledge" json:"prior_computer_knowledge"`
	SeekEmploymentOpportunities *bool          `db:"seek_employment_opportunities" json:"seek_employment_opportunities"`
	HearAboutPediforte          *string        `db:"hear_about_pediforte" json:"hear_about_pediforte"`
	RegistrationDate            *Date          `db:"registration_date" json:"registration_date"`
	ResumptionDate              *Date          `db:"resumption_date" json:"resumption_date"`
	CreatedAt                   time.Time      `db:"created_at" json:"created_at"`
}

// Registration status filters used by listing and export.
const (
	StudentStatusAll        = "all"
	StudentStatusRegistered = "registered"
	StudentStatusPending    = "pending"
)

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search   string
	Status   string
	Page     int
	PageSize int
}

// AgreementChange describes an agreement row to append alongside a student write.
type AgreementChange struct {
	Agreed    bool
	Rules     *StudentRules
	IPAddress string
	UserAgent string
}
