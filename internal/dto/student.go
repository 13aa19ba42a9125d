package dto

import (
	"encoding/json"

	"github.com/pediforte/registration-api/internal/models"
)

// StudentRequest is the full registration payload used for create and update.
type StudentRequest struct {
	Surname      string          `json:"surname" validate:"required,max=100"`
	GivenName    string          `json:"given_name" validate:"required,max=100"`
	OtherNames   *string         `json:"other_names" validate:"omitempty,max=100"`
	EmailAddress string          `json:"email_address" validate:"required,email,max=120"`
	PhoneNumber  *string         `json:"phone_number" validate:"omitempty,max=30"`
	HomeAddress  *string         `json:"home_address" validate:"omitempty,max=500"`
	DOB          *string         `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Gender       *string         `json:"gender" validate:"omitempty,max=20"`
	TermsAgreed  *bool           `json:"terms_agreed" validate:"required"`
	CourseInfo   *CourseRequest  `json:"course_info" validate:"required"`
	PaymentInfo  *PaymentRequest `json:"payment_info" validate:"omitempty"`
	IP           string          `json:"-"`
	UserAgent    string          `json:"-"`
}

// CourseRequest is the nested course selection.
type CourseRequest struct {
	PreferredCourse             string          `json:"preferred_course" validate:"required,course"`
	Objectives                  json.RawMessage `json:"objectives" swaggertype:"object"`
	PriorComputerKnowledge      *string         `json:"prior_computer_knowledge" validate:"omitempty,max=200"`
	SeekEmploymentOpportunities *bool           `json:"seek_employment_opportunities"`
	HearAboutPediforte          *string         `json:"hear_about_pediforte" validate:"omitempty,max=200"`
	RegistrationDate            *string         `json:"registration_date" validate:"omitempty,datetime=2006-01-02"`
	ResumptionDate              *string         `json:"resumption_date" validate:"omitempty,datetime=2006-01-02"`
}

// PaymentRequest carries the admin managed fee record. Omitted fields keep
// their stored value.
type PaymentRequest struct {
	CoursePrice   *float64 `json:"course_price" validate:"omitempty,gte=0"`
	AmountPaid    *float64 `json:"amount_paid" validate:"omitempty,gte=0"`
	PaymentMethod *string  `json:"payment_method" validate:"omitempty,payment_method"`
	ReceiptNo     *string  `json:"receipt_no" validate:"omitempty,max=50"`
	PaymentStatus *string  `json:"payment_status" validate:"omitempty,oneof=pending partial completed"`
}

// StudentQuery captures list query parameters.
type StudentQuery struct {
	Search string `form:"search"`
	Status string `form:"status"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// PassportUploadResponse reports the stored passport file.
type PassportUploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// PassportLinkResponse carries a signed, expiring passport download URL.
type PassportLinkResponse struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}

// StudentResponse wraps a student with a human readable message.
type StudentResponse struct {
	Message string          `json:"message,omitempty"`
	Student *models.Student `json:"student"`
}
