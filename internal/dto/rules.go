package dto

import "github.com/pediforte/registration-api/internal/models"

// CreateRulesRequest adds a rules version, optionally activating it.
type CreateRulesRequest struct {
	RulesContent string `json:"rules_content" validate:"required"`
	Version      string `json:"version" validate:"omitempty,max=20"`
	Activate     bool   `json:"activate"`
}

// ActivateRulesRequest selects the active rules version, optionally replacing its content.
type ActivateRulesRequest struct {
	Version      string  `json:"version" validate:"required,max=20"`
	RulesContent *string `json:"rules_content" validate:"omitempty,min=1"`
}

// AgreementRequest records a student's answer to the active rules.
type AgreementRequest struct {
	Agreed    *bool  `json:"agreed" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// AgreementResponse echoes the appended agreement row.
type AgreementResponse struct {
	Message   string                `json:"message"`
	Agreement *models.RuleAgreement `json:"agreement"`
}
