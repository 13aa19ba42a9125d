package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating an admin.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued session and admin info.
type LoginResponse struct {
	Message   string    `json:"message"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Admin     AdminInfo `json:"admin"`
}

// RegisterAdminRequest creates an additional admin account.
type RegisterAdminRequest struct {
	Username string `json:"username" validate:"required,min=3,max=80"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required,min=6"`
}

// SessionClaims is the signed payload of a session token. The JWT ID is the
// server-side session id and the subject is the admin id.
type SessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}
