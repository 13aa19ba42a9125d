package models

import "time"

// Admin is an operator allowed to manage registrations.
type Admin struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AdminInfo is the public projection of an Admin.
type AdminInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Info strips credentials from the admin record.
func (a Admin) Info() AdminInfo {
	return AdminInfo{ID: a.ID, Username: a.Username, Email: a.Email}
}
