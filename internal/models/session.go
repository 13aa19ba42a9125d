package models

import "time"

// AdminSession is a server-side login session bound to an admin.
type AdminSession struct {
	ID        string    `db:"id" json:"id"`
	AdminID   int64     `db:"admin_id" json:"admin_id"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
}

// Expired reports whether the session is no longer valid at now.
func (s AdminSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
