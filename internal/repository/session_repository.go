package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pediforte/registration-api/internal/models"
)

// SessionRepository stores admin sessions in postgres.
type SessionRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSessionRepository constructs a postgres-backed session store.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// Create persists a new session.
func (r *SessionRepository) Create(ctx context.Context, session *models.AdminSession) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = r.now().UTC()
	}
	const query = `INSERT INTO admin_sessions (id, admin_id, expires_at, created_at, ip_address, user_agent)
        VALUES (:id, :admin_id, :expires_at, :created_at, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Get returns a live session or ErrSessionNotFound.
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.AdminSession, error) {
	const query = `SELECT id, admin_id, expires_at, created_at, COALESCE(ip_address, '') AS ip_address, COALESCE(user_agent, '') AS user_agent
        FROM admin_sessions WHERE id = $1 AND expires_at > $2`
	var session models.AdminSession
	if err := r.db.GetContext(ctx, &session, query, id, r.now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}

// Delete removes a session; unknown ids are ignored.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired drops sessions past their expiry and reports how many were removed.
func (r *SessionRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE expires_at <= $1`, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	removed, _ := res.RowsAffected()
	return removed, nil
}
