package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pediforte/registration-api/internal/models"
	"github.com/pediforte/registration-api/internal/repository"
	appErrors "github.com/pediforte/registration-api/pkg/errors"
)

const minPasswordLength = 6

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// unknownUserHash returns a hash at the same cost as stored admin hashes so
// logins for missing usernames spend the same time in bcrypt.
func unknownUserHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("pediforte-unknown-admin"), bcrypt.DefaultCost)
	})
	return dummyHash
}

type adminRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
	FindByID(ctx context.Context, id int64) (*models.Admin, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, admin *models.Admin) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

// SessionStore persists admin sessions keyed by session id.
type SessionStore interface {
	Create(ctx context.Context, session *models.AdminSession) error
	Get(ctx context.Context, id string) (*models.AdminSession, error)
	Delete(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

// AuthConfig defines configuration for admin sessions.
type AuthConfig struct {
	SessionSecret string
	SessionTTL    time.Duration
	Issuer        string
}

// AuthService provides admin authentication use cases.
type AuthService struct {
	admins    adminRepository
	sessions  SessionStore
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	config    AuthConfig
	now       func() time.Time
	compare   func(hash, password []byte) error
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(admins adminRepository, sessions SessionStore, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = 12 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "pediforte-registration-api"
	}
	return &AuthService{
		admins:    admins,
		sessions:  sessions,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
		compare:   bcrypt.CompareHashAndPassword,
	}
}

// SessionTTL reports the configured session lifetime.
func (s *AuthService) SessionTTL() time.Duration {
	return s.config.SessionTTL
}

// Login verifies credentials and opens a server-side session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	admin, err := s.admins.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = s.compare(unknownUserHash(), []byte(req.Password))
			s.metrics.RecordLogin(false)
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch admin")
	}

	if err := s.compare([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.RecordLogin(false)
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	now := s.now()
	session := &models.AdminSession{
		ID:        uuid.NewString(),
		AdminID:   admin.ID,
		ExpiresAt: now.Add(s.config.SessionTTL),
		CreatedAt: now,
		IPAddress: req.IP,
		UserAgent: req.UserAgent,
	}
	start := time.Now()
	err = s.sessions.Create(ctx, session)
	s.metrics.ObserveSessionStore("create", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}

	token, err := s.signSession(admin, session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session")
	}

	s.metrics.RecordLogin(true)
	s.logger.Info("admin logged in", zap.Int64("admin_id", admin.ID), zap.String("ip", req.IP))

	return &models.LoginResponse{
		Message:   "Login successful",
		SessionID: token,
		ExpiresAt: session.ExpiresAt,
		Admin:     admin.Info(),
	}, nil
}

// Authenticate resolves a session token to the admin it belongs to.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Admin, *models.AdminSession, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	session, err := s.sessions.Get(ctx, claims.ID)
	s.metrics.ObserveSessionStore("get", time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil, appErrors.Clone(appErrors.ErrUnauthenticated, "session expired or invalid")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.Expired(s.now()) || strconv.FormatInt(session.AdminID, 10) != claims.Subject {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthenticated, "session expired or invalid")
	}

	admin, err := s.admins.FindByID(ctx, session.AdminID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrUnauthenticated, "session admin no longer exists")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin")
	}
	return admin, session, nil
}

// Logout drops the session behind token. Unknown or malformed tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return nil
	}
	start := time.Now()
	err = s.sessions.Delete(ctx, claims.ID)
	s.metrics.ObserveSessionStore("delete", time.Since(start))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	return nil
}

// RegisterAdmin creates an additional admin account.
func (s *AuthService) RegisterAdmin(ctx context.Context, req models.RegisterAdminRequest) (*models.Admin, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	admin := &models.Admin{Username: req.Username, Email: req.Email, PasswordHash: string(hash)}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "admin username or email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admin")
	}
	s.logger.Info("admin registered", zap.Int64("admin_id", admin.ID), zap.String("username", admin.Username))
	return admin, nil
}

// EnsureAdmin creates the admin or resets its password when the username already exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (created bool, err error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, appErrors.Clone(appErrors.ErrMissingField, "missing required field: username")
	}
	if len(password) < minPasswordLength {
		return false, appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	existing, err := s.admins.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return false, s.setPassword(ctx, existing.ID, password)
	case !errors.Is(err, sql.ErrNoRows):
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch admin")
	}

	if _, err := s.RegisterAdmin(ctx, models.RegisterAdminRequest{Username: username, Email: email, Password: password}); err != nil {
		return false, err
	}
	return true, nil
}

// ResetPassword replaces the password of an existing admin.
func (s *AuthService) ResetPassword(ctx context.Context, username, password string) error {
	if len(password) < minPasswordLength {
		return appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	admin, err := s.admins.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch admin")
	}
	return s.setPassword(ctx, admin.ID, password)
}

// SeedAdmin creates the bootstrap admin when no admin exists yet.
func (s *AuthService) SeedAdmin(ctx context.Context, username, email, password string) error {
	total, err := s.admins.Count(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count admins")
	}
	if total > 0 {
		return nil
	}
	if password == "" {
		s.logger.Warn("no admin exists and ADMIN_PASSWORD is empty; skipping admin seed")
		return nil
	}
	if _, err := s.EnsureAdmin(ctx, username, email, password); err != nil {
		return err
	}
	s.logger.Info("seeded default admin", zap.String("username", username))
	return nil
}

// PurgeExpiredSessions removes sessions past their expiry.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	removed, err := s.sessions.PurgeExpired(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge sessions")
	}
	return removed, nil
}

func (s *AuthService) setPassword(ctx context.Context, id int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.admins.UpdatePassword(ctx, id, string(hash)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	return nil
}

func (s *AuthService) signSession(admin *models.Admin, session *models.AdminSession) (string, error) {
	claims := &models.SessionClaims{
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Issuer:    s.config.Issuer,
			Subject:   strconv.FormatInt(admin.ID, 10),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.SessionSecret))
}

func (s *AuthService) parseToken(tokenString string) (*models.SessionClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "")
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.SessionSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthenticated.Code, appErrors.ErrUnauthenticated.Status, "invalid session token")
	}
	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "invalid session token")
	}
	return claims, nil
}
