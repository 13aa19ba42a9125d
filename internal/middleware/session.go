package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pediforte/registration-api/internal/models"
	appErrors "github.com/pediforte/registration-api/pkg/errors"
	"github.com/pediforte/registration-api/pkg/response"
)

// Context keys storing the authenticated admin and session.
const (
	ContextAdminKey   = "currentAdmin"
	ContextSessionKey = "currentSession"
)

// SessionHeader carries the session token for clients without cookies.
const SessionHeader = "X-Session-ID"

// SessionAuthenticator resolves a session token to its admin.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Admin, *models.AdminSession, error)
}

// SessionToken extracts the session token from the cookie, the X-Session-ID
// header or a bearer Authorization header, in that order.
func SessionToken(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if cookie, err := c.Cookie(cookieName); err == nil && strings.TrimSpace(cookie) != "" {
			return strings.TrimSpace(cookie)
		}
	}
	if header := strings.TrimSpace(c.GetHeader(SessionHeader)); header != "" {
		return header
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// RequireAdmin rejects requests without a valid admin session before any handler runs.
func RequireAdmin(auth SessionAuthenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c, cookieName)
		if token == "" {
			response.Error(c, appErrors.ErrUnauthenticated)
			c.Abort()
			return
		}

		admin, session, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextAdminKey, admin)
		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// CurrentAdmin returns the admin attached by RequireAdmin.
func CurrentAdmin(c *gin.Context) *models.Admin {
	value, exists := c.Get(ContextAdminKey)
	if !exists {
		return nil
	}
	admin, ok := value.(*models.Admin)
	if !ok {
		return nil
	}
	return admin
}
