package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pediforte/registration-api/internal/models"
	appErrors "github.com/pediforte/registration-api/pkg/errors"
)

type fakeAuthenticator struct {
	tokens map[string]*models.Admin
	calls  []string
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (*models.Admin, *models.AdminSession, error) {
	f.calls = append(f.calls, token)
	admin, ok := f.tokens[token]
	if !ok {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthenticated, "session expired")
	}
	return admin, &models.AdminSession{ID: token, AdminID: admin.ID}, nil
}

func newGuardedRouter(auth SessionAuthenticator, handled *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequireAdmin(auth, "sid"))
	router.DELETE("/students/:id", func(c *gin.Context) {
		*handled = true
		admin := CurrentAdmin(c)
		c.JSON(http.StatusOK, gin.H{"admin": admin.Username})
	})
	return router
}

func TestRequireAdminRejectsMissingSession(t *testing.T) {
	handled := false
	auth := &fakeAuthenticator{}
	router := newGuardedRouter(auth, &handled)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/students/1", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, handled)
	assert.Empty(t, auth.calls)

	var body struct {
		Error appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, appErrors.ErrUnauthenticated.Code, body.Error.Code)
}

func TestRequireAdminRejectsUnknownSession(t *testing.T) {
	handled := false
	router := newGuardedRouter(&fakeAuthenticator{}, &handled)

	req := httptest.NewRequest(http.MethodDelete, "/students/1", nil)
	req.Header.Set(SessionHeader, "stale")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, handled)
}

func TestRequireAdminAcceptsCookieHeaderAndBearer(t *testing.T) {
	auth := &fakeAuthenticator{tokens: map[string]*models.Admin{"tok": {ID: 1, Username: "admin"}}}

	cookieReq := httptest.NewRequest(http.MethodDelete, "/students/1", nil)
	cookieReq.AddCookie(&http.Cookie{Name: "sid", Value: "tok"})
	headerReq := httptest.NewRequest(http.MethodDelete, "/students/1", nil)
	headerReq.Header.Set(SessionHeader, "tok")
	bearerReq := httptest.NewRequest(http.MethodDelete, "/students/1", nil)
	bearerReq.Header.Set("Authorization", "Bearer tok")

	for _, req := range []*http.Request{cookieReq, headerReq, bearerReq} {
		handled := false
		rec := httptest.NewRecorder()
		newGuardedRouter(auth, &handled).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, handled)
		assert.JSONEq(t, `{"admin":"admin"}`, rec.Body.String())
	}
}

func TestSessionTokenPrefersCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.AddCookie(&http.Cookie{Name: "sid", Value: "from-cookie"})
	c.Request.Header.Set(SessionHeader, "from-header")
	c.Request.Header.Set("Authorization", "Bearer from-bearer")

	assert.Equal(t, "from-cookie", SessionToken(c, "sid"))
	assert.Equal(t, "from-header", SessionToken(c, ""))

	c.Request.Header.Del(SessionHeader)
	assert.Equal(t, "from-bearer", SessionToken(c, ""))

	c.Request.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, SessionToken(c, ""))
}

func TestAuditLogsSuccessfulMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextAdminKey, &models.Admin{ID: 7, Username: "root"})
		c.Next()
	})
	router.DELETE("/students/:id", Audit(zap.New(core), "delete", "student"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.PUT("/students/:id", Audit(zap.New(core), "update", "student"), func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/students/5", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/students/5", nil))

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "delete", fields["action"])
	assert.Equal(t, "5", fields["resource_id"])
	assert.Equal(t, int64(7), fields["admin_id"])
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WithResponseMeta())

	var meta map[string]interface{}
	router.GET("/", func(c *gin.Context) {
		SetMeta(c, "count", 3)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, meta)
	assert.Equal(t, 3, meta["count"])
	assert.Contains(t, meta, "processing_time_ms")

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, ExtractMeta(c))
}
