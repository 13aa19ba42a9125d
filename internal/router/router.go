package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/pediforte/registration-api/internal/handler"
	"github.com/pediforte/registration-api/internal/middleware"
	"github.com/pediforte/registration-api/internal/service"
	appErrors "github.com/pediforte/registration-api/pkg/errors"
	"github.com/pediforte/registration-api/pkg/logger"
	corsmiddleware "github.com/pediforte/registration-api/pkg/middleware/cors"
	reqidmiddleware "github.com/pediforte/registration-api/pkg/middleware/requestid"
	"github.com/pediforte/registration-api/pkg/response"
)

// Config controls route registration.
type Config struct {
	APIPrefix      string
	AllowedOrigins []string
	CookieName     string
	EnableDocs     bool
}

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Auth      *handler.AuthHandler
	Students  *handler.StudentHandler
	Passports *handler.PassportHandler
	Rules     *handler.RulesHandler
	Agreement *handler.AgreementHandler
	Dashboard *handler.DashboardHandler
	Export    *handler.ExportHandler
	Health    *handler.HealthHandler
	Metrics   *handler.MetricsHandler
}

// New builds the gin engine with the middleware chain and the route table.
// Admin routes pass through RequireAdmin before any handler runs.
func New(cfg Config, h Handlers, auth middleware.SessionAuthenticator, metrics *service.MetricsService, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(middleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})

	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/admin/login", h.Auth.Login)
	api.POST("/admin/logout", h.Auth.Logout)

	api.GET("/students", h.Students.List)
	api.POST("/students", h.Students.Create)
	api.GET("/students/:id", h.Students.Get)
	api.POST("/students/:id/passport", h.Passports.Upload)
	api.POST("/students/:id/agreement", h.Agreement.Record)
	api.GET("/student-rules", h.Rules.Active)
	api.GET("/course-options", h.Dashboard.CourseOptions)
	api.GET("/passports/:token", h.Passports.Signed)

	requireAdmin := middleware.RequireAdmin(auth, cfg.CookieName)

	api.GET("/students/:id/agreement", requireAdmin, h.Agreement.History)

	admin := api.Group("/admin", requireAdmin)
	admin.GET("/me", h.Auth.Me)
	admin.POST("/register", middleware.Audit(log, "create", "admin"), h.Auth.Register)

	admin.GET("/students", h.Students.List)
	admin.POST("/students", middleware.Audit(log, "create", "student"), h.Students.Create)
	admin.GET("/students/:id", h.Students.Get)
	admin.PUT("/students/:id", middleware.Audit(log, "update", "student"), h.Students.Update)
	admin.DELETE("/students/:id", middleware.Audit(log, "delete", "student"), h.Students.Delete)
	admin.GET("/students/:id/passport", h.Passports.Download)
	admin.GET("/students/:id/passport/link", h.Passports.Link)

	admin.GET("/student-rules", h.Rules.List)
	admin.POST("/student-rules", middleware.Audit(log, "create", "student_rules"), h.Rules.Create)
	admin.PUT("/student-rules", middleware.Audit(log, "activate", "student_rules"), h.Rules.Activate)
	admin.GET("/rules-analytics", h.Rules.Analytics)

	admin.GET("/dashboard", h.Dashboard.Stats)
	admin.GET("/export", middleware.Audit(log, "export", "students"), h.Export.Export)

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		response.Error(c, appErrors.New("METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed, "method not allowed"))
	})

	return r
}
