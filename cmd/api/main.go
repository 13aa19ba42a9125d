package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/pediforte/registration-api/api/swagger"
	"github.com/pediforte/registration-api/internal/handler"
	"github.com/pediforte/registration-api/internal/repository"
	"github.com/pediforte/registration-api/internal/router"
	"github.com/pediforte/registration-api/internal/service"
	"github.com/pediforte/registration-api/pkg/cache"
	"github.com/pediforte/registration-api/pkg/config"
	"github.com/pediforte/registration-api/pkg/database"
	"github.com/pediforte/registration-api/pkg/logger"
	"github.com/pediforte/registration-api/pkg/storage"
)

// @title Pediforte Registration API
// @version 1.0.0
// @description Student registration, rules agreement and admin reporting
// @BasePath /api
// @schemes http https

const shutdownTimeout = 15 * time.Second

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB, "up"); err != nil {
			return err
		}
		logr.Info("database migrations applied")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	app, err := buildApp(cfg, logr, db, redisClient)
	if err != nil {
		return err
	}

	if err := app.bootstrap(ctx, cfg); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("session_store", cfg.Session.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type app struct {
	engine *gin.Engine
	auth   *service.AuthService
	rules  *service.RulesService
	logger *zap.Logger
}

func buildApp(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client) (*app, error) {
	metrics := service.NewMetricsService()
	validate := service.NewValidator(cfg.Catalog.CourseOptions, cfg.Catalog.PaymentMethods)

	files, err := storage.NewLocalStorage(cfg.Passport.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("init passport storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Passport.SignedURLSecret, cfg.Passport.SignedURLTTL)

	adminRepo := repository.NewAdminRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	rulesRepo := repository.NewRulesRepository(db)
	agreementRepo := repository.NewAgreementRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	var sessions service.SessionStore
	if cfg.Session.Store == config.SessionStoreRedis && redisClient != nil {
		sessions = repository.NewRedisSessionRepository(redisClient, cache.NewBreaker("session-store", logr), logr)
	} else {
		sessions = repository.NewSessionRepository(db)
	}

	catalog := service.NewCatalogService(cfg.Catalog.CourseOptions, cfg.Catalog.PaymentMethods)
	authSvc := service.NewAuthService(adminRepo, sessions, validate, metrics, logr, service.AuthConfig{
		SessionSecret: cfg.Session.Secret,
		SessionTTL:    cfg.Session.TTL,
		Issuer:        "pediforte-registration-api",
	})
	studentSvc := service.NewStudentService(studentRepo, rulesRepo, files, validate, metrics, logr)
	passportSvc := service.NewPassportService(studentRepo, files, signer, metrics, logr, service.PassportConfig{
		MaxFileSize:       cfg.Passport.MaxFileSizeBytes,
		AllowedExtensions: cfg.Passport.AllowedExtensions,
		LinkBasePath:      cfg.APIPrefix + "/passports",
	})
	rulesSvc := service.NewRulesService(rulesRepo, validate, logr)
	agreementSvc := service.NewAgreementService(agreementRepo, studentRepo, rulesRepo, metrics, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, catalog, logr, service.DashboardServiceConfig{RecentDays: cfg.Dashboard.RecentDays})
	exportSvc := service.NewExportService(studentRepo, logr, nil, nil)

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	engine := router.New(router.Config{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		CookieName:     cfg.Session.CookieName,
		EnableDocs:     cfg.Env != config.EnvProduction,
	}, router.Handlers{
		Auth: handler.NewAuthHandler(authSvc, handler.CookieConfig{
			Name:   cfg.Session.CookieName,
			Domain: cfg.Session.CookieDomain,
			Secure: cfg.Session.CookieSecure,
		}),
		Students:  handler.NewStudentHandler(studentSvc),
		Passports: handler.NewPassportHandler(passportSvc),
		Rules:     handler.NewRulesHandler(rulesSvc),
		Agreement: handler.NewAgreementHandler(agreementSvc),
		Dashboard: handler.NewDashboardHandler(dashboardSvc, catalog),
		Export:    handler.NewExportHandler(exportSvc),
		Health:    handler.NewHealthHandler(version, checks),
		Metrics:   handler.NewMetricsHandler(metrics),
	}, authSvc, metrics, logr)

	return &app{engine: engine, auth: authSvc, rules: rulesSvc, logger: logr}, nil
}

// bootstrap seeds the first admin and the default rules, then drops stale sessions.
func (a *app) bootstrap(ctx context.Context, cfg *config.Config) error {
	boot := cfg.Bootstrap
	if err := a.auth.SeedAdmin(ctx, boot.AdminUsername, boot.AdminEmail, boot.AdminPassword); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if boot.SeedDefaultRules {
		if err := a.rules.SeedDefault(ctx, nil); err != nil {
			return fmt.Errorf("seed rules: %w", err)
		}
	}
	purged, err := a.auth.PurgeExpiredSessions(ctx)
	if err != nil {
		a.logger.Warn("failed to purge expired sessions", zap.Error(err))
	} else if purged > 0 {
		a.logger.Info("purged expired sessions", zap.Int64("count", purged))
	}
	return nil
}
