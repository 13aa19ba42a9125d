package main

import (
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/pediforte/registration-api/internal/repository"
	"github.com/pediforte/registration-api/internal/service"
	"github.com/pediforte/registration-api/pkg/config"
	"github.com/pediforte/registration-api/pkg/database"
	"github.com/pediforte/registration-api/pkg/logger"
)

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	validate := service.NewValidator(cfg.Catalog.CourseOptions, cfg.Catalog.PaymentMethods)
	cli := commandLine{
		db:       db.DB,
		accounts: service.NewAuthService(repository.NewAdminRepository(db), repository.NewSessionRepository(db), validate, nil, logr, service.AuthConfig{SessionSecret: cfg.Session.Secret}),
		out:      os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logr.Error("admin command failed", zap.Error(err))
		}
		db.Close()
		os.Exit(1)
	}
}
