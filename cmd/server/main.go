package main

import (
	"os"
	"os/signal"
	"syscall"

	"openshelf/internal/adapters/http/middleware"
	"openshelf/internal/adapters/http/routes"
	"openshelf/internal/adapters/persistence/models"
	"openshelf/internal/config"
	"openshelf/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}

	if err := models.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("auto migration failed")
	}

	if cfg.IsDevelopment() {
		if err := config.SeedDatabase(db); err != nil {
			log.WithError(err).Fatal("database seeding failed")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      "OpenShelf",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	middleware.Setup(app)
	cronService := routes.Setup(app, db, cfg, log)

	if err := cronService.Start(cfg.ReconcileInterval); err != nil {
		log.WithError(err).Fatal("failed to start background schedules")
	}

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Info("shutting down server")
		cronService.Stop()
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("server shutdown failed")
		}
	}()

	log.WithField("port", cfg.ServerPort).Info("server starting")
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.WithError(err).Fatal("server stopped unexpectedly")
	}
}
