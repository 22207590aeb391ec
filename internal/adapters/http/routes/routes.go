package routes

import (
	"openshelf/internal/adapters/http/handlers"
	"openshelf/internal/adapters/persistence/repositories"
	"openshelf/internal/config"
	"openshelf/internal/core/clients"
	"openshelf/internal/core/services"
	"openshelf/internal/pkg/httpclient"
	"openshelf/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers onto the app and returns
// the cron service so the caller controls its lifecycle. The loan
// coordinator talks to the user directory and book inventory through ports:
// in-process repositories by default, HTTP clients when the matching service
// URL is configured.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, log *logger.Logger) *services.CronService {
	bookRepo := repositories.NewBookRepository(db)
	userRepo := repositories.NewUserRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	intentRepo := repositories.NewLoanIntentRepository(db)

	upstreamConfig := httpclient.Config{
		Timeout:     cfg.UpstreamTimeout,
		MaxAttempts: cfg.UpstreamRetries,
		Backoff:     httpclient.DefaultConfig().Backoff,
	}

	var directory services.UserDirectory = services.NewLocalDirectory(userRepo)
	if cfg.UserServiceURL != "" {
		directory = clients.NewUserClient(cfg.UserServiceURL, upstreamConfig, log)
	}
	var inventory services.BookInventory = services.NewLocalInventory(bookRepo)
	if cfg.BookServiceURL != "" {
		inventory = clients.NewBookClient(cfg.BookServiceURL, upstreamConfig, log)
	}

	bookService := services.NewBookService(bookRepo)
	userService := services.NewUserService(userRepo)
	loanService := services.NewLoanService(directory, inventory, loanRepo, intentRepo, log)
	statsService := services.NewStatsService(bookRepo, userRepo, loanRepo, directory, inventory)
	reconcileService := services.NewReconcileService(intentRepo, inventory, cfg.IntentExpiry, log)
	cronService := services.NewCronService(reconcileService, loanService, log)

	bookHandler := handlers.NewBookHandler(bookService)
	userHandler := handlers.NewUserHandler(userService, loanService)
	loanHandler := handlers.NewLoanHandler(loanService)
	statsHandler := handlers.NewStatsHandler(statsService)
	healthHandler := handlers.NewHealthHandler(db)

	app.Get("/health", healthHandler.Check)

	api := app.Group("/api/v1")

	books := api.Group("/books")
	books.Post("/", bookHandler.Create)
	books.Get("/", bookHandler.List)
	books.Get("/:id", bookHandler.Get)
	books.Put("/:id", bookHandler.Update)
	books.Delete("/:id", bookHandler.Delete)
	books.Patch("/:id/availability", bookHandler.AdjustAvailability)

	users := api.Group("/users")
	users.Post("/", userHandler.Create)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.Get)
	users.Put("/:id", userHandler.Update)
	users.Get("/:id/loans", userHandler.GetLoans)

	loans := api.Group("/loans")
	loans.Post("/", loanHandler.Create)
	loans.Get("/", loanHandler.List)
	loans.Get("/overdue", loanHandler.GetOverdue)
	loans.Get("/:id", loanHandler.Get)
	loans.Post("/:id/return", loanHandler.Return)
	loans.Post("/:id/extend", loanHandler.Extend)

	stats := api.Group("/stats")
	stats.Get("/popular-books", statsHandler.GetPopularBooks)
	stats.Get("/active-users", statsHandler.GetActiveUsers)
	stats.Get("/overview", statsHandler.GetOverview)

	return cronService
}
