package handlers

import (
	"openshelf/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HealthHandler handles liveness requests
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles GET /health
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return response.Error(c, fiber.StatusServiceUnavailable, "database handle unavailable")
	}
	if err := sqlDB.PingContext(c.UserContext()); err != nil {
		return response.Error(c, fiber.StatusServiceUnavailable, "database unreachable")
	}

	return response.OK(c, fiber.Map{"status": "ok"})
}
