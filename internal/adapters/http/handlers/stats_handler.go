package handlers

import (
	"openshelf/internal/core/services"
	"openshelf/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// StatsHandler handles dashboard aggregate requests
type StatsHandler struct {
	statsService *services.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetPopularBooks handles GET /api/v1/stats/popular-books
func (h *StatsHandler) GetPopularBooks(c *fiber.Ctx) error {
	books, err := h.statsService.PopularBooks(c.UserContext())
	if err != nil {
		return response.InternalServerError(c, "Failed to compute popular books")
	}
	return response.OK(c, books)
}

// GetActiveUsers handles GET /api/v1/stats/active-users
func (h *StatsHandler) GetActiveUsers(c *fiber.Ctx) error {
	users, err := h.statsService.ActiveUsers(c.UserContext())
	if err != nil {
		return response.InternalServerError(c, "Failed to compute active users")
	}
	return response.OK(c, users)
}

// GetOverview handles GET /api/v1/stats/overview
func (h *StatsHandler) GetOverview(c *fiber.Ctx) error {
	overview, err := h.statsService.GetOverview(c.UserContext())
	if err != nil {
		return response.InternalServerError(c, "Failed to compute overview")
	}
	return response.OK(c, overview)
}
