package handler

import (
	"github.com/gofiber/fiber/v2"

	"docvault/internal/service"
)

// DashboardStats handles GET /dashboard/stats.
//
// @Summary Dashboard summary
// @Tags dashboard
// @Success 200 {object} service.DashboardStats
// @Router /dashboard/stats [get]
func DashboardStats(svc service.StatsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := svc.Stats(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(stats)
	}
}
