package server

import (
	"ripple/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags returns the evaluated flag set for the caller, so
// clients toggle behaviour without re-deploying.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"flags": s.flags.Snapshot(middleware.UserID(c)),
	})
}
