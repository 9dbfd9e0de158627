package server

import (
	"ripple/internal/middleware"
	"ripple/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	notifs, err := s.notifRepo.ListByRecipient(c.Context(), middleware.UserID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(notifs)
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	if err := s.fanout.MarkRead(c.Context(), middleware.UserID(c), c.Params("id")); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"read": true})
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	if err := s.fanout.MarkAllRead(c.Context(), middleware.UserID(c)); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"read": true})
}
