package server

import (
	"ripple/internal/middleware"
	"ripple/internal/models"
	"ripple/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// CreateVibe handles POST /api/vibes
func (s *Server) CreateVibe(c *fiber.Ctx) error {
	actor, err := s.actorSnapshot(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	var req struct {
		MediaURL  string               `json:"media_url"`
		MediaType string               `json:"media_type"`
		Overlays  []models.VibeOverlay `json:"overlays,omitempty"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	vibe, err := s.vibeRepo.Create(c.Context(), repository.CreateVibeInput{
		Author:    actor,
		MediaURL:  req.MediaURL,
		MediaType: models.VibeMediaType(req.MediaType),
		Overlays:  req.Overlays,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(vibe)
}

// GetVibeRails handles GET /api/vibes/rails
func (s *Server) GetVibeRails(c *fiber.Ctx) error {
	rails, err := s.vibes.RailsForViewer(c.Context(), middleware.UserID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(rails)
}

// MarkVibeSeen handles POST /api/vibes/:id/seen
func (s *Server) MarkVibeSeen(c *fiber.Ctx) error {
	if err := s.vibes.MarkSeen(c.Context(), c.Params("id"), middleware.UserID(c)); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"seen": true})
}
