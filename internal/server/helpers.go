package server

import (
	"ripple/internal/middleware"
	"ripple/internal/models"

	"github.com/gofiber/fiber/v2"
)

// actorSnapshot resolves the calling user's profile snapshot. A caller who
// never published a profile still acts under a bare snapshot carrying only
// their id.
func (s *Server) actorSnapshot(c *fiber.Ctx) (models.UserSnapshot, error) {
	userID := middleware.UserID(c)
	if userID == "" {
		return models.UserSnapshot{}, models.NewUnauthorizedError("caller identity required")
	}

	snapshot, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return models.UserSnapshot{ID: userID}, nil
		}
		return models.UserSnapshot{}, err
	}
	return *snapshot, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}
