package server

import (
	"ripple/internal/middleware"
	"ripple/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UpsertMyProfile handles PUT /api/users/me. Profile snapshots feed
// notification sender resolution and chat member resolution.
func (s *Server) UpsertMyProfile(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name,omitempty"`
		AvatarURL   string `json:"avatar_url,omitempty"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}
	if req.Username == "" {
		return models.RespondWithError(c, models.NewValidationError("Username is required"))
	}

	snapshot := models.UserSnapshot{
		ID:          userID,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	}
	if err := s.userRepo.Put(c.Context(), snapshot); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(snapshot)
}

// GetUser handles GET /api/users/:id
func (s *Server) GetUser(c *fiber.Ctx) error {
	snapshot, err := s.userRepo.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(snapshot)
}
