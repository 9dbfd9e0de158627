package server

import (
	"ripple/internal/middleware"
	"ripple/internal/models"
	"ripple/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// CreateCommunity handles POST /api/communities
func (s *Server) CreateCommunity(c *fiber.Ctx) error {
	actor, err := s.actorSnapshot(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	var req struct {
		Name        string           `json:"name"`
		Description string           `json:"description,omitempty"`
		AvatarURL   string           `json:"avatar_url,omitempty"`
		CoverURL    string           `json:"cover_url,omitempty"`
		Privacy     string           `json:"privacy,omitempty"`
		Category    string           `json:"category,omitempty"`
		Channels    []models.Channel `json:"channels,omitempty"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	community, err := s.communityRepo.Create(c.Context(), repository.CreateCommunityInput{
		Creator:     actor,
		Name:        req.Name,
		Description: req.Description,
		AvatarURL:   req.AvatarURL,
		CoverURL:    req.CoverURL,
		Privacy:     models.CommunityPrivacy(req.Privacy),
		Category:    req.Category,
		Channels:    req.Channels,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(community)
}

// GetCommunities handles GET /api/communities
func (s *Server) GetCommunities(c *fiber.Ctx) error {
	communities, err := s.communityRepo.List(c.Context())
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(communities)
}

// GetCommunity handles GET /api/communities/:id
func (s *Server) GetCommunity(c *fiber.Ctx) error {
	community, err := s.communityRepo.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(community)
}

// JoinCommunity handles POST /api/communities/:id/join
func (s *Server) JoinCommunity(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if err := s.communityRepo.Join(c.Context(), c.Params("id"), userID); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"joined": true})
}

// LeaveCommunity handles DELETE /api/communities/:id/join
func (s *Server) LeaveCommunity(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if err := s.communityRepo.Leave(c.Context(), c.Params("id"), userID); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"joined": false})
}
