package server

import (
	"ripple/internal/middleware"
	"ripple/internal/models"

	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/users/:id/follow
func (s *Server) FollowUser(c *fiber.Ctx) error {
	if err := s.graph.Follow(c.Context(), middleware.UserID(c), c.Params("id")); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"following": true})
}

// UnfollowUser handles DELETE /api/users/:id/follow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	if err := s.graph.Unfollow(c.Context(), middleware.UserID(c), c.Params("id")); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"following": false})
}

// GetFollowCounts handles GET /api/users/:id/counts
func (s *Server) GetFollowCounts(c *fiber.Ctx) error {
	counts, err := s.graph.CountsFor(c.Context(), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(counts)
}

// GetFollowers handles GET /api/users/:id/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	ids, err := s.graph.Followers(c.Context(), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"followers": ids})
}

// GetFollowing handles GET /api/users/:id/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	ids, err := s.graph.Following(c.Context(), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"following": ids})
}
