package server

import (
	"ripple/internal/middleware"
	"ripple/internal/models"
	"ripple/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.Context()

	actor, err := s.actorSnapshot(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	var req struct {
		Content     string   `json:"content"`
		Images      []string `json:"images,omitempty"`
		Tags        []string `json:"tags,omitempty"`
		CommunityID string   `json:"community_id,omitempty"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	post, err := s.postRepo.Create(ctx, repository.CreatePostInput{
		Author:      actor,
		Content:     req.Content,
		Images:      req.Images,
		Tags:        req.Tags,
		CommunityID: req.CommunityID,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts handles GET /api/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.postRepo.List(c.Context())
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.postRepo.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(post)
}

// TogglePostLike handles POST /api/posts/:id/like
func (s *Server) TogglePostLike(c *fiber.Ctx) error {
	result, err := s.engagement.TogglePostLike(c.Context(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(result)
}

// ViewPost handles POST /api/posts/:id/view
func (s *Server) ViewPost(c *fiber.Ctx) error {
	count, err := s.engagement.IncrementView(c.Context(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"views": count})
}

// SharePost handles POST /api/posts/:id/share
func (s *Server) SharePost(c *fiber.Ctx) error {
	count, err := s.engagement.IncrementShare(c.Context(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"shares": count})
}

// Repost handles POST /api/posts/:id/repost
func (s *Server) Repost(c *fiber.Ctx) error {
	actor, err := s.actorSnapshot(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	var req struct {
		Content string `json:"content,omitempty"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	post, err := s.engagement.Repost(c.Context(), c.Params("id"), actor, req.Content)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	comments, err := s.commentRepo.ListByPost(c.Context(), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	actor, err := s.actorSnapshot(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	comment, err := s.engagement.AddComment(c.Context(), c.Params("id"), actor, req.Text)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// CreateReply handles POST /api/posts/:id/comments/:commentId/replies
func (s *Server) CreateReply(c *fiber.Ctx) error {
	actor, err := s.actorSnapshot(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	reply, err := s.engagement.AddReply(c.Context(), c.Params("id"), c.Params("commentId"), actor, req.Text)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reply)
}

// ToggleCommentLike handles POST /api/posts/:id/comments/:commentId/like
func (s *Server) ToggleCommentLike(c *fiber.Ctx) error {
	result, err := s.engagement.ToggleCommentLike(c.Context(), c.Params("id"), c.Params("commentId"), middleware.UserID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(result)
}
