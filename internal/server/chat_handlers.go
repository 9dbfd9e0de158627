package server

import (
	"ripple/internal/middleware"
	"ripple/internal/models"
	"ripple/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateChat handles POST /api/chats. A body with a single other member
// opens a direct chat; anything larger opens a group chat.
func (s *Server) CreateChat(c *fiber.Ctx) error {
	callerID := middleware.UserID(c)

	var req struct {
		MemberIDs []string `json:"member_ids"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}
	if len(req.MemberIDs) == 0 {
		return models.RespondWithError(c, models.NewValidationError("At least one member is required"))
	}

	var (
		chat *models.Chat
		err  error
	)
	if len(req.MemberIDs) == 1 {
		chat, err = s.chats.CreateDirectChat(c.Context(), callerID, req.MemberIDs[0])
	} else {
		chat, err = s.chats.CreateGroupChat(c.Context(), callerID, req.MemberIDs)
	}
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(chat)
}

// GetChats handles GET /api/chats
func (s *Server) GetChats(c *fiber.Ctx) error {
	chats, err := s.chatRepo.ListByMember(c.Context(), middleware.UserID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(chats)
}

// GetChat handles GET /api/chats/:id
func (s *Server) GetChat(c *fiber.Ctx) error {
	chat, err := s.chatRepo.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if !chat.HasMember(middleware.UserID(c)) {
		return models.RespondWithError(c, models.NewUnauthorizedError("not a member of this chat"))
	}
	return c.JSON(chat)
}

// GetChatMessages handles GET /api/chats/:id/messages
func (s *Server) GetChatMessages(c *fiber.Ctx) error {
	chat, err := s.chatRepo.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if !chat.HasMember(middleware.UserID(c)) {
		return models.RespondWithError(c, models.NewUnauthorizedError("not a member of this chat"))
	}

	messages, err := s.chatRepo.ListMessages(c.Context(), chat.ID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(messages)
}

// SendChatMessage handles POST /api/chats/:id/messages
func (s *Server) SendChatMessage(c *fiber.Ctx) error {
	var req struct {
		Kind      string `json:"kind,omitempty"`
		Content   string `json:"content,omitempty"`
		MediaURL  string `json:"media_url,omitempty"`
		ReplyToID string `json:"reply_to_id,omitempty"`
	}
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	kind := models.MessageKind(req.Kind)
	if req.Kind == "" {
		kind = models.MessageText
	}

	msg, err := s.chats.SendMessage(c.Context(), service.SendMessageInput{
		ChatID:    c.Params("id"),
		SenderID:  middleware.UserID(c),
		Kind:      kind,
		Content:   req.Content,
		MediaURL:  req.MediaURL,
		ReplyToID: req.ReplyToID,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// MarkChatRead handles POST /api/chats/:id/read
func (s *Server) MarkChatRead(c *fiber.Ctx) error {
	if err := s.chats.MarkChatRead(c.Context(), c.Params("id"), middleware.UserID(c)); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"read": true})
}
