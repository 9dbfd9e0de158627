// Package service provides application business logic built on the
// repositories (chat, feed composition).
package service

import (
	"context"
	"time"

	"ripple/internal/models"
	"ripple/internal/observability"
	"ripple/internal/repository"

	"github.com/google/uuid"
)

// ChatService provides conversation and messaging business logic.
type ChatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
}

// NewChatService returns a new ChatService.
func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository) *ChatService {
	return &ChatService{chatRepo: chatRepo, userRepo: userRepo}
}

// SendMessageInput is the input for sending a message.
type SendMessageInput struct {
	ChatID    string
	SenderID  string
	Kind      models.MessageKind
	Content   string
	MediaURL  string
	ReplyToID string
}

// CreateDirectChat opens a direct conversation between two users,
// resolving member snapshots once at creation.
func (s *ChatService) CreateDirectChat(ctx context.Context, callerID, otherID string) (*models.Chat, error) {
	if callerID == "" {
		return nil, models.NewUnauthorizedError("caller identity required")
	}
	if callerID == otherID {
		return nil, models.NewInvalidOperationError("Cannot open a chat with yourself")
	}

	members := make([]models.UserSnapshot, 0, 2)
	for _, id := range []string{callerID, otherID} {
		snapshot, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			if models.ErrorCode(err) == models.CodeNotFound {
				snapshot = &models.UserSnapshot{ID: id}
			} else {
				return nil, err
			}
		}
		members = append(members, *snapshot)
	}
	return s.chatRepo.Create(ctx, models.ChatDirect, members)
}

// CreateGroupChat opens a group conversation.
func (s *ChatService) CreateGroupChat(ctx context.Context, callerID string, memberIDs []string) (*models.Chat, error) {
	if callerID == "" {
		return nil, models.NewUnauthorizedError("caller identity required")
	}
	seen := map[string]bool{callerID: true}
	ids := []string{callerID}
	for _, id := range memberIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	members := make([]models.UserSnapshot, 0, len(ids))
	for _, id := range ids {
		snapshot, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			if models.ErrorCode(err) == models.CodeNotFound {
				snapshot = &models.UserSnapshot{ID: id}
			} else {
				return nil, err
			}
		}
		members = append(members, *snapshot)
	}
	return s.chatRepo.Create(ctx, models.ChatGroup, members)
}

// SendMessage appends the message, refreshes the chat's last-message
// preview, and bumps every other member's unread counter. The message
// write is the source of truth; the preview and counters are derived and
// may lag it briefly.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	if in.SenderID == "" {
		return nil, models.NewUnauthorizedError("caller identity required")
	}
	if in.Kind == "" {
		in.Kind = models.MessageText
	}
	if in.Kind == models.MessageText && in.Content == "" {
		return nil, models.NewValidationError("Message content is required")
	}

	span, ctx := observability.NewSpan(ctx, "chat.send_message")
	defer span.End()

	chat, err := s.chatRepo.GetByID(ctx, in.ChatID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if !chat.HasMember(in.SenderID) {
		return nil, models.NewInvalidOperationError("Sender is not a member of this chat")
	}
	if in.ReplyToID != "" {
		if _, err := s.chatRepo.GetMessage(ctx, in.ChatID, in.ReplyToID); err != nil {
			return nil, err
		}
	}

	msg := &models.Message{
		ID:        uuid.NewString(),
		ChatID:    in.ChatID,
		SenderID:  in.SenderID,
		Kind:      in.Kind,
		Content:   in.Content,
		MediaURL:  in.MediaURL,
		ReplyToID: in.ReplyToID,
		Status:    models.MessageStatusSent,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.chatRepo.AppendMessage(ctx, msg); err != nil {
		span.SetError(err)
		return nil, err
	}

	preview := models.MessagePreview{
		SenderID: msg.SenderID,
		Content:  previewText(msg),
		SentAt:   msg.CreatedAt,
	}
	if err := s.chatRepo.SetLastMessage(ctx, in.ChatID, preview); err != nil {
		span.SetError(err)
		return nil, err
	}
	for _, member := range chat.MemberIDs {
		if member == in.SenderID {
			continue
		}
		if err := s.chatRepo.IncrementUnread(ctx, in.ChatID, member); err != nil {
			span.SetError(err)
			return nil, err
		}
	}
	return msg, nil
}

// MarkChatRead zeroes the member's unread counter and advances every
// message in the chat to read from that member's perspective.
func (s *ChatService) MarkChatRead(ctx context.Context, chatID, memberID string) error {
	if memberID == "" {
		return models.NewUnauthorizedError("caller identity required")
	}
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasMember(memberID) {
		return models.NewInvalidOperationError("Not a member of this chat")
	}

	if err := s.chatRepo.ResetUnread(ctx, chatID, memberID); err != nil {
		return err
	}
	msgs, err := s.chatRepo.ListMessages(ctx, chatID)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if msg.SenderID == memberID {
			continue
		}
		if err := s.chatRepo.UpdateMessageStatus(ctx, chatID, msg.ID, models.MessageStatusRead); err != nil {
			return err
		}
	}
	return nil
}

// previewText is the truncated rendering stored on the chat.
func previewText(msg *models.Message) string {
	switch msg.Kind {
	case models.MessageImage:
		return "[image]"
	case models.MessageAudio:
		return "[audio]"
	case models.MessageVideo:
		return "[video]"
	}
	const maxPreview = 140
	if len(msg.Content) > maxPreview {
		return msg.Content[:maxPreview]
	}
	return msg.Content
}
