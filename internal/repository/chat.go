package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"ripple/internal/broker"
	"ripple/internal/models"
	"ripple/internal/observability"
	"ripple/internal/store"

	"github.com/google/uuid"
)

// ChatRepository defines the interface for chat and message data.
type ChatRepository interface {
	Create(ctx context.Context, kind models.ChatKind, members []models.UserSnapshot) (*models.Chat, error)
	GetByID(ctx context.Context, id string) (*models.Chat, error)
	ListByMember(ctx context.Context, userID string) ([]*models.Chat, error)
	Exists(ctx context.Context, id string) (bool, error)

	AppendMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, chatID, id string) (*models.Message, error)
	ListMessages(ctx context.Context, chatID string) ([]*models.Message, error)
	UpdateMessageStatus(ctx context.Context, chatID, id string, status models.MessageStatus) error

	// SetLastMessage refreshes the denormalized preview on the chat.
	SetLastMessage(ctx context.Context, chatID string, preview models.MessagePreview) error
	IncrementUnread(ctx context.Context, chatID, userID string) error
	ResetUnread(ctx context.Context, chatID, userID string) error

	SubscribeMessages(chatID string, fn func([]*models.Message)) func()
}

type chatRepository struct {
	st     store.Store
	broker *broker.Broker
	log    *observability.RepoLogger
}

// NewChatRepository creates a new chat repository.
func NewChatRepository(st store.Store, b *broker.Broker) ChatRepository {
	return &chatRepository{st: st, broker: b, log: observability.NewRepoLogger(ChatsRoot)}
}

func (r *chatRepository) Create(ctx context.Context, kind models.ChatKind, members []models.UserSnapshot) (*models.Chat, error) {
	if len(members) < 2 {
		return nil, models.NewValidationError("A chat needs at least two members")
	}
	if kind == models.ChatDirect && len(members) != 2 {
		return nil, models.NewValidationError("A direct chat has exactly two members")
	}

	memberIDs := make([]string, len(members))
	for i, m := range members {
		if m.ID == "" {
			return nil, models.NewValidationError("Member id is required")
		}
		memberIDs[i] = m.ID
	}

	chat := &models.Chat{
		ID:        uuid.NewString(),
		Kind:      kind,
		MemberIDs: memberIDs,
		Members:   members,
		CreatedAt: time.Now().UTC(),
	}
	if err := putJSON(ctx, r.st, ChatPath(chat.ID), chat); err != nil {
		r.log.LogError(ctx, err, "create")
		return nil, models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, chat.ID)
	return chat, nil
}

func (r *chatRepository) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	var chat models.Chat
	if err := getJSON(ctx, r.st, ChatPath(id), &chat); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, models.NewNotFoundError("Chat", id)
		}
		return nil, models.NewInternalError(err)
	}
	if err := r.mergeUnread(ctx, &chat); err != nil {
		return nil, models.NewInternalError(err)
	}
	return &chat, nil
}

func (r *chatRepository) ListByMember(ctx context.Context, userID string) ([]*models.Chat, error) {
	blobs, err := r.st.List(ctx, ChatsRoot)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	chats := make([]*models.Chat, 0)
	for _, raw := range blobs {
		var chat models.Chat
		if err := unmarshalLenient(raw, &chat); err != nil {
			continue
		}
		if !chat.HasMember(userID) {
			continue
		}
		if err := r.mergeUnread(ctx, &chat); err != nil {
			return nil, models.NewInternalError(err)
		}
		chats = append(chats, &chat)
	}
	sort.Slice(chats, func(i, j int) bool {
		return lastActivity(chats[i]).After(lastActivity(chats[j]))
	})
	return chats, nil
}

func (r *chatRepository) Exists(ctx context.Context, id string) (bool, error) {
	return edgeExists(ctx, r.st, ChatPath(id))
}

func (r *chatRepository) AppendMessage(ctx context.Context, msg *models.Message) error {
	if err := putJSON(ctx, r.st, MessagePath(msg.ChatID, msg.ID), msg); err != nil {
		r.log.LogError(ctx, err, "append_message")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *chatRepository) GetMessage(ctx context.Context, chatID, id string) (*models.Message, error) {
	var msg models.Message
	if err := getJSON(ctx, r.st, MessagePath(chatID, id), &msg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, models.NewNotFoundError("Message", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &msg, nil
}

func (r *chatRepository) ListMessages(ctx context.Context, chatID string) ([]*models.Message, error) {
	blobs, err := r.st.List(ctx, MessageCollection(chatID))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	msgs := make([]*models.Message, 0, len(blobs))
	for _, raw := range blobs {
		var msg models.Message
		if err := unmarshalLenient(raw, &msg); err != nil {
			continue
		}
		msgs = append(msgs, &msg)
	}
	sort.Slice(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}

func (r *chatRepository) UpdateMessageStatus(ctx context.Context, chatID, id string, status models.MessageStatus) error {
	msg, err := r.GetMessage(ctx, chatID, id)
	if err != nil {
		return err
	}
	advanced := models.AdvanceStatus(msg.Status, status)
	if advanced == msg.Status {
		return nil
	}
	msg.Status = advanced
	if err := putJSON(ctx, r.st, MessagePath(chatID, id), msg); err != nil {
		r.log.LogError(ctx, err, "update_message_status")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *chatRepository) SetLastMessage(ctx context.Context, chatID string, preview models.MessagePreview) error {
	var chat models.Chat
	if err := getJSON(ctx, r.st, ChatPath(chatID), &chat); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.NewNotFoundError("Chat", chatID)
		}
		return models.NewInternalError(err)
	}
	chat.LastMessage = &preview
	if err := putJSON(ctx, r.st, ChatPath(chatID), &chat); err != nil {
		r.log.LogError(ctx, err, "set_last_message")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *chatRepository) IncrementUnread(ctx context.Context, chatID, userID string) error {
	if _, err := r.st.AtomicUpdate(ctx, ChatUnreadPath(chatID, userID), func(cur int64) int64 {
		return cur + 1
	}); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

func (r *chatRepository) ResetUnread(ctx context.Context, chatID, userID string) error {
	if _, err := r.st.AtomicUpdate(ctx, ChatUnreadPath(chatID, userID), func(int64) int64 {
		return 0
	}); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

func (r *chatRepository) SubscribeMessages(chatID string, fn func([]*models.Message)) func() {
	return r.broker.Subscribe(MessageCollection(chatID),
		func(ctx context.Context) (interface{}, error) { return r.ListMessages(ctx, chatID) },
		func(v interface{}) { fn(v.([]*models.Message)) },
	)
}

func (r *chatRepository) mergeUnread(ctx context.Context, chat *models.Chat) error {
	counters, err := r.st.List(ctx, ChatUnreadCollection(chat.ID))
	if err != nil {
		return err
	}
	chat.Unread = make(map[string]int64, len(counters))
	for _, id := range chat.MemberIDs {
		chat.Unread[id] = 0
	}
	for member := range counters {
		n, err := readCounter(ctx, r.st, ChatUnreadPath(chat.ID, member))
		if err != nil {
			return err
		}
		chat.Unread[member] = n
	}
	return nil
}

func lastActivity(chat *models.Chat) time.Time {
	if chat.LastMessage != nil {
		return chat.LastMessage.SentAt
	}
	return chat.CreatedAt
}
