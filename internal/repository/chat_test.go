package repository

import (
	"context"
	"testing"
	"time"

	"ripple/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMembers() []models.UserSnapshot {
	return []models.UserSnapshot{
		{ID: "u1", Username: "ada"},
		{ID: "u2", Username: "lin"},
	}
}

func TestChatCreateValidation(t *testing.T) {
	ctx := context.Background()
	st, b := newTestBackend(t)
	repo := NewChatRepository(st, b)

	_, err := repo.Create(ctx, models.ChatDirect, testMembers()[:1])
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	three := append(testMembers(), models.UserSnapshot{ID: "u3"})
	_, err = repo.Create(ctx, models.ChatDirect, three)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	_, err = repo.Create(ctx, models.ChatGroup, three)
	assert.NoError(t, err)
}

func TestChatListByMemberSortsByActivity(t *testing.T) {
	ctx := context.Background()
	st, b := newTestBackend(t)
	repo := NewChatRepository(st, b)

	first, err := repo.Create(ctx, models.ChatDirect, testMembers())
	require.NoError(t, err)
	second, err := repo.Create(ctx, models.ChatDirect, []models.UserSnapshot{
		{ID: "u1", Username: "ada"},
		{ID: "u3", Username: "kay"},
	})
	require.NoError(t, err)

	// A fresh message on the first chat pushes it to the top.
	require.NoError(t, repo.SetLastMessage(ctx, first.ID, models.MessagePreview{
		SenderID: "u2",
		Content:  "hello",
		SentAt:   time.Now().UTC().Add(time.Minute),
	}))

	chats, err := repo.ListByMember(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, first.ID, chats[0].ID)
	assert.Equal(t, second.ID, chats[1].ID)

	// u2 sees only the chat they belong to.
	chats, err = repo.ListByMember(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, first.ID, chats[0].ID)
}

func TestChatUnreadCounters(t *testing.T) {
	ctx := context.Background()
	st, b := newTestBackend(t)
	repo := NewChatRepository(st, b)

	chat, err := repo.Create(ctx, models.ChatDirect, testMembers())
	require.NoError(t, err)

	require.NoError(t, repo.IncrementUnread(ctx, chat.ID, "u2"))
	require.NoError(t, repo.IncrementUnread(ctx, chat.ID, "u2"))

	got, err := repo.GetByID(ctx, chat.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Unread["u2"])
	assert.EqualValues(t, 0, got.Unread["u1"])

	require.NoError(t, repo.ResetUnread(ctx, chat.ID, "u2"))
	got, err = repo.GetByID(ctx, chat.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.Unread["u2"])
}

func TestChatMessagesOldestFirst(t *testing.T) {
	ctx := context.Background()
	st, b := newTestBackend(t)
	repo := NewChatRepository(st, b)

	chat, err := repo.Create(ctx, models.ChatDirect, testMembers())
	require.NoError(t, err)

	base := time.Now().UTC()
	for i, text := range []string{"one", "two", "three"} {
		msg := &models.Message{
			ID:        uuid.NewString(),
			ChatID:    chat.ID,
			SenderID:  "u1",
			Kind:      models.MessageText,
			Content:   text,
			Status:    models.MessageStatusSent,
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		}
		require.NoError(t, repo.AppendMessage(ctx, msg))
	}

	msgs, err := repo.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "three", msgs[2].Content)
}

func TestChatMessageStatusMonotonic(t *testing.T) {
	ctx := context.Background()
	st, b := newTestBackend(t)
	repo := NewChatRepository(st, b)

	chat, err := repo.Create(ctx, models.ChatDirect, testMembers())
	require.NoError(t, err)

	msg := &models.Message{
		ID:        uuid.NewString(),
		ChatID:    chat.ID,
		SenderID:  "u1",
		Kind:      models.MessageText,
		Content:   "hi",
		Status:    models.MessageStatusSent,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.AppendMessage(ctx, msg))

	require.NoError(t, repo.UpdateMessageStatus(ctx, chat.ID, msg.ID, models.MessageStatusRead))
	got, err := repo.GetMessage(ctx, chat.ID, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusRead, got.Status)

	// Status never moves backwards.
	require.NoError(t, repo.UpdateMessageStatus(ctx, chat.ID, msg.ID, models.MessageStatusDelivered))
	got, err = repo.GetMessage(ctx, chat.ID, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusRead, got.Status)
}
