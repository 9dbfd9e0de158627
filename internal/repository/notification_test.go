package repository

import (
	"context"
	"testing"

	"ripple/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendNotif(t *testing.T, repo NotificationRepository, recipient, payload string) *models.Notification {
	t.Helper()
	n, err := repo.Append(context.Background(), AppendNotificationInput{
		RecipientID: recipient,
		Kind:        models.NotificationLike,
		Sender:      &models.UserSnapshot{ID: "sender"},
		Payload:     payload,
	})
	require.NoError(t, err)
	return n
}

func TestNotificationListNewestFirst(t *testing.T) {
	ctx := context.Background()
	st, b := newTestBackend(t)
	repo := NewNotificationRepository(st, b)

	appendNotif(t, repo, "u1", "first")
	appendNotif(t, repo, "u1", "second")
	appendNotif(t, repo, "u1", "third")
	appendNotif(t, repo, "u2", "other partition")

	notifs, err := repo.ListByRecipient(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notifs, 3)
	assert.Equal(t, "third", notifs[0].Payload)
	assert.Equal(t, "second", notifs[1].Payload)
	assert.Equal(t, "first", notifs[2].Payload)
}

func TestNotificationAppendValidation(t *testing.T) {
	ctx := context.Background()
	st, b := newTestBackend(t)
	repo := NewNotificationRepository(st, b)

	_, err := repo.Append(ctx, AppendNotificationInput{Kind: models.NotificationLike})
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	_, err = repo.Append(ctx, AppendNotificationInput{RecipientID: "u1", Kind: "carrier-pigeon"})
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
}

func TestNotificationMarkRead(t *testing.T) {
	ctx := context.Background()
	st, b := newTestBackend(t)
	repo := NewNotificationRepository(st, b)

	n := appendNotif(t, repo, "u1", "ping")

	require.NoError(t, repo.MarkRead(ctx, "u1", n.ID))
	require.NoError(t, repo.MarkRead(ctx, "u1", n.ID)) // already read: no-op

	notifs, err := repo.ListByRecipient(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.True(t, notifs[0].Read)

	err = repo.MarkRead(ctx, "u1", "missing")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestNotificationMarkAllReadSnapshotSemantics(t *testing.T) {
	ctx := context.Background()
	st, b := newTestBackend(t)
	repo := NewNotificationRepository(st, b)

	appendNotif(t, repo, "u1", "one")
	appendNotif(t, repo, "u1", "two")

	require.NoError(t, repo.MarkAllRead(ctx, "u1"))

	// A notification arriving after the sweep stays unread.
	appendNotif(t, repo, "u1", "three")

	notifs, err := repo.ListByRecipient(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notifs, 3)
	for _, n := range notifs {
		if n.Payload == "three" {
			assert.False(t, n.Read)
		} else {
			assert.True(t, n.Read)
		}
	}
}
