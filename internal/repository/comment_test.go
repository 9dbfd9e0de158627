package repository

import (
	"context"
	"testing"
	"time"

	"ripple/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentCreateAndListOldestFirst(t *testing.T) {
	ctx := context.Background()
	st, b := newTestBackend(t)
	repo := NewCommentRepository(st, b)

	author := models.UserSnapshot{ID: "u1", Username: "ada"}
	first, err := repo.Create(ctx, "post-1", author, "first")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := repo.Create(ctx, "post-1", author, "second")
	require.NoError(t, err)

	comments, err := repo.ListByPost(ctx, "post-1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, first.ID, comments[0].ID)
	assert.Equal(t, second.ID, comments[1].ID)
}

func TestCommentCreateValidation(t *testing.T) {
	ctx := context.Background()
	st, b := newTestBackend(t)
	repo := NewCommentRepository(st, b)

	_, err := repo.Create(ctx, "post-1", models.UserSnapshot{}, "text")
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))

	_, err = repo.Create(ctx, "post-1", models.UserSnapshot{ID: "u1"}, "")
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
}

func TestCommentAppendReplyNestsInParent(t *testing.T) {
	ctx := context.Background()
	st, b := newTestBackend(t)
	repo := NewCommentRepository(st, b)

	author := models.UserSnapshot{ID: "u1", Username: "ada"}
	parent, err := repo.Create(ctx, "post-1", author, "parent")
	require.NoError(t, err)

	replier := models.UserSnapshot{ID: "u2", Username: "lin"}
	reply, err := repo.AppendReply(ctx, "post-1", parent.ID, replier, "reply")
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, "post-1", parent.ID)
	require.NoError(t, err)
	require.Len(t, got.Replies, 1)
	assert.Equal(t, reply.ID, got.Replies[0].ID)
	assert.Equal(t, "reply", got.Replies[0].Text)

	// Replies live inside the parent record, not in the collection.
	comments, err := repo.ListByPost(ctx, "post-1")
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestCommentAppendReplyUnknownParent(t *testing.T) {
	ctx := context.Background()
	st, b := newTestBackend(t)
	repo := NewCommentRepository(st, b)

	_, err := repo.AppendReply(ctx, "post-1", "missing", models.UserSnapshot{ID: "u1"}, "reply")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestCommentLikesMergeIntoView(t *testing.T) {
	ctx := context.Background()
	st, b := newTestBackend(t)
	repo := NewCommentRepository(st, b)

	author := models.UserSnapshot{ID: "u1", Username: "ada"}
	comment, err := repo.Create(ctx, "post-1", author, "likeable")
	require.NoError(t, err)

	_, err = st.AtomicUpdate(ctx, CommentLikesPath("post-1", comment.ID), func(cur int64) int64 { return cur + 2 })
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, "post-1", comment.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Likes)
}
