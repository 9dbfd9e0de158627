package engagement

import (
	"context"
	"testing"

	"ripple/internal/broker"
	"ripple/internal/models"
	"ripple/internal/notifications"
	"ripple/internal/repository"
	"ripple/internal/store"
	"ripple/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engagementFixture struct {
	svc    *Service
	posts  repository.PostRepository
	notifs repository.NotificationRepository
}

func newFixture(t *testing.T) *engagementFixture {
	t.Helper()
	st := store.NewMemoryStore()
	t.Cleanup(func() { _ = st.Close() })
	b := broker.New(st)

	posts := repository.NewPostRepository(st, b)
	comments := repository.NewCommentRepository(st, b)
	products := repository.NewProductRepository(st, b)
	notifs := repository.NewNotificationRepository(st, b)
	users := repository.NewUserRepository(st)
	fanout := notifications.NewFanout(notifs, users)

	return &engagementFixture{
		svc:    New(st, posts, comments, products, fanout),
		posts:  posts,
		notifs: notifs,
	}
}

func (f *engagementFixture) createPost(t *testing.T, author models.UserSnapshot) *models.Post {
	t.Helper()
	post, err := f.posts.Create(context.Background(), testutil.FakePostInput(author))
	require.NoError(t, err)
	return post
}

func TestTogglePostLike(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := testutil.FakeUser()
	post := f.createPost(t, author)

	result, err := f.svc.TogglePostLike(ctx, post.ID, "liker-1")
	require.NoError(t, err)
	assert.True(t, result.Liked)
	assert.EqualValues(t, 1, result.Count)

	liked, err := f.svc.IsLiked(ctx, KindPost, post.ID, "liker-1")
	require.NoError(t, err)
	assert.True(t, liked)

	// The author gets exactly one like notification.
	notifs, err := f.notifs.ListByRecipient(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationLike, notifs[0].Kind)
	assert.Equal(t, post.ID, notifs[0].TargetID)
}

func TestTogglePostLikeTwiceNetsToZero(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := testutil.FakeUser()
	post := f.createPost(t, author)

	_, err := f.svc.TogglePostLike(ctx, post.ID, "liker-1")
	require.NoError(t, err)

	result, err := f.svc.TogglePostLike(ctx, post.ID, "liker-1")
	require.NoError(t, err)
	assert.False(t, result.Liked)
	assert.EqualValues(t, 0, result.Count)

	liked, err := f.svc.IsLiked(ctx, KindPost, post.ID, "liker-1")
	require.NoError(t, err)
	assert.False(t, liked)

	// Un-like emits nothing: still one notification from the like.
	notifs, err := f.notifs.ListByRecipient(ctx, author.ID)
	require.NoError(t, err)
	assert.Len(t, notifs, 1)
}

func TestSelfLikeSuppressesNotification(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := testutil.FakeUser()
	post := f.createPost(t, author)

	result, err := f.svc.TogglePostLike(ctx, post.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, result.Liked)
	assert.EqualValues(t, 1, result.Count, "the counter still moves on self-like")

	notifs, err := f.notifs.ListByRecipient(ctx, author.ID)
	require.NoError(t, err)
	assert.Empty(t, notifs)
}

func TestToggleLikeUnknownPost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.TogglePostLike(ctx, "missing", "liker-1")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestToggleLikeRequiresIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	post := f.createPost(t, testutil.FakeUser())

	_, err := f.svc.TogglePostLike(ctx, post.ID, "")
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
}

func TestViewAndShareCounters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	post := f.createPost(t, testutil.FakeUser())

	n, err := f.svc.IncrementView(ctx, post.ID, "viewer")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = f.svc.IncrementView(ctx, post.ID, "viewer")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n, "views are monotonic, not per-user")

	n, err = f.svc.IncrementShare(ctx, post.ID, "viewer")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := f.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Counters.Views)
	assert.EqualValues(t, 1, got.Counters.Shares)
}

func TestViewUnknownPostNeverMaterializesCounter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.IncrementView(ctx, "missing", "viewer")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestRepost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := testutil.FakeUser()
	original := f.createPost(t, author)

	actor := testutil.FakeUser()
	repost, err := f.svc.Repost(ctx, original.ID, actor, "")
	require.NoError(t, err)
	assert.Empty(t, repost.Content)
	require.NotNil(t, repost.QuotedPost)
	assert.Equal(t, original.ID, repost.QuotedPost.ID)

	got, err := f.posts.GetByID(ctx, original.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Counters.Reposts)

	notifs, err := f.notifs.ListByRecipient(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationRepost, notifs[0].Kind)
}

func TestAddCommentBumpsCounterAndNotifies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	author := testutil.FakeUser()
	post := f.createPost(t, author)

	commenter := testutil.FakeUser()
	comment, err := f.svc.AddComment(ctx, post.ID, commenter, "nice one")
	require.NoError(t, err)
	assert.Equal(t, post.ID, comment.PostID)

	got, err := f.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Counters.Comments)

	notifs, err := f.notifs.ListByRecipient(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationComment, notifs[0].Kind)
}

func TestAddReplyNotifiesParentAuthor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	postAuthor := testutil.FakeUser()
	post := f.createPost(t, postAuthor)

	commenter := testutil.FakeUser()
	parent, err := f.svc.AddComment(ctx, post.ID, commenter, "parent")
	require.NoError(t, err)

	replier := testutil.FakeUser()
	_, err = f.svc.AddReply(ctx, post.ID, parent.ID, replier, "reply")
	require.NoError(t, err)

	// The reply notification goes to the comment author, not the post
	// author.
	notifs, err := f.notifs.ListByRecipient(ctx, commenter.ID)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, parent.ID, notifs[0].TargetID)

	got, err := f.posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Counters.Comments)
}
