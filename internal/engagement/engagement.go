// Package engagement applies concurrent counter and like-edge mutations.
// Every counter change is a single-field atomic transaction; like edges
// are existence-only set members, so membership writes commute and the
// toggle is idempotent per (entity, user) pair.
package engagement

import (
	"context"
	"errors"

	"ripple/internal/models"
	"ripple/internal/notifications"
	"ripple/internal/observability"
	"ripple/internal/repository"
	"ripple/internal/store"
)

// Entity kinds accepted by the like toggle.
const (
	KindPost    = "post"
	KindComment = "comment"
	KindProduct = "product"
)

// Service is the engagement-mutation engine.
type Service struct {
	st       store.Store
	posts    repository.PostRepository
	comments repository.CommentRepository
	products repository.ProductRepository
	fanout   *notifications.Fanout
}

// New creates the engagement service.
func New(st store.Store, posts repository.PostRepository, comments repository.CommentRepository,
	products repository.ProductRepository, fanout *notifications.Fanout) *Service {
	return &Service{st: st, posts: posts, comments: comments, products: products, fanout: fanout}
}

// ToggleResult reports the outcome of a like toggle.
type ToggleResult struct {
	// Liked is the state after the toggle.
	Liked bool `json:"liked"`
	// Count is the counter value the toggle committed.
	Count int64 `json:"count"`
}

// TogglePostLike toggles userID's like on a post. The creating transition
// notifies the author (never on un-like, never on self-like).
func (s *Service) TogglePostLike(ctx context.Context, postID, userID string) (*ToggleResult, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.toggle(ctx, toggleTarget{
		kind:        KindPost,
		entityID:    postID,
		counterPath: repository.PostCounterPath(postID, "likes"),
		authorID:    post.Author.ID,
		notifKind:   models.NotificationLike,
		payload:     "liked your post",
	}, userID)
}

// ToggleCommentLike toggles userID's like on a comment.
func (s *Service) ToggleCommentLike(ctx context.Context, postID, commentID, userID string) (*ToggleResult, error) {
	comment, err := s.comments.GetByID(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}
	return s.toggle(ctx, toggleTarget{
		kind:        KindComment,
		entityID:    commentID,
		counterPath: repository.CommentLikesPath(postID, commentID),
		authorID:    comment.Author.ID,
		notifKind:   models.NotificationLike,
		payload:     "liked your comment",
	}, userID)
}

// ToggleProductLike toggles userID's like on a marketplace listing.
func (s *Service) ToggleProductLike(ctx context.Context, productID, userID string) (*ToggleResult, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.toggle(ctx, toggleTarget{
		kind:        KindProduct,
		entityID:    productID,
		counterPath: repository.ProductLikesPath(productID),
		authorID:    product.Seller.ID,
		notifKind:   models.NotificationLike,
		payload:     "liked your listing",
	}, userID)
}

type toggleTarget struct {
	kind        string
	entityID    string
	counterPath string
	authorID    string
	notifKind   models.NotificationKind
	payload     string
}

func (s *Service) toggle(ctx context.Context, t toggleTarget, userID string) (*ToggleResult, error) {
	if userID == "" {
		return nil, models.NewUnauthorizedError("caller identity required")
	}

	span, ctx := observability.NewSpan(ctx, "engagement.toggle_like")
	defer span.End()

	edge := repository.LikeEdge(t.kind, t.entityID, userID)
	liked, err := s.edgeExists(ctx, edge)
	if err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}

	if liked {
		// Un-like: drop the edge, decrement floored at zero, no fanout.
		if err := s.st.Delete(ctx, edge); err != nil {
			span.SetError(err)
			return nil, models.NewInternalError(err)
		}
		count, err := s.st.AtomicUpdate(ctx, t.counterPath, func(cur int64) int64 {
			if cur <= 0 {
				return 0
			}
			return cur - 1
		})
		if err != nil {
			span.SetError(err)
			return nil, mapStoreErr(err)
		}
		observability.EngagementMutations.WithLabelValues("toggle_like", "unliked").Inc()
		return &ToggleResult{Liked: false, Count: count}, nil
	}

	if err := s.st.Write(ctx, edge, []byte("1")); err != nil {
		span.SetError(err)
		return nil, models.NewInternalError(err)
	}
	count, err := s.st.AtomicUpdate(ctx, t.counterPath, func(cur int64) int64 {
		return cur + 1
	})
	if err != nil {
		span.SetError(err)
		return nil, mapStoreErr(err)
	}

	// Fanout once, after the counter transaction committed.
	s.fanout.NotifyBestEffort(ctx, t.authorID, t.notifKind, t.payload, userID, t.entityID)
	observability.EngagementMutations.WithLabelValues("toggle_like", "liked").Inc()
	return &ToggleResult{Liked: true, Count: count}, nil
}

// IncrementView bumps a post's monotonic view counter.
func (s *Service) IncrementView(ctx context.Context, postID, userID string) (int64, error) {
	return s.incrementPostCounter(ctx, postID, userID, "views")
}

// IncrementShare bumps a post's monotonic share counter.
func (s *Service) IncrementShare(ctx context.Context, postID, userID string) (int64, error) {
	return s.incrementPostCounter(ctx, postID, userID, "shares")
}

func (s *Service) incrementPostCounter(ctx context.Context, postID, userID, counter string) (int64, error) {
	if userID == "" {
		return 0, models.NewUnauthorizedError("caller identity required")
	}
	ok, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	if !ok {
		// Never materialize a counter for an absent entity.
		return 0, models.NewNotFoundError("Post", postID)
	}
	n, err := s.st.AtomicUpdate(ctx, repository.PostCounterPath(postID, counter), func(cur int64) int64 {
		return cur + 1
	})
	if err != nil {
		return 0, mapStoreErr(err)
	}
	observability.EngagementMutations.WithLabelValues("increment_"+counter, "ok").Inc()
	return n, nil
}

// Repost creates a new post quoting the original by value and increments
// the original's repost counter. The two writes are separate commits: a
// crash between them leaves a repost that was never counted. That gap is
// deliberate; see the design notes.
func (s *Service) Repost(ctx context.Context, originalID string, actor models.UserSnapshot, quoteText string) (*models.Post, error) {
	if actor.ID == "" {
		return nil, models.NewUnauthorizedError("caller identity required")
	}
	original, err := s.posts.GetByID(ctx, originalID)
	if err != nil {
		return nil, err
	}

	repost, err := s.posts.Create(ctx, repository.CreatePostInput{
		Author:     actor,
		Content:    quoteText,
		QuotedPost: original,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.st.AtomicUpdate(ctx, repository.PostCounterPath(originalID, "reposts"), func(cur int64) int64 {
		return cur + 1
	}); err != nil {
		// The repost exists but was not counted; surface the failure.
		return nil, mapStoreErr(err)
	}

	s.fanout.NotifyBestEffort(ctx, original.Author.ID, models.NotificationRepost,
		"reposted your post", actor.ID, originalID)
	observability.EngagementMutations.WithLabelValues("repost", "ok").Inc()
	return repost, nil
}

// AddComment appends a top-level comment, bumps the post's comment
// counter, and notifies the post author.
func (s *Service) AddComment(ctx context.Context, postID string, author models.UserSnapshot, text string) (*models.Comment, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.Create(ctx, postID, author, text)
	if err != nil {
		return nil, err
	}
	if _, err := s.st.AtomicUpdate(ctx, repository.PostCounterPath(postID, "comments"), func(cur int64) int64 {
		return cur + 1
	}); err != nil {
		return nil, mapStoreErr(err)
	}

	s.fanout.NotifyBestEffort(ctx, post.Author.ID, models.NotificationComment,
		"commented on your post", author.ID, postID)
	observability.EngagementMutations.WithLabelValues("comment", "ok").Inc()
	return comment, nil
}

// AddReply nests a reply under an existing comment, bumps the post's
// comment counter, and notifies the parent comment's author.
func (s *Service) AddReply(ctx context.Context, postID, parentCommentID string, author models.UserSnapshot, text string) (*models.Comment, error) {
	parent, err := s.comments.GetByID(ctx, postID, parentCommentID)
	if err != nil {
		return nil, err
	}
	reply, err := s.comments.AppendReply(ctx, postID, parentCommentID, author, text)
	if err != nil {
		return nil, err
	}
	if _, err := s.st.AtomicUpdate(ctx, repository.PostCounterPath(postID, "comments"), func(cur int64) int64 {
		return cur + 1
	}); err != nil {
		return nil, mapStoreErr(err)
	}

	s.fanout.NotifyBestEffort(ctx, parent.Author.ID, models.NotificationComment,
		"replied to your comment", author.ID, parentCommentID)
	return reply, nil
}

// IsLiked reports whether userID currently likes the entity.
func (s *Service) IsLiked(ctx context.Context, kind, entityID, userID string) (bool, error) {
	return s.edgeExists(ctx, repository.LikeEdge(kind, entityID, userID))
}

func (s *Service) edgeExists(ctx context.Context, path string) (bool, error) {
	if _, err := s.st.Read(ctx, path); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, store.ErrRetryExhausted) {
		return models.NewTransientStoreError(err)
	}
	return models.NewInternalError(err)
}
