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

// CommentRepository defines the interface for comment data operations.
// Comments are owned by the post they target; replies nest one structural
// level inside the parent comment's stored record.
type CommentRepository interface {
	Create(ctx context.Context, postID string, author models.UserSnapshot, text string) (*models.Comment, error)
	GetByID(ctx context.Context, postID, id string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*models.Comment, error)
	AppendReply(ctx context.Context, postID, parentID string, author models.UserSnapshot, text string) (*models.Comment, error)
	Exists(ctx context.Context, postID, id string) (bool, error)
	// Subscribe delivers one post's comments, oldest first.
	Subscribe(postID string, fn func([]*models.Comment)) func()
}

type commentRepository struct {
	st     store.Store
	broker *broker.Broker
	log    *observability.RepoLogger
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(st store.Store, b *broker.Broker) CommentRepository {
	return &commentRepository{st: st, broker: b, log: observability.NewRepoLogger(CommentsRoot)}
}

func (r *commentRepository) Create(ctx context.Context, postID string, author models.UserSnapshot, text string) (*models.Comment, error) {
	if author.ID == "" {
		return nil, models.NewUnauthorizedError("caller identity required")
	}
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}

	comment := &models.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		Author:    author,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := putJSON(ctx, r.st, CommentPath(postID, comment.ID), comment); err != nil {
		r.log.LogError(ctx, err, "create")
		return nil, models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, comment.ID)
	return comment, nil
}

func (r *commentRepository) GetByID(ctx context.Context, postID, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := getJSON(ctx, r.st, CommentPath(postID, id), &comment); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	likes, err := readCounter(ctx, r.st, CommentLikesPath(postID, id))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	comment.Likes = likes
	return &comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	blobs, err := r.st.List(ctx, CommentCollection(postID))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	comments := make([]*models.Comment, 0, len(blobs))
	for _, raw := range blobs {
		var comment models.Comment
		if err := unmarshalLenient(raw, &comment); err != nil {
			continue
		}
		likes, err := readCounter(ctx, r.st, CommentLikesPath(postID, comment.ID))
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		comment.Likes = likes
		comments = append(comments, &comment)
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

// AppendReply nests a reply into the parent comment's stored record. The
// reply list is the one non-counter field mutated after creation; the
// read-modify-write here is unguarded, matching the documented baseline
// of the surrounding system.
func (r *commentRepository) AppendReply(ctx context.Context, postID, parentID string, author models.UserSnapshot, text string) (*models.Comment, error) {
	if author.ID == "" {
		return nil, models.NewUnauthorizedError("caller identity required")
	}
	if text == "" {
		return nil, models.NewValidationError("Reply text is required")
	}

	var parent models.Comment
	if err := getJSON(ctx, r.st, CommentPath(postID, parentID), &parent); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, models.NewNotFoundError("Comment", parentID)
		}
		return nil, models.NewInternalError(err)
	}

	reply := models.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		Author:    author,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	parent.Replies = append(parent.Replies, reply)

	if err := putJSON(ctx, r.st, CommentPath(postID, parentID), &parent); err != nil {
		r.log.LogError(ctx, err, "append_reply")
		return nil, models.NewInternalError(err)
	}
	r.log.LogMutation(ctx, "append_reply", parentID)
	return &reply, nil
}

func (r *commentRepository) Exists(ctx context.Context, postID, id string) (bool, error) {
	return edgeExists(ctx, r.st, CommentPath(postID, id))
}

func (r *commentRepository) Subscribe(postID string, fn func([]*models.Comment)) func() {
	return r.broker.Subscribe(CommentCollection(postID),
		func(ctx context.Context) (interface{}, error) { return r.ListByPost(ctx, postID) },
		func(v interface{}) { fn(v.([]*models.Comment)) },
	)
}
