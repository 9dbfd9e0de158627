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

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	Create(ctx context.Context, in CreatePostInput) (*models.Post, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context) ([]*models.Post, error)
	Exists(ctx context.Context, id string) (bool, error)
	// Subscribe delivers the full post collection, newest first, once
	// immediately and again after every change touching the collection.
	Subscribe(fn func([]*models.Post)) func()
}

// CreatePostInput carries the write-once fields of a new post.
type CreatePostInput struct {
	Author      models.UserSnapshot
	Content     string
	Images      []string
	Tags        []string
	CommunityID string
	QuotedPost  *models.Post
}

type postRepository struct {
	st     store.Store
	broker *broker.Broker
	log    *observability.RepoLogger
}

// NewPostRepository creates a new post repository.
func NewPostRepository(st store.Store, b *broker.Broker) PostRepository {
	return &postRepository{st: st, broker: b, log: observability.NewRepoLogger(PostsRoot)}
}

func (r *postRepository) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.Author.ID == "" {
		return nil, models.NewUnauthorizedError("caller identity required")
	}

	post := &models.Post{
		ID:          uuid.NewString(),
		Author:      in.Author,
		Content:     in.Content,
		Images:      in.Images,
		Tags:        in.Tags,
		CommunityID: in.CommunityID,
		QuotedPost:  flattenQuote(in.QuotedPost),
		CreatedAt:   time.Now().UTC(),
	}

	if err := putJSON(ctx, r.st, PostPath(post.ID), post); err != nil {
		r.log.LogError(ctx, err, "create")
		return nil, models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, post.ID)
	return post, nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := getJSON(ctx, r.st, PostPath(id), &post); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	if err := r.mergeCounters(ctx, &post); err != nil {
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context) ([]*models.Post, error) {
	blobs, err := r.st.List(ctx, PostsRoot)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	posts := make([]*models.Post, 0, len(blobs))
	for _, raw := range blobs {
		var post models.Post
		if err := unmarshalLenient(raw, &post); err != nil {
			continue
		}
		if err := r.mergeCounters(ctx, &post); err != nil {
			return nil, models.NewInternalError(err)
		}
		posts = append(posts, &post)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (r *postRepository) Exists(ctx context.Context, id string) (bool, error) {
	return edgeExists(ctx, r.st, PostPath(id))
}

func (r *postRepository) Subscribe(fn func([]*models.Post)) func() {
	return r.broker.Subscribe(PostsRoot,
		func(ctx context.Context) (interface{}, error) { return r.List(ctx) },
		func(v interface{}) { fn(v.([]*models.Post)) },
	)
}

// mergeCounters folds the counter leaves into the post view.
func (r *postRepository) mergeCounters(ctx context.Context, post *models.Post) error {
	counters := map[string]*int64{
		"likes":    &post.Counters.Likes,
		"comments": &post.Counters.Comments,
		"reposts":  &post.Counters.Reposts,
		"views":    &post.Counters.Views,
		"shares":   &post.Counters.Shares,
	}
	for name, target := range counters {
		n, err := readCounter(ctx, r.st, PostCounterPath(post.ID, name))
		if err != nil {
			return err
		}
		*target = n
	}
	return nil
}

// flattenQuote embeds the original by value one level deep: a quote of a
// quote carries only the middle post, never a recursive chain.
func flattenQuote(quoted *models.Post) *models.Post {
	if quoted == nil {
		return nil
	}
	q := *quoted
	q.QuotedPost = nil
	return &q
}
