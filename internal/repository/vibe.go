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

// VibeRepository defines the interface for ephemeral story data.
// Expiry is a read-time filter: ListActive excludes vibes older than the
// lifetime window but never deletes them.
type VibeRepository interface {
	Create(ctx context.Context, in CreateVibeInput) (*models.Vibe, error)
	GetByID(ctx context.Context, id string) (*models.Vibe, error)
	ListActive(ctx context.Context, now time.Time) ([]*models.Vibe, error)
	Exists(ctx context.Context, id string) (bool, error)
	// MarkSeen records the one-way Unseen -> Seen transition for viewerID.
	MarkSeen(ctx context.Context, id, viewerID string) error
	SeenBy(ctx context.Context, id, viewerID string) (bool, error)
	Subscribe(fn func([]*models.Vibe)) func()
}

// CreateVibeInput carries the write-once fields of a new vibe.
type CreateVibeInput struct {
	Author    models.UserSnapshot
	MediaURL  string
	MediaType models.VibeMediaType
	Overlays  []models.VibeOverlay
}

type vibeRepository struct {
	st     store.Store
	broker *broker.Broker
	log    *observability.RepoLogger
}

// NewVibeRepository creates a new vibe repository.
func NewVibeRepository(st store.Store, b *broker.Broker) VibeRepository {
	return &vibeRepository{st: st, broker: b, log: observability.NewRepoLogger(VibesRoot)}
}

func (r *vibeRepository) Create(ctx context.Context, in CreateVibeInput) (*models.Vibe, error) {
	if in.Author.ID == "" {
		return nil, models.NewUnauthorizedError("caller identity required")
	}
	if !models.ValidVibeMediaType(in.MediaType) {
		return nil, models.NewValidationError("Unknown vibe media type")
	}
	if in.MediaType != models.VibeMediaText && in.MediaURL == "" {
		return nil, models.NewValidationError("Media URL is required")
	}

	vibe := &models.Vibe{
		ID:        uuid.NewString(),
		Author:    in.Author,
		MediaURL:  in.MediaURL,
		MediaType: in.MediaType,
		Overlays:  in.Overlays,
		CreatedAt: time.Now().UTC(),
	}
	if err := putJSON(ctx, r.st, VibePath(vibe.ID), vibe); err != nil {
		r.log.LogError(ctx, err, "create")
		return nil, models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, vibe.ID)
	return vibe, nil
}

func (r *vibeRepository) GetByID(ctx context.Context, id string) (*models.Vibe, error) {
	var vibe models.Vibe
	if err := getJSON(ctx, r.st, VibePath(id), &vibe); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, models.NewNotFoundError("Vibe", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &vibe, nil
}

func (r *vibeRepository) ListActive(ctx context.Context, now time.Time) ([]*models.Vibe, error) {
	blobs, err := r.st.List(ctx, VibesRoot)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	vibes := make([]*models.Vibe, 0, len(blobs))
	for _, raw := range blobs {
		var vibe models.Vibe
		if err := unmarshalLenient(raw, &vibe); err != nil {
			continue
		}
		if vibe.Expired(now) {
			continue
		}
		vibes = append(vibes, &vibe)
	}
	sort.Slice(vibes, func(i, j int) bool {
		return vibes[i].CreatedAt.Before(vibes[j].CreatedAt)
	})
	return vibes, nil
}

func (r *vibeRepository) Exists(ctx context.Context, id string) (bool, error) {
	return edgeExists(ctx, r.st, VibePath(id))
}

func (r *vibeRepository) MarkSeen(ctx context.Context, id, viewerID string) error {
	if viewerID == "" {
		return models.NewUnauthorizedError("caller identity required")
	}
	ok, err := r.Exists(ctx, id)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !ok {
		return models.NewNotFoundError("Vibe", id)
	}
	// Set-membership write: repeat views commute to the same state.
	if err := r.st.Write(ctx, VibeSeenEdge(id, viewerID), edgePresent); err != nil {
		r.log.LogError(ctx, err, "mark_seen")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *vibeRepository) SeenBy(ctx context.Context, id, viewerID string) (bool, error) {
	return edgeExists(ctx, r.st, VibeSeenEdge(id, viewerID))
}

func (r *vibeRepository) Subscribe(fn func([]*models.Vibe)) func() {
	return r.broker.Subscribe(VibesRoot,
		func(ctx context.Context) (interface{}, error) {
			return r.ListActive(ctx, time.Now().UTC())
		},
		func(v interface{}) { fn(v.([]*models.Vibe)) },
	)
}
