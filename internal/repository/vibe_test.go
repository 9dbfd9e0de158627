package repository

import (
	"context"
	"testing"
	"time"

	"ripple/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVibeCreateValidation(t *testing.T) {
	ctx := context.Background()
	st, b := newTestBackend(t)
	repo := NewVibeRepository(st, b)

	_, err := repo.Create(ctx, CreateVibeInput{MediaType: models.VibeMediaImage, MediaURL: "u"})
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))

	author := models.UserSnapshot{ID: "u1"}
	_, err = repo.Create(ctx, CreateVibeInput{Author: author, MediaType: "hologram"})
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	_, err = repo.Create(ctx, CreateVibeInput{Author: author, MediaType: models.VibeMediaImage})
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err), "image vibes need a media URL")

	// Text vibes carry no media URL.
	_, err = repo.Create(ctx, CreateVibeInput{Author: author, MediaType: models.VibeMediaText})
	assert.NoError(t, err)
}

func TestVibeListActiveFiltersExpired(t *testing.T) {
	ctx := context.Background()
	st, b := newTestBackend(t)
	repo := NewVibeRepository(st, b)

	author := models.UserSnapshot{ID: "u1", Username: "ada"}
	vibe, err := repo.Create(ctx, CreateVibeInput{Author: author, MediaType: models.VibeMediaImage, MediaURL: "https://cdn/x.jpg"})
	require.NoError(t, err)

	active, err := repo.ListActive(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, vibe.ID, active[0].ID)

	// Past the lifetime window the vibe drops out of active queries but
	// is never deleted.
	later := time.Now().UTC().Add(models.VibeLifetime + time.Minute)
	active, err = repo.ListActive(ctx, later)
	require.NoError(t, err)
	assert.Empty(t, active)

	got, err := repo.GetByID(ctx, vibe.ID)
	require.NoError(t, err)
	assert.Equal(t, vibe.ID, got.ID)
}

func TestVibeMarkSeenOneWayIdempotent(t *testing.T) {
	ctx := context.Background()
	st, b := newTestBackend(t)
	repo := NewVibeRepository(st, b)

	author := models.UserSnapshot{ID: "u1", Username: "ada"}
	vibe, err := repo.Create(ctx, CreateVibeInput{Author: author, MediaType: models.VibeMediaImage, MediaURL: "https://cdn/x.jpg"})
	require.NoError(t, err)

	seen, err := repo.SeenBy(ctx, vibe.ID, "viewer")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, repo.MarkSeen(ctx, vibe.ID, "viewer"))
	require.NoError(t, repo.MarkSeen(ctx, vibe.ID, "viewer")) // repeat views commute

	seen, err = repo.SeenBy(ctx, vibe.ID, "viewer")
	require.NoError(t, err)
	assert.True(t, seen)

	// Seen state is per viewer.
	seen, err = repo.SeenBy(ctx, vibe.ID, "other")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestVibeMarkSeenUnknownVibe(t *testing.T) {
	ctx := context.Background()
	st, b := newTestBackend(t)
	repo := NewVibeRepository(st, b)

	err := repo.MarkSeen(ctx, "missing", "viewer")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}
