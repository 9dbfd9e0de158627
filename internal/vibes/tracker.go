// Package vibes tracks per-viewer visibility of ephemeral stories.
package vibes

import (
	"context"
	"sort"
	"time"

	"ripple/internal/models"
	"ripple/internal/repository"
)

// Tracker answers seen-state and rail-grouping queries for one viewer at
// a time. Expiry is applied by the repository's active query; the tracker
// only layers viewer state on top.
type Tracker struct {
	repo repository.VibeRepository
	now  func() time.Time
}

// NewTracker creates a Tracker. now is injectable for tests; pass nil for
// the wall clock.
func NewTracker(repo repository.VibeRepository, now func() time.Time) *Tracker {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Tracker{repo: repo, now: now}
}

// MarkSeen records the one-way Unseen -> Seen transition. Repeat views
// are no-ops; the state never reverts.
func (t *Tracker) MarkSeen(ctx context.Context, vibeID, viewerID string) error {
	return t.repo.MarkSeen(ctx, vibeID, viewerID)
}

// ActiveForViewer returns the active vibes with viewerID's seen flags,
// oldest first.
func (t *Tracker) ActiveForViewer(ctx context.Context, viewerID string) ([]models.VibeView, error) {
	if viewerID == "" {
		return nil, models.NewUnauthorizedError("caller identity required")
	}
	active, err := t.repo.ListActive(ctx, t.now())
	if err != nil {
		return nil, err
	}
	views := make([]models.VibeView, 0, len(active))
	for _, vibe := range active {
		seen, err := t.repo.SeenBy(ctx, vibe.ID, viewerID)
		if err != nil {
			return nil, err
		}
		views = append(views, models.VibeView{Vibe: *vibe, Seen: seen})
	}
	return views, nil
}

// RailsForViewer groups the active vibes by author. A rail is AllSeen iff
// every member is seen; its entry point is the first unseen vibe in
// chronological order, or index 0 when everything is seen. Rails with
// unseen content sort ahead of fully-seen ones.
func (t *Tracker) RailsForViewer(ctx context.Context, viewerID string) ([]models.VibeRail, error) {
	views, err := t.ActiveForViewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	byAuthor := make(map[string]*models.VibeRail)
	order := make([]string, 0)
	for _, view := range views {
		rail, ok := byAuthor[view.Author.ID]
		if !ok {
			rail = &models.VibeRail{Author: view.Author}
			byAuthor[view.Author.ID] = rail
			order = append(order, view.Author.ID)
		}
		rail.Vibes = append(rail.Vibes, view)
	}

	rails := make([]models.VibeRail, 0, len(byAuthor))
	for _, authorID := range order {
		rail := byAuthor[authorID]
		rail.AllSeen = true
		rail.EntryIndex = 0
		for i, view := range rail.Vibes {
			if !view.Seen {
				if rail.AllSeen {
					rail.EntryIndex = i
				}
				rail.AllSeen = false
				break
			}
		}
		rails = append(rails, *rail)
	}

	sort.SliceStable(rails, func(i, j int) bool {
		return !rails[i].AllSeen && rails[j].AllSeen
	})
	return rails, nil
}
