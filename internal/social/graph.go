// Package social maintains the follow graph: a forward edge per follow
// plus a symmetric reverse index, so "who follows me" is a collection
// read rather than a scan. Counts are derived by counting edges live;
// there is no stored follower counter to drift.
package social

import (
	"context"
	"errors"

	"ripple/internal/broker"
	"ripple/internal/models"
	"ripple/internal/notifications"
	"ripple/internal/observability"
	"ripple/internal/repository"
	"ripple/internal/store"
)

// Graph is the follow-graph service.
type Graph struct {
	st     store.Store
	broker *broker.Broker
	fanout *notifications.Fanout
}

// NewGraph creates the follow-graph service.
func NewGraph(st store.Store, b *broker.Broker, fanout *notifications.Fanout) *Graph {
	return &Graph{st: st, broker: b, fanout: fanout}
}

// Counts is the derived aggregate for one user.
type Counts struct {
	Followers int `json:"followers"`
	Following int `json:"following"`
}

// Follow creates the a->b edge and its reverse index. Following yourself
// is rejected; following twice is a no-op success and emits nothing. The
// creating transition emits exactly one follow notification to b.
func (g *Graph) Follow(ctx context.Context, a, b string) error {
	if a == "" {
		return models.NewUnauthorizedError("caller identity required")
	}
	if a == b {
		return models.NewInvalidOperationError("Cannot follow yourself")
	}

	span, ctx := observability.NewSpan(ctx, "social.follow")
	defer span.End()

	exists, err := g.IsFollowing(ctx, a, b)
	if err != nil {
		span.SetError(err)
		return err
	}
	if exists {
		return nil // follow is naturally idempotent
	}

	if err := g.st.Write(ctx, repository.FollowingEdge(a, b), []byte("1")); err != nil {
		span.SetError(err)
		return models.NewInternalError(err)
	}
	if err := g.st.Write(ctx, repository.FollowerEdge(b, a), []byte("1")); err != nil {
		span.SetError(err)
		return models.NewInternalError(err)
	}

	g.fanout.NotifyBestEffort(ctx, b, models.NotificationFollow, "started following you", a, a)
	return nil
}

// Unfollow removes both edges. Unfollowing someone you don't follow is a
// no-op; no notification is emitted either way.
func (g *Graph) Unfollow(ctx context.Context, a, b string) error {
	if a == "" {
		return models.NewUnauthorizedError("caller identity required")
	}
	if a == b {
		return models.NewInvalidOperationError("Cannot unfollow yourself")
	}
	if err := g.st.Delete(ctx, repository.FollowingEdge(a, b)); err != nil {
		return models.NewInternalError(err)
	}
	if err := g.st.Delete(ctx, repository.FollowerEdge(b, a)); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// IsFollowing is a point lookup on the forward edge.
func (g *Graph) IsFollowing(ctx context.Context, a, b string) (bool, error) {
	_, err := g.st.Read(ctx, repository.FollowingEdge(a, b))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return true, nil
}

// Followers returns the ids of users following userID.
func (g *Graph) Followers(ctx context.Context, userID string) ([]string, error) {
	return g.edgeSet(ctx, repository.FollowersCollection(userID))
}

// Following returns the ids userID follows.
func (g *Graph) Following(ctx context.Context, userID string) ([]string, error) {
	return g.edgeSet(ctx, repository.FollowingCollection(userID))
}

// CountsFor recomputes both aggregates by counting edges. O(edges), run
// on every read; the edge sets are bounded so the recount stays cheap.
func (g *Graph) CountsFor(ctx context.Context, userID string) (Counts, error) {
	followers, err := g.Followers(ctx, userID)
	if err != nil {
		return Counts{}, err
	}
	following, err := g.Following(ctx, userID)
	if err != nil {
		return Counts{}, err
	}
	return Counts{Followers: len(followers), Following: len(following)}, nil
}

// SubscribeCounts delivers userID's derived counts on every change to
// either edge set. Two subscriptions feed one callback; each delivers a
// complete recomputed aggregate, so the merge is last-write-wins.
func (g *Graph) SubscribeCounts(userID string, fn func(Counts)) func() {
	load := func(ctx context.Context) (interface{}, error) {
		return g.CountsFor(ctx, userID)
	}
	deliver := func(v interface{}) { fn(v.(Counts)) }

	unsubFollowers := g.broker.Subscribe(repository.FollowersCollection(userID), load, deliver)
	unsubFollowing := g.broker.Subscribe(repository.FollowingCollection(userID), load, deliver)
	return func() {
		unsubFollowers()
		unsubFollowing()
	}
}

// SubscribeFollowers delivers the follower id set on every edge change.
func (g *Graph) SubscribeFollowers(userID string, fn func([]string)) func() {
	return g.broker.Subscribe(repository.FollowersCollection(userID),
		func(ctx context.Context) (interface{}, error) {
			return g.Followers(ctx, userID)
		},
		func(v interface{}) { fn(v.([]string)) },
	)
}

func (g *Graph) edgeSet(ctx context.Context, collection string) ([]string, error) {
	members, err := g.st.List(ctx, collection)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids, nil
}
