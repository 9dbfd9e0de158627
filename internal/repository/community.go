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

// CommunityRepository defines the interface for community data operations.
type CommunityRepository interface {
	Create(ctx context.Context, in CreateCommunityInput) (*models.Community, error)
	GetByID(ctx context.Context, id string) (*models.Community, error)
	List(ctx context.Context) ([]*models.Community, error)
	Exists(ctx context.Context, id string) (bool, error)
	// Join adds userID as a member; joining twice is a no-op success.
	Join(ctx context.Context, id, userID string) error
	// Leave removes userID; leaving a community you are not in is a no-op.
	Leave(ctx context.Context, id, userID string) error
	IsMember(ctx context.Context, id, userID string) (bool, error)
	Subscribe(fn func([]*models.Community)) func()
}

// CreateCommunityInput carries the write-once fields of a new community.
type CreateCommunityInput struct {
	Creator     models.UserSnapshot
	Name        string
	Description string
	AvatarURL   string
	CoverURL    string
	Privacy     models.CommunityPrivacy
	Category    string
	Channels    []models.Channel
}

type communityRepository struct {
	st     store.Store
	broker *broker.Broker
	log    *observability.RepoLogger
}

// NewCommunityRepository creates a new community repository.
func NewCommunityRepository(st store.Store, b *broker.Broker) CommunityRepository {
	return &communityRepository{st: st, broker: b, log: observability.NewRepoLogger(CommunitiesRoot)}
}

func (r *communityRepository) Create(ctx context.Context, in CreateCommunityInput) (*models.Community, error) {
	if in.Creator.ID == "" {
		return nil, models.NewUnauthorizedError("caller identity required")
	}
	if in.Name == "" {
		return nil, models.NewValidationError("Community name is required")
	}
	if !models.ValidCommunityPrivacy(in.Privacy) {
		return nil, models.NewValidationError("Unknown privacy level")
	}

	channels := in.Channels
	for i := range channels {
		if channels[i].ID == "" {
			channels[i].ID = uuid.NewString()
		}
	}

	community := &models.Community{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		AvatarURL:   in.AvatarURL,
		CoverURL:    in.CoverURL,
		Privacy:     in.Privacy,
		Category:    in.Category,
		Channels:    channels,
		InviteToken: uuid.NewString(),
		CreatorID:   in.Creator.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := putJSON(ctx, r.st, CommunityPath(community.ID), community); err != nil {
		r.log.LogError(ctx, err, "create")
		return nil, models.NewInternalError(err)
	}

	// The creator auto-joins; member count starts at 1.
	if err := r.Join(ctx, community.ID, in.Creator.ID); err != nil {
		return nil, err
	}
	community.MemberCount = 1

	r.log.LogCreate(ctx, community.ID)
	return community, nil
}

func (r *communityRepository) GetByID(ctx context.Context, id string) (*models.Community, error) {
	var community models.Community
	if err := getJSON(ctx, r.st, CommunityPath(id), &community); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, models.NewNotFoundError("Community", id)
		}
		return nil, models.NewInternalError(err)
	}
	count, err := readCounter(ctx, r.st, CommunityMemberCountPath(id))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	community.MemberCount = count
	return &community, nil
}

func (r *communityRepository) List(ctx context.Context) ([]*models.Community, error) {
	blobs, err := r.st.List(ctx, CommunitiesRoot)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	communities := make([]*models.Community, 0, len(blobs))
	for _, raw := range blobs {
		var community models.Community
		if err := unmarshalLenient(raw, &community); err != nil {
			continue
		}
		count, err := readCounter(ctx, r.st, CommunityMemberCountPath(community.ID))
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		community.MemberCount = count
		communities = append(communities, &community)
	}
	sort.Slice(communities, func(i, j int) bool {
		return communities[i].CreatedAt.After(communities[j].CreatedAt)
	})
	return communities, nil
}

func (r *communityRepository) Exists(ctx context.Context, id string) (bool, error) {
	return edgeExists(ctx, r.st, CommunityPath(id))
}

func (r *communityRepository) Join(ctx context.Context, id, userID string) error {
	if userID == "" {
		return models.NewUnauthorizedError("caller identity required")
	}
	ok, err := r.Exists(ctx, id)
	if err != nil {
		return models.NewInternalError(err)
	}
	if !ok {
		return models.NewNotFoundError("Community", id)
	}

	member, err := edgeExists(ctx, r.st, CommunityMemberEdge(id, userID))
	if err != nil {
		return models.NewInternalError(err)
	}
	if member {
		return nil // idempotent
	}

	if err := r.st.Write(ctx, CommunityMemberEdge(id, userID), edgePresent); err != nil {
		r.log.LogError(ctx, err, "join")
		return models.NewInternalError(err)
	}
	if _, err := r.st.AtomicUpdate(ctx, CommunityMemberCountPath(id), func(cur int64) int64 {
		return cur + 1
	}); err != nil {
		return mapStoreErr(err)
	}
	r.log.LogMutation(ctx, "join", id)
	return nil
}

func (r *communityRepository) Leave(ctx context.Context, id, userID string) error {
	if userID == "" {
		return models.NewUnauthorizedError("caller identity required")
	}
	member, err := edgeExists(ctx, r.st, CommunityMemberEdge(id, userID))
	if err != nil {
		return models.NewInternalError(err)
	}
	if !member {
		return nil
	}

	if err := r.st.Delete(ctx, CommunityMemberEdge(id, userID)); err != nil {
		r.log.LogError(ctx, err, "leave")
		return models.NewInternalError(err)
	}
	if _, err := r.st.AtomicUpdate(ctx, CommunityMemberCountPath(id), func(cur int64) int64 {
		if cur <= 0 {
			return 0
		}
		return cur - 1
	}); err != nil {
		return mapStoreErr(err)
	}
	r.log.LogMutation(ctx, "leave", id)
	return nil
}

func (r *communityRepository) IsMember(ctx context.Context, id, userID string) (bool, error) {
	return edgeExists(ctx, r.st, CommunityMemberEdge(id, userID))
}

func (r *communityRepository) Subscribe(fn func([]*models.Community)) func() {
	return r.broker.Subscribe(CommunitiesRoot,
		func(ctx context.Context) (interface{}, error) { return r.List(ctx) },
		func(v interface{}) { fn(v.([]*models.Community)) },
	)
}
