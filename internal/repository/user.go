package repository

import (
	"context"
	"errors"

	"ripple/internal/models"
	"ripple/internal/store"
)

// UserRepository stores the snapshot profile used when denormalizing
// authors and senders into entities. The identity provider owns the
// authoritative account; this is only the display projection.
type UserRepository interface {
	Put(ctx context.Context, snapshot models.UserSnapshot) error
	GetByID(ctx context.Context, id string) (*models.UserSnapshot, error)
}

type userRepository struct {
	st store.Store
}

// NewUserRepository creates a new user repository.
func NewUserRepository(st store.Store) UserRepository {
	return &userRepository{st: st}
}

func (r *userRepository) Put(ctx context.Context, snapshot models.UserSnapshot) error {
	if snapshot.ID == "" {
		return models.NewValidationError("User id is required")
	}
	if err := putJSON(ctx, r.st, UserPath(snapshot.ID), snapshot); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.UserSnapshot, error) {
	var snapshot models.UserSnapshot
	if err := getJSON(ctx, r.st, UserPath(id), &snapshot); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &snapshot, nil
}
