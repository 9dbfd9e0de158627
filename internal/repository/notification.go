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

// NotificationRepository stores per-recipient notification partitions.
// Ordering is insertion order within a partition, newest first on read;
// there is no ordering across recipients.
type NotificationRepository interface {
	Append(ctx context.Context, in AppendNotificationInput) (*models.Notification, error)
	ListByRecipient(ctx context.Context, recipientID string) ([]*models.Notification, error)
	// MarkRead flips one notification's read flag.
	MarkRead(ctx context.Context, recipientID, id string) error
	// MarkAllRead flips exactly the notifications unread at snapshot
	// time; ones arriving after the snapshot stay unread.
	MarkAllRead(ctx context.Context, recipientID string) error
	Subscribe(recipientID string, fn func([]*models.Notification)) func()
}

// AppendNotificationInput carries the fields of a new notification.
type AppendNotificationInput struct {
	RecipientID string
	Kind        models.NotificationKind
	Sender      *models.UserSnapshot
	TargetID    string
	Payload     string
}

type notificationRepository struct {
	st     store.Store
	broker *broker.Broker
	log    *observability.RepoLogger
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(st store.Store, b *broker.Broker) NotificationRepository {
	return &notificationRepository{st: st, broker: b, log: observability.NewRepoLogger(NotificationsRoot)}
}

func (r *notificationRepository) Append(ctx context.Context, in AppendNotificationInput) (*models.Notification, error) {
	if in.RecipientID == "" {
		return nil, models.NewValidationError("Recipient is required")
	}
	if !models.ValidNotificationKind(in.Kind) {
		return nil, models.NewValidationError("Unknown notification kind")
	}

	seq, err := r.st.AtomicUpdate(ctx, NotificationSeqPath(in.RecipientID), func(cur int64) int64 {
		return cur + 1
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	n := &models.Notification{
		ID:          uuid.NewString(),
		RecipientID: in.RecipientID,
		Kind:        in.Kind,
		Sender:      in.Sender,
		TargetID:    in.TargetID,
		Payload:     in.Payload,
		Seq:         seq,
		CreatedAt:   time.Now().UTC(),
	}
	if err := putJSON(ctx, r.st, NotificationPath(in.RecipientID, n.ID), n); err != nil {
		r.log.LogError(ctx, err, "append")
		return nil, models.NewInternalError(err)
	}
	return n, nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string) ([]*models.Notification, error) {
	blobs, err := r.st.List(ctx, NotificationCollection(recipientID))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	out := make([]*models.Notification, 0, len(blobs))
	for _, raw := range blobs {
		var n models.Notification
		if err := unmarshalLenient(raw, &n); err != nil {
			continue
		}
		out = append(out, &n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	return out, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, recipientID, id string) error {
	var n models.Notification
	path := NotificationPath(recipientID, id)
	if err := getJSON(ctx, r.st, path, &n); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.NewNotFoundError("Notification", id)
		}
		return models.NewInternalError(err)
	}
	if n.Read {
		return nil
	}
	n.Read = true
	if err := putJSON(ctx, r.st, path, &n); err != nil {
		r.log.LogError(ctx, err, "mark_read")
		return models.NewInternalError(err)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string) error {
	unread, err := r.ListByRecipient(ctx, recipientID)
	if err != nil {
		return err
	}
	for _, n := range unread {
		if n.Read {
			continue
		}
		n.Read = true
		if err := putJSON(ctx, r.st, NotificationPath(recipientID, n.ID), n); err != nil {
			r.log.LogError(ctx, err, "mark_all_read")
			return models.NewInternalError(err)
		}
	}
	return nil
}

func (r *notificationRepository) Subscribe(recipientID string, fn func([]*models.Notification)) func() {
	return r.broker.Subscribe(NotificationCollection(recipientID),
		func(ctx context.Context) (interface{}, error) {
			return r.ListByRecipient(ctx, recipientID)
		},
		func(v interface{}) { fn(v.([]*models.Notification)) },
	)
}
