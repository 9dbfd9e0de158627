// Package notifications derives and delivers notification records as a
// side effect of engagement and graph mutations.
package notifications

import (
	"context"

	"ripple/internal/models"
	"ripple/internal/observability"
	"ripple/internal/repository"
)

// Fanout writes derived notifications. It is invoked after the primary
// mutation commits, outside any counter retry loop, so a qualifying
// mutation produces exactly one record. Failures here are best effort:
// they are logged and never roll back the primary mutation.
type Fanout struct {
	notifRepo repository.NotificationRepository
	userRepo  repository.UserRepository
}

// NewFanout creates a Fanout over the given repositories.
func NewFanout(notifRepo repository.NotificationRepository, userRepo repository.UserRepository) *Fanout {
	return &Fanout{notifRepo: notifRepo, userRepo: userRepo}
}

// Notify appends one notification for recipientID. Self-notifications are
// suppressed for every kind. The sender snapshot is resolved once at write
// time; an unknown sender id degrades to a bare snapshot rather than
// failing the fanout.
func (f *Fanout) Notify(ctx context.Context, recipientID string, kind models.NotificationKind, payload, senderID, targetID string) error {
	if recipientID == "" {
		return models.NewValidationError("Recipient is required")
	}
	if senderID != "" && senderID == recipientID {
		return nil // never self-notify
	}

	var sender *models.UserSnapshot
	if senderID != "" {
		snapshot, err := f.userRepo.GetByID(ctx, senderID)
		if err == nil {
			sender = snapshot
		} else if models.ErrorCode(err) == models.CodeNotFound {
			sender = &models.UserSnapshot{ID: senderID}
		} else {
			return err
		}
	}

	_, err := f.notifRepo.Append(ctx, repository.AppendNotificationInput{
		RecipientID: recipientID,
		Kind:        kind,
		Sender:      sender,
		TargetID:    targetID,
		Payload:     payload,
	})
	if err != nil {
		return err
	}
	observability.NotificationsFanned.WithLabelValues(string(kind)).Inc()
	return nil
}

// NotifyBestEffort wraps Notify for call sites where the primary mutation
// has already committed: the error is logged and swallowed.
func (f *Fanout) NotifyBestEffort(ctx context.Context, recipientID string, kind models.NotificationKind, payload, senderID, targetID string) {
	if err := f.Notify(ctx, recipientID, kind, payload, senderID, targetID); err != nil {
		observability.GlobalLogger.Error("notification fanout failed",
			"recipient", recipientID,
			"kind", string(kind),
			"error", err.Error(),
		)
	}
}

// MarkRead flips one notification's read flag.
func (f *Fanout) MarkRead(ctx context.Context, recipientID, id string) error {
	if recipientID == "" {
		return models.NewUnauthorizedError("caller identity required")
	}
	return f.notifRepo.MarkRead(ctx, recipientID, id)
}

// MarkAllRead flips every notification unread at snapshot time; records
// created after the snapshot stay unread.
func (f *Fanout) MarkAllRead(ctx context.Context, recipientID string) error {
	if recipientID == "" {
		return models.NewUnauthorizedError("caller identity required")
	}
	return f.notifRepo.MarkAllRead(ctx, recipientID)
}
