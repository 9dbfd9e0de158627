// Package models contains data structures for the application's domain models.
package models

import "time"

// NotificationKind classifies a notification.
type NotificationKind string

const (
	NotificationLike    NotificationKind = "like"
	NotificationComment NotificationKind = "comment"
	NotificationFollow  NotificationKind = "follow"
	NotificationMention NotificationKind = "mention"
	NotificationRepost  NotificationKind = "repost"
	NotificationVibe    NotificationKind = "vibe"
	NotificationSystem  NotificationKind = "system"
)

// ValidNotificationKind reports whether k is a known kind.
func ValidNotificationKind(k NotificationKind) bool {
	switch k {
	case NotificationLike, NotificationComment, NotificationFollow,
		NotificationMention, NotificationRepost, NotificationVibe, NotificationSystem:
		return true
	}
	return false
}

// Notification is a derived record delivered to a single recipient as a
// side effect of an engagement or graph mutation.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	Kind        NotificationKind `json:"kind"`
	Sender      *UserSnapshot    `json:"sender,omitempty"`
	TargetID    string           `json:"target_id,omitempty"`
	Payload     string           `json:"payload,omitempty"`
	Read        bool             `json:"read"`
	// Seq orders notifications within the recipient's partition;
	// there is no ordering across recipients.
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}
