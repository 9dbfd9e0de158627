// Package models contains data structures for the application's domain models.
package models

import "time"

// ChatKind distinguishes direct chats from group chats.
type ChatKind string

const (
	ChatDirect ChatKind = "direct"
	ChatGroup  ChatKind = "group"
)

// MessageKind is the content variant of a message.
type MessageKind string

const (
	MessageText  MessageKind = "text"
	MessageImage MessageKind = "image"
	MessageAudio MessageKind = "audio"
	MessageVideo MessageKind = "video"
)

// MessageStatus is the delivery state of a message. Transitions are
// monotonic: sent -> delivered -> read.
type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

// statusRank orders delivery states for monotonic advancement.
func statusRank(s MessageStatus) int {
	switch s {
	case MessageStatusSent:
		return 0
	case MessageStatusDelivered:
		return 1
	case MessageStatusRead:
		return 2
	}
	return -1
}

// AdvanceStatus returns the later of cur and next, so a status can never
// move backwards.
func AdvanceStatus(cur, next MessageStatus) MessageStatus {
	if statusRank(next) > statusRank(cur) {
		return next
	}
	return cur
}

// MessagePreview is the denormalized last-message summary kept on a chat.
type MessagePreview struct {
	SenderID string    `json:"sender_id"`
	Content  string    `json:"content"`
	SentAt   time.Time `json:"sent_at"`
}

// Chat is a direct or group conversation.
type Chat struct {
	ID        string         `json:"id"`
	Kind      ChatKind       `json:"kind"`
	MemberIDs []string       `json:"member_ids"`
	Members   []UserSnapshot `json:"members,omitempty"`
	// LastMessage is a preview; the authoritative record lives in the
	// chat's message collection.
	LastMessage *MessagePreview `json:"last_message,omitempty"`
	// Unread is merged from per-member counter leaves at read time.
	Unread    map[string]int64 `json:"unread,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// HasMember reports whether userID participates in the chat.
func (c *Chat) HasMember(userID string) bool {
	for _, id := range c.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Message is a single chat message.
type Message struct {
	ID        string        `json:"id"`
	ChatID    string        `json:"chat_id"`
	SenderID  string        `json:"sender_id"`
	Kind      MessageKind   `json:"kind"`
	Content   string        `json:"content,omitempty"`
	MediaURL  string        `json:"media_url,omitempty"`
	ReplyToID string        `json:"reply_to_id,omitempty"`
	Status    MessageStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}
