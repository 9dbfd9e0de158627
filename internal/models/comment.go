// Package models contains data structures for the application's domain models.
package models

import "time"

// Comment represents a comment on a post. Replies nest one structural level
// inside the stored comment; a reply's own Replies list stays empty.
type Comment struct {
	ID        string       `json:"id"`
	PostID    string       `json:"post_id"`
	Author    UserSnapshot `json:"author"`
	Text      string       `json:"text"`
	Likes     int64        `json:"likes"`
	Replies   []Comment    `json:"replies,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
