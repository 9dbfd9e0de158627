// Package models contains data structures for the application's domain models.
package models

import "time"

// PostCounters holds the engagement counters of a post. They live in
// dedicated store leaves and are merged into the Post view at read time;
// they are mutated only through the engagement service, never directly.
type PostCounters struct {
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Reposts  int64 `json:"reposts"`
	Views    int64 `json:"views"`
	Shares   int64 `json:"shares"`
}

// Post represents a feed post.
type Post struct {
	ID          string       `json:"id"`
	Author      UserSnapshot `json:"author"`
	Content     string       `json:"content"`
	Images      []string     `json:"images,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	CommunityID string       `json:"community_id,omitempty"`
	// QuotedPost embeds the original post by value, one level deep only;
	// the repository strips any nested quote before persisting.
	QuotedPost *Post        `json:"quoted_post,omitempty"`
	Counters   PostCounters `json:"counters"`
	CreatedAt  time.Time    `json:"created_at"`
}
