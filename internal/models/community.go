// Package models contains data structures for the application's domain models.
package models

import "time"

// CommunityPrivacy controls how discoverable and joinable a community is.
type CommunityPrivacy string

const (
	CommunityPrivacyPublic  CommunityPrivacy = "public"
	CommunityPrivacyPrivate CommunityPrivacy = "private"
	CommunityPrivacySecret  CommunityPrivacy = "secret"
)

// ValidCommunityPrivacy reports whether p is a known privacy level.
func ValidCommunityPrivacy(p CommunityPrivacy) bool {
	switch p {
	case CommunityPrivacyPublic, CommunityPrivacyPrivate, CommunityPrivacySecret:
		return true
	}
	return false
}

// Channel is a named sub-room inside a community.
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"` // text, voice, announcement
}

// Community represents a member-run group.
type Community struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	AvatarURL   string           `json:"avatar_url,omitempty"`
	CoverURL    string           `json:"cover_url,omitempty"`
	Privacy     CommunityPrivacy `json:"privacy"`
	Category    string           `json:"category,omitempty"`
	Channels    []Channel        `json:"channels,omitempty"`
	InviteToken string           `json:"invite_token,omitempty"`
	CreatorID   string           `json:"creator_id"`
	// MemberCount is merged from a counter leaf at read time.
	MemberCount int64     `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}
