// Package models contains data structures for the application's domain models.
package models

import "time"

// VibeLifetime is how long a vibe stays in active queries. Expiry is a
// read-time filter; expired vibes are retained, never resurfaced.
const VibeLifetime = 24 * time.Hour

// VibeMediaType is the media kind of a vibe.
type VibeMediaType string

const (
	VibeMediaImage VibeMediaType = "image"
	VibeMediaText  VibeMediaType = "text"
	VibeMediaVideo VibeMediaType = "video"
)

// ValidVibeMediaType reports whether t is a known media type.
func ValidVibeMediaType(t VibeMediaType) bool {
	switch t {
	case VibeMediaImage, VibeMediaText, VibeMediaVideo:
		return true
	}
	return false
}

// VibeOverlay is a text or emoji element positioned on a vibe with
// coordinates relative to the media frame (0..1).
type VibeOverlay struct {
	Kind  string  `json:"kind"` // text or emoji
	Value string  `json:"value"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Style string  `json:"style,omitempty"`
}

// Vibe is an ephemeral story item.
type Vibe struct {
	ID        string        `json:"id"`
	Author    UserSnapshot  `json:"author"`
	MediaURL  string        `json:"media_url"`
	MediaType VibeMediaType `json:"media_type"`
	Overlays  []VibeOverlay `json:"overlays,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Expired reports whether the vibe has aged out of active queries at now.
func (v *Vibe) Expired(now time.Time) bool {
	return now.Sub(v.CreatedAt) > VibeLifetime
}

// VibeView is a vibe paired with the requesting viewer's seen state.
type VibeView struct {
	Vibe
	Seen bool `json:"seen"`
}

// VibeRail groups one author's active vibes for the story rail, from the
// viewpoint of a single viewer.
type VibeRail struct {
	Author UserSnapshot `json:"author"`
	Vibes  []VibeView   `json:"vibes"`
	// AllSeen is true iff every vibe in the rail is seen by the viewer.
	AllSeen bool `json:"all_seen"`
	// EntryIndex is the first unseen vibe in chronological order, or 0
	// when everything is seen.
	EntryIndex int `json:"entry_index"`
}
