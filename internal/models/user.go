// Package models contains data structures for the application's domain models.
package models

// UserSnapshot is the denormalized author/sender view embedded into entities
// at write time. It is a copy, not a live reference: later profile edits do
// not rewrite historical entities.
type UserSnapshot struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}
