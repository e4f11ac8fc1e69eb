package models

import "time"

// Profile represents the application-level identity record. One profile
// exists per authenticated identity; it is created lazily on first access.
type Profile struct {
	ID          int64     `json:"id" db:"id"`
	IdentityRef string    `json:"identity_ref" db:"identity_ref"`
	DisplayName string    `json:"display_name" db:"display_name"`
	AvatarRef   string    `json:"avatar_ref" db:"avatar_ref"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Name returns the best display name for the profile.
func (p *Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.IdentityRef
}
