package models

import "time"

// Invite represents an unguessable credential that, once consumed, grants
// family membership and is retired. AcceptedAt is null until the first
// successful consumption and never changes afterward.
type Invite struct {
	ID                 int64      `json:"id" db:"id"`
	FamilyID           int64      `json:"family_id" db:"family_id"`
	Email              string     `json:"email" db:"email"`
	Role               Role       `json:"role" db:"role"`
	Token              string     `json:"token" db:"token"`
	CreatedByProfileID *int64     `json:"created_by_profile_id" db:"created_by_profile_id"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	AcceptedAt         *time.Time `json:"accepted_at" db:"accepted_at"`
}

// IsAccepted returns true once the invite has been consumed.
func (i *Invite) IsAccepted() bool {
	return i.AcceptedAt != nil
}
