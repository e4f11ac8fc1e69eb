package models

import "time"

// Calendar represents a family calendar. Calendars are opaque containers
// here; event scheduling lives elsewhere.
type Calendar struct {
	ID        int64     `json:"id" db:"id"`
	FamilyID  int64     `json:"family_id" db:"family_id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	IsPrimary bool      `json:"is_primary" db:"is_primary"`
	Timezone  string    `json:"timezone" db:"timezone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
