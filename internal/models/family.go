package models

import "time"

// PlanTier represents the billing tier a family is on
type PlanTier string

const (
	PlanTierFree     PlanTier = "free"
	PlanTierBasic    PlanTier = "basic"
	PlanTierPlus     PlanTier = "plus"
	PlanTierPro      PlanTier = "pro"
	PlanTierInternal PlanTier = "internal"
)

// Role represents a member's role within a family
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// Family represents a shared workspace grouping members, calendars and
// task lists. A family is created when a profile has zero memberships.
type Family struct {
	ID                 int64     `json:"id" db:"id"`
	Name               string    `json:"name" db:"name"`
	PlanTier           PlanTier  `json:"plan_tier" db:"plan_tier"`
	BillingStatus      string    `json:"billing_status" db:"billing_status"`
	CreatedByProfileID *int64    `json:"created_by_profile_id" db:"created_by_profile_id"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// IsPaid returns true if the family is on a paid tier.
func (f *Family) IsPaid() bool {
	switch f.PlanTier {
	case PlanTierBasic, PlanTierPlus, PlanTierPro:
		return true
	}
	return false
}

// Membership represents the join record granting a profile a role within a
// family. Unique per (family_id, profile_id); at most one membership per
// profile carries IsDefault.
type Membership struct {
	ID        int64     `json:"id" db:"id"`
	FamilyID  int64     `json:"family_id" db:"family_id"`
	ProfileID int64     `json:"profile_id" db:"profile_id"`
	Role      Role      `json:"role" db:"role"`
	IsDefault bool      `json:"is_default" db:"is_default"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsOwner returns true if the membership carries the owner role.
func (m *Membership) IsOwner() bool {
	return m.Role == RoleOwner
}
