package memory

import (
	"context"
	"time"

	"github.com/hearthhub/hearthd/internal/models"
	"github.com/hearthhub/hearthd/internal/repository"
)

// MembershipRepository is the in-memory membership repository. Create
// enforces both the (family_id, profile_id) pair constraint and the
// at-most-one-default-per-profile partial index.
type MembershipRepository struct {
	s *Store
}

func (r *MembershipRepository) Create(_ context.Context, membership *models.Membership) (*models.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.memberships {
		if m.FamilyID == membership.FamilyID && m.ProfileID == membership.ProfileID {
			return nil, repository.ErrDuplicate
		}
		if membership.IsDefault && m.IsDefault && m.ProfileID == membership.ProfileID {
			return nil, repository.ErrDuplicate
		}
	}
	stored := *membership
	stored.ID = r.s.id()
	stored.CreatedAt = time.Now()
	r.s.memberships[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *MembershipRepository) GetByFamilyAndProfile(_ context.Context, familyID, profileID int64) (*models.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.memberships {
		if m.FamilyID == familyID && m.ProfileID == profileID {
			out := *m
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MembershipRepository) GetByProfile(_ context.Context, profileID int64) ([]*models.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Membership
	for _, m := range r.s.memberships {
		if m.ProfileID == profileID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MembershipRepository) GetByFamily(_ context.Context, familyID int64) ([]*models.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Membership
	for _, m := range r.s.memberships {
		if m.FamilyID == familyID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MembershipRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.memberships, id)
	return nil
}
