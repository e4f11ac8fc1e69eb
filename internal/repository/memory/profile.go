package memory

import (
	"context"
	"time"

	"github.com/hearthhub/hearthd/internal/models"
	"github.com/hearthhub/hearthd/internal/repository"
)

// ProfileRepository is the in-memory profile repository. Create enforces
// the identity_ref uniqueness constraint.
type ProfileRepository struct {
	s *Store
}

func (r *ProfileRepository) Create(_ context.Context, profile *models.Profile) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.profiles {
		if p.IdentityRef == profile.IdentityRef {
			return nil, repository.ErrDuplicate
		}
	}
	stored := *profile
	stored.ID = r.s.id()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.s.profiles[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *ProfileRepository) GetByID(_ context.Context, id int64) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.profiles[id]; ok {
		out := *p
		return &out, nil
	}
	return nil, nil
}

func (r *ProfileRepository) GetByIdentityRef(_ context.Context, identityRef string) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.profiles {
		if p.IdentityRef == identityRef {
			out := *p
			return &out, nil
		}
	}
	return nil, nil
}

func (r *ProfileRepository) GetByIDs(_ context.Context, ids []int64) ([]*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Profile
	for _, id := range ids {
		if p, ok := r.s.profiles[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *ProfileRepository) Update(_ context.Context, profile *models.Profile) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *profile
	stored.UpdatedAt = time.Now()
	r.s.profiles[stored.ID] = &stored
	out := stored
	return &out, nil
}
