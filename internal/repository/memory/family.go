package memory

import (
	"context"
	"time"

	"github.com/hearthhub/hearthd/internal/models"
)

// FamilyRepository is the in-memory family repository.
type FamilyRepository struct {
	s *Store
}

func (r *FamilyRepository) Create(_ context.Context, family *models.Family) (*models.Family, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *family
	stored.ID = r.s.id()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.s.families[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *FamilyRepository) GetByID(_ context.Context, id int64) (*models.Family, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if f, ok := r.s.families[id]; ok {
		out := *f
		return &out, nil
	}
	return nil, nil
}

func (r *FamilyRepository) GetByIDs(_ context.Context, ids []int64) ([]*models.Family, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Family
	for _, id := range ids {
		if f, ok := r.s.families[id]; ok {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *FamilyRepository) Update(_ context.Context, family *models.Family) (*models.Family, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *family
	stored.UpdatedAt = time.Now()
	r.s.families[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *FamilyRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.families, id)
	return nil
}
