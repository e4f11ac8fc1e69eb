package memory

import (
	"context"
	"time"

	"github.com/hearthhub/hearthd/internal/models"
	"github.com/hearthhub/hearthd/internal/repository"
)

// InviteRepository is the in-memory invite repository. Create enforces the
// token uniqueness constraint; MarkAccepted is conditional on accepted_at
// being null.
type InviteRepository struct {
	s *Store
}

func (r *InviteRepository) Create(_ context.Context, invite *models.Invite) (*models.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, i := range r.s.invites {
		if i.Token == invite.Token {
			return nil, repository.ErrDuplicate
		}
	}
	stored := *invite
	stored.ID = r.s.id()
	stored.CreatedAt = time.Now()
	r.s.invites[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *InviteRepository) GetByToken(_ context.Context, token string) (*models.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, i := range r.s.invites {
		if i.Token == token {
			out := *i
			return &out, nil
		}
	}
	return nil, nil
}

func (r *InviteRepository) GetByFamily(_ context.Context, familyID int64) ([]*models.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Invite
	for _, i := range r.s.invites {
		if i.FamilyID == familyID {
			cp := *i
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *InviteRepository) MarkAccepted(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.invites[id]
	if !ok || i.AcceptedAt != nil {
		return false, nil
	}
	now := time.Now()
	i.AcceptedAt = &now
	return true, nil
}

func (r *InviteRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.invites, id)
	return nil
}
