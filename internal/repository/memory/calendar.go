package memory

import (
	"context"
	"time"

	"github.com/hearthhub/hearthd/internal/models"
)

// CalendarRepository is the in-memory calendar repository.
type CalendarRepository struct {
	s *Store
}

func (r *CalendarRepository) Create(_ context.Context, calendar *models.Calendar) (*models.Calendar, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *calendar
	stored.ID = r.s.id()
	stored.CreatedAt = time.Now()
	r.s.calendars[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *CalendarRepository) GetByFamily(_ context.Context, familyID int64) ([]*models.Calendar, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Calendar
	for _, c := range r.s.calendars {
		if c.FamilyID == familyID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *CalendarRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.calendars, id)
	return nil
}
