package memory

import (
	"context"
	"sort"
	"time"

	"github.com/hearthhub/hearthd/internal/models"
)

// TaskListRepository is the in-memory task list repository. Deleting a
// list cascades to its items, matching the schema's foreign keys.
type TaskListRepository struct {
	s *Store
}

func (r *TaskListRepository) Create(_ context.Context, list *models.TaskList) (*models.TaskList, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *list
	stored.ID = r.s.id()
	stored.CreatedAt = time.Now()
	r.s.lists[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *TaskListRepository) GetByID(_ context.Context, id int64) (*models.TaskList, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l, ok := r.s.lists[id]; ok {
		out := *l
		return &out, nil
	}
	return nil, nil
}

func (r *TaskListRepository) GetByFamily(_ context.Context, familyID int64) ([]*models.TaskList, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.TaskList
	for _, l := range r.s.lists {
		if l.FamilyID == familyID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *TaskListRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.lists, id)
	for itemID, item := range r.s.items {
		if item.ListID == id {
			delete(r.s.items, itemID)
		}
	}
	return nil
}

// TaskItemRepository is the in-memory task item repository.
type TaskItemRepository struct {
	s *Store
}

func (r *TaskItemRepository) Create(_ context.Context, item *models.TaskItem) (*models.TaskItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *item
	stored.ID = r.s.id()
	stored.CreatedAt = time.Now()
	r.s.items[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *TaskItemRepository) GetByID(_ context.Context, id int64) (*models.TaskItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if i, ok := r.s.items[id]; ok {
		out := *i
		return &out, nil
	}
	return nil, nil
}

// GetByList returns items ordered not-done first, then due date with
// undated items last, then creation time, matching the postgres query.
func (r *TaskItemRepository) GetByList(_ context.Context, listID int64) ([]*models.TaskItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.TaskItem
	for _, i := range r.s.items {
		if i.ListID == listID {
			cp := *i
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].IsDone != out[b].IsDone {
			return !out[a].IsDone
		}
		switch {
		case out[a].DueAt == nil && out[b].DueAt == nil:
		case out[a].DueAt == nil:
			return false
		case out[b].DueAt == nil:
			return true
		case !out[a].DueAt.Equal(*out[b].DueAt):
			return out[a].DueAt.Before(*out[b].DueAt)
		}
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.Before(out[b].CreatedAt)
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}

func (r *TaskItemRepository) Update(_ context.Context, item *models.TaskItem) (*models.TaskItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *item
	r.s.items[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *TaskItemRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.items, id)
	return nil
}
