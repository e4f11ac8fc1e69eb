package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hearthhub/hearthd/internal/models"
	"github.com/hearthhub/hearthd/internal/repository"
)

type taskListRepository struct {
	db *sql.DB
}

// NewTaskListRepository creates a new task list repository
func NewTaskListRepository(db *sql.DB) repository.TaskListRepository {
	return &taskListRepository{db: db}
}

func (r *taskListRepository) Create(ctx context.Context, list *models.TaskList) (*models.TaskList, error) {
	query := `
		INSERT INTO task_lists (family_id, name, kind, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	list.CreatedAt = time.Now()
	if list.Kind == "" {
		list.Kind = models.ListKindTodo
	}

	err := r.db.QueryRowContext(ctx, query,
		list.FamilyID,
		list.Name,
		list.Kind,
		list.SortOrder,
		list.CreatedAt,
	).Scan(&list.ID, &list.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create task list: %w", err)
	}

	return list, nil
}

func (r *taskListRepository) GetByID(ctx context.Context, id int64) (*models.TaskList, error) {
	query := `
		SELECT id, family_id, name, kind, sort_order, created_at
		FROM task_lists
		WHERE id = $1`

	list := &models.TaskList{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&list.ID,
		&list.FamilyID,
		&list.Name,
		&list.Kind,
		&list.SortOrder,
		&list.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task list by ID: %w", err)
	}

	return list, nil
}

func (r *taskListRepository) GetByFamily(ctx context.Context, familyID int64) ([]*models.TaskList, error) {
	query := `
		SELECT id, family_id, name, kind, sort_order, created_at
		FROM task_lists
		WHERE family_id = $1
		ORDER BY sort_order ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task lists: %w", err)
	}
	defer rows.Close()

	var lists []*models.TaskList
	for rows.Next() {
		list := &models.TaskList{}
		if err := rows.Scan(
			&list.ID,
			&list.FamilyID,
			&list.Name,
			&list.Kind,
			&list.SortOrder,
			&list.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task list: %w", err)
		}
		lists = append(lists, list)
	}

	return lists, rows.Err()
}

func (r *taskListRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM task_lists WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete task list: %w", err)
	}

	return nil
}

type taskItemRepository struct {
	db *sql.DB
}

// NewTaskItemRepository creates a new task item repository
func NewTaskItemRepository(db *sql.DB) repository.TaskItemRepository {
	return &taskItemRepository{db: db}
}

func (r *taskItemRepository) Create(ctx context.Context, item *models.TaskItem) (*models.TaskItem, error) {
	query := `
		INSERT INTO task_items (list_id, title, notes, is_done, due_at, assignee_profile_id,
			created_by_profile_id, recurrence, recurrence_interval_days, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	item.CreatedAt = time.Now()
	if item.Recurrence == "" {
		item.Recurrence = models.RecurrenceOnce
	}

	err := r.db.QueryRowContext(ctx, query,
		item.ListID,
		item.Title,
		item.Notes,
		item.IsDone,
		item.DueAt,
		item.AssigneeProfileID,
		item.CreatedByProfileID,
		item.Recurrence,
		item.RecurrenceIntervalDays,
		item.CreatedAt,
		item.CompletedAt,
	).Scan(&item.ID, &item.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create task item: %w", err)
	}

	return item, nil
}

func (r *taskItemRepository) GetByID(ctx context.Context, id int64) (*models.TaskItem, error) {
	query := `
		SELECT id, list_id, title, notes, is_done, due_at, assignee_profile_id,
			created_by_profile_id, recurrence, recurrence_interval_days, created_at, completed_at
		FROM task_items
		WHERE id = $1`

	item := &models.TaskItem{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID,
		&item.ListID,
		&item.Title,
		&item.Notes,
		&item.IsDone,
		&item.DueAt,
		&item.AssigneeProfileID,
		&item.CreatedByProfileID,
		&item.Recurrence,
		&item.RecurrenceIntervalDays,
		&item.CreatedAt,
		&item.CompletedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task item by ID: %w", err)
	}

	return item, nil
}

func (r *taskItemRepository) GetByList(ctx context.Context, listID int64) ([]*models.TaskItem, error) {
	query := `
		SELECT id, list_id, title, notes, is_done, due_at, assignee_profile_id,
			created_by_profile_id, recurrence, recurrence_interval_days, created_at, completed_at
		FROM task_items
		WHERE list_id = $1
		ORDER BY is_done ASC, due_at ASC NULLS LAST, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task items: %w", err)
	}
	defer rows.Close()

	var items []*models.TaskItem
	for rows.Next() {
		item := &models.TaskItem{}
		if err := rows.Scan(
			&item.ID,
			&item.ListID,
			&item.Title,
			&item.Notes,
			&item.IsDone,
			&item.DueAt,
			&item.AssigneeProfileID,
			&item.CreatedByProfileID,
			&item.Recurrence,
			&item.RecurrenceIntervalDays,
			&item.CreatedAt,
			&item.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *taskItemRepository) Update(ctx context.Context, item *models.TaskItem) (*models.TaskItem, error) {
	query := `
		UPDATE task_items
		SET title = $2, notes = $3, is_done = $4, due_at = $5, assignee_profile_id = $6,
			recurrence = $7, recurrence_interval_days = $8, completed_at = $9
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.Title,
		item.Notes,
		item.IsDone,
		item.DueAt,
		item.AssigneeProfileID,
		item.Recurrence,
		item.RecurrenceIntervalDays,
		item.CompletedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to update task item: %w", err)
	}

	return item, nil
}

func (r *taskItemRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM task_items WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete task item: %w", err)
	}

	return nil
}
