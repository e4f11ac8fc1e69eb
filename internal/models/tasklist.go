package models

import "time"

// ListKind represents the flavor of a task list
type ListKind string

const (
	ListKindTodo     ListKind = "todo"
	ListKindShopping ListKind = "shopping"
)

// Recurrence represents the rule governing whether completing a task item
// spawns a successor, and when the successor is due
type Recurrence string

const (
	RecurrenceOnce      Recurrence = "once"
	RecurrenceDaily     Recurrence = "daily"
	RecurrenceWeekly    Recurrence = "weekly"
	RecurrenceEveryNDay Recurrence = "every_n_days"
)

// TaskList represents a shared todo or shopping list
type TaskList struct {
	ID        int64     `json:"id" db:"id"`
	FamilyID  int64     `json:"family_id" db:"family_id"`
	Name      string    `json:"name" db:"name"`
	Kind      ListKind  `json:"kind" db:"kind"`
	SortOrder int       `json:"sort_order" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TaskItem represents an item in a task list. IsDone is terminal for a row;
// completing a recurring item spawns exactly one successor row.
type TaskItem struct {
	ID                     int64      `json:"id" db:"id"`
	ListID                 int64      `json:"list_id" db:"list_id"`
	Title                  string     `json:"title" db:"title"`
	Notes                  string     `json:"notes" db:"notes"`
	IsDone                 bool       `json:"is_done" db:"is_done"`
	DueAt                  *time.Time `json:"due_at" db:"due_at"`
	AssigneeProfileID      *int64     `json:"assignee_profile_id" db:"assignee_profile_id"`
	CreatedByProfileID     *int64     `json:"created_by_profile_id" db:"created_by_profile_id"`
	Recurrence             Recurrence `json:"recurrence" db:"recurrence"`
	RecurrenceIntervalDays int        `json:"recurrence_interval_days" db:"recurrence_interval_days"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
	CompletedAt            *time.Time `json:"completed_at" db:"completed_at"`
}

// IsRecurring returns true if completing the item should spawn a successor.
func (t *TaskItem) IsRecurring() bool {
	return t.Recurrence != "" && t.Recurrence != RecurrenceOnce
}

// IsOverdue returns true if the item has a due date in the past and is not done.
func (t *TaskItem) IsOverdue() bool {
	if t.DueAt == nil || t.IsDone {
		return false
	}
	return time.Now().After(*t.DueAt)
}
