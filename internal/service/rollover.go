package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hearthhub/hearthd/internal/metrics"
	"github.com/hearthhub/hearthd/internal/models"
	"github.com/hearthhub/hearthd/internal/repository"
)

// RolloverEngine computes the next occurrence of a recurring task item and
// spawns a successor when an item is completed. Rollover is driven entirely
// by completion events; there is no clock.
type RolloverEngine struct {
	items  repository.TaskItemRepository
	logger *logrus.Logger
	now    func() time.Time
}

// NewRolloverEngine creates a new task rollover engine.
func NewRolloverEngine(items repository.TaskItemRepository, logger *logrus.Logger) *RolloverEngine {
	return &RolloverEngine{items: items, logger: logger, now: time.Now}
}

// NextOccurrence computes the due instant of the successor spawned when
// item is completed, or nil for non-recurring items. The base instant is
// the item's due date when set, otherwise now.
func (e *RolloverEngine) NextOccurrence(item *models.TaskItem) *time.Time {
	base := e.now()
	if item.DueAt != nil {
		base = *item.DueAt
	}

	var next time.Time
	switch item.Recurrence {
	case models.RecurrenceDaily:
		next = base.AddDate(0, 0, 1)
	case models.RecurrenceWeekly:
		next = base.AddDate(0, 0, 7)
	case models.RecurrenceEveryNDay:
		days := item.RecurrenceIntervalDays
		if days < 1 {
			days = 1
		}
		next = base.AddDate(0, 0, days)
	default:
		return nil
	}

	return &next
}

// Complete marks the item done and, for recurring items, creates exactly
// one successor carrying forward title, notes, assignee, creator and
// recurrence rule. Completing an item that is already done is a no-op, so
// re-invocation never spawns a second successor.
func (e *RolloverEngine) Complete(ctx context.Context, item *models.TaskItem) (*models.TaskItem, *models.TaskItem, error) {
	if item.IsDone {
		return item, nil, nil
	}

	now := e.now()
	item.IsDone = true
	item.CompletedAt = &now

	updated, err := e.items.Update(ctx, item)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to complete task item %d: %w", item.ID, err)
	}

	next := e.NextOccurrence(updated)
	if next == nil {
		return updated, nil, nil
	}

	successor, err := e.items.Create(ctx, &models.TaskItem{
		ListID:                 updated.ListID,
		Title:                  updated.Title,
		Notes:                  updated.Notes,
		IsDone:                 false,
		DueAt:                  next,
		AssigneeProfileID:      updated.AssigneeProfileID,
		CreatedByProfileID:     updated.CreatedByProfileID,
		Recurrence:             updated.Recurrence,
		RecurrenceIntervalDays: updated.RecurrenceIntervalDays,
	})
	if err != nil {
		// The completion already committed and is not rolled back.
		return updated, nil, fmt.Errorf("failed to create successor for task item %d: %w", item.ID, err)
	}

	metrics.SuccessorsSpawned.Inc()
	e.logger.Infof("Task item %d completed, successor %d due %s", item.ID, successor.ID, next.Format(time.RFC3339))
	return updated, successor, nil
}
