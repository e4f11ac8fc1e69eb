package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hearthhub/hearthd/internal/models"
	"github.com/hearthhub/hearthd/internal/repository"
)

type calendarRepository struct {
	db *sql.DB
}

// NewCalendarRepository creates a new calendar repository
func NewCalendarRepository(db *sql.DB) repository.CalendarRepository {
	return &calendarRepository{db: db}
}

func (r *calendarRepository) Create(ctx context.Context, calendar *models.Calendar) (*models.Calendar, error) {
	query := `
		INSERT INTO calendars (family_id, name, color, is_primary, timezone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	calendar.CreatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		calendar.FamilyID,
		calendar.Name,
		calendar.Color,
		calendar.IsPrimary,
		calendar.Timezone,
		calendar.CreatedAt,
	).Scan(&calendar.ID, &calendar.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create calendar: %w", err)
	}

	return calendar, nil
}

func (r *calendarRepository) GetByFamily(ctx context.Context, familyID int64) ([]*models.Calendar, error) {
	query := `
		SELECT id, family_id, name, color, is_primary, timezone, created_at
		FROM calendars
		WHERE family_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendars: %w", err)
	}
	defer rows.Close()

	var calendars []*models.Calendar
	for rows.Next() {
		calendar := &models.Calendar{}
		if err := rows.Scan(
			&calendar.ID,
			&calendar.FamilyID,
			&calendar.Name,
			&calendar.Color,
			&calendar.IsPrimary,
			&calendar.Timezone,
			&calendar.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan calendar: %w", err)
		}
		calendars = append(calendars, calendar)
	}

	return calendars, rows.Err()
}

func (r *calendarRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM calendars WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete calendar: %w", err)
	}

	return nil
}
