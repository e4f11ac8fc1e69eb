package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hearthhub/hearthd/internal/models"
	"github.com/hearthhub/hearthd/internal/repository"
)

type familyRepository struct {
	db *sql.DB
}

// NewFamilyRepository creates a new family repository
func NewFamilyRepository(db *sql.DB) repository.FamilyRepository {
	return &familyRepository{db: db}
}

func (r *familyRepository) Create(ctx context.Context, family *models.Family) (*models.Family, error) {
	query := `
		INSERT INTO families (name, plan_tier, billing_status, created_by_profile_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	family.CreatedAt = now
	family.UpdatedAt = now
	if family.PlanTier == "" {
		family.PlanTier = models.PlanTierFree
	}

	err := r.db.QueryRowContext(ctx, query,
		family.Name,
		family.PlanTier,
		family.BillingStatus,
		family.CreatedByProfileID,
		family.CreatedAt,
		family.UpdatedAt,
	).Scan(&family.ID, &family.CreatedAt, &family.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create family: %w", err)
	}

	return family, nil
}

func (r *familyRepository) GetByID(ctx context.Context, id int64) (*models.Family, error) {
	query := `
		SELECT id, name, plan_tier, billing_status, created_by_profile_id, created_at, updated_at
		FROM families
		WHERE id = $1`

	family := &models.Family{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&family.ID,
		&family.Name,
		&family.PlanTier,
		&family.BillingStatus,
		&family.CreatedByProfileID,
		&family.CreatedAt,
		&family.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get family by ID: %w", err)
	}

	return family, nil
}

func (r *familyRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.Family, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, name, plan_tier, billing_status, created_by_profile_id, created_at, updated_at
		FROM families
		WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query families: %w", err)
	}
	defer rows.Close()

	var families []*models.Family
	for rows.Next() {
		family := &models.Family{}
		if err := rows.Scan(
			&family.ID,
			&family.Name,
			&family.PlanTier,
			&family.BillingStatus,
			&family.CreatedByProfileID,
			&family.CreatedAt,
			&family.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan family: %w", err)
		}
		families = append(families, family)
	}

	return families, rows.Err()
}

func (r *familyRepository) Update(ctx context.Context, family *models.Family) (*models.Family, error) {
	query := `
		UPDATE families
		SET name = $2, plan_tier = $3, billing_status = $4, updated_at = $5
		WHERE id = $1
		RETURNING updated_at`

	family.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		family.ID,
		family.Name,
		family.PlanTier,
		family.BillingStatus,
		family.UpdatedAt,
	).Scan(&family.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to update family: %w", err)
	}

	return family, nil
}

func (r *familyRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM families WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete family: %w", err)
	}

	return nil
}
