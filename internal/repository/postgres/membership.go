package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hearthhub/hearthd/internal/models"
	"github.com/hearthhub/hearthd/internal/repository"
)

type membershipRepository struct {
	db *sql.DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *sql.DB) repository.MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Create(ctx context.Context, membership *models.Membership) (*models.Membership, error) {
	query := `
		INSERT INTO memberships (family_id, profile_id, role, is_default, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	membership.CreatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		membership.FamilyID,
		membership.ProfileID,
		membership.Role,
		membership.IsDefault,
		membership.CreatedAt,
	).Scan(&membership.ID, &membership.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	return membership, nil
}

func (r *membershipRepository) GetByFamilyAndProfile(ctx context.Context, familyID, profileID int64) (*models.Membership, error) {
	query := `
		SELECT id, family_id, profile_id, role, is_default, created_at
		FROM memberships
		WHERE family_id = $1 AND profile_id = $2`

	membership := &models.Membership{}
	err := r.db.QueryRowContext(ctx, query, familyID, profileID).Scan(
		&membership.ID,
		&membership.FamilyID,
		&membership.ProfileID,
		&membership.Role,
		&membership.IsDefault,
		&membership.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return membership, nil
}

func (r *membershipRepository) GetByProfile(ctx context.Context, profileID int64) ([]*models.Membership, error) {
	query := `
		SELECT id, family_id, profile_id, role, is_default, created_at
		FROM memberships
		WHERE profile_id = $1
		ORDER BY created_at ASC`

	return r.queryMany(ctx, query, profileID)
}

func (r *membershipRepository) GetByFamily(ctx context.Context, familyID int64) ([]*models.Membership, error) {
	query := `
		SELECT id, family_id, profile_id, role, is_default, created_at
		FROM memberships
		WHERE family_id = $1
		ORDER BY created_at ASC`

	return r.queryMany(ctx, query, familyID)
}

func (r *membershipRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM memberships WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}

	return nil
}

func (r *membershipRepository) queryMany(ctx context.Context, query string, arg any) ([]*models.Membership, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		membership := &models.Membership{}
		if err := rows.Scan(
			&membership.ID,
			&membership.FamilyID,
			&membership.ProfileID,
			&membership.Role,
			&membership.IsDefault,
			&membership.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, membership)
	}

	return memberships, rows.Err()
}
