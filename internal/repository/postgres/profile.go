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

type profileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sql.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	query := `
		INSERT INTO profiles (identity_ref, display_name, avatar_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		profile.IdentityRef,
		profile.DisplayName,
		profile.AvatarRef,
		profile.CreatedAt,
		profile.UpdatedAt,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return profile, nil
}

func (r *profileRepository) GetByID(ctx context.Context, id int64) (*models.Profile, error) {
	query := `
		SELECT id, identity_ref, display_name, avatar_ref, created_at, updated_at
		FROM profiles
		WHERE id = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *profileRepository) GetByIdentityRef(ctx context.Context, identityRef string) (*models.Profile, error) {
	query := `
		SELECT id, identity_ref, display_name, avatar_ref, created_at, updated_at
		FROM profiles
		WHERE identity_ref = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, identityRef))
}

func (r *profileRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, identity_ref, display_name, avatar_ref, created_at, updated_at
		FROM profiles
		WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		profile := &models.Profile{}
		if err := rows.Scan(
			&profile.ID,
			&profile.IdentityRef,
			&profile.DisplayName,
			&profile.AvatarRef,
			&profile.CreatedAt,
			&profile.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}

	return profiles, rows.Err()
}

func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	query := `
		UPDATE profiles
		SET display_name = $2, avatar_ref = $3, updated_at = $4
		WHERE id = $1
		RETURNING updated_at`

	profile.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		profile.ID,
		profile.DisplayName,
		profile.AvatarRef,
		profile.UpdatedAt,
	).Scan(&profile.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return profile, nil
}

func (r *profileRepository) scanOne(row *sql.Row) (*models.Profile, error) {
	profile := &models.Profile{}
	err := row.Scan(
		&profile.ID,
		&profile.IdentityRef,
		&profile.DisplayName,
		&profile.AvatarRef,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}
