package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hearthhub/hearthd/internal/models"
	"github.com/hearthhub/hearthd/internal/repository"
)

type inviteRepository struct {
	db *sql.DB
}

// NewInviteRepository creates a new invite repository
func NewInviteRepository(db *sql.DB) repository.InviteRepository {
	return &inviteRepository{db: db}
}

func (r *inviteRepository) Create(ctx context.Context, invite *models.Invite) (*models.Invite, error) {
	query := `
		INSERT INTO invites (family_id, email, role, token, created_by_profile_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	invite.CreatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		invite.FamilyID,
		invite.Email,
		invite.Role,
		invite.Token,
		invite.CreatedByProfileID,
		invite.CreatedAt,
	).Scan(&invite.ID, &invite.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	return invite, nil
}

func (r *inviteRepository) GetByToken(ctx context.Context, token string) (*models.Invite, error) {
	query := `
		SELECT id, family_id, email, role, token, created_by_profile_id, created_at, accepted_at
		FROM invites
		WHERE token = $1`

	invite := &models.Invite{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&invite.ID,
		&invite.FamilyID,
		&invite.Email,
		&invite.Role,
		&invite.Token,
		&invite.CreatedByProfileID,
		&invite.CreatedAt,
		&invite.AcceptedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invite by token: %w", err)
	}

	return invite, nil
}

func (r *inviteRepository) GetByFamily(ctx context.Context, familyID int64) ([]*models.Invite, error) {
	query := `
		SELECT id, family_id, email, role, token, created_by_profile_id, created_at, accepted_at
		FROM invites
		WHERE family_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invites: %w", err)
	}
	defer rows.Close()

	var invites []*models.Invite
	for rows.Next() {
		invite := &models.Invite{}
		if err := rows.Scan(
			&invite.ID,
			&invite.FamilyID,
			&invite.Email,
			&invite.Role,
			&invite.Token,
			&invite.CreatedByProfileID,
			&invite.CreatedAt,
			&invite.AcceptedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, invite)
	}

	return invites, rows.Err()
}

// MarkAccepted sets accepted_at only when it is still null. It returns true
// when this call performed the transition, false when another consumer
// already retired the token.
func (r *inviteRepository) MarkAccepted(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE invites
		SET accepted_at = $2
		WHERE id = $1 AND accepted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to mark invite accepted: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected == 1, nil
}

func (r *inviteRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM invites WHERE id = $1`

	// Deleting an invite that is already gone is not an error.
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete invite: %w", err)
	}

	return nil
}
