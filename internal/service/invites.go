package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/hearthhub/hearthd/internal/metrics"
	"github.com/hearthhub/hearthd/internal/models"
	"github.com/hearthhub/hearthd/internal/repository"
)

// ConsumeOutcome is the result of attempting to consume an invite token.
type ConsumeOutcome string

const (
	// OutcomeAccepted means this call granted the membership and retired
	// the token.
	OutcomeAccepted ConsumeOutcome = "accepted"

	// OutcomeAlreadyMember means the consuming profile already held a
	// membership in the invite's family; the token is retired without
	// creating a duplicate membership.
	OutcomeAlreadyMember ConsumeOutcome = "already_member"

	// OutcomeAlreadyUsed means another profile consumed the token first.
	OutcomeAlreadyUsed ConsumeOutcome = "already_used"
)

// ConsumeResult carries the outcome of a consumption attempt together with
// the invite row, so callers can load the family for their response.
type ConsumeResult struct {
	Outcome    ConsumeOutcome
	Invite     *models.Invite
	Membership *models.Membership
}

// Ledger issues, looks up, revokes and consumes invite tokens, enforcing
// at-most-one consumption per token.
type Ledger struct {
	invites   repository.InviteRepository
	registrar *Registrar
	logger    *logrus.Logger
}

// NewLedger creates a new invite ledger.
func NewLedger(invites repository.InviteRepository, registrar *Registrar, logger *logrus.Logger) *Ledger {
	return &Ledger{invites: invites, registrar: registrar, logger: logger}
}

// newToken returns a cryptographically unguessable invite token.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invite token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Create issues a new invite for the family.
func (l *Ledger) Create(ctx context.Context, familyID int64, email string, role models.Role, createdByProfileID int64) (*models.Invite, error) {
	var invalid *multierror.Error
	if familyID == 0 {
		invalid = multierror.Append(invalid, fmt.Errorf("family id is required"))
	}
	if strings.TrimSpace(email) == "" {
		invalid = multierror.Append(invalid, fmt.Errorf("email is required"))
	}
	if err := invalid.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if role == "" {
		role = models.RoleMember
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	invite, err := l.invites.Create(ctx, &models.Invite{
		FamilyID:           familyID,
		Email:              strings.TrimSpace(email),
		Role:               role,
		Token:              token,
		CreatedByProfileID: &createdByProfileID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create invite for family %d: %w", familyID, err)
	}

	metrics.InvitesIssued.Inc()
	l.logger.Infof("Issued invite %d for family %d (email=%s)", invite.ID, familyID, invite.Email)
	return invite, nil
}

// Lookup returns the invite matching the token, or ErrNotFound.
func (l *Ledger) Lookup(ctx context.Context, token string) (*models.Invite, error) {
	invite, err := l.invites.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup invite: %w", err)
	}
	if invite == nil {
		return nil, fmt.Errorf("%w: invite token", ErrNotFound)
	}
	return invite, nil
}

// Consume turns the invite token into a membership grant for the consuming
// profile, at most once per token. A profile that is already a member gets
// OutcomeAlreadyMember and still retires the token; a token retired by a
// different profile gets OutcomeAlreadyUsed. The membership grant is the
// authoritative side effect: a failure to mark the token accepted after a
// grant is logged, never escalated, because the token can only ever be
// re-consumed along the idempotent already-member path.
func (l *Ledger) Consume(ctx context.Context, token string, profileID int64) (*ConsumeResult, error) {
	invite, err := l.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}

	membership, err := l.registrar.memberships.GetByFamilyAndProfile(ctx, invite.FamilyID, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership for invite %d: %w", invite.ID, err)
	}

	if membership != nil {
		// Retire the token so it cannot be handed to someone else, but
		// grant nothing.
		if !invite.IsAccepted() {
			l.markAccepted(ctx, invite)
		}
		metrics.InvitesConsumed.WithLabelValues(string(OutcomeAlreadyMember)).Inc()
		return &ConsumeResult{Outcome: OutcomeAlreadyMember, Invite: invite, Membership: membership}, nil
	}

	if invite.IsAccepted() {
		metrics.InvitesConsumed.WithLabelValues(string(OutcomeAlreadyUsed)).Inc()
		return &ConsumeResult{Outcome: OutcomeAlreadyUsed, Invite: invite}, nil
	}

	membership, err = l.registrar.GrantMembership(ctx, profileID, invite.FamilyID, invite.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to grant membership for invite %d: %w", invite.ID, err)
	}

	marked, err := l.invites.MarkAccepted(ctx, invite.ID)
	if err != nil {
		// Membership is already granted; an unmarked token is only
		// re-consumable along the already-member path.
		l.logger.WithError(err).Warnf("Failed to mark invite %d accepted after granting membership", invite.ID)
	} else if !marked {
		// A racing consumption retired the token between our read and
		// this update. The membership grant converged, so report the
		// idempotent outcome.
		metrics.InvitesConsumed.WithLabelValues(string(OutcomeAlreadyMember)).Inc()
		return &ConsumeResult{Outcome: OutcomeAlreadyMember, Invite: invite, Membership: membership}, nil
	}

	metrics.InvitesConsumed.WithLabelValues(string(OutcomeAccepted)).Inc()
	l.logger.Infof("Invite %d consumed by profile %d (family=%d)", invite.ID, profileID, invite.FamilyID)
	return &ConsumeResult{Outcome: OutcomeAccepted, Invite: invite, Membership: membership}, nil
}

// Revoke deletes the invite. Revoking an invite that is already gone is a
// no-op.
func (l *Ledger) Revoke(ctx context.Context, inviteID int64) error {
	if err := l.invites.Delete(ctx, inviteID); err != nil {
		return fmt.Errorf("failed to revoke invite %d: %w", inviteID, err)
	}
	return nil
}

// PendingForFamily returns the family's unconsumed invites.
func (l *Ledger) PendingForFamily(ctx context.Context, familyID int64) ([]*models.Invite, error) {
	invites, err := l.invites.GetByFamily(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites for family %d: %w", familyID, err)
	}

	pending := invites[:0]
	for _, invite := range invites {
		if !invite.IsAccepted() {
			pending = append(pending, invite)
		}
	}
	return pending, nil
}

func (l *Ledger) markAccepted(ctx context.Context, invite *models.Invite) {
	if _, err := l.invites.MarkAccepted(ctx, invite.ID); err != nil {
		l.logger.WithError(err).Warnf("Failed to retire invite %d", invite.ID)
	}
}
