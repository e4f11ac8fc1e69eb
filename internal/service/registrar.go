package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hearthhub/hearthd/internal/models"
	"github.com/hearthhub/hearthd/internal/repository"
)

// DefaultFamilyName is the name given to a family seeded for a profile
// with no memberships.
const DefaultFamilyName = "My Family"

// Registrar ensures a profile exists for an authenticated identity and
// grants family memberships, assigning default-family status exactly once
// per profile. Every write converges on uniqueness-constraint losses
// instead of failing, so concurrent calls are safe.
type Registrar struct {
	profiles    repository.ProfileRepository
	families    repository.FamilyRepository
	memberships repository.MembershipRepository
	logger      *logrus.Logger
}

// NewRegistrar creates a new membership registrar.
func NewRegistrar(
	profiles repository.ProfileRepository,
	families repository.FamilyRepository,
	memberships repository.MembershipRepository,
	logger *logrus.Logger,
) *Registrar {
	return &Registrar{
		profiles:    profiles,
		families:    families,
		memberships: memberships,
		logger:      logger,
	}
}

// EnsureProfile retrieves the profile linked to identityRef, creating it
// with fallbackDisplayName if it does not exist. Concurrent calls for the
// same identity converge on a single profile: a losing insert re-fetches
// the winner's row.
func (r *Registrar) EnsureProfile(ctx context.Context, identityRef, fallbackDisplayName string) (*models.Profile, error) {
	identityRef = strings.TrimSpace(identityRef)
	if identityRef == "" {
		return nil, fmt.Errorf("%w: identity reference is required", ErrValidation)
	}

	profile, err := r.profiles.GetByIdentityRef(ctx, identityRef)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup profile (identity_ref=%s): %w", identityRef, err)
	}
	if profile != nil {
		return profile, nil
	}

	profile, err = r.profiles.Create(ctx, &models.Profile{
		IdentityRef: identityRef,
		DisplayName: strings.TrimSpace(fallbackDisplayName),
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// Lost the insert race; the winner's row is the profile.
		profile, err = r.profiles.GetByIdentityRef(ctx, identityRef)
		if err != nil {
			return nil, fmt.Errorf("failed to re-fetch profile after duplicate insert: %w", err)
		}
		if profile == nil {
			return nil, fmt.Errorf("profile vanished after duplicate insert (identity_ref=%s)", identityRef)
		}
		return profile, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create profile (identity_ref=%s): %w", identityRef, err)
	}

	r.logger.Infof("Created new profile %d (identity_ref=%s)", profile.ID, identityRef)
	return profile, nil
}

// GrantMembership grants profileID a membership in familyID with the given
// role. If the membership already exists it is returned unchanged. The
// profile's first membership becomes its default; the store's at-most-one-
// default constraint arbitrates concurrent firsts, and the loser is
// downgraded to non-default and retried.
func (r *Registrar) GrantMembership(ctx context.Context, profileID, familyID int64, role models.Role) (*models.Membership, error) {
	existing, err := r.memberships.GetByFamilyAndProfile(ctx, familyID, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup membership (family=%d, profile=%d): %w", familyID, profileID, err)
	}
	if existing != nil {
		return existing, nil
	}

	if role == "" {
		role = models.RoleMember
	}

	current, err := r.memberships.GetByProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to count memberships for profile %d: %w", profileID, err)
	}

	membership := &models.Membership{
		FamilyID:  familyID,
		ProfileID: profileID,
		Role:      role,
		IsDefault: len(current) == 0,
	}

	created, err := r.memberships.Create(ctx, membership)
	if errors.Is(err, repository.ErrDuplicate) {
		return r.recoverGrant(ctx, membership)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create membership (family=%d, profile=%d): %w", familyID, profileID, err)
	}

	r.logger.Infof("Granted %s membership in family %d to profile %d (default=%t)",
		created.Role, familyID, profileID, created.IsDefault)
	return created, nil
}

// recoverGrant resolves a membership insert that lost a uniqueness
// constraint. Either the same (family, profile) pair was inserted
// concurrently, in which case the winner's row is the membership, or the
// profile gained a default membership in another family first, in which
// case this grant retries as non-default.
func (r *Registrar) recoverGrant(ctx context.Context, membership *models.Membership) (*models.Membership, error) {
	winner, err := r.memberships.GetByFamilyAndProfile(ctx, membership.FamilyID, membership.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-fetch membership after duplicate insert: %w", err)
	}
	if winner != nil {
		return winner, nil
	}

	if !membership.IsDefault {
		return nil, fmt.Errorf("membership insert rejected as duplicate but no row exists (family=%d, profile=%d)",
			membership.FamilyID, membership.ProfileID)
	}

	// Lost the one-default-per-profile race to a concurrent grant in
	// another family. Downgrade and retry once.
	retry := &models.Membership{
		FamilyID:  membership.FamilyID,
		ProfileID: membership.ProfileID,
		Role:      membership.Role,
		IsDefault: false,
	}

	created, err := r.memberships.Create(ctx, retry)
	if errors.Is(err, repository.ErrDuplicate) {
		winner, err = r.memberships.GetByFamilyAndProfile(ctx, membership.FamilyID, membership.ProfileID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-fetch membership after downgrade retry: %w", err)
		}
		if winner == nil {
			return nil, fmt.Errorf("membership insert kept losing uniqueness races (family=%d, profile=%d)",
				membership.FamilyID, membership.ProfileID)
		}
		return winner, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create membership after default downgrade: %w", err)
	}

	r.logger.Infof("Downgraded racing default membership in family %d for profile %d",
		membership.FamilyID, membership.ProfileID)
	return created, nil
}

// BootstrapDefaultFamily creates a new free-tier family for a profile with
// zero memberships and grants it an owner membership, which becomes the
// profile's default.
func (r *Registrar) BootstrapDefaultFamily(ctx context.Context, profile *models.Profile) (*models.Family, *models.Membership, error) {
	family, err := r.families.Create(ctx, &models.Family{
		Name:               DefaultFamilyName,
		PlanTier:           models.PlanTierFree,
		CreatedByProfileID: &profile.ID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create default family for profile %d: %w", profile.ID, err)
	}

	membership, err := r.GrantMembership(ctx, profile.ID, family.ID, models.RoleOwner)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to grant owner membership in default family %d: %w", family.ID, err)
	}

	r.logger.Infof("Bootstrapped default family %d for profile %d", family.ID, profile.ID)
	return family, membership, nil
}

// IsFamilyOwner reports whether the profile holds an owner membership in
// the family.
func (r *Registrar) IsFamilyOwner(ctx context.Context, profileID, familyID int64) (bool, error) {
	membership, err := r.memberships.GetByFamilyAndProfile(ctx, familyID, profileID)
	if err != nil {
		return false, fmt.Errorf("failed to lookup membership (family=%d, profile=%d): %w", familyID, profileID, err)
	}
	return membership != nil && membership.IsOwner(), nil
}
