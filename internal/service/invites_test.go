package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthhub/hearthd/internal/models"
	"github.com/hearthhub/hearthd/internal/repository/memory"
)

func (f *fixture) seedFamilyWithOwner(t *testing.T, identityRef string) (*models.Profile, *models.Family) {
	t.Helper()
	ctx := context.Background()
	profile, err := f.registrar.EnsureProfile(ctx, identityRef, "")
	require.NoError(t, err)
	family, _, err := f.registrar.BootstrapDefaultFamily(ctx, profile)
	require.NoError(t, err)
	return profile, family
}

func TestCreateInviteIssuesToken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, family := f.seedFamilyWithOwner(t, "auth0|owner")

	invite, err := f.ledger.Create(ctx, family.ID, "kid@example.com", "", owner.ID)
	require.NoError(t, err)
	assert.Equal(t, family.ID, invite.FamilyID)
	assert.Equal(t, "kid@example.com", invite.Email)
	assert.Equal(t, models.RoleMember, invite.Role)
	assert.Len(t, invite.Token, 64)
	assert.False(t, invite.IsAccepted())
}

func TestCreateInviteValidation(t *testing.T) {
	f := newFixture()

	_, err := f.ledger.Create(context.Background(), 0, "   ", models.RoleMember, 1)
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "family id is required")
	assert.Contains(t, err.Error(), "email is required")
}

func TestLookupUnknownToken(t *testing.T) {
	f := newFixture()

	_, err := f.ledger.Lookup(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConsumeGrantsMembershipAndRetiresToken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, family := f.seedFamilyWithOwner(t, "auth0|owner")
	invite, err := f.ledger.Create(ctx, family.ID, "kid@example.com", models.RoleMember, owner.ID)
	require.NoError(t, err)

	kid, err := f.registrar.EnsureProfile(ctx, "auth0|kid", "Kid")
	require.NoError(t, err)

	res, err := f.ledger.Consume(ctx, invite.Token, kid.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, res.Outcome)
	require.NotNil(t, res.Membership)
	assert.Equal(t, family.ID, res.Membership.FamilyID)
	assert.Equal(t, kid.ID, res.Membership.ProfileID)
	assert.Equal(t, models.RoleMember, res.Membership.Role)

	stored, err := f.invites.GetByToken(ctx, invite.Token)
	require.NoError(t, err)
	assert.True(t, stored.IsAccepted())
}

func TestConsumeTwiceSameProfileIsAlreadyMember(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, family := f.seedFamilyWithOwner(t, "auth0|owner")
	invite, err := f.ledger.Create(ctx, family.ID, "kid@example.com", models.RoleMember, owner.ID)
	require.NoError(t, err)
	kid, err := f.registrar.EnsureProfile(ctx, "auth0|kid", "Kid")
	require.NoError(t, err)

	first, err := f.ledger.Consume(ctx, invite.Token, kid.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, first.Outcome)

	second, err := f.ledger.Consume(ctx, invite.Token, kid.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyMember, second.Outcome)
	require.NotNil(t, second.Membership)
	assert.Equal(t, first.Membership.ID, second.Membership.ID)

	// Exactly one membership for the kid in the family.
	all, err := f.memberships.GetByFamily(ctx, family.ID)
	require.NoError(t, err)
	count := 0
	for _, m := range all {
		if m.ProfileID == kid.ID {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestConsumeUsedTokenByOtherProfileIsAlreadyUsed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, family := f.seedFamilyWithOwner(t, "auth0|owner")
	invite, err := f.ledger.Create(ctx, family.ID, "kid@example.com", models.RoleMember, owner.ID)
	require.NoError(t, err)

	kid, err := f.registrar.EnsureProfile(ctx, "auth0|kid", "")
	require.NoError(t, err)
	stranger, err := f.registrar.EnsureProfile(ctx, "auth0|stranger", "")
	require.NoError(t, err)

	_, err = f.ledger.Consume(ctx, invite.Token, kid.ID)
	require.NoError(t, err)

	res, err := f.ledger.Consume(ctx, invite.Token, stranger.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyUsed, res.Outcome)
	assert.Nil(t, res.Membership)

	// The stranger gained nothing.
	m, err := f.memberships.GetByFamilyAndProfile(ctx, family.ID, stranger.ID)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestConsumeByExistingMemberRetiresToken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, family := f.seedFamilyWithOwner(t, "auth0|owner")
	invite, err := f.ledger.Create(ctx, family.ID, "owner@example.com", models.RoleMember, owner.ID)
	require.NoError(t, err)

	res, err := f.ledger.Consume(ctx, invite.Token, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyMember, res.Outcome)

	stored, err := f.invites.GetByToken(ctx, invite.Token)
	require.NoError(t, err)
	assert.True(t, stored.IsAccepted())
}

// failMarkInvites fails MarkAccepted to simulate a store error after the
// membership grant committed.
type failMarkInvites struct {
	*memory.InviteRepository
	failures int
}

func (r *failMarkInvites) MarkAccepted(ctx context.Context, id int64) (bool, error) {
	if r.failures > 0 {
		r.failures--
		return false, fmt.Errorf("connection reset")
	}
	return r.InviteRepository.MarkAccepted(ctx, id)
}

func TestConsumeSurvivesMarkAcceptedFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, family := f.seedFamilyWithOwner(t, "auth0|owner")

	failing := &failMarkInvites{InviteRepository: f.invites, failures: 1}
	ledger := NewLedger(failing, f.registrar, testLogger())

	invite, err := ledger.Create(ctx, family.ID, "kid@example.com", models.RoleMember, owner.ID)
	require.NoError(t, err)
	kid, err := f.registrar.EnsureProfile(ctx, "auth0|kid", "")
	require.NoError(t, err)

	// The grant is the authoritative side effect; the failed retirement is
	// logged, not escalated.
	res, err := ledger.Consume(ctx, invite.Token, kid.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, res.Outcome)

	m, err := f.memberships.GetByFamilyAndProfile(ctx, family.ID, kid.ID)
	require.NoError(t, err)
	require.NotNil(t, m)

	// The unmarked token can only be re-consumed along the idempotent path.
	again, err := ledger.Consume(ctx, invite.Token, kid.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyMember, again.Outcome)
}

func TestConsumePreRetiredTokenIsAlreadyUsed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, family := f.seedFamilyWithOwner(t, "auth0|owner")

	invite, err := f.ledger.Create(ctx, family.ID, "kid@example.com", models.RoleMember, owner.ID)
	require.NoError(t, err)
	kid, err := f.registrar.EnsureProfile(ctx, "auth0|kid", "")
	require.NoError(t, err)

	marked, err := f.invites.MarkAccepted(ctx, invite.ID)
	require.NoError(t, err)
	require.True(t, marked)

	res, err := f.ledger.Consume(ctx, invite.Token, kid.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyUsed, res.Outcome)
}

// raceMarkInvites retires the token out from under the first MarkAccepted
// call, so the conditional update observes zero affected rows.
type raceMarkInvites struct {
	*memory.InviteRepository
	raced bool
}

func (r *raceMarkInvites) MarkAccepted(ctx context.Context, id int64) (bool, error) {
	if !r.raced {
		r.raced = true
		if _, err := r.InviteRepository.MarkAccepted(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return r.InviteRepository.MarkAccepted(ctx, id)
}

func TestConsumeLostMarkRaceConvergesToAlreadyMember(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, family := f.seedFamilyWithOwner(t, "auth0|owner")

	racing := &raceMarkInvites{InviteRepository: f.invites}
	ledger := NewLedger(racing, f.registrar, testLogger())

	invite, err := ledger.Create(ctx, family.ID, "kid@example.com", models.RoleMember, owner.ID)
	require.NoError(t, err)
	kid, err := f.registrar.EnsureProfile(ctx, "auth0|kid", "")
	require.NoError(t, err)

	res, err := ledger.Consume(ctx, invite.Token, kid.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyMember, res.Outcome)
	require.NotNil(t, res.Membership)
	assert.Equal(t, kid.ID, res.Membership.ProfileID)
}

func TestRevokeIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, family := f.seedFamilyWithOwner(t, "auth0|owner")
	invite, err := f.ledger.Create(ctx, family.ID, "kid@example.com", models.RoleMember, owner.ID)
	require.NoError(t, err)

	require.NoError(t, f.ledger.Revoke(ctx, invite.ID))
	require.NoError(t, f.ledger.Revoke(ctx, invite.ID))

	_, err = f.ledger.Lookup(ctx, invite.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPendingForFamilyFiltersAccepted(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner, family := f.seedFamilyWithOwner(t, "auth0|owner")

	open, err := f.ledger.Create(ctx, family.ID, "open@example.com", models.RoleMember, owner.ID)
	require.NoError(t, err)
	used, err := f.ledger.Create(ctx, family.ID, "used@example.com", models.RoleMember, owner.ID)
	require.NoError(t, err)
	_, err = f.invites.MarkAccepted(ctx, used.ID)
	require.NoError(t, err)

	pending, err := f.ledger.PendingForFamily(ctx, family.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, open.ID, pending[0].ID)
}
