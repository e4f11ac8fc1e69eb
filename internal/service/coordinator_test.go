package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthhub/hearthd/internal/auth"
	"github.com/hearthhub/hearthd/internal/billing"
	"github.com/hearthhub/hearthd/internal/models"
)

func identity(ref, email string) *auth.Identity {
	return &auth.Identity{Ref: ref, Email: email}
}

func TestBootstrapFamilySeedsEverythingOnFirstLogin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	view, err := f.coordinator.BootstrapFamily(ctx, identity("auth0|alice", "alice@example.com"), 0)
	require.NoError(t, err)

	require.NotNil(t, view.Profile)
	assert.Equal(t, "auth0|alice", view.Profile.IdentityRef)
	assert.Equal(t, "alice@example.com", view.Profile.DisplayName)

	require.NotNil(t, view.Family)
	assert.Equal(t, DefaultFamilyName, view.Family.Name)
	assert.Equal(t, models.PlanTierFree, view.Family.PlanTier)

	require.NotNil(t, view.Membership)
	assert.True(t, view.Membership.IsDefault)
	assert.True(t, view.IsOwner)

	require.Len(t, view.Calendars, 1)
	assert.Equal(t, DefaultCalendarName, view.Calendars[0].Name)
	assert.Equal(t, DefaultCalendarColor, view.Calendars[0].Color)
	assert.True(t, view.Calendars[0].IsPrimary)

	require.Len(t, view.Lists, 1)
	assert.Equal(t, DefaultTaskListName, view.Lists[0].Name)
	assert.Equal(t, models.ListKindTodo, view.Lists[0].Kind)

	require.Len(t, view.Families, 1)
	require.Len(t, view.Members, 1)
	assert.Equal(t, "alice@example.com", view.Members[0].DisplayName)
	assert.Empty(t, view.Invites)
}

func TestBootstrapFamilyIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := identity("auth0|alice", "alice@example.com")

	first, err := f.coordinator.BootstrapFamily(ctx, id, 0)
	require.NoError(t, err)
	second, err := f.coordinator.BootstrapFamily(ctx, id, 0)
	require.NoError(t, err)

	assert.Equal(t, first.Family.ID, second.Family.ID)
	assert.Len(t, second.Families, 1)
	assert.Len(t, second.Calendars, 1)
	assert.Len(t, second.Lists, 1)
}

func TestBootstrapFamilyRequiresIdentity(t *testing.T) {
	f := newFixture()

	_, err := f.coordinator.BootstrapFamily(context.Background(), nil, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.coordinator.BootstrapFamily(context.Background(), &auth.Identity{}, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestBootstrapFamilySelectsRequestedFamily(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := identity("auth0|alice", "alice@example.com")

	first, err := f.coordinator.BootstrapFamily(ctx, id, 0)
	require.NoError(t, err)

	other, err := f.families.Create(ctx, &models.Family{Name: "In-laws", PlanTier: models.PlanTierFree})
	require.NoError(t, err)
	_, err = f.registrar.GrantMembership(ctx, first.Profile.ID, other.ID, models.RoleMember)
	require.NoError(t, err)

	view, err := f.coordinator.BootstrapFamily(ctx, id, other.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, view.Family.ID)
	assert.False(t, view.IsOwner)
	assert.Len(t, view.Families, 2)

	// An id outside the caller's memberships falls back to the default.
	view, err = f.coordinator.BootstrapFamily(ctx, id, 9999)
	require.NoError(t, err)
	assert.Equal(t, first.Family.ID, view.Family.ID)
}

func TestAcceptInviteFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	ownerView, err := f.coordinator.BootstrapFamily(ctx, identity("auth0|owner", "mom@example.com"), 0)
	require.NoError(t, err)

	invite, err := f.coordinator.CreateInvite(ctx, identity("auth0|owner", "mom@example.com"),
		ownerView.Family.ID, "kid@example.com", models.RoleMember)
	require.NoError(t, err)

	res, err := f.coordinator.AcceptInvite(ctx, identity("auth0|kid", "kid@example.com"), invite.Token)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, res.Status)
	assert.Equal(t, ownerView.Family.ID, res.FamilyID)
	assert.Equal(t, DefaultFamilyName, res.FamilyName)
	assert.Equal(t, "mom@example.com", res.InviterName)

	// The kid's bootstrap now lands in the shared family, not a fresh one.
	kidView, err := f.coordinator.BootstrapFamily(ctx, identity("auth0|kid", "kid@example.com"), 0)
	require.NoError(t, err)
	assert.Equal(t, ownerView.Family.ID, kidView.Family.ID)
	assert.False(t, kidView.IsOwner)
	assert.Len(t, kidView.Members, 2)
}

func TestAcceptInviteValidatesToken(t *testing.T) {
	f := newFixture()

	_, err := f.coordinator.AcceptInvite(context.Background(), identity("auth0|kid", ""), "  ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.coordinator.AcceptInvite(context.Background(), identity("auth0|kid", ""), "bogus")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateInviteRequiresMembership(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	ownerView, err := f.coordinator.BootstrapFamily(ctx, identity("auth0|owner", ""), 0)
	require.NoError(t, err)

	_, err = f.coordinator.CreateInvite(ctx, identity("auth0|stranger", ""),
		ownerView.Family.ID, "x@example.com", models.RoleMember)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCompleteTaskItemRollsOver(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := identity("auth0|alice", "alice@example.com")

	view, err := f.coordinator.BootstrapFamily(ctx, id, 0)
	require.NoError(t, err)
	listID := view.Lists[0].ID

	due := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	item, err := f.coordinator.CreateTaskItem(ctx, id, listID, CreateTaskItemInput{
		Title:                  "Take out trash",
		DueAt:                  &due,
		Recurrence:             models.RecurrenceEveryNDay,
		RecurrenceIntervalDays: 3,
	})
	require.NoError(t, err)

	res, err := f.coordinator.CompleteTaskItem(ctx, id, item.ID)
	require.NoError(t, err)
	assert.True(t, res.Item.IsDone)
	require.NotNil(t, res.Successor)
	assert.True(t, res.Successor.DueAt.Equal(due.AddDate(0, 0, 3)))
	assert.Len(t, res.Items, 2)

	// Completing again is a no-op.
	again, err := f.coordinator.CompleteTaskItem(ctx, id, item.ID)
	require.NoError(t, err)
	assert.Nil(t, again.Successor)
	assert.Len(t, again.Items, 2)
}

func TestCompleteTaskItemRequiresMembership(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := identity("auth0|alice", "")

	view, err := f.coordinator.BootstrapFamily(ctx, id, 0)
	require.NoError(t, err)
	item, err := f.coordinator.CreateTaskItem(ctx, id, view.Lists[0].ID, CreateTaskItemInput{Title: "private"})
	require.NoError(t, err)

	_, err = f.coordinator.CompleteTaskItem(ctx, identity("auth0|stranger", ""), item.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.coordinator.CompleteTaskItem(ctx, id, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListTaskItemsOrdering(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := identity("auth0|alice", "")

	view, err := f.coordinator.BootstrapFamily(ctx, id, 0)
	require.NoError(t, err)
	listID := view.Lists[0].ID

	late := time.Date(2024, 1, 20, 8, 0, 0, 0, time.UTC)
	early := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)

	done, err := f.coordinator.CreateTaskItem(ctx, id, listID, CreateTaskItemInput{Title: "done"})
	require.NoError(t, err)
	_, err = f.coordinator.CompleteTaskItem(ctx, id, done.ID)
	require.NoError(t, err)

	_, err = f.coordinator.CreateTaskItem(ctx, id, listID, CreateTaskItemInput{Title: "late", DueAt: &late})
	require.NoError(t, err)
	_, err = f.coordinator.CreateTaskItem(ctx, id, listID, CreateTaskItemInput{Title: "early", DueAt: &early})
	require.NoError(t, err)
	_, err = f.coordinator.CreateTaskItem(ctx, id, listID, CreateTaskItemInput{Title: "undated"})
	require.NoError(t, err)

	items, err := f.coordinator.ListTaskItems(ctx, id, listID)
	require.NoError(t, err)

	titles := make([]string, 0, len(items))
	for _, item := range items {
		titles = append(titles, item.Title)
	}
	assert.Equal(t, []string{"early", "late", "undated", "done"}, titles)
}

func TestCreateTaskItemValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := identity("auth0|alice", "")

	view, err := f.coordinator.BootstrapFamily(ctx, id, 0)
	require.NoError(t, err)
	listID := view.Lists[0].ID

	_, err = f.coordinator.CreateTaskItem(ctx, id, listID, CreateTaskItemInput{Title: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.coordinator.CreateTaskItem(ctx, id, listID, CreateTaskItemInput{
		Title:      "x",
		Recurrence: models.Recurrence("hourly"),
	})
	assert.ErrorIs(t, err, ErrValidation)

	item, err := f.coordinator.CreateTaskItem(ctx, id, listID, CreateTaskItemInput{
		Title:                  " Walk dog ",
		Recurrence:             models.RecurrenceEveryNDay,
		RecurrenceIntervalDays: -2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Walk dog", item.Title)
	assert.Equal(t, 1, item.RecurrenceIntervalDays)
	require.NotNil(t, item.CreatedByProfileID)
}

func TestTaskListLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := identity("auth0|owner", "")

	view, err := f.coordinator.BootstrapFamily(ctx, owner, 0)
	require.NoError(t, err)

	list, err := f.coordinator.CreateTaskList(ctx, owner, CreateTaskListInput{
		FamilyID: view.Family.ID,
		Name:     "Groceries",
		Kind:     models.ListKindShopping,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ListKindShopping, list.Kind)

	_, err = f.coordinator.CreateTaskList(ctx, owner, CreateTaskListInput{
		FamilyID: view.Family.ID,
		Name:     "bad",
		Kind:     models.ListKind("wiki"),
	})
	assert.ErrorIs(t, err, ErrValidation)

	// A plain member cannot delete.
	invite, err := f.coordinator.CreateInvite(ctx, owner, view.Family.ID, "kid@example.com", models.RoleMember)
	require.NoError(t, err)
	kid := identity("auth0|kid", "")
	_, err = f.coordinator.AcceptInvite(ctx, kid, invite.Token)
	require.NoError(t, err)

	err = f.coordinator.DeleteTaskList(ctx, kid, list.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, f.coordinator.DeleteTaskList(ctx, owner, list.ID))

	_, err = f.coordinator.ListTaskItems(ctx, owner, list.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	lists, err := f.coordinator.ListTaskLists(ctx, owner, view.Family.ID)
	require.NoError(t, err)
	assert.Len(t, lists, 1)

	_, err = f.coordinator.ListTaskLists(ctx, identity("auth0|stranger", ""), view.Family.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := identity("auth0|alice", "alice@example.com")

	view, err := f.coordinator.BootstrapFamily(ctx, id, 0)
	require.NoError(t, err)

	updated, err := f.coordinator.UpdateProfile(ctx, id, UpdateProfileInput{
		DisplayName: " Alice ",
		AvatarRef:   "avatars/alice.png",
	})
	require.NoError(t, err)
	assert.Equal(t, view.Profile.ID, updated.ID)
	assert.Equal(t, "Alice", updated.DisplayName)
	assert.Equal(t, "avatars/alice.png", updated.AvatarRef)

	// The roster picks up the new name.
	view, err = f.coordinator.BootstrapFamily(ctx, id, 0)
	require.NoError(t, err)
	assert.Equal(t, "Alice", view.Members[0].DisplayName)

	_, err = f.coordinator.UpdateProfile(ctx, id, UpdateProfileInput{DisplayName: "  "})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRenameFamilyOwnerGate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := identity("auth0|owner", "")

	view, err := f.coordinator.BootstrapFamily(ctx, owner, 0)
	require.NoError(t, err)

	invite, err := f.coordinator.CreateInvite(ctx, owner, view.Family.ID, "kid@example.com", models.RoleMember)
	require.NoError(t, err)
	kid := identity("auth0|kid", "")
	_, err = f.coordinator.AcceptInvite(ctx, kid, invite.Token)
	require.NoError(t, err)

	_, err = f.coordinator.RenameFamily(ctx, kid, view.Family.ID, "Kid's House")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.coordinator.RenameFamily(ctx, owner, view.Family.ID, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.coordinator.RenameFamily(ctx, owner, 9999, "Nobody's House")
	assert.ErrorIs(t, err, ErrNotFound)

	renamed, err := f.coordinator.RenameFamily(ctx, owner, view.Family.ID, "The Smiths")
	require.NoError(t, err)
	assert.Equal(t, "The Smiths", renamed.Name)

	view, err = f.coordinator.BootstrapFamily(ctx, owner, 0)
	require.NoError(t, err)
	assert.Equal(t, "The Smiths", view.Family.Name)
}

func TestDeleteFamilyOwnerGate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := identity("auth0|owner", "")

	view, err := f.coordinator.BootstrapFamily(ctx, owner, 0)
	require.NoError(t, err)

	invite, err := f.coordinator.CreateInvite(ctx, owner, view.Family.ID, "kid@example.com", models.RoleMember)
	require.NoError(t, err)
	kid := identity("auth0|kid", "")
	_, err = f.coordinator.AcceptInvite(ctx, kid, invite.Token)
	require.NoError(t, err)

	err = f.coordinator.DeleteFamily(ctx, kid, view.Family.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, f.coordinator.DeleteFamily(ctx, owner, view.Family.ID))

	err = f.coordinator.DeleteFamily(ctx, owner, view.Family.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveMember(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := identity("auth0|owner", "")

	view, err := f.coordinator.BootstrapFamily(ctx, owner, 0)
	require.NoError(t, err)
	familyID := view.Family.ID

	seed := func(ref string) *BootstrapView {
		invite, err := f.coordinator.CreateInvite(ctx, owner, familyID, ref+"@example.com", models.RoleMember)
		require.NoError(t, err)
		id := identity("auth0|"+ref, "")
		_, err = f.coordinator.AcceptInvite(ctx, id, invite.Token)
		require.NoError(t, err)
		v, err := f.coordinator.BootstrapFamily(ctx, id, familyID)
		require.NoError(t, err)
		return v
	}
	kid := seed("kid")
	other := seed("other")

	// A member cannot remove someone else.
	err = f.coordinator.RemoveMember(ctx, identity("auth0|kid", ""), familyID, other.Profile.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// The owner membership is never removable.
	err = f.coordinator.RemoveMember(ctx, owner, familyID, view.Profile.ID)
	assert.ErrorIs(t, err, ErrValidation)

	// A member can leave.
	require.NoError(t, f.coordinator.RemoveMember(ctx, identity("auth0|other", ""), familyID, other.Profile.ID))

	// The owner can remove a member.
	require.NoError(t, f.coordinator.RemoveMember(ctx, owner, familyID, kid.Profile.ID))

	err = f.coordinator.RemoveMember(ctx, owner, familyID, kid.Profile.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	members, err := f.memberships.GetByFamily(ctx, familyID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestDeleteCalendarOwnerGate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := identity("auth0|owner", "")

	view, err := f.coordinator.BootstrapFamily(ctx, owner, 0)
	require.NoError(t, err)
	calendarID := view.Calendars[0].ID

	invite, err := f.coordinator.CreateInvite(ctx, owner, view.Family.ID, "kid@example.com", models.RoleMember)
	require.NoError(t, err)
	kid := identity("auth0|kid", "")
	_, err = f.coordinator.AcceptInvite(ctx, kid, invite.Token)
	require.NoError(t, err)

	err = f.coordinator.DeleteCalendar(ctx, kid, view.Family.ID, calendarID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = f.coordinator.DeleteCalendar(ctx, owner, view.Family.ID, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.coordinator.DeleteCalendar(ctx, owner, view.Family.ID, calendarID))

	// The next bootstrap re-seeds the default calendar.
	view, err = f.coordinator.BootstrapFamily(ctx, owner, 0)
	require.NoError(t, err)
	require.Len(t, view.Calendars, 1)
	assert.NotEqual(t, calendarID, view.Calendars[0].ID)
}

func TestCreateCheckoutSessionOwnerGate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	owner := identity("auth0|owner", "")

	view, err := f.coordinator.BootstrapFamily(ctx, owner, 0)
	require.NoError(t, err)

	invite, err := f.coordinator.CreateInvite(ctx, owner, view.Family.ID, "kid@example.com", models.RoleMember)
	require.NoError(t, err)
	kid := identity("auth0|kid", "")
	_, err = f.coordinator.AcceptInvite(ctx, kid, invite.Token)
	require.NoError(t, err)

	_, err = f.coordinator.CreateCheckoutSession(ctx, kid, view.Family.ID, billing.PricePlusMonthly)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.coordinator.CreateCheckoutSession(ctx, owner, view.Family.ID, billing.PriceKey("MEGA_DEAL"))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.coordinator.CreateCheckoutSession(ctx, owner, 9999, billing.PricePlusMonthly)
	assert.ErrorIs(t, err, ErrNotFound)

	url, err := f.coordinator.CreateCheckoutSession(ctx, owner, view.Family.ID, billing.PricePlusMonthly)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/session/abc", url)
	assert.Equal(t, view.Family.ID, f.checkout.familyID)
	assert.Equal(t, billing.PricePlusMonthly, f.checkout.key)
}
