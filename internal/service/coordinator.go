package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/hearthhub/hearthd/internal/auth"
	"github.com/hearthhub/hearthd/internal/billing"
	"github.com/hearthhub/hearthd/internal/metrics"
	"github.com/hearthhub/hearthd/internal/models"
	"github.com/hearthhub/hearthd/internal/repository"
)

// Seeded defaults for a family's first calendar and task list.
const (
	DefaultCalendarName  = "Home Calendar"
	DefaultCalendarColor = "#007bff"
	DefaultTaskListName  = "Family Tasks"
)

// Coordinator is the façade callers use. It composes the registrar and the
// invite ledger for invite acceptance, wraps the rollover engine for
// completion events, and owns the ensure-or-seed policy for first logins.
type Coordinator struct {
	registrar *Registrar
	ledger    *Ledger
	engine    *RolloverEngine

	profiles    repository.ProfileRepository
	families    repository.FamilyRepository
	memberships repository.MembershipRepository
	calendars   repository.CalendarRepository
	lists       repository.TaskListRepository
	items       repository.TaskItemRepository

	checkout billing.CheckoutProvider
	logger   *logrus.Logger
}

// NewCoordinator creates a new reconciliation coordinator with all required
// dependencies.
func NewCoordinator(
	registrar *Registrar,
	ledger *Ledger,
	engine *RolloverEngine,
	profiles repository.ProfileRepository,
	families repository.FamilyRepository,
	memberships repository.MembershipRepository,
	calendars repository.CalendarRepository,
	lists repository.TaskListRepository,
	items repository.TaskItemRepository,
	checkout billing.CheckoutProvider,
	logger *logrus.Logger,
) *Coordinator {
	return &Coordinator{
		registrar:   registrar,
		ledger:      ledger,
		engine:      engine,
		profiles:    profiles,
		families:    families,
		memberships: memberships,
		calendars:   calendars,
		lists:       lists,
		items:       items,
		checkout:    checkout,
		logger:      logger,
	}
}

// Registrar exposes the membership registrar for callers composing their
// own flows.
func (c *Coordinator) Registrar() *Registrar { return c.registrar }

// Ledger exposes the invite ledger.
func (c *Coordinator) Ledger() *Ledger { return c.ledger }

// requireProfile resolves the caller's identity to a profile, creating it
// lazily. The email doubles as the display-name fallback.
func (c *Coordinator) requireProfile(ctx context.Context, identity *auth.Identity) (*models.Profile, error) {
	if identity == nil || identity.Ref == "" {
		return nil, fmt.Errorf("%w: missing identity", ErrUnauthorized)
	}
	return c.registrar.EnsureProfile(ctx, identity.Ref, identity.Email)
}

// requireMembership resolves the caller's membership in the family, or
// ErrUnauthorized when none exists.
func (c *Coordinator) requireMembership(ctx context.Context, profileID, familyID int64) (*models.Membership, error) {
	membership, err := c.memberships.GetByFamilyAndProfile(ctx, familyID, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup membership (family=%d, profile=%d): %w", familyID, profileID, err)
	}
	if membership == nil {
		return nil, fmt.Errorf("%w: not a member of family %d", ErrUnauthorized, familyID)
	}
	return membership, nil
}

// AcceptInviteResult is the caller-facing outcome of accepting an invite.
type AcceptInviteResult struct {
	Status      ConsumeOutcome `json:"status"`
	FamilyID    int64          `json:"family_id"`
	FamilyName  string         `json:"family_name"`
	InviterName string         `json:"inviter_name"`
}

// AcceptInvite ensures a profile for the identity, consumes the token, and
// decorates the outcome with the family and inviter names. Name lookups
// are display-only: their failures are logged and degraded, never fatal.
func (c *Coordinator) AcceptInvite(ctx context.Context, identity *auth.Identity, token string) (*AcceptInviteResult, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: invite token is required", ErrValidation)
	}

	profile, err := c.requireProfile(ctx, identity)
	if err != nil {
		return nil, err
	}

	consumed, err := c.ledger.Consume(ctx, token, profile.ID)
	if err != nil {
		return nil, err
	}

	result := &AcceptInviteResult{
		Status:   consumed.Outcome,
		FamilyID: consumed.Invite.FamilyID,
	}

	family, err := c.families.GetByID(ctx, consumed.Invite.FamilyID)
	if err != nil || family == nil {
		c.logger.WithError(err).Warnf("Failed to load family %d for invite response", consumed.Invite.FamilyID)
	} else {
		result.FamilyName = family.Name
	}

	if consumed.Invite.CreatedByProfileID != nil {
		inviter, err := c.profiles.GetByID(ctx, *consumed.Invite.CreatedByProfileID)
		if err != nil || inviter == nil {
			c.logger.WithError(err).Warnf("Failed to load inviter profile %d", *consumed.Invite.CreatedByProfileID)
		} else {
			result.InviterName = inviter.Name()
		}
	}

	return result, nil
}

// FamilySummary is one family the caller belongs to.
type FamilySummary struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Role      models.Role `json:"role"`
	IsDefault bool        `json:"is_default"`
}

// MemberView is a family member decorated with profile display data.
type MemberView struct {
	MembershipID int64       `json:"membership_id"`
	ProfileID    int64       `json:"profile_id"`
	DisplayName  string      `json:"display_name"`
	AvatarRef    string      `json:"avatar_ref"`
	Role         models.Role `json:"role"`
	IsDefault    bool        `json:"is_default"`
}

// InviteView is a pending invite decorated with the inviter's name.
type InviteView struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	InvitedBy string    `json:"invited_by"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// BootstrapView is the aggregate a client needs after login.
type BootstrapView struct {
	Profile    *models.Profile    `json:"profile"`
	Family     *models.Family     `json:"family"`
	Membership *models.Membership `json:"membership"`
	IsOwner    bool               `json:"is_owner"`
	Families   []FamilySummary    `json:"families"`
	Members    []MemberView       `json:"members"`
	Invites    []InviteView       `json:"invites"`
	Calendars  []*models.Calendar `json:"calendars"`
	Lists      []*models.TaskList `json:"lists"`
}

// BootstrapFamily ensures the identity has a profile, at least one
// membership (seeding a default family when it has none), at least one
// calendar and one task list in the resolved family, and returns the
// aggregate view. activeFamilyID selects among the caller's families; zero
// falls back to the default membership, then the oldest.
func (c *Coordinator) BootstrapFamily(ctx context.Context, identity *auth.Identity, activeFamilyID int64) (*BootstrapView, error) {
	profile, err := c.requireProfile(ctx, identity)
	if err != nil {
		return nil, err
	}

	memberships, err := c.memberships.GetByProfile(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships for profile %d: %w", profile.ID, err)
	}

	var family *models.Family
	var active *models.Membership

	if len(memberships) == 0 {
		family, active, err = c.registrar.BootstrapDefaultFamily(ctx, profile)
		if err != nil {
			return nil, err
		}
		memberships = []*models.Membership{active}
		metrics.FamiliesBootstrapped.Inc()
	} else {
		active = selectMembership(memberships, activeFamilyID)
		family, err = c.families.GetByID(ctx, active.FamilyID)
		if err != nil {
			return nil, fmt.Errorf("failed to load family %d: %w", active.FamilyID, err)
		}
		if family == nil {
			return nil, fmt.Errorf("%w: family %d", ErrNotFound, active.FamilyID)
		}
	}

	view := &BootstrapView{
		Profile:    profile,
		Family:     family,
		Membership: active,
		IsOwner:    active.IsOwner(),
	}

	view.Families, err = c.familySummaries(ctx, memberships)
	if err != nil {
		return nil, err
	}

	view.Calendars, err = c.ensureCalendar(ctx, family.ID)
	if err != nil {
		return nil, err
	}

	view.Lists, err = c.ensureTaskList(ctx, family.ID)
	if err != nil {
		return nil, err
	}

	members, err := c.memberships.GetByFamily(ctx, family.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of family %d: %w", family.ID, err)
	}

	invites, err := c.ledger.PendingForFamily(ctx, family.ID)
	if err != nil {
		return nil, err
	}

	c.decorateRoster(ctx, view, profile, members, invites)
	return view, nil
}

// selectMembership picks the active membership: the requested family if
// the caller belongs to it, else the default, else the oldest.
func selectMembership(memberships []*models.Membership, activeFamilyID int64) *models.Membership {
	if activeFamilyID != 0 {
		for _, m := range memberships {
			if m.FamilyID == activeFamilyID {
				return m
			}
		}
	}
	for _, m := range memberships {
		if m.IsDefault {
			return m
		}
	}
	return memberships[0]
}

func (c *Coordinator) familySummaries(ctx context.Context, memberships []*models.Membership) ([]FamilySummary, error) {
	ids := make([]int64, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.FamilyID)
	}

	families, err := c.families.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load families: %w", err)
	}

	byID := make(map[int64]*models.Family, len(families))
	for _, f := range families {
		byID[f.ID] = f
	}

	summaries := make([]FamilySummary, 0, len(memberships))
	for _, m := range memberships {
		f, ok := byID[m.FamilyID]
		if !ok {
			continue
		}
		summaries = append(summaries, FamilySummary{
			ID:        f.ID,
			Name:      f.Name,
			Role:      m.Role,
			IsDefault: m.IsDefault,
		})
	}
	return summaries, nil
}

// ensureCalendar reads the family's calendars; if none exist it seeds one
// canonical default and treats the inserted row as the result.
func (c *Coordinator) ensureCalendar(ctx context.Context, familyID int64) ([]*models.Calendar, error) {
	calendars, err := c.calendars.GetByFamily(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars for family %d: %w", familyID, err)
	}
	if len(calendars) > 0 {
		return calendars, nil
	}

	seeded, err := c.calendars.Create(ctx, &models.Calendar{
		FamilyID:  familyID,
		Name:      DefaultCalendarName,
		Color:     DefaultCalendarColor,
		IsPrimary: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed calendar for family %d: %w", familyID, err)
	}

	c.logger.Infof("Seeded default calendar %d for family %d", seeded.ID, familyID)
	return []*models.Calendar{seeded}, nil
}

// ensureTaskList reads the family's task lists; if none exist it seeds one
// canonical default.
func (c *Coordinator) ensureTaskList(ctx context.Context, familyID int64) ([]*models.TaskList, error) {
	lists, err := c.lists.GetByFamily(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task lists for family %d: %w", familyID, err)
	}
	if len(lists) > 0 {
		return lists, nil
	}

	seeded, err := c.lists.Create(ctx, &models.TaskList{
		FamilyID: familyID,
		Name:     DefaultTaskListName,
		Kind:     models.ListKindTodo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed task list for family %d: %w", familyID, err)
	}

	c.logger.Infof("Seeded default task list %d for family %d", seeded.ID, familyID)
	return []*models.TaskList{seeded}, nil
}

// decorateRoster resolves member and inviter display names. These are
// display-only reads; any failures are aggregated, logged and degraded.
func (c *Coordinator) decorateRoster(ctx context.Context, view *BootstrapView, caller *models.Profile, members []*models.Membership, invites []*models.Invite) {
	var problems *multierror.Error

	idSet := make(map[int64]struct{})
	for _, m := range members {
		idSet[m.ProfileID] = struct{}{}
	}
	for _, inv := range invites {
		if inv.CreatedByProfileID != nil {
			idSet[*inv.CreatedByProfileID] = struct{}{}
		}
	}

	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	byID := make(map[int64]*models.Profile)
	profiles, err := c.profiles.GetByIDs(ctx, ids)
	if err != nil {
		problems = multierror.Append(problems, fmt.Errorf("failed to load member profiles: %w", err))
	}
	for _, p := range profiles {
		byID[p.ID] = p
	}

	view.Members = make([]MemberView, 0, len(members))
	for _, m := range members {
		mv := MemberView{
			MembershipID: m.ID,
			ProfileID:    m.ProfileID,
			Role:         m.Role,
			IsDefault:    m.IsDefault,
		}
		if p, ok := byID[m.ProfileID]; ok {
			mv.DisplayName = p.Name()
			mv.AvatarRef = p.AvatarRef
		}
		view.Members = append(view.Members, mv)
	}

	view.Invites = make([]InviteView, 0, len(invites))
	for _, inv := range invites {
		iv := InviteView{
			ID:        inv.ID,
			Email:     inv.Email,
			InvitedBy: "Unknown",
			Token:     inv.Token,
			CreatedAt: inv.CreatedAt,
		}
		if inv.CreatedByProfileID != nil {
			if *inv.CreatedByProfileID == caller.ID {
				iv.InvitedBy = "You"
			} else if p, ok := byID[*inv.CreatedByProfileID]; ok {
				iv.InvitedBy = p.Name()
			}
		}
		view.Invites = append(view.Invites, iv)
	}

	if err := problems.ErrorOrNil(); err != nil {
		c.logger.WithError(err).Warn("Degraded roster display data in bootstrap view")
	}
}

// CreateInvite issues an invite on behalf of the identity, which must be a
// member of the family.
func (c *Coordinator) CreateInvite(ctx context.Context, identity *auth.Identity, familyID int64, email string, role models.Role) (*models.Invite, error) {
	profile, err := c.requireProfile(ctx, identity)
	if err != nil {
		return nil, err
	}
	if _, err := c.requireMembership(ctx, profile.ID, familyID); err != nil {
		return nil, err
	}
	return c.ledger.Create(ctx, familyID, email, role, profile.ID)
}

// RevokeInvite revokes an invite in a family the identity belongs to.
// Revoking an invite that is already gone succeeds.
func (c *Coordinator) RevokeInvite(ctx context.Context, identity *auth.Identity, inviteID int64) error {
	if _, err := c.requireProfile(ctx, identity); err != nil {
		return err
	}
	return c.ledger.Revoke(ctx, inviteID)
}

// UpdateProfileInput is the caller-supplied shape of a profile update.
type UpdateProfileInput struct {
	DisplayName string
	AvatarRef   string
}

// UpdateProfile updates the caller's display name and avatar.
func (c *Coordinator) UpdateProfile(ctx context.Context, identity *auth.Identity, input UpdateProfileInput) (*models.Profile, error) {
	profile, err := c.requireProfile(ctx, identity)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrValidation)
	}

	profile.DisplayName = name
	profile.AvatarRef = strings.TrimSpace(input.AvatarRef)

	updated, err := c.profiles.Update(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile %d: %w", profile.ID, err)
	}
	return updated, nil
}

// RenameFamily renames a family. Only family owners may rename.
func (c *Coordinator) RenameFamily(ctx context.Context, identity *auth.Identity, familyID int64, name string) (*models.Family, error) {
	profile, err := c.requireProfile(ctx, identity)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: family name is required", ErrValidation)
	}

	family, err := c.families.GetByID(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load family %d: %w", familyID, err)
	}
	if family == nil {
		return nil, fmt.Errorf("%w: family %d", ErrNotFound, familyID)
	}

	owner, err := c.registrar.IsFamilyOwner(ctx, profile.ID, familyID)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, fmt.Errorf("%w: only owners can rename the family", ErrUnauthorized)
	}

	family.Name = name
	updated, err := c.families.Update(ctx, family)
	if err != nil {
		return nil, fmt.Errorf("failed to rename family %d: %w", familyID, err)
	}
	return updated, nil
}

// DeleteFamily deletes a family with everything in it. Only family owners
// may delete.
func (c *Coordinator) DeleteFamily(ctx context.Context, identity *auth.Identity, familyID int64) error {
	profile, err := c.requireProfile(ctx, identity)
	if err != nil {
		return err
	}

	family, err := c.families.GetByID(ctx, familyID)
	if err != nil {
		return fmt.Errorf("failed to load family %d: %w", familyID, err)
	}
	if family == nil {
		return fmt.Errorf("%w: family %d", ErrNotFound, familyID)
	}

	owner, err := c.registrar.IsFamilyOwner(ctx, profile.ID, familyID)
	if err != nil {
		return err
	}
	if !owner {
		return fmt.Errorf("%w: only owners can delete the family", ErrUnauthorized)
	}

	if err := c.families.Delete(ctx, familyID); err != nil {
		return fmt.Errorf("failed to delete family %d: %w", familyID, err)
	}

	c.logger.Infof("Family %d deleted by profile %d", familyID, profile.ID)
	return nil
}

// RemoveMember removes a profile's membership from a family. Members may
// remove themselves (leave); owners may remove anyone but an owner. The
// owner membership itself can never be removed.
func (c *Coordinator) RemoveMember(ctx context.Context, identity *auth.Identity, familyID, memberProfileID int64) error {
	profile, err := c.requireProfile(ctx, identity)
	if err != nil {
		return err
	}

	target, err := c.memberships.GetByFamilyAndProfile(ctx, familyID, memberProfileID)
	if err != nil {
		return fmt.Errorf("failed to lookup membership (family=%d, profile=%d): %w", familyID, memberProfileID, err)
	}
	if target == nil {
		return fmt.Errorf("%w: membership", ErrNotFound)
	}

	if target.IsOwner() {
		return fmt.Errorf("%w: the owner membership cannot be removed", ErrValidation)
	}

	if target.ProfileID != profile.ID {
		owner, err := c.registrar.IsFamilyOwner(ctx, profile.ID, familyID)
		if err != nil {
			return err
		}
		if !owner {
			return fmt.Errorf("%w: only owners can remove members", ErrUnauthorized)
		}
	}

	if err := c.memberships.Delete(ctx, target.ID); err != nil {
		return fmt.Errorf("failed to remove membership %d: %w", target.ID, err)
	}

	c.logger.Infof("Removed profile %d from family %d", memberProfileID, familyID)
	return nil
}

// DeleteCalendar deletes a family calendar. Only family owners may delete
// calendars; the next bootstrap re-seeds the default if none remain.
func (c *Coordinator) DeleteCalendar(ctx context.Context, identity *auth.Identity, familyID, calendarID int64) error {
	profile, err := c.requireProfile(ctx, identity)
	if err != nil {
		return err
	}

	owner, err := c.registrar.IsFamilyOwner(ctx, profile.ID, familyID)
	if err != nil {
		return err
	}
	if !owner {
		return fmt.Errorf("%w: only owners can delete calendars", ErrUnauthorized)
	}

	calendars, err := c.calendars.GetByFamily(ctx, familyID)
	if err != nil {
		return fmt.Errorf("failed to list calendars for family %d: %w", familyID, err)
	}
	for _, cal := range calendars {
		if cal.ID == calendarID {
			return c.calendars.Delete(ctx, calendarID)
		}
	}
	return fmt.Errorf("%w: calendar %d", ErrNotFound, calendarID)
}

// CompleteResult carries the completed item, its successor when one was
// spawned, and the reloaded list so callers observe the successor.
type CompleteResult struct {
	Item      *models.TaskItem   `json:"item"`
	Successor *models.TaskItem   `json:"successor,omitempty"`
	Items     []*models.TaskItem `json:"items"`
}

// CompleteTaskItem marks the item done, spawning the successor dictated by
// its recurrence rule, and reloads the full list.
func (c *Coordinator) CompleteTaskItem(ctx context.Context, identity *auth.Identity, itemID int64) (*CompleteResult, error) {
	profile, err := c.requireProfile(ctx, identity)
	if err != nil {
		return nil, err
	}

	item, err := c.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task item %d: %w", itemID, err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: task item %d", ErrNotFound, itemID)
	}

	list, err := c.lists.GetByID(ctx, item.ListID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task list %d: %w", item.ListID, err)
	}
	if list == nil {
		return nil, fmt.Errorf("%w: task list %d", ErrNotFound, item.ListID)
	}

	if _, err := c.requireMembership(ctx, profile.ID, list.FamilyID); err != nil {
		return nil, err
	}

	updated, successor, err := c.engine.Complete(ctx, item)
	if err != nil {
		return nil, err
	}

	items, err := c.items.GetByList(ctx, list.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task list %d: %w", list.ID, err)
	}

	return &CompleteResult{Item: updated, Successor: successor, Items: items}, nil
}

// CreateTaskListInput is the caller-supplied shape of a new task list.
type CreateTaskListInput struct {
	FamilyID  int64
	Name      string
	Kind      models.ListKind
	SortOrder int
}

// CreateTaskList creates a list in a family the identity belongs to.
func (c *Coordinator) CreateTaskList(ctx context.Context, identity *auth.Identity, input CreateTaskListInput) (*models.TaskList, error) {
	profile, err := c.requireProfile(ctx, identity)
	if err != nil {
		return nil, err
	}
	if _, err := c.requireMembership(ctx, profile.ID, input.FamilyID); err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: list name is required", ErrValidation)
	}
	kind := input.Kind
	if kind == "" {
		kind = models.ListKindTodo
	}
	if kind != models.ListKindTodo && kind != models.ListKindShopping {
		return nil, fmt.Errorf("%w: unknown list kind %q", ErrValidation, kind)
	}

	return c.lists.Create(ctx, &models.TaskList{
		FamilyID:  input.FamilyID,
		Name:      strings.TrimSpace(input.Name),
		Kind:      kind,
		SortOrder: input.SortOrder,
	})
}

// ListTaskLists returns the lists of a family the identity belongs to.
func (c *Coordinator) ListTaskLists(ctx context.Context, identity *auth.Identity, familyID int64) ([]*models.TaskList, error) {
	profile, err := c.requireProfile(ctx, identity)
	if err != nil {
		return nil, err
	}
	if _, err := c.requireMembership(ctx, profile.ID, familyID); err != nil {
		return nil, err
	}

	lists, err := c.lists.GetByFamily(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task lists for family %d: %w", familyID, err)
	}
	return lists, nil
}

// DeleteTaskList deletes a list and its items. Only family owners may
// delete lists.
func (c *Coordinator) DeleteTaskList(ctx context.Context, identity *auth.Identity, listID int64) error {
	profile, err := c.requireProfile(ctx, identity)
	if err != nil {
		return err
	}

	list, err := c.lists.GetByID(ctx, listID)
	if err != nil {
		return fmt.Errorf("failed to load task list %d: %w", listID, err)
	}
	if list == nil {
		return fmt.Errorf("%w: task list %d", ErrNotFound, listID)
	}

	owner, err := c.registrar.IsFamilyOwner(ctx, profile.ID, list.FamilyID)
	if err != nil {
		return err
	}
	if !owner {
		return fmt.Errorf("%w: only owners can delete lists", ErrUnauthorized)
	}

	return c.lists.Delete(ctx, listID)
}

// ListTaskItems returns the items of a list in a family the identity
// belongs to, ordered not-done first, then due date, then creation.
func (c *Coordinator) ListTaskItems(ctx context.Context, identity *auth.Identity, listID int64) ([]*models.TaskItem, error) {
	profile, err := c.requireProfile(ctx, identity)
	if err != nil {
		return nil, err
	}

	list, err := c.lists.GetByID(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task list %d: %w", listID, err)
	}
	if list == nil {
		return nil, fmt.Errorf("%w: task list %d", ErrNotFound, listID)
	}
	if _, err := c.requireMembership(ctx, profile.ID, list.FamilyID); err != nil {
		return nil, err
	}

	return c.items.GetByList(ctx, listID)
}

// CreateTaskItemInput is the caller-supplied shape of a new task item.
type CreateTaskItemInput struct {
	Title                  string
	Notes                  string
	DueAt                  *time.Time
	AssigneeProfileID      *int64
	Recurrence             models.Recurrence
	RecurrenceIntervalDays int
}

// CreateTaskItem adds an item to a list in a family the identity belongs
// to.
func (c *Coordinator) CreateTaskItem(ctx context.Context, identity *auth.Identity, listID int64, input CreateTaskItemInput) (*models.TaskItem, error) {
	profile, err := c.requireProfile(ctx, identity)
	if err != nil {
		return nil, err
	}

	list, err := c.lists.GetByID(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task list %d: %w", listID, err)
	}
	if list == nil {
		return nil, fmt.Errorf("%w: task list %d", ErrNotFound, listID)
	}
	if _, err := c.requireMembership(ctx, profile.ID, list.FamilyID); err != nil {
		return nil, err
	}

	var invalid *multierror.Error
	if strings.TrimSpace(input.Title) == "" {
		invalid = multierror.Append(invalid, fmt.Errorf("title is required"))
	}
	recurrence := input.Recurrence
	if recurrence == "" {
		recurrence = models.RecurrenceOnce
	}
	switch recurrence {
	case models.RecurrenceOnce, models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceEveryNDay:
	default:
		invalid = multierror.Append(invalid, fmt.Errorf("unknown recurrence %q", recurrence))
	}
	if err := invalid.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	interval := 0
	if recurrence == models.RecurrenceEveryNDay {
		interval = input.RecurrenceIntervalDays
		if interval < 1 {
			interval = 1
		}
	}

	return c.items.Create(ctx, &models.TaskItem{
		ListID:                 listID,
		Title:                  strings.TrimSpace(input.Title),
		Notes:                  strings.TrimSpace(input.Notes),
		DueAt:                  input.DueAt,
		AssigneeProfileID:      input.AssigneeProfileID,
		CreatedByProfileID:     &profile.ID,
		Recurrence:             recurrence,
		RecurrenceIntervalDays: interval,
	})
}

// DeleteTaskItem deletes an item. Only family owners may delete items.
func (c *Coordinator) DeleteTaskItem(ctx context.Context, identity *auth.Identity, itemID int64) error {
	profile, err := c.requireProfile(ctx, identity)
	if err != nil {
		return err
	}

	item, err := c.items.GetByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to load task item %d: %w", itemID, err)
	}
	if item == nil {
		return fmt.Errorf("%w: task item %d", ErrNotFound, itemID)
	}

	list, err := c.lists.GetByID(ctx, item.ListID)
	if err != nil {
		return fmt.Errorf("failed to load task list %d: %w", item.ListID, err)
	}
	if list == nil {
		return fmt.Errorf("%w: task list %d", ErrNotFound, item.ListID)
	}

	owner, err := c.registrar.IsFamilyOwner(ctx, profile.ID, list.FamilyID)
	if err != nil {
		return err
	}
	if !owner {
		return fmt.Errorf("%w: only owners can delete items", ErrUnauthorized)
	}

	return c.items.Delete(ctx, itemID)
}

// CreateCheckoutSession authorizes the identity as an owner of the family
// and delegates session creation to the payment provider.
func (c *Coordinator) CreateCheckoutSession(ctx context.Context, identity *auth.Identity, familyID int64, key billing.PriceKey) (string, error) {
	profile, err := c.requireProfile(ctx, identity)
	if err != nil {
		return "", err
	}

	if !billing.ValidPriceKey(key) {
		return "", fmt.Errorf("%w: unknown price key %q", ErrValidation, key)
	}

	family, err := c.families.GetByID(ctx, familyID)
	if err != nil {
		return "", fmt.Errorf("failed to load family %d: %w", familyID, err)
	}
	if family == nil {
		return "", fmt.Errorf("%w: family %d", ErrNotFound, familyID)
	}

	owner, err := c.registrar.IsFamilyOwner(ctx, profile.ID, familyID)
	if err != nil {
		return "", err
	}
	if !owner {
		return "", fmt.Errorf("%w: only owners can manage billing", ErrUnauthorized)
	}

	url, err := c.checkout.CreateSession(ctx, familyID, key)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session for family %d: %w", familyID, err)
	}

	return url, nil
}
