package repository

import (
	"context"
	"errors"

	"github.com/hearthhub/hearthd/internal/models"
)

// ErrDuplicate is returned by Create methods when an insert loses to a
// uniqueness constraint. Callers converge by re-fetching the winning row
// instead of failing.
var ErrDuplicate = errors.New("duplicate row")

// ProfileRepository defines the interface for profile data operations
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	GetByID(ctx context.Context, id int64) (*models.Profile, error)
	GetByIdentityRef(ctx context.Context, identityRef string) (*models.Profile, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) (*models.Profile, error)
}

// FamilyRepository defines the interface for family data operations
type FamilyRepository interface {
	Create(ctx context.Context, family *models.Family) (*models.Family, error)
	GetByID(ctx context.Context, id int64) (*models.Family, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*models.Family, error)
	Update(ctx context.Context, family *models.Family) (*models.Family, error)
	Delete(ctx context.Context, id int64) error
}

// MembershipRepository defines the interface for membership data operations.
// Create must report ErrDuplicate when the (family_id, profile_id) pair or
// the one-default-per-profile constraint rejects the insert.
type MembershipRepository interface {
	Create(ctx context.Context, membership *models.Membership) (*models.Membership, error)
	GetByFamilyAndProfile(ctx context.Context, familyID, profileID int64) (*models.Membership, error)
	GetByProfile(ctx context.Context, profileID int64) ([]*models.Membership, error)
	GetByFamily(ctx context.Context, familyID int64) ([]*models.Membership, error)
	Delete(ctx context.Context, id int64) error
}

// InviteRepository defines the interface for invite data operations.
// MarkAccepted is conditional on accepted_at being null so that only one
// of two racing consumers observes the transition.
type InviteRepository interface {
	Create(ctx context.Context, invite *models.Invite) (*models.Invite, error)
	GetByToken(ctx context.Context, token string) (*models.Invite, error)
	GetByFamily(ctx context.Context, familyID int64) ([]*models.Invite, error)
	MarkAccepted(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// CalendarRepository defines the interface for calendar operations
type CalendarRepository interface {
	Create(ctx context.Context, calendar *models.Calendar) (*models.Calendar, error)
	GetByFamily(ctx context.Context, familyID int64) ([]*models.Calendar, error)
	Delete(ctx context.Context, id int64) error
}

// TaskListRepository defines the interface for task list operations
type TaskListRepository interface {
	Create(ctx context.Context, list *models.TaskList) (*models.TaskList, error)
	GetByID(ctx context.Context, id int64) (*models.TaskList, error)
	GetByFamily(ctx context.Context, familyID int64) ([]*models.TaskList, error)
	Delete(ctx context.Context, id int64) error
}

// TaskItemRepository defines the interface for task item operations
type TaskItemRepository interface {
	Create(ctx context.Context, item *models.TaskItem) (*models.TaskItem, error)
	GetByID(ctx context.Context, id int64) (*models.TaskItem, error)
	GetByList(ctx context.Context, listID int64) ([]*models.TaskItem, error)
	Update(ctx context.Context, item *models.TaskItem) (*models.TaskItem, error)
	Delete(ctx context.Context, id int64) error
}
