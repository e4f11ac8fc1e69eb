// Package memory provides in-memory implementations of the repository
// interfaces. The store enforces the same uniqueness constraints as the
// database schema, which makes it suitable for exercising the services'
// converge-on-duplicate paths in tests.
package memory

import (
	"sync"

	"github.com/hearthhub/hearthd/internal/models"
)

// Store holds all in-memory tables behind one mutex.
type Store struct {
	mu sync.Mutex

	nextID      int64
	profiles    map[int64]*models.Profile
	families    map[int64]*models.Family
	memberships map[int64]*models.Membership
	invites     map[int64]*models.Invite
	calendars   map[int64]*models.Calendar
	lists       map[int64]*models.TaskList
	items       map[int64]*models.TaskItem
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		profiles:    make(map[int64]*models.Profile),
		families:    make(map[int64]*models.Family),
		memberships: make(map[int64]*models.Membership),
		invites:     make(map[int64]*models.Invite),
		calendars:   make(map[int64]*models.Calendar),
		lists:       make(map[int64]*models.TaskList),
		items:       make(map[int64]*models.TaskItem),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Profiles returns the profile repository backed by this store.
func (s *Store) Profiles() *ProfileRepository { return &ProfileRepository{s} }

// Families returns the family repository backed by this store.
func (s *Store) Families() *FamilyRepository { return &FamilyRepository{s} }

// Memberships returns the membership repository backed by this store.
func (s *Store) Memberships() *MembershipRepository { return &MembershipRepository{s} }

// Invites returns the invite repository backed by this store.
func (s *Store) Invites() *InviteRepository { return &InviteRepository{s} }

// Calendars returns the calendar repository backed by this store.
func (s *Store) Calendars() *CalendarRepository { return &CalendarRepository{s} }

// TaskLists returns the task list repository backed by this store.
func (s *Store) TaskLists() *TaskListRepository { return &TaskListRepository{s} }

// TaskItems returns the task item repository backed by this store.
func (s *Store) TaskItems() *TaskItemRepository { return &TaskItemRepository{s} }
