package service

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/hearthhub/hearthd/internal/billing"
	"github.com/hearthhub/hearthd/internal/repository/memory"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fakeCheckout records the last session request and returns a fixed URL.
type fakeCheckout struct {
	familyID int64
	key      billing.PriceKey
	url      string
	err      error
}

func (f *fakeCheckout) CreateSession(_ context.Context, familyID int64, key billing.PriceKey) (string, error) {
	f.familyID = familyID
	f.key = key
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

// fixture wires the full service stack over a shared in-memory store.
type fixture struct {
	store       *memory.Store
	profiles    *memory.ProfileRepository
	families    *memory.FamilyRepository
	memberships *memory.MembershipRepository
	invites     *memory.InviteRepository
	calendars   *memory.CalendarRepository
	lists       *memory.TaskListRepository
	items       *memory.TaskItemRepository

	registrar   *Registrar
	ledger      *Ledger
	engine      *RolloverEngine
	coordinator *Coordinator
	checkout    *fakeCheckout
}

func newFixture() *fixture {
	store := memory.NewStore()
	f := &fixture{
		store:       store,
		profiles:    store.Profiles(),
		families:    store.Families(),
		memberships: store.Memberships(),
		invites:     store.Invites(),
		calendars:   store.Calendars(),
		lists:       store.TaskLists(),
		items:       store.TaskItems(),
		checkout:    &fakeCheckout{url: "https://pay.example.com/session/abc"},
	}

	logger := testLogger()
	f.registrar = NewRegistrar(f.profiles, f.families, f.memberships, logger)
	f.ledger = NewLedger(f.invites, f.registrar, logger)
	f.engine = NewRolloverEngine(f.items, logger)
	f.coordinator = NewCoordinator(
		f.registrar, f.ledger, f.engine,
		f.profiles, f.families, f.memberships,
		f.calendars, f.lists, f.items,
		f.checkout, logger,
	)
	return f
}
