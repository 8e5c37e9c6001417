package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/events"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/pkg/aggcache"
	"github.com/jacksonlee411/taskgrid/pkg/application"
	"github.com/jacksonlee411/taskgrid/pkg/eventbus"
	"github.com/jacksonlee411/taskgrid/pkg/eventstream"
)

func newTestApp() application.Application {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
}

func warm(t *testing.T, cache aggcache.Store, p hierarchy.Principal) {
	t.Helper()
	require.NoError(t, cache.Set(context.Background(), aggcache.KeyFor("tasks.stats", p), []byte(`{}`)))
}

func TestCacheEventsHandler(t *testing.T) {
	org, teamA, teamB := uuid.New(), uuid.New(), uuid.New()
	managerA := hierarchy.Principal{ID: uuid.New(), OrganizationID: org, TeamID: teamA, Role: hierarchy.RoleManager}
	managerB := hierarchy.Principal{ID: uuid.New(), OrganizationID: org, TeamID: teamB, Role: hierarchy.RoleManager}
	boss := hierarchy.Principal{ID: uuid.New(), OrganizationID: org, Role: hierarchy.RoleSuperAdmin}

	t.Run("task created drops its team and organization-wide entries", func(t *testing.T) {
		app := newTestApp()
		cache := aggcache.NewMemory(time.Minute)
		RegisterCacheEventHandlers(app, cache)
		warm(t, cache, managerA)
		warm(t, cache, managerB)
		warm(t, cache, boss)

		app.EventPublisher().Publish(&events.TaskCreatedEvent{OrganizationID: org, TeamID: teamA})
		assert.Equal(t, 1, cache.Len(), "only team B survives")
	})

	t.Run("task moved between teams drops both sides", func(t *testing.T) {
		app := newTestApp()
		cache := aggcache.NewMemory(time.Minute)
		RegisterCacheEventHandlers(app, cache)
		warm(t, cache, managerA)
		warm(t, cache, managerB)

		app.EventPublisher().Publish(&events.TaskUpdatedEvent{OrganizationID: org, TeamID: teamB, PreviousTeamID: teamA})
		assert.Equal(t, 0, cache.Len())
	})

	t.Run("project and performance changes invalidate", func(t *testing.T) {
		app := newTestApp()
		cache := aggcache.NewMemory(time.Minute)
		RegisterCacheEventHandlers(app, cache)

		warm(t, cache, managerA)
		app.EventPublisher().Publish(&events.ProjectChangedEvent{OrganizationID: org, TeamID: teamA})
		assert.Equal(t, 0, cache.Len())

		warm(t, cache, managerA)
		app.EventPublisher().Publish(&events.UserPerformanceUpdatedEvent{OrganizationID: org, TeamID: teamA})
		assert.Equal(t, 0, cache.Len())
	})

	t.Run("other organizations are untouched", func(t *testing.T) {
		app := newTestApp()
		cache := aggcache.NewMemory(time.Minute)
		RegisterCacheEventHandlers(app, cache)
		warm(t, cache, managerA)

		app.EventPublisher().Publish(&events.TaskCreatedEvent{OrganizationID: uuid.New(), TeamID: teamA})
		assert.Equal(t, 1, cache.Len())
	})
}

type recomputeCall struct {
	org, user uuid.UUID
	async     bool
}

type stubRecomputer struct {
	calls []recomputeCall
}

func (s *stubRecomputer) RecomputeScore(_ context.Context, org, user uuid.UUID) {
	s.calls = append(s.calls, recomputeCall{org: org, user: user})
}

func (s *stubRecomputer) RecomputeAsync(_ context.Context, org, user uuid.UUID) {
	s.calls = append(s.calls, recomputeCall{org: org, user: user, async: true})
}

func TestScoringEventsHandler(t *testing.T) {
	org, user := uuid.New(), uuid.New()

	for _, async := range []bool{false, true} {
		app := newTestApp()
		stub := &stubRecomputer{}
		RegisterScoringEventHandlers(app, stub, async)

		app.EventPublisher().Publish(&events.TaskCompletedEvent{OrganizationID: org, AssignedTo: user})
		app.EventPublisher().Publish(&events.TaskUpdatedEvent{OrganizationID: org, AssignedTo: user})

		require.Len(t, stub.calls, 1, "only completions trigger scoring")
		assert.Equal(t, recomputeCall{org: org, user: user, async: async}, stub.calls[0])
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	sent   []eventstream.Envelope
	fail   bool
	closed bool
}

func (p *recordingPublisher) Publish(_ context.Context, env eventstream.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, env)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func TestStreamEventsHandler(t *testing.T) {
	org := uuid.New()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	app := newTestApp()
	pub := &recordingPublisher{}
	h := RegisterStreamEventHandlers(app, pub)

	app.EventPublisher().Publish(&events.TaskCreatedEvent{OrganizationID: org, OccurredAt: at})
	app.EventPublisher().Publish(&events.TaskCompletedEvent{OrganizationID: org, CompletedAt: at})
	app.EventPublisher().Publish(events.NewUserPerformanceUpdated(&hierarchy.User{ID: uuid.New(), OrganizationID: org}, at))
	app.EventPublisher().Publish(&events.ProjectChangedEvent{OrganizationID: org})
	require.NoError(t, h.Close())

	require.Len(t, pub.sent, 3)
	types := make([]string, 0, len(pub.sent))
	for _, env := range pub.sent {
		assert.Equal(t, org, env.OrganizationID)
		assert.Equal(t, at, env.OccurredAt)
		types = append(types, env.Type)
	}
	assert.ElementsMatch(t, []string{events.TypeTaskCreated, events.TypeTaskCompleted, events.TypeUserPerformanceUpdated}, types)
	assert.True(t, pub.closed)
}

func TestStreamEventsHandler_FailuresDoNotPropagate(t *testing.T) {
	app := newTestApp()
	pub := &recordingPublisher{fail: true}
	h := RegisterStreamEventHandlers(app, pub)

	assert.NotPanics(t, func() {
		app.EventPublisher().Publish(&events.TaskCreatedEvent{OrganizationID: uuid.New()})
	})
	require.NoError(t, h.Close())
	assert.Empty(t, pub.sent)
}
