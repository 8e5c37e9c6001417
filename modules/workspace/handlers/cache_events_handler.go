package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/events"
	"github.com/jacksonlee411/taskgrid/pkg/aggcache"
	"github.com/jacksonlee411/taskgrid/pkg/application"
)

// CacheEventsHandler drops cached aggregates whose inputs changed.
type CacheEventsHandler struct {
	cache  aggcache.Store
	logger *logrus.Logger
}

func NewCacheEventsHandler(cache aggcache.Store, logger *logrus.Logger) *CacheEventsHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CacheEventsHandler{cache: cache, logger: logger}
}

func RegisterCacheEventHandlers(app application.Application, cache aggcache.Store) *CacheEventsHandler {
	h := NewCacheEventsHandler(cache, app.Logger())
	bus := app.EventPublisher()
	bus.Subscribe(h.onTaskCreated)
	bus.Subscribe(h.onTaskUpdated)
	bus.Subscribe(h.onProjectChanged)
	bus.Subscribe(h.onPerformanceUpdated)
	return h
}

func (h *CacheEventsHandler) onTaskCreated(e *events.TaskCreatedEvent) {
	h.invalidate(e.OrganizationID, e.TeamID, "task_created")
}

func (h *CacheEventsHandler) onTaskUpdated(e *events.TaskUpdatedEvent) {
	h.invalidate(e.OrganizationID, e.TeamID, "task_updated")
	if e.PreviousTeamID != uuid.Nil && e.PreviousTeamID != e.TeamID {
		h.invalidate(e.OrganizationID, e.PreviousTeamID, "task_moved")
	}
}

func (h *CacheEventsHandler) onProjectChanged(e *events.ProjectChangedEvent) {
	h.invalidate(e.OrganizationID, e.TeamID, "project_changed")
}

func (h *CacheEventsHandler) onPerformanceUpdated(e *events.UserPerformanceUpdatedEvent) {
	h.invalidate(e.OrganizationID, e.TeamID, "performance_updated")
}

func (h *CacheEventsHandler) invalidate(organizationID, teamID uuid.UUID, reason string) {
	if h == nil || h.cache == nil {
		return
	}
	if err := h.cache.InvalidateScope(context.Background(), organizationID, teamID); err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"org_id":  organizationID,
			"team_id": teamID,
			"reason":  reason,
		}).Warn("aggcache: invalidation failed")
		return
	}
	aggcache.RecordInvalidate(reason)
}
