package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/events"
	"github.com/jacksonlee411/taskgrid/pkg/application"
	"github.com/jacksonlee411/taskgrid/pkg/composables"
)

// Recomputer is the part of the performance service the handler drives.
type Recomputer interface {
	RecomputeScore(ctx context.Context, organizationID, userID uuid.UUID)
	RecomputeAsync(ctx context.Context, organizationID, userID uuid.UUID)
}

// ScoringEventsHandler refreshes the assignee's performance once a task is completed.
type ScoringEventsHandler struct {
	pool        *pgxpool.Pool
	performance Recomputer
	async       bool
}

func NewScoringEventsHandler(pool *pgxpool.Pool, performance Recomputer, async bool) *ScoringEventsHandler {
	return &ScoringEventsHandler{pool: pool, performance: performance, async: async}
}

func RegisterScoringEventHandlers(app application.Application, performance Recomputer, async bool) *ScoringEventsHandler {
	h := NewScoringEventsHandler(app.DB(), performance, async)
	app.EventPublisher().Subscribe(h.onTaskCompleted)
	return h
}

func (h *ScoringEventsHandler) onTaskCompleted(e *events.TaskCompletedEvent) {
	if h == nil || h.performance == nil || e.AssignedTo == uuid.Nil {
		return
	}
	ctx := context.Background()
	if h.pool != nil {
		ctx = composables.WithPool(ctx, h.pool)
	}
	if h.async {
		h.performance.RecomputeAsync(ctx, e.OrganizationID, e.AssignedTo)
		return
	}
	h.performance.RecomputeScore(ctx, e.OrganizationID, e.AssignedTo)
}
