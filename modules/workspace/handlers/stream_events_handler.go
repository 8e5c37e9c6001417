package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/events"
	"github.com/jacksonlee411/taskgrid/pkg/application"
	"github.com/jacksonlee411/taskgrid/pkg/eventstream"
)

const streamPublishTimeout = 5 * time.Second

// StreamEventsHandler forwards task and performance events to the external event stream.
// Writes happen off the request path; Close waits for the ones in flight.
type StreamEventsHandler struct {
	publisher eventstream.Publisher
	logger    *logrus.Logger
	wg        sync.WaitGroup
}

func NewStreamEventsHandler(publisher eventstream.Publisher, logger *logrus.Logger) *StreamEventsHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &StreamEventsHandler{publisher: publisher, logger: logger}
}

func RegisterStreamEventHandlers(app application.Application, publisher eventstream.Publisher) *StreamEventsHandler {
	h := NewStreamEventsHandler(publisher, app.Logger())
	bus := app.EventPublisher()
	bus.Subscribe(h.onTaskCreated)
	bus.Subscribe(h.onTaskCompleted)
	bus.Subscribe(h.onPerformanceUpdated)
	return h
}

func (h *StreamEventsHandler) onTaskCreated(e *events.TaskCreatedEvent) {
	h.forward(events.TypeTaskCreated, e.OrganizationID, e.OccurredAt, e)
}

func (h *StreamEventsHandler) onTaskCompleted(e *events.TaskCompletedEvent) {
	h.forward(events.TypeTaskCompleted, e.OrganizationID, e.CompletedAt, e)
}

func (h *StreamEventsHandler) onPerformanceUpdated(e *events.UserPerformanceUpdatedEvent) {
	h.forward(events.TypeUserPerformanceUpdated, e.OrganizationID, e.OccurredAt, e)
}

func (h *StreamEventsHandler) forward(eventType string, organizationID uuid.UUID, at time.Time, payload any) {
	if h == nil || h.publisher == nil {
		return
	}
	env := eventstream.Envelope{
		Type:           eventType,
		OrganizationID: organizationID,
		OccurredAt:     at,
		Payload:        payload,
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), streamPublishTimeout)
		defer cancel()
		if err := h.publisher.Publish(ctx, env); err != nil {
			h.logger.WithError(err).WithFields(logrus.Fields{
				"event_type": eventType,
				"org_id":     organizationID,
			}).Warn("eventstream: forward failed")
		}
	}()
}

// Close waits for pending forwards and closes the publisher.
func (h *StreamEventsHandler) Close() error {
	h.wg.Wait()
	return h.publisher.Close()
}
