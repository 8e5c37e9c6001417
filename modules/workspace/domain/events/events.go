package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
)

const (
	TypeTaskCreated            = "workspace.task.created.v1"
	TypeTaskUpdated            = "workspace.task.updated.v1"
	TypeTaskCompleted          = "workspace.task.completed.v1"
	TypeProjectChanged         = "workspace.project.changed.v1"
	TypeUserPerformanceUpdated = "workspace.user.performance_updated.v1"
)

type TaskCreatedEvent struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	TeamID         uuid.UUID `json:"team_id"`
	TaskID         uuid.UUID `json:"task_id"`
	ProjectID      uuid.UUID `json:"project_id"`
	AssignedTo     uuid.UUID `json:"assigned_to"`
	CreatedBy      uuid.UUID `json:"created_by"`
	AutoAssigned   bool      `json:"auto_assigned"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// TaskUpdatedEvent carries both the previous and the current team so that caches of
// either side can be dropped.
type TaskUpdatedEvent struct {
	OrganizationID uuid.UUID            `json:"organization_id"`
	TaskID         uuid.UUID            `json:"task_id"`
	TeamID         uuid.UUID            `json:"team_id"`
	PreviousTeamID uuid.UUID            `json:"previous_team_id"`
	AssignedTo     uuid.UUID            `json:"assigned_to"`
	Status         hierarchy.TaskStatus `json:"status"`
	PreviousStatus hierarchy.TaskStatus `json:"previous_status"`
	OccurredAt     time.Time            `json:"occurred_at"`
}

// TaskCompletedEvent is emitted once per task, on its first transition into done.
type TaskCompletedEvent struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	TeamID         uuid.UUID `json:"team_id"`
	TaskID         uuid.UUID `json:"task_id"`
	AssignedTo     uuid.UUID `json:"assigned_to"`
	CompletedBy    uuid.UUID `json:"completed_by"`
	Comment        string    `json:"comment"`
	CompletedAt    time.Time `json:"completed_at"`
}

type ProjectChangedEvent struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	TeamID         uuid.UUID `json:"team_id"`
	ProjectID      uuid.UUID `json:"project_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type UserPerformanceUpdatedEvent struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	TeamID         uuid.UUID `json:"team_id"`
	UserID         uuid.UUID `json:"user_id"`
	Rating         *float64  `json:"rating"`
	CompletedTasks int       `json:"completed_tasks"`
	PendingTasks   int       `json:"pending_tasks"`
	OverdueTasks   int       `json:"overdue_tasks"`
	IsAvailable    bool      `json:"is_available"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func NewUserPerformanceUpdated(u *hierarchy.User, at time.Time) *UserPerformanceUpdatedEvent {
	return &UserPerformanceUpdatedEvent{
		OrganizationID: u.OrganizationID,
		TeamID:         u.TeamID,
		UserID:         u.ID,
		Rating:         u.Performance.Rating,
		CompletedTasks: u.Performance.CompletedTasks,
		PendingTasks:   u.Performance.PendingTasks,
		OverdueTasks:   u.Performance.OverdueTasks,
		IsAvailable:    u.IsAvailable,
		OccurredAt:     at,
	}
}
