package hierarchy

import (
	"time"

	"github.com/google/uuid"
)

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Organization is the tenant root.
type Organization struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Plan      Plan
	CreatedAt time.Time
}

type Team struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	TeamAdminID    uuid.UUID
	MemberIDs      []uuid.UUID
	CreatedAt      time.Time
}

// Performance holds the derived scoring fields of a user.
type Performance struct {
	// Rating is nil until the user has been scored at least once.
	Rating         *float64
	CompletedTasks int
	PendingTasks   int
	OverdueTasks   int
	ActiveProjects int
	LastActiveAt   *time.Time
}

// RatingValue returns the rating, treating unrated users as 0.
func (p Performance) RatingValue() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

type User struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	TeamID         uuid.UUID
	Role           Role
	ReportsTo      uuid.UUID
	Name           string
	Email          string
	IsActive       bool
	IsAvailable    bool
	Performance    Performance
	CreatedAt      time.Time
}

func (u *User) Principal() Principal {
	return Principal{
		ID:             u.ID,
		OrganizationID: u.OrganizationID,
		TeamID:         u.TeamID,
		Role:           u.Role,
	}
}

type ProjectRole string

const (
	ProjectRoleAdmin  ProjectRole = "admin"
	ProjectRoleEditor ProjectRole = "editor"
	ProjectRoleViewer ProjectRole = "viewer"
)

func (r ProjectRole) Valid() bool {
	switch r {
	case ProjectRoleAdmin, ProjectRoleEditor, ProjectRoleViewer:
		return true
	}
	return false
}

type ProjectMember struct {
	UserID uuid.UUID
	Role   ProjectRole
}

type Project struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	TeamID         uuid.UUID
	OwnerID        uuid.UUID
	Name           string
	Description    string
	Members        []ProjectMember
	CreatedAt      time.Time
}

// MemberIDs returns the user ids of all project members.
func (p *Project) MemberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Members))
	for _, m := range p.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID                uuid.UUID
	OrganizationID    uuid.UUID
	TeamID            uuid.UUID
	ProjectID         uuid.UUID
	AssignedTo        uuid.UUID
	CreatedBy         uuid.UUID
	Title             string
	Description       string
	Status            TaskStatus
	Priority          Priority
	Deadline          time.Time
	CompletedAt       *time.Time
	CompletionComment string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Overdue reports whether the task is open past its deadline at now.
func (t *Task) Overdue(now time.Time) bool {
	return t.Status != TaskStatusDone && !t.Deadline.IsZero() && t.Deadline.Before(now)
}
