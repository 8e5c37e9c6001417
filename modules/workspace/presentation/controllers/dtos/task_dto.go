package dtos

import (
	"context"
	"time"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
)

type CreateTaskDTO struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=4000"`
	ProjectID   string     `json:"project_id" validate:"required,uuid"`
	TeamID      string     `json:"team_id" validate:"omitempty,uuid"`
	AssignedTo  string     `json:"assigned_to" validate:"omitempty,uuid"`
	AutoAssign  bool       `json:"auto_assign"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	Deadline    *time.Time `json:"deadline"`
}

func (d *CreateTaskDTO) Ok(ctx context.Context) (map[string]string, bool) {
	return check(d)
}

func (d *CreateTaskDTO) ToInput() services.CreateTaskInput {
	in := services.CreateTaskInput{
		Title:       d.Title,
		Description: d.Description,
		ProjectID:   parseID(d.ProjectID),
		TeamID:      parseID(d.TeamID),
		AssignedTo:  parseID(d.AssignedTo),
		AutoAssign:  d.AutoAssign,
		Priority:    hierarchy.Priority(d.Priority),
	}
	if d.Deadline != nil {
		in.Deadline = d.Deadline.UTC()
	}
	return in
}

type UpdateTaskStatusDTO struct {
	Status  string `json:"status" validate:"required,oneof=todo in-progress done"`
	Comment string `json:"comment" validate:"max=4000"`
}

func (d *UpdateTaskStatusDTO) Ok(ctx context.Context) (map[string]string, bool) {
	return check(d)
}

func (d *UpdateTaskStatusDTO) TaskStatus() hierarchy.TaskStatus {
	return hierarchy.TaskStatus(d.Status)
}
