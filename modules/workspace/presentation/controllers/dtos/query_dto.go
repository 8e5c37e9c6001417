package dtos

import (
	"context"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/scope"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
)

const defaultPageSize = 50

func listParams(limit, offset int) services.ListParams {
	if limit == 0 {
		limit = defaultPageSize
	}
	return services.ListParams{Limit: limit, Offset: offset}
}

type TaskQuery struct {
	TeamID     string `form:"team_id" validate:"omitempty,uuid"`
	AssignedTo string `form:"assigned_to" validate:"omitempty,uuid"`
	ProjectID  string `form:"project_id" validate:"omitempty,uuid"`
	Status     string `form:"status" validate:"omitempty,oneof=todo in-progress done"`
	Limit      int    `form:"limit" validate:"min=0,max=200"`
	Offset     int    `form:"offset" validate:"min=0"`
}

func (q *TaskQuery) Ok(ctx context.Context) (map[string]string, bool) {
	return check(q)
}

func (q *TaskQuery) Filters() scope.Filters {
	return scope.Filters{
		TeamID:     parseID(q.TeamID),
		AssignedTo: parseID(q.AssignedTo),
		ProjectID:  parseID(q.ProjectID),
		Status:     hierarchy.TaskStatus(q.Status),
	}
}

func (q *TaskQuery) Params() services.ListParams {
	return listParams(q.Limit, q.Offset)
}

type ProjectQuery struct {
	TeamID string `form:"team_id" validate:"omitempty,uuid"`
	Limit  int    `form:"limit" validate:"min=0,max=200"`
	Offset int    `form:"offset" validate:"min=0"`
}

func (q *ProjectQuery) Ok(ctx context.Context) (map[string]string, bool) {
	return check(q)
}

func (q *ProjectQuery) Filters() scope.Filters {
	return scope.Filters{TeamID: parseID(q.TeamID)}
}

func (q *ProjectQuery) Params() services.ListParams {
	return listParams(q.Limit, q.Offset)
}

// UserQuery's Q is a fuzzy match against name and email.
type UserQuery struct {
	Q      string `form:"q" validate:"max=200"`
	TeamID string `form:"team_id" validate:"omitempty,uuid"`
	Limit  int    `form:"limit" validate:"min=0,max=200"`
	Offset int    `form:"offset" validate:"min=0"`
}

func (q *UserQuery) Ok(ctx context.Context) (map[string]string, bool) {
	return check(q)
}

func (q *UserQuery) ToQuery() services.UserQuery {
	return services.UserQuery{Query: q.Q, TeamID: parseID(q.TeamID)}
}

func (q *UserQuery) Params() services.ListParams {
	return listParams(q.Limit, q.Offset)
}

// SubordinatesQuery walks every level when Depth is zero.
type SubordinatesQuery struct {
	Depth int `form:"depth" validate:"min=0,max=32"`
}

func (q *SubordinatesQuery) Ok(ctx context.Context) (map[string]string, bool) {
	return check(q)
}
