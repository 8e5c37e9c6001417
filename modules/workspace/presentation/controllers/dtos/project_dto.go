package dtos

import (
	"context"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
)

type ProjectMemberDTO struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role" validate:"required,oneof=admin editor viewer"`
}

type CreateProjectDTO struct {
	Name        string             `json:"name" validate:"required,max=200"`
	Description string             `json:"description" validate:"max=4000"`
	TeamID      string             `json:"team_id" validate:"omitempty,uuid"`
	Members     []ProjectMemberDTO `json:"members" validate:"dive"`
}

func (d *CreateProjectDTO) Ok(ctx context.Context) (map[string]string, bool) {
	return check(d)
}

func (d *CreateProjectDTO) ToInput() services.CreateProjectInput {
	members := make([]hierarchy.ProjectMember, 0, len(d.Members))
	for _, m := range d.Members {
		members = append(members, hierarchy.ProjectMember{
			UserID: parseID(m.UserID),
			Role:   hierarchy.ProjectRole(m.Role),
		})
	}
	return services.CreateProjectInput{
		Name:        d.Name,
		Description: d.Description,
		TeamID:      parseID(d.TeamID),
		Members:     members,
	}
}
