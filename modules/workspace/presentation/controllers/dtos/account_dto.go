package dtos

import (
	"context"

	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
)

type RegisterDTO struct {
	Name             string `json:"name" validate:"required,max=120"`
	Email            string `json:"email" validate:"required,email"`
	InviteCode       string `json:"invite_code"`
	OrganizationName string `json:"organization_name" validate:"required_without=InviteCode,max=120"`
}

func (d *RegisterDTO) Ok(ctx context.Context) (map[string]string, bool) {
	return check(d)
}

func (d *RegisterDTO) ToInput() services.RegisterInput {
	return services.RegisterInput{
		Name:             d.Name,
		Email:            d.Email,
		InviteCode:       d.InviteCode,
		OrganizationName: d.OrganizationName,
	}
}

type CreateTeamDTO struct {
	Name        string `json:"name" validate:"required,max=120"`
	TeamAdminID string `json:"team_admin_id" validate:"required,uuid"`
}

func (d *CreateTeamDTO) Ok(ctx context.Context) (map[string]string, bool) {
	return check(d)
}

func (d *CreateTeamDTO) AdminID() uuid.UUID {
	return parseID(d.TeamAdminID)
}
