package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

var ErrTeamNameRequired = serrors.Validation("TEAM_NAME_REQUIRED", "name", "name is required")

type TeamService struct {
	repos      Repositories
	authorizer Authorizer
	audit      *AuditService
	now        clock
}

func NewTeamService(repos Repositories, authorizer Authorizer) *TeamService {
	return &TeamService{
		repos:      repos,
		authorizer: authorizer,
		audit:      NewAuditService(repos.Audit),
	}
}

// Create opens a team and moves its admin into it. The admin must not lead another team.
func (s *TeamService) Create(ctx context.Context, name string, adminID uuid.UUID) (*hierarchy.Team, error) {
	p, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authorizer, p, teamsAuthzObject, "create"); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	admin, err := s.repos.Users.GetByID(ctx, p.OrganizationID, adminID)
	if err != nil {
		if serrors.Is(err, serrors.KindNotFound) {
			return nil, serrors.Validation("TEAM_NO_ADMIN", "team_admin_id", "team admin is required").WithCause(err)
		}
		return nil, err
	}
	team := &hierarchy.Team{
		ID:             uuid.New(),
		OrganizationID: p.OrganizationID,
		Name:           name,
		TeamAdminID:    admin.ID,
		MemberIDs:      []uuid.UUID{admin.ID},
		CreatedAt:      s.now.now(),
	}
	if err := hierarchy.ValidateTeam(team, admin); err != nil {
		return nil, err
	}
	if admin.TeamID != uuid.Nil {
		return nil, serrors.Conflict("TEAM_ADMIN_ASSIGNED", "team admin already leads a team")
	}

	err = s.repos.Tx.InTx(ctx, func(txCtx context.Context) error {
		if err := s.repos.Teams.Create(txCtx, team); err != nil {
			return err
		}
		admin.TeamID = team.ID
		if err := s.repos.Users.Update(txCtx, admin); err != nil {
			return err
		}
		return s.audit.Record(txCtx, "team.create", "team", team.ID)
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (s *TeamService) Get(ctx context.Context, id uuid.UUID) (*hierarchy.Team, error) {
	p, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if p.Role != hierarchy.RoleSuperAdmin && p.TeamID != id {
		return nil, serrors.NotFound("TEAM_NOT_FOUND", "team not found")
	}
	return s.repos.Teams.GetByID(ctx, p.OrganizationID, id)
}
