package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/events"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/scope"
	"github.com/jacksonlee411/taskgrid/pkg/eventbus"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

var (
	ErrProjectNotFound     = serrors.NotFound("PROJECT_NOT_FOUND", "project not found")
	ErrProjectNameRequired = serrors.Validation("PROJECT_NAME_REQUIRED", "name", "name is required")
	ErrProjectTeamRequired = serrors.Validation("PROJECT_TEAM_REQUIRED", "team_id", "team is required")
)

type CreateProjectInput struct {
	Name        string
	Description string
	// TeamID must be empty or equal to the creator's team unless the creator has none.
	TeamID  uuid.UUID
	Members []hierarchy.ProjectMember
}

type ProjectService struct {
	repos      Repositories
	authorizer Authorizer
	publisher  eventbus.EventBus
	audit      *AuditService
	now        clock
}

func NewProjectService(repos Repositories, authorizer Authorizer, publisher eventbus.EventBus) *ProjectService {
	return &ProjectService{
		repos:      repos,
		authorizer: authorizer,
		publisher:  publisher,
		audit:      NewAuditService(repos.Audit),
	}
}

func (s *ProjectService) List(ctx context.Context, filters scope.Filters, params ListParams) ([]*hierarchy.Project, error) {
	p, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authorizer, p, projectsAuthzObject, "read"); err != nil {
		return nil, err
	}
	pred, err := scope.Resolve(p, scope.KindProject, filters)
	if err != nil {
		return nil, err
	}
	return s.repos.Projects.List(ctx, pred, params)
}

func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*hierarchy.Project, error) {
	p, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authorizer, p, projectsAuthzObject, "read"); err != nil {
		return nil, err
	}
	pred, err := scope.Resolve(p, scope.KindProject, scope.Filters{})
	if err != nil {
		return nil, err
	}
	projects, err := s.repos.Projects.List(ctx, withID(pred, id), ListParams{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, ErrProjectNotFound
	}
	return projects[0], nil
}

func (s *ProjectService) Create(ctx context.Context, in CreateProjectInput) (*hierarchy.Project, error) {
	p, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authorizer, p, projectsAuthzObject, "create"); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrProjectNameRequired
	}
	teamID, err := targetTeam(p, in.TeamID)
	if err != nil {
		return nil, err
	}
	if p.TeamID != uuid.Nil && in.TeamID != uuid.Nil && in.TeamID != teamID {
		return nil, serrors.Forbidden("PROJECT_FOREIGN_TEAM", "forbidden")
	}
	if teamID == uuid.Nil {
		return nil, ErrProjectTeamRequired
	}
	if _, err := s.repos.Teams.GetByID(ctx, p.OrganizationID, teamID); err != nil {
		return nil, err
	}

	project := &hierarchy.Project{
		ID:             uuid.New(),
		OrganizationID: p.OrganizationID,
		TeamID:         teamID,
		OwnerID:        p.ID,
		Name:           name,
		Description:    strings.TrimSpace(in.Description),
		Members:        in.Members,
		CreatedAt:      s.now.now(),
	}

	users := make(map[uuid.UUID]*hierarchy.User, len(in.Members)+1)
	for _, id := range append([]uuid.UUID{p.ID}, project.MemberIDs()...) {
		if _, ok := users[id]; ok {
			continue
		}
		u, err := s.repos.Users.GetByID(ctx, p.OrganizationID, id)
		if err != nil {
			if serrors.Is(err, serrors.KindNotFound) {
				return nil, serrors.Validation("PROJECT_MEMBER_TENANT", "members", "member must belong to the organization").WithCause(err)
			}
			return nil, err
		}
		users[id] = u
	}
	if err := hierarchy.ValidateProject(project, users); err != nil {
		return nil, err
	}

	err = s.repos.Tx.InTx(ctx, func(txCtx context.Context) error {
		if err := s.repos.Projects.Create(txCtx, project); err != nil {
			return err
		}
		return s.audit.Record(txCtx, "project.create", "project", project.ID)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(&events.ProjectChangedEvent{
		OrganizationID: project.OrganizationID,
		TeamID:         project.TeamID,
		ProjectID:      project.ID,
		OccurredAt:     project.CreatedAt,
	})
	return project, nil
}
