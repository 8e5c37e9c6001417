package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/scope"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
	"github.com/jacksonlee411/taskgrid/pkg/composables"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

var errProjectNotFound = serrors.NotFound("PROJECT_NOT_FOUND", "project not found")

const (
	projectFindQuery = `
		SELECT
			p.id,
			p.organization_id,
			p.team_id,
			p.owner_id,
			p.name,
			p.description,
			p.created_at
		FROM projects p`

	projectMembersQuery = `
		SELECT project_id, user_id, role
		FROM project_members
		WHERE project_id = ANY($1::uuid[])
		ORDER BY project_id, user_id`

	projectInsertQuery = `
		INSERT INTO projects (id, organization_id, team_id, owner_id, name, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	projectMemberInsertQuery = `INSERT INTO project_members (project_id, user_id, role) VALUES ($1, $2, $3)`
)

type PgProjectRepository struct{}

func NewProjectRepository() services.ProjectRepository {
	return &PgProjectRepository{}
}

func (g *PgProjectRepository) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*hierarchy.Project, error) {
	projects, err := g.queryProjects(ctx, Join(projectFindQuery, "WHERE p.organization_id = $1 AND p.id = $2"), organizationID, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get project by id")
	}
	if len(projects) == 0 {
		return nil, errProjectNotFound
	}
	return projects[0], nil
}

func (g *PgProjectRepository) List(ctx context.Context, pred scope.Predicate, params services.ListParams) ([]*hierarchy.Project, error) {
	where, args, err := scopedWhere(scope.KindProject, "p", pred, nil)
	if err != nil {
		return nil, err
	}
	query := Join(
		projectFindQuery,
		JoinWhere(where),
		"ORDER BY p.created_at DESC, p.id",
		FormatLimitOffset(params.Limit, params.Offset),
	)
	projects, err := g.queryProjects(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list projects")
	}
	return projects, nil
}

func (g *PgProjectRepository) Create(ctx context.Context, p *hierarchy.Project) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		tx, err := composables.UseTx(txCtx)
		if err != nil {
			return errors.Wrap(err, "failed to get transaction")
		}
		if _, err := tx.Exec(txCtx, projectInsertQuery,
			p.ID,
			p.OrganizationID,
			p.TeamID,
			p.OwnerID,
			p.Name,
			p.Description,
			p.CreatedAt,
		); err != nil {
			return mapPgError(err, errProjectNotFound, "failed to create project")
		}
		for _, m := range p.Members {
			if _, err := tx.Exec(txCtx, projectMemberInsertQuery, p.ID, m.UserID, string(m.Role)); err != nil {
				return mapPgError(err, errProjectNotFound, "failed to add project member")
			}
		}
		return nil
	})
}

func (g *PgProjectRepository) queryProjects(ctx context.Context, query string, args ...any) ([]*hierarchy.Project, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var (
		projects []*hierarchy.Project
		ids      []string
	)
	byID := make(map[uuid.UUID]*hierarchy.Project)
	for rows.Next() {
		var p hierarchy.Project
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.TeamID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "failed to scan project")
		}
		projects = append(projects, &p)
		byID[p.ID] = &p
		ids = append(ids, p.ID.String())
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return projects, nil
	}

	memberRows, err := tx.Query(ctx, projectMembersQuery, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load project members")
	}
	defer memberRows.Close()
	for memberRows.Next() {
		var (
			projectID uuid.UUID
			m         hierarchy.ProjectMember
			role      string
		)
		if err := memberRows.Scan(&projectID, &m.UserID, &role); err != nil {
			return nil, errors.Wrap(err, "failed to scan project member")
		}
		m.Role = hierarchy.ProjectRole(role)
		if p, ok := byID[projectID]; ok {
			p.Members = append(p.Members, m)
		}
	}
	return projects, memberRows.Err()
}
