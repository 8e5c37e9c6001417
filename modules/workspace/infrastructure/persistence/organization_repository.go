package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
	"github.com/jacksonlee411/taskgrid/pkg/composables"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

var (
	errOrganizationNotFound = serrors.NotFound("ORGANIZATION_NOT_FOUND", "organization not found")
	errTeamNotFound         = serrors.NotFound("TEAM_NOT_FOUND", "team not found")
)

const (
	organizationFindQuery   = `SELECT id, owner_id, name, plan, created_at FROM organizations WHERE id = $1`
	organizationInsertQuery = `INSERT INTO organizations (id, owner_id, name, plan, created_at) VALUES ($1, $2, $3, $4, $5)`
	organizationOwnerQuery  = `UPDATE organizations SET owner_id = $2 WHERE id = $1`

	teamFindQuery = `
		SELECT
			t.id,
			t.organization_id,
			t.name,
			t.team_admin_id,
			t.created_at,
			COALESCE(ARRAY(SELECT u.id::text FROM users u WHERE u.team_id = t.id ORDER BY u.id), '{}')
		FROM teams t
		WHERE t.organization_id = $1 AND t.id = $2`
	teamInsertQuery = `INSERT INTO teams (id, organization_id, name, team_admin_id, created_at) VALUES ($1, $2, $3, $4, $5)`
)

type PgOrganizationRepository struct{}

func NewOrganizationRepository() services.OrganizationRepository {
	return &PgOrganizationRepository{}
}

func (g *PgOrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*hierarchy.Organization, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	var (
		o     hierarchy.Organization
		owner uuid.NullUUID
		plan  string
	)
	err = tx.QueryRow(ctx, organizationFindQuery, id).Scan(&o.ID, &owner, &o.Name, &plan, &o.CreatedAt)
	if err != nil {
		return nil, mapPgError(err, errOrganizationNotFound, "failed to get organization")
	}
	o.OwnerID = fromNullUUID(owner)
	o.Plan = hierarchy.Plan(plan)
	return &o, nil
}

// Create inserts the organization. The owner may still be nil; see SetOwner.
func (g *PgOrganizationRepository) Create(ctx context.Context, o *hierarchy.Organization) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	plan := o.Plan
	if plan == "" {
		plan = hierarchy.PlanFree
	}
	_, err = tx.Exec(ctx, organizationInsertQuery, o.ID, nullUUID(o.OwnerID), o.Name, string(plan), o.CreatedAt)
	return mapPgError(err, errOrganizationNotFound, "failed to create organization")
}

func (g *PgOrganizationRepository) SetOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	tag, err := tx.Exec(ctx, organizationOwnerQuery, id, ownerID)
	if err != nil {
		return mapPgError(err, errOrganizationNotFound, "failed to set organization owner")
	}
	if tag.RowsAffected() == 0 {
		return errOrganizationNotFound
	}
	return nil
}

type PgTeamRepository struct{}

func NewTeamRepository() services.TeamRepository {
	return &PgTeamRepository{}
}

func (g *PgTeamRepository) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*hierarchy.Team, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	var (
		t       hierarchy.Team
		members []string
	)
	err = tx.QueryRow(ctx, teamFindQuery, organizationID, id).Scan(&t.ID, &t.OrganizationID, &t.Name, &t.TeamAdminID, &t.CreatedAt, &members)
	if err != nil {
		return nil, mapPgError(err, errTeamNotFound, "failed to get team")
	}
	for _, m := range members {
		uid, err := uuid.Parse(m)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse team member id")
		}
		t.MemberIDs = append(t.MemberIDs, uid)
	}
	return &t, nil
}

func (g *PgTeamRepository) Create(ctx context.Context, t *hierarchy.Team) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	_, err = tx.Exec(ctx, teamInsertQuery, t.ID, t.OrganizationID, t.Name, t.TeamAdminID, t.CreatedAt)
	return mapPgError(err, errTeamNotFound, "failed to create team")
}
