package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/impersonation"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/scope"
	"github.com/jacksonlee411/taskgrid/pkg/authz"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

const authzModule = "workspace"

var (
	tasksAuthzObject         = authz.ObjectName(authzModule, "tasks")
	projectsAuthzObject      = authz.ObjectName(authzModule, "projects")
	usersAuthzObject         = authz.ObjectName(authzModule, "users")
	teamsAuthzObject         = authz.ObjectName(authzModule, "teams")
	invitesAuthzObject       = authz.ObjectName(authzModule, "invites")
	impersonationAuthzObject = authz.ObjectName(authzModule, "impersonation")
)

// ErrTeamUnassigned is returned to principals that must belong to a team but have none yet.
var ErrTeamUnassigned = serrors.Forbidden("TEAM_UNASSIGNED", "forbidden")

// targetTeam picks the team a new record lands in. Only super admins, who carry no team,
// may name one.
func targetTeam(p hierarchy.Principal, requested uuid.UUID) (uuid.UUID, error) {
	if p.TeamID != uuid.Nil {
		return p.TeamID, nil
	}
	if p.Role != hierarchy.RoleSuperAdmin {
		return uuid.Nil, ErrTeamUnassigned
	}
	return requested, nil
}

// authorize asks the capability gate whether p's role may perform action on object
// inside p's organization.
func authorize(ctx context.Context, a Authorizer, p hierarchy.Principal, object, action string) error {
	if a == nil {
		return serrors.Internal("AUTHZ_UNCONFIGURED", "authorizer is not configured", nil)
	}
	req := authz.NewRequest(
		authz.SubjectForRole(p.Role.String()),
		authz.DomainFromOrganization(p.OrganizationID),
		object,
		action,
		authz.WithAttributes(authz.Attributes{"user_id": p.ID.String()}),
	)
	return a.Authorize(ctx, req)
}

// actor returns the effective principal of ctx, failing closed when it is malformed.
func actor(ctx context.Context) (hierarchy.Principal, error) {
	p, err := impersonation.EffectivePrincipal(ctx)
	if err != nil {
		return p, err
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// withID narrows a resolved predicate to a single record.
func withID(pred scope.Predicate, id uuid.UUID) scope.Predicate {
	and, _ := pred.(scope.And)
	out := make(scope.And, 0, len(and)+1)
	out = append(out, and...)
	return append(out, scope.Eq{Field: scope.FieldID, Value: id})
}

// tenant is the bare organization predicate, used for lookups that bypass role scope.
func tenant(organizationID uuid.UUID) scope.Predicate {
	return scope.And{scope.Eq{Field: scope.FieldOrganizationID, Value: organizationID}}
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
