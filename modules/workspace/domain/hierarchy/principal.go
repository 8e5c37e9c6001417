package hierarchy

import (
	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

// Principal is the authorization-relevant view of a user.
type Principal struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	// TeamID is uuid.Nil for super admins and for team admins awaiting a team.
	TeamID uuid.UUID
	Role   Role
}

var errInvalidPrincipal = serrors.Unauthenticated("PRINCIPAL_INVALID", "unauthenticated")

// Validate fails closed on principals missing identity, tenant or a known role.
func (p Principal) Validate() error {
	switch {
	case p.ID == uuid.Nil:
		return errInvalidPrincipal.WithField("id")
	case p.OrganizationID == uuid.Nil:
		return errInvalidPrincipal.WithField("organization_id")
	case !p.Role.Valid():
		return errInvalidPrincipal.WithField("role")
	case p.Role.RequiresTeam() && p.TeamID == uuid.Nil:
		return errInvalidPrincipal.WithField("team_id")
	}
	return nil
}

func (p Principal) IsZero() bool {
	return p.ID == uuid.Nil
}
