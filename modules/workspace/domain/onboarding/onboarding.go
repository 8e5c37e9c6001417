package onboarding

import (
	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

// Placement is the hierarchy position an inviter's role grants a new member.
type Placement struct {
	AssignedRole     hierarchy.Role
	InheritsTeam     bool
	ReportsToInviter bool
}

var placements = map[hierarchy.Role]Placement{
	hierarchy.RoleSuperAdmin: {AssignedRole: hierarchy.RoleTeamAdmin},
	hierarchy.RoleTeamAdmin:  {AssignedRole: hierarchy.RoleManager, InheritsTeam: true, ReportsToInviter: true},
	hierarchy.RoleManager:    {AssignedRole: hierarchy.RoleEmployee, InheritsTeam: true, ReportsToInviter: true},
}

var ErrCannotSponsor = serrors.Forbidden("INVITE_CANNOT_SPONSOR", "forbidden")

// Resolve maps an inviter role to the placement of the invited member.
func Resolve(inviterRole hierarchy.Role) (Placement, error) {
	if !inviterRole.Valid() {
		return Placement{}, serrors.Validation("INVITE_UNKNOWN_ROLE", "role", "unknown inviter role")
	}
	p, ok := placements[inviterRole]
	if !ok {
		return Placement{}, ErrCannotSponsor
	}
	return p, nil
}

// CanSponsor reports whether members with role may issue invites.
func CanSponsor(role hierarchy.Role) bool {
	_, err := Resolve(role)
	return err == nil
}

// Inviter is the sponsor side of an invite as seen at registration.
type Inviter struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	TeamID         uuid.UUID
	Role           hierarchy.Role
}

// Assignment is the concrete placement of a registrant.
type Assignment struct {
	Role           hierarchy.Role
	OrganizationID uuid.UUID
	TeamID         uuid.UUID
	ReportsTo      uuid.UUID
	// NewOrganization is set when the registrant bootstraps a tenant.
	NewOrganization bool
}

// ResolveOnboarding places a registrant. A nil inviter bootstraps a new organization.
func ResolveOnboarding(inviter *Inviter) (Assignment, error) {
	if inviter == nil {
		return Assignment{Role: hierarchy.RoleSuperAdmin, NewOrganization: true}, nil
	}
	p, err := Resolve(inviter.Role)
	if err != nil {
		return Assignment{}, err
	}
	a := Assignment{Role: p.AssignedRole, OrganizationID: inviter.OrganizationID}
	if p.InheritsTeam {
		if inviter.TeamID == uuid.Nil {
			return Assignment{}, serrors.InvalidState("INVITE_INVITER_TEAMLESS", "inviter has no team to inherit")
		}
		a.TeamID = inviter.TeamID
	}
	if p.ReportsToInviter {
		a.ReportsTo = inviter.ID
	}
	return a, nil
}
