package hierarchy

import "strings"

// Role is a position in the organizational hierarchy.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleTeamAdmin  Role = "team_admin"
	RoleManager    Role = "manager"
	RoleEmployee   Role = "employee"
)

// Roles lists every role, senior first.
var Roles = []Role{RoleSuperAdmin, RoleTeamAdmin, RoleManager, RoleEmployee}

// ParseRole normalizes s into a Role. The second result is false for unknown roles.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

func (r Role) Valid() bool {
	return r.Rank() >= 0
}

// Rank returns 0 for the most senior role and -1 for unknown roles.
func (r Role) Rank() int {
	for i, role := range Roles {
		if role == r {
			return i
		}
	}
	return -1
}

// Senior returns the role exactly one rank above r.
func (r Role) Senior() (Role, bool) {
	rank := r.Rank()
	if rank <= 0 {
		return "", false
	}
	return Roles[rank-1], true
}

// Junior returns the role exactly one rank below r.
func (r Role) Junior() (Role, bool) {
	rank := r.Rank()
	if rank < 0 || rank == len(Roles)-1 {
		return "", false
	}
	return Roles[rank+1], true
}

// Outranks reports whether r is strictly senior to other.
func (r Role) Outranks(other Role) bool {
	if !r.Valid() || !other.Valid() {
		return false
	}
	return r.Rank() < other.Rank()
}

// RequiresTeam reports whether users with role must belong to a team. Team admins
// join without one and receive it when a super admin creates their team.
func (r Role) RequiresTeam() bool {
	return r == RoleManager || r == RoleEmployee
}

func (r Role) String() string { return string(r) }
