package scope

import (
	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

// Filters are optional caller restrictions. They are appended as conjuncts and can only narrow a scope.
type Filters struct {
	TeamID     uuid.UUID
	AssignedTo uuid.UUID
	ProjectID  uuid.UUID
	Status     hierarchy.TaskStatus
}

// rule returns the role-specific restriction for a principal, or nil for none.
type rule func(p hierarchy.Principal) Predicate

type ruleSet struct {
	task    rule
	project rule
	user    rule
}

func (rs ruleSet) forKind(kind Kind) (rule, bool) {
	switch kind {
	case KindTask:
		return rs.task, true
	case KindProject:
		return rs.project, true
	case KindUser:
		return rs.user, true
	}
	return nil, false
}

var rules map[hierarchy.Role]ruleSet

func init() {
	rules = map[hierarchy.Role]ruleSet{
		hierarchy.RoleSuperAdmin: {
			task:    unrestricted,
			project: unrestricted,
			user:    unrestricted,
		},
		hierarchy.RoleTeamAdmin: {
			task:    sameTeam,
			project: sameTeam,
			user:    sameTeam,
		},
		hierarchy.RoleManager: {
			task:    managerTasks,
			project: relevantProjects,
			user:    managerUsers,
		},
		hierarchy.RoleEmployee: {
			task:    employeeTasks,
			project: relevantProjects,
			user:    sameTeam,
		},
	}
}

// Resolve builds the predicate restricting kind to what p may access.
// The result always starts with the organization conjunct.
func Resolve(p hierarchy.Principal, kind Kind, filters Filters) (Predicate, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rs, ok := rules[p.Role]
	if !ok {
		return nil, serrors.Unauthenticated("PRINCIPAL_INVALID", "unauthenticated")
	}
	r, ok := rs.forKind(kind)
	if !ok {
		return nil, serrors.Validation("SCOPE_UNKNOWN_KIND", "kind", "unknown resource kind "+string(kind))
	}

	pred := And{orgOf(p)}
	if restriction := r(p); restriction != nil {
		pred = append(pred, restriction)
	}
	pred = append(pred, filters.terms(kind)...)
	return pred, nil
}

func (f Filters) terms(kind Kind) []Predicate {
	var out []Predicate
	if f.TeamID != uuid.Nil {
		out = append(out, Eq{Field: FieldTeamID, Value: f.TeamID})
	}
	switch kind {
	case KindTask:
		if f.AssignedTo != uuid.Nil {
			out = append(out, Eq{Field: FieldAssignedTo, Value: f.AssignedTo})
		}
		if f.ProjectID != uuid.Nil {
			out = append(out, Eq{Field: FieldProjectID, Value: f.ProjectID})
		}
		if f.Status != "" {
			out = append(out, Eq{Field: FieldStatus, Value: string(f.Status)})
		}
	case KindProject:
		if f.ProjectID != uuid.Nil {
			out = append(out, Eq{Field: FieldID, Value: f.ProjectID})
		}
	}
	return out
}

func orgOf(p hierarchy.Principal) Predicate {
	return Eq{Field: FieldOrganizationID, Value: p.OrganizationID}
}

func unrestricted(hierarchy.Principal) Predicate { return nil }

func sameTeam(p hierarchy.Principal) Predicate {
	return Eq{Field: FieldTeamID, Value: p.TeamID}
}

func directReports(p hierarchy.Principal) Subquery {
	return Subquery{
		Kind:   KindUser,
		Select: FieldID,
		Where:  And{orgOf(p), Eq{Field: FieldReportsTo, Value: p.ID}},
	}
}

func managerTasks(p hierarchy.Principal) Predicate {
	return And{
		sameTeam(p),
		Or{
			In{Field: FieldAssignedTo, Sub: directReports(p)},
			Eq{Field: FieldAssignedTo, Value: p.ID},
			Eq{Field: FieldCreatedBy, Value: p.ID},
		},
	}
}

// employeeTasks deliberately ignores createdBy.
func employeeTasks(p hierarchy.Principal) Predicate {
	return Eq{Field: FieldAssignedTo, Value: p.ID}
}

func managerUsers(p hierarchy.Principal) Predicate {
	return And{
		sameTeam(p),
		Or{
			Eq{Field: FieldID, Value: p.ID},
			Eq{Field: FieldReportsTo, Value: p.ID},
		},
	}
}

// relevantProjects is explicit membership plus projects reached through visible tasks.
func relevantProjects(p hierarchy.Principal) Predicate {
	visibleTasks := And{orgOf(p)}
	if r := rules[p.Role].task(p); r != nil {
		visibleTasks = append(visibleTasks, r)
	}
	return And{
		sameTeam(p),
		Or{
			Eq{Field: FieldOwnerID, Value: p.ID},
			Contains{Field: FieldMembers, Value: p.ID},
			In{Field: FieldID, Sub: Subquery{Kind: KindTask, Select: FieldProjectID, Where: visibleTasks}},
		},
	}
}
