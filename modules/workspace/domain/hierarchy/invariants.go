package hierarchy

import (
	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

// ValidateUser checks the structural fields every persisted user must carry.
func ValidateUser(u *User) error {
	if u.OrganizationID == uuid.Nil {
		return serrors.Validation("USER_NO_ORGANIZATION", "organization_id", "organization is required")
	}
	if !u.Role.Valid() {
		return serrors.Validation("USER_INVALID_ROLE", "role", "unknown role")
	}
	if u.Role.RequiresTeam() && u.TeamID == uuid.Nil {
		return serrors.Validation("USER_NO_TEAM", "team_id", "team is required for "+u.Role.String())
	}
	return nil
}

// ValidateReportingEdge checks that holder may report to manager.
// A nil manager is valid for any holder and means no reporting edge.
func ValidateReportingEdge(holder, manager *User) error {
	if manager == nil {
		return nil
	}
	if holder.Role == RoleSuperAdmin {
		return serrors.Validation("REPORTING_SUPER_ADMIN", "reports_to", "super admins do not report to anyone")
	}
	if holder.ID != uuid.Nil && holder.ID == manager.ID {
		return serrors.Validation("REPORTING_SELF", "reports_to", "a user cannot report to themselves")
	}
	if holder.OrganizationID != manager.OrganizationID {
		return serrors.Validation("REPORTING_CROSS_TENANT", "reports_to", "manager belongs to another organization")
	}
	senior, ok := holder.Role.Senior()
	if !ok || manager.Role != senior {
		return serrors.Validation("REPORTING_RANK", "reports_to", "manager must be exactly one rank senior")
	}
	return nil
}

// ValidateTeam checks the team admin assignment.
func ValidateTeam(team *Team, admin *User) error {
	if admin == nil {
		return serrors.Validation("TEAM_NO_ADMIN", "team_admin_id", "team admin is required")
	}
	if admin.Role != RoleTeamAdmin {
		return serrors.Validation("TEAM_ADMIN_ROLE", "team_admin_id", "team admin must have role team_admin")
	}
	if admin.OrganizationID != team.OrganizationID {
		return serrors.Validation("TEAM_ADMIN_TENANT", "team_admin_id", "team admin belongs to another organization")
	}
	return nil
}

// ValidateProject checks that the owner and every member share the project's organization.
// users must contain the owner and every member, keyed by id.
func ValidateProject(p *Project, users map[uuid.UUID]*User) error {
	owner, ok := users[p.OwnerID]
	if !ok || owner.OrganizationID != p.OrganizationID {
		return serrors.Validation("PROJECT_OWNER", "owner_id", "owner must belong to the organization")
	}
	seen := make(map[uuid.UUID]struct{}, len(p.Members))
	for _, m := range p.Members {
		if !m.Role.Valid() {
			return serrors.Validation("PROJECT_MEMBER_ROLE", "members", "unknown project role")
		}
		if _, dup := seen[m.UserID]; dup {
			return serrors.Validation("PROJECT_MEMBER_DUPLICATE", "members", "duplicate project member")
		}
		seen[m.UserID] = struct{}{}
		u, ok := users[m.UserID]
		if !ok || u.OrganizationID != p.OrganizationID {
			return serrors.Validation("PROJECT_MEMBER_TENANT", "members", "member must belong to the organization")
		}
	}
	return nil
}

// ValidateTask checks that assignee, creator and project resolve inside the task's organization and team.
func ValidateTask(t *Task, assignee, creator *User, project *Project) error {
	if !t.Status.Valid() {
		return serrors.Validation("TASK_STATUS", "status", "unknown status")
	}
	if !t.Priority.Valid() {
		return serrors.Validation("TASK_PRIORITY", "priority", "unknown priority")
	}
	if project == nil || project.OrganizationID != t.OrganizationID {
		return serrors.Validation("TASK_PROJECT", "project_id", "project must belong to the organization")
	}
	if creator == nil || creator.OrganizationID != t.OrganizationID {
		return serrors.Validation("TASK_CREATOR", "created_by", "creator must belong to the organization")
	}
	if assignee == nil || assignee.OrganizationID != t.OrganizationID {
		return serrors.Validation("TASK_ASSIGNEE", "assigned_to", "assignee must belong to the organization")
	}
	if project.TeamID != t.TeamID {
		return serrors.Validation("TASK_PROJECT_TEAM", "project_id", "project belongs to another team")
	}
	if assignee.Role != RoleSuperAdmin && assignee.TeamID != t.TeamID {
		return serrors.Validation("TASK_ASSIGNEE_TEAM", "assigned_to", "assignee belongs to another team")
	}
	return nil
}
