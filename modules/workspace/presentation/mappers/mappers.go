package mappers

import (
	"time"

	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/impersonation"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/onboarding"
	"github.com/jacksonlee411/taskgrid/modules/workspace/presentation/viewmodels"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
)

func id(v uuid.UUID) string {
	if v == uuid.Nil {
		return ""
	}
	return v.String()
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func mapAll[T, V any](items []T, fn func(T) V) []V {
	out := make([]V, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}

func UserToViewModel(u *hierarchy.User) viewmodels.User {
	return viewmodels.User{
		ID:             u.ID.String(),
		OrganizationID: u.OrganizationID.String(),
		TeamID:         id(u.TeamID),
		Role:           string(u.Role),
		ReportsTo:      id(u.ReportsTo),
		Name:           u.Name,
		Email:          u.Email,
		IsActive:       u.IsActive,
		IsAvailable:    u.IsAvailable,
		Performance: viewmodels.Performance{
			Rating:         u.Performance.Rating,
			CompletedTasks: u.Performance.CompletedTasks,
			PendingTasks:   u.Performance.PendingTasks,
			OverdueTasks:   u.Performance.OverdueTasks,
			ActiveProjects: u.Performance.ActiveProjects,
			LastActiveAt:   u.Performance.LastActiveAt,
		},
		CreatedAt: u.CreatedAt,
	}
}

func UsersToViewModels(users []*hierarchy.User) []viewmodels.User {
	return mapAll(users, UserToViewModel)
}

func SubordinatesToViewModels(subs []services.SubordinateView) []viewmodels.Subordinate {
	return mapAll(subs, func(s services.SubordinateView) viewmodels.Subordinate {
		return viewmodels.Subordinate{User: UserToViewModel(s.User), Depth: s.Depth}
	})
}

func PrincipalToViewModel(p hierarchy.Principal) viewmodels.Principal {
	return viewmodels.Principal{
		ID:             p.ID.String(),
		OrganizationID: p.OrganizationID.String(),
		TeamID:         id(p.TeamID),
		Role:           string(p.Role),
	}
}

func SessionToViewModel(c impersonation.Context) viewmodels.Session {
	return viewmodels.Session{
		Real:          PrincipalToViewModel(c.Real()),
		Effective:     PrincipalToViewModel(c.Effective()),
		Impersonating: c.Impersonating(),
	}
}

func RegistrationToViewModel(r *services.Registration) viewmodels.Registration {
	return viewmodels.Registration{
		User:           UserToViewModel(r.User),
		OrganizationID: r.OrganizationID.String(),
		Token:          r.Token,
		ExpiresAt:      r.ExpiresAt,
	}
}

func InviteToViewModel(i *onboarding.Invite) viewmodels.Invite {
	return viewmodels.Invite{
		Code:      i.Code,
		InviterID: i.InviterID.String(),
		ExpiresAt: timePtr(i.ExpiresAt),
	}
}

func TeamToViewModel(t *hierarchy.Team) viewmodels.Team {
	return viewmodels.Team{
		ID:          t.ID.String(),
		Name:        t.Name,
		TeamAdminID: id(t.TeamAdminID),
		MemberIDs:   mapAll(t.MemberIDs, uuid.UUID.String),
		CreatedAt:   t.CreatedAt,
	}
}

func ProjectToViewModel(p *hierarchy.Project) viewmodels.Project {
	return viewmodels.Project{
		ID:          p.ID.String(),
		TeamID:      id(p.TeamID),
		OwnerID:     id(p.OwnerID),
		Name:        p.Name,
		Description: p.Description,
		Members: mapAll(p.Members, func(m hierarchy.ProjectMember) viewmodels.ProjectMember {
			return viewmodels.ProjectMember{UserID: m.UserID.String(), Role: string(m.Role)}
		}),
		CreatedAt: p.CreatedAt,
	}
}

func ProjectsToViewModels(projects []*hierarchy.Project) []viewmodels.Project {
	return mapAll(projects, ProjectToViewModel)
}

// TaskToViewModel renders t with its overdue flag evaluated at now.
func TaskToViewModel(t *hierarchy.Task, now time.Time) viewmodels.Task {
	return viewmodels.Task{
		ID:                t.ID.String(),
		TeamID:            id(t.TeamID),
		ProjectID:         id(t.ProjectID),
		AssignedTo:        id(t.AssignedTo),
		CreatedBy:         id(t.CreatedBy),
		Title:             t.Title,
		Description:       t.Description,
		Status:            string(t.Status),
		Priority:          string(t.Priority),
		Deadline:          timePtr(t.Deadline),
		Overdue:           t.Overdue(now),
		CompletedAt:       t.CompletedAt,
		CompletionComment: t.CompletionComment,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func TasksToViewModels(tasks []*hierarchy.Task, now time.Time) []viewmodels.Task {
	return mapAll(tasks, func(t *hierarchy.Task) viewmodels.Task { return TaskToViewModel(t, now) })
}
