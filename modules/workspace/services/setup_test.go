package services_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/impersonation"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/scoring"
	"github.com/jacksonlee411/taskgrid/modules/workspace/infrastructure/persistence"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
	"github.com/jacksonlee411/taskgrid/pkg/aggcache"
	"github.com/jacksonlee411/taskgrid/pkg/authn"
	"github.com/jacksonlee411/taskgrid/pkg/authz"
	"github.com/jacksonlee411/taskgrid/pkg/eventbus"
)

// workspace is one seeded organization:
//
//	boss (super admin)
//	└── admin (team admin of team)
//	    └── manager
//	        ├── eli
//	        └── eva
type workspace struct {
	repos services.Repositories
	bus   eventbus.EventBus
	cache *aggcache.Memory

	onboarding  *services.OnboardingService
	teams       *services.TeamService
	users       *services.UserService
	projects    *services.ProjectService
	tasks       *services.TaskService
	imp         *services.ImpersonationService
	performance *services.PerformanceService

	org     uuid.UUID
	team    *hierarchy.Team
	boss    *hierarchy.User
	admin   *hierarchy.User
	manager *hierarchy.User
	eli     *hierarchy.User
	eva     *hierarchy.User
	project *hierarchy.Project
}

func newAuthorizer(t *testing.T) *authz.Service {
	t.Helper()
	root := filepath.Join("..", "..", "..", "config", "access")
	svc, err := authz.NewService(authz.Config{
		ModelPath:    filepath.Join(root, "model.conf"),
		PolicyPath:   filepath.Join(root, "policy.csv"),
		FlagProvider: authz.StaticFlags(authz.ModeEnforce),
	})
	require.NoError(t, err)
	return svc
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	issuer, err := authn.NewIssuer("test-secret", "taskgrid", time.Hour)
	require.NoError(t, err)

	repos := persistence.NewMemoryRepositories()
	authorizer := newAuthorizer(t)
	w := &workspace{
		repos: repos,
		bus:   eventbus.NewEventPublisher(logger),
		cache: aggcache.NewMemory(time.Minute),
	}
	w.onboarding = services.NewOnboardingService(repos, authorizer, issuer, 0)
	w.teams = services.NewTeamService(repos, authorizer)
	w.users = services.NewUserService(repos, authorizer)
	w.projects = services.NewProjectService(repos, authorizer, w.bus)
	w.tasks = services.NewTaskService(repos, authorizer, w.bus, w.cache)
	w.imp = services.NewImpersonationService(repos, authorizer)
	w.performance = services.NewPerformanceService(repos, w.bus, scoring.DefaultPolicy(), time.Second, logger)

	w.boss = w.register(t, "Bea Boss", "", "Acme")
	w.org = w.boss.OrganizationID

	w.admin = w.register(t, "Ada Admin", w.invite(t, w.boss), "")
	team, err := w.teams.Create(w.as(w.boss), "Core", w.admin.ID)
	require.NoError(t, err)
	w.team = team
	w.admin = w.reload(t, w.admin)

	w.manager = w.register(t, "Mia Manager", w.invite(t, w.admin), "")
	w.eli = w.register(t, "Eli Employee", w.invite(t, w.manager), "")
	w.eva = w.register(t, "Eva Employee", w.invite(t, w.manager), "")

	w.project, err = w.projects.Create(w.as(w.manager), services.CreateProjectInput{
		Name:    "Launch",
		Members: []hierarchy.ProjectMember{{UserID: w.eli.ID, Role: hierarchy.ProjectRoleEditor}},
	})
	require.NoError(t, err)
	return w
}

func (w *workspace) register(t *testing.T, name, code, orgName string) *hierarchy.User {
	t.Helper()
	reg, err := w.onboarding.Register(context.Background(), services.RegisterInput{
		Name:             name,
		Email:            uuid.NewString() + "@acme.test",
		InviteCode:       code,
		OrganizationName: orgName,
	})
	require.NoError(t, err)
	require.NotEmpty(t, reg.Token)
	return reg.User
}

func (w *workspace) invite(t *testing.T, sponsor *hierarchy.User) string {
	t.Helper()
	inv, err := w.onboarding.IssueInvite(w.as(sponsor))
	require.NoError(t, err)
	return inv.Code
}

func (w *workspace) reload(t *testing.T, u *hierarchy.User) *hierarchy.User {
	t.Helper()
	got, err := w.repos.Users.GetByID(context.Background(), u.OrganizationID, u.ID)
	require.NoError(t, err)
	return got
}

// as binds u as the authenticated principal of a fresh context.
func (w *workspace) as(u *hierarchy.User) context.Context {
	return impersonation.WithContext(context.Background(), impersonation.New(u.Principal()))
}

func (w *workspace) createTask(t *testing.T, creator *hierarchy.User, in services.CreateTaskInput) *hierarchy.Task {
	t.Helper()
	if in.Title == "" {
		in.Title = "Write release notes"
	}
	if in.ProjectID == uuid.Nil {
		in.ProjectID = w.project.ID
	}
	task, err := w.tasks.Create(w.as(creator), in)
	require.NoError(t, err)
	return task
}
