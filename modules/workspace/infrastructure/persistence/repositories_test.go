package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/onboarding"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/scope"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
	"github.com/jacksonlee411/taskgrid/pkg/itf"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

type seeded struct {
	org      *hierarchy.Organization
	team     *hierarchy.Team
	admin    *hierarchy.User
	manager  *hierarchy.User
	employee *hierarchy.User
	outsider *hierarchy.User
	project  *hierarchy.Project
	tasks    []*hierarchy.Task
}

func seed(t *testing.T, ctx context.Context, repos services.Repositories) *seeded {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	s := &seeded{org: &hierarchy.Organization{ID: uuid.New(), Name: "Acme", CreatedAt: now}}
	user := func(name string, role hierarchy.Role, team, reportsTo uuid.UUID) *hierarchy.User {
		return &hierarchy.User{
			ID:             uuid.New(),
			OrganizationID: s.org.ID,
			TeamID:         team,
			Role:           role,
			ReportsTo:      reportsTo,
			Name:           name,
			Email:          uuid.NewString() + "@acme.test",
			IsActive:       true,
			IsAvailable:    true,
			CreatedAt:      now,
		}
	}

	err := repos.Tx.InTx(ctx, func(ctx context.Context) error {
		if err := repos.Organizations.Create(ctx, s.org); err != nil {
			return err
		}
		s.admin = user("Ada", hierarchy.RoleTeamAdmin, uuid.Nil, uuid.Nil)
		if err := repos.Users.Create(ctx, s.admin); err != nil {
			return err
		}
		s.team = &hierarchy.Team{ID: uuid.New(), OrganizationID: s.org.ID, Name: "Core", TeamAdminID: s.admin.ID, CreatedAt: now}
		if err := repos.Teams.Create(ctx, s.team); err != nil {
			return err
		}
		s.admin.TeamID = s.team.ID
		if err := repos.Users.Update(ctx, s.admin); err != nil {
			return err
		}
		s.manager = user("Mia", hierarchy.RoleManager, s.team.ID, s.admin.ID)
		s.employee = user("Eli", hierarchy.RoleEmployee, s.team.ID, s.manager.ID)
		s.outsider = user("Zed", hierarchy.RoleEmployee, s.team.ID, s.admin.ID)
		for _, u := range []*hierarchy.User{s.manager, s.employee, s.outsider} {
			if err := repos.Users.Create(ctx, u); err != nil {
				return err
			}
		}
		s.project = &hierarchy.Project{
			ID:             uuid.New(),
			OrganizationID: s.org.ID,
			TeamID:         s.team.ID,
			OwnerID:        s.manager.ID,
			Name:           "Launch",
			Members:        []hierarchy.ProjectMember{{UserID: s.employee.ID, Role: hierarchy.ProjectRoleEditor}},
			CreatedAt:      now,
		}
		if err := repos.Projects.Create(ctx, s.project); err != nil {
			return err
		}
		for i, assignee := range []*hierarchy.User{s.employee, s.employee, s.outsider} {
			task := &hierarchy.Task{
				ID:             uuid.New(),
				OrganizationID: s.org.ID,
				TeamID:         s.team.ID,
				ProjectID:      s.project.ID,
				AssignedTo:     assignee.ID,
				CreatedBy:      s.manager.ID,
				Title:          "task",
				Status:         hierarchy.TaskStatusTodo,
				Priority:       hierarchy.PriorityMedium,
				Deadline:       now.Add(-time.Hour),
				CreatedAt:      now.Add(time.Duration(i) * time.Minute),
				UpdatedAt:      now,
			}
			if err := repos.Tasks.Create(ctx, task); err != nil {
				return err
			}
			s.tasks = append(s.tasks, task)
		}
		return nil
	})
	require.NoError(t, err)
	return s
}

func runRepositoryContract(t *testing.T, newCtx func() context.Context, repos services.Repositories) {
	t.Run("scoped task lists follow the reporting line", func(t *testing.T) {
		ctx := newCtx()
		s := seed(t, ctx, repos)

		pred, err := scope.Resolve(s.manager.Principal(), scope.KindTask, scope.Filters{})
		require.NoError(t, err)
		tasks, err := repos.Tasks.List(ctx, pred, services.ListParams{})
		require.NoError(t, err)
		assert.Len(t, tasks, 3, "manager created every task")

		pred, err = scope.Resolve(s.outsider.Principal(), scope.KindTask, scope.Filters{})
		require.NoError(t, err)
		tasks, err = repos.Tasks.List(ctx, pred, services.ListParams{})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, s.tasks[2].ID, tasks[0].ID)

		count, err := repos.Tasks.Count(ctx, pred)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		overdue, err := repos.Tasks.CountOverdue(ctx, pred, time.Now())
		require.NoError(t, err)
		assert.Equal(t, 1, overdue)
	})

	t.Run("lists are newest first and paginated", func(t *testing.T) {
		ctx := newCtx()
		s := seed(t, ctx, repos)
		pred, err := scope.Resolve(s.admin.Principal(), scope.KindTask, scope.Filters{})
		require.NoError(t, err)

		page1, err := repos.Tasks.List(ctx, pred, services.ListParams{Limit: 2})
		require.NoError(t, err)
		require.Len(t, page1, 2)
		assert.Equal(t, s.tasks[2].ID, page1[0].ID)

		page2, err := repos.Tasks.List(ctx, pred, services.ListParams{Limit: 2, Offset: 2})
		require.NoError(t, err)
		require.Len(t, page2, 1)
		assert.Equal(t, s.tasks[0].ID, page2[0].ID)
	})

	t.Run("project membership is visible to members", func(t *testing.T) {
		ctx := newCtx()
		s := seed(t, ctx, repos)
		pred, err := scope.Resolve(s.employee.Principal(), scope.KindProject, scope.Filters{})
		require.NoError(t, err)
		projects, err := repos.Projects.List(ctx, pred, services.ListParams{})
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.Equal(t, []uuid.UUID{s.employee.ID}, projects[0].MemberIDs())
	})

	t.Run("unscoped predicates are refused", func(t *testing.T) {
		ctx := newCtx()
		_, err := repos.Users.List(ctx, scope.Eq{Field: scope.FieldTeamID, Value: uuid.New()}, services.ListParams{})
		require.Error(t, err)
		assert.Equal(t, serrors.KindInternal, serrors.KindOf(err))
	})

	t.Run("lookups stay inside the tenant", func(t *testing.T) {
		ctx := newCtx()
		s := seed(t, ctx, repos)
		_, err := repos.Users.GetByID(ctx, uuid.New(), s.employee.ID)
		assert.Equal(t, serrors.KindNotFound, serrors.KindOf(err))

		got, err := repos.Users.GetByEmail(ctx, s.employee.Email)
		require.NoError(t, err)
		assert.Equal(t, s.employee.ID, got.ID)

		team, err := repos.Teams.GetByID(ctx, s.org.ID, s.team.ID)
		require.NoError(t, err)
		assert.Len(t, team.MemberIDs, 4)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		ctx := newCtx()
		s := seed(t, ctx, repos)
		dup := *s.employee
		dup.ID = uuid.New()
		err := repos.Users.Create(ctx, &dup)
		require.Error(t, err)
		assert.Equal(t, serrors.KindConflict, serrors.KindOf(err))
	})

	t.Run("failed transactions roll back", func(t *testing.T) {
		ctx := newCtx()
		s := seed(t, ctx, repos)
		boom := serrors.InvalidState("BOOM", "boom")
		err := repos.Tx.InTx(ctx, func(ctx context.Context) error {
			require.NoError(t, repos.Organizations.SetOwner(ctx, s.org.ID, s.admin.ID))
			return boom
		})
		require.ErrorIs(t, err, boom)

		org, err := repos.Organizations.GetByID(ctx, s.org.ID)
		require.NoError(t, err)
		assert.Equal(t, uuid.Nil, org.OwnerID)
	})

	t.Run("invites are consumed at most once", func(t *testing.T) {
		ctx := newCtx()
		s := seed(t, ctx, repos)
		now := time.Now().UTC()
		inv := &onboarding.Invite{
			Code:           onboarding.NewCode(),
			OrganizationID: s.org.ID,
			InviterID:      s.manager.ID,
			CreatedAt:      now,
			ExpiresAt:      now.Add(time.Hour),
		}
		require.NoError(t, repos.Invites.Create(ctx, inv))

		require.NoError(t, repos.Invites.Consume(ctx, inv.Code, s.employee.ID, now))
		err := repos.Invites.Consume(ctx, inv.Code, s.outsider.ID, now)
		assert.Equal(t, serrors.KindConflict, serrors.KindOf(err))

		got, err := repos.Invites.GetByCode(ctx, inv.Code)
		require.NoError(t, err)
		require.NotNil(t, got.ConsumedAt)
		assert.Equal(t, s.employee.ID, got.ConsumedBy)
	})

	t.Run("performance updates persist", func(t *testing.T) {
		ctx := newCtx()
		s := seed(t, ctx, repos)
		rating := 6.7
		s.employee.Performance.Rating = &rating
		s.employee.Performance.CompletedTasks = 2
		s.employee.IsAvailable = false
		require.NoError(t, repos.Users.UpdatePerformance(ctx, s.employee))

		got, err := repos.Users.GetByID(ctx, s.org.ID, s.employee.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Performance.Rating)
		assert.InDelta(t, 6.7, *got.Performance.Rating, 0.001)
		assert.Equal(t, 2, got.Performance.CompletedTasks)
		assert.False(t, got.IsAvailable)
	})

	t.Run("audit entries list newest first", func(t *testing.T) {
		ctx := newCtx()
		s := seed(t, ctx, repos)
		for i, action := range []string{"task.create", "task.update_status"} {
			require.NoError(t, repos.Audit.Insert(ctx, &services.AuditEntry{
				ID:              uuid.New(),
				OrganizationID:  s.org.ID,
				RealUserID:      s.manager.ID,
				EffectiveUserID: s.manager.ID,
				Action:          action,
				Resource:        "tasks",
				ResourceID:      s.tasks[0].ID,
				CreatedAt:       time.Now().UTC().Add(time.Duration(i) * time.Second),
			}))
		}
		entries, err := repos.Audit.List(ctx, s.org.ID, services.ListParams{})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "task.update_status", entries[0].Action)
	})
}

func TestMemoryRepositories(t *testing.T) {
	runRepositoryContract(t, context.Background, NewMemoryRepositories())
}

func TestMemoryStore_RepositoryResultsAreCopies(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories()
	s := seed(t, ctx, repos)

	got, err := repos.Users.GetByID(ctx, s.org.ID, s.employee.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := repos.Users.GetByID(ctx, s.org.ID, s.employee.ID)
	require.NoError(t, err)
	assert.Equal(t, "Eli", again.Name)
}

func TestMemoryStore_NestedTransactions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repos := store.Repositories()

	org := &hierarchy.Organization{ID: uuid.New(), Name: "Nested"}
	err := store.InTx(ctx, func(ctx context.Context) error {
		return store.InTx(ctx, func(ctx context.Context) error {
			return repos.Organizations.Create(ctx, org)
		})
	})
	require.NoError(t, err)

	got, err := repos.Organizations.GetByID(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, hierarchy.PlanFree, got.Plan)
}

func TestMemoryStore_RollbackKeepsConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	repos := store.Repositories()
	s := seed(t, ctx, repos)

	rating := 7.5
	scored := *s.employee
	scored.Performance.Rating = &rating

	done := make(chan error, 1)
	err := store.InTx(ctx, func(txCtx context.Context) error {
		go func() { done <- repos.Users.UpdatePerformance(ctx, &scored) }()
		time.Sleep(20 * time.Millisecond)
		if err := repos.Organizations.Create(txCtx, &hierarchy.Organization{ID: uuid.New(), Name: "Doomed"}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")
	require.NoError(t, <-done)

	got, err := repos.Users.GetByID(ctx, s.org.ID, s.employee.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Performance.Rating, "the score written during the transaction survives its rollback")
	assert.InDelta(t, 7.5, *got.Performance.Rating, 0.001)
}

func TestPostgresRepositories(t *testing.T) {
	dm := itf.NewDatabaseManager(t)
	dm.Migrate(t, SchemaFS, SchemaDir)

	runRepositoryContract(t, dm.Context, NewPostgresRepositories())
}
