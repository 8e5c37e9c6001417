package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

func ids(users []*hierarchy.User) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func TestUserService_ListFollowsRoleScope(t *testing.T) {
	w := newWorkspace(t)

	users, err := w.users.List(w.as(w.manager), services.UserQuery{}, services.ListParams{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{w.manager.ID, w.eli.ID, w.eva.ID}, ids(users))

	users, err = w.users.List(w.as(w.eli), services.UserQuery{}, services.ListParams{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{w.admin.ID, w.manager.ID, w.eli.ID, w.eva.ID}, ids(users), "employees see their team")

	users, err = w.users.List(w.as(w.boss), services.UserQuery{}, services.ListParams{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserService_FuzzySearch(t *testing.T) {
	w := newWorkspace(t)

	users, err := w.users.List(w.as(w.boss), services.UserQuery{Query: "eva"}, services.ListParams{})
	require.NoError(t, err)
	require.NotEmpty(t, users)
	assert.Equal(t, w.eva.ID, users[0].ID)

	users, err = w.users.List(w.as(w.boss), services.UserQuery{Query: "EMPLOYEE"}, services.ListParams{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{w.eli.ID, w.eva.ID}, ids(users))

	users, err = w.users.List(w.as(w.manager), services.UserQuery{Query: "bea boss"}, services.ListParams{})
	require.NoError(t, err)
	assert.Empty(t, users, "search never widens the scope")
}

func TestUserService_GetHidesOutOfScopeUsers(t *testing.T) {
	w := newWorkspace(t)

	_, err := w.users.Get(w.as(w.manager), w.admin.ID)
	assert.True(t, serrors.Is(err, serrors.KindNotFound))

	got, err := w.users.Get(w.as(w.admin), w.eva.ID)
	require.NoError(t, err)
	assert.Equal(t, w.eva.Email, got.Email)
}

func TestUserService_Subordinates(t *testing.T) {
	w := newWorkspace(t)

	subs, err := w.users.Subordinates(w.as(w.admin), w.admin.ID, 0)
	require.NoError(t, err)
	depth := map[uuid.UUID]int{}
	for _, s := range subs {
		depth[s.User.ID] = s.Depth
	}
	assert.Equal(t, map[uuid.UUID]int{w.manager.ID: 1, w.eli.ID: 2, w.eva.ID: 2}, depth)

	subs, err = w.users.Subordinates(w.as(w.admin), w.admin.ID, 1)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, w.manager.ID, subs[0].User.ID)

	_, err = w.users.Subordinates(w.as(w.eli), w.eva.ID, 0)
	require.NoError(t, err)

	_, err = w.users.Subordinates(w.as(w.manager), w.admin.ID, 0)
	assert.True(t, serrors.Is(err, serrors.KindNotFound))
}

func TestUserService_LoadPrincipal(t *testing.T) {
	w := newWorkspace(t)
	ctx := context.Background()

	p, err := w.users.LoadPrincipal(ctx, w.org, w.eli.ID)
	require.NoError(t, err)
	assert.Equal(t, w.eli.Principal(), p)

	eli := w.reload(t, w.eli)
	eli.IsActive = false
	require.NoError(t, w.repos.Users.Update(ctx, eli))
	_, err = w.users.LoadPrincipal(ctx, w.org, w.eli.ID)
	assert.True(t, serrors.Is(err, serrors.KindUnauthenticated))

	_, err = w.users.LoadPrincipal(ctx, uuid.New(), w.eva.ID)
	assert.True(t, serrors.Is(err, serrors.KindNotFound))
}
