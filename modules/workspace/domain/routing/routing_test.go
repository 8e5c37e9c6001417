package routing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
)

func rated(rating float64, available bool) *hierarchy.User {
	r := rating
	return &hierarchy.User{
		ID:          uuid.New(),
		Role:        hierarchy.RoleEmployee,
		IsActive:    true,
		IsAvailable: available,
		Performance: hierarchy.Performance{Rating: &r},
	}
}

func TestSelectAssigneePrefersAvailable(t *testing.T) {
	busy9 := rated(9, false)
	free7 := rated(7, true)
	free9 := rated(9, true)

	requester := &hierarchy.User{ID: uuid.New()}
	got := SelectAssignee(requester, []*hierarchy.User{busy9, free7, free9})
	assert.Same(t, free9, got)

	ranked := Rank([]*hierarchy.User{busy9, free7, free9})
	assert.Equal(t, []*hierarchy.User{free9, busy9, free7}, ranked)
}

func TestSelectAssigneeFallbacks(t *testing.T) {
	requester := &hierarchy.User{ID: uuid.New()}

	t.Run("nobody available", func(t *testing.T) {
		low := rated(3, false)
		high := rated(8, false)
		assert.Same(t, high, SelectAssignee(requester, []*hierarchy.User{low, high}))
	})

	t.Run("empty pool", func(t *testing.T) {
		assert.Same(t, requester, SelectAssignee(requester, nil))
	})

	t.Run("available beats higher rated busy", func(t *testing.T) {
		busy := rated(10, false)
		free := rated(1, true)
		assert.Same(t, free, SelectAssignee(requester, []*hierarchy.User{busy, free}))
	})

	t.Run("unrated counts as zero", func(t *testing.T) {
		fresh := &hierarchy.User{ID: uuid.New(), IsActive: true, IsAvailable: true}
		ok := rated(0.5, true)
		assert.Same(t, ok, SelectAssignee(requester, []*hierarchy.User{fresh, ok}))
	})
}

func TestSelectAssigneeIsDeterministic(t *testing.T) {
	pool := []*hierarchy.User{rated(5, true), rated(5, true), rated(5, false)}
	first := SelectAssignee(nil, pool)
	for i := 0; i < 10; i++ {
		assert.Same(t, first, SelectAssignee(nil, pool))
	}
	assert.Same(t, pool[0], first)
}

func TestCandidates(t *testing.T) {
	org := uuid.New()
	team := uuid.New()
	requester := hierarchy.Principal{ID: uuid.New(), OrganizationID: org, TeamID: team, Role: hierarchy.RoleManager}

	mk := func(role hierarchy.Role, teamID uuid.UUID, active bool) *hierarchy.User {
		return &hierarchy.User{ID: uuid.New(), OrganizationID: org, TeamID: teamID, Role: role, IsActive: active}
	}
	emp := mk(hierarchy.RoleEmployee, team, true)
	mgr := mk(hierarchy.RoleManager, team, true)
	admin := mk(hierarchy.RoleTeamAdmin, team, true)
	inactive := mk(hierarchy.RoleEmployee, team, false)
	elsewhere := mk(hierarchy.RoleEmployee, uuid.New(), true)
	foreign := &hierarchy.User{ID: uuid.New(), OrganizationID: uuid.New(), TeamID: team, Role: hierarchy.RoleEmployee, IsActive: true}

	got := Candidates(requester, []*hierarchy.User{emp, mgr, admin, inactive, elsewhere, foreign})
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []*hierarchy.User{emp, mgr}, got)
}
