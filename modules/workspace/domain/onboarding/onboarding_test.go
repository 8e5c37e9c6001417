package onboarding

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		inviter hierarchy.Role
		want    Placement
	}{
		{hierarchy.RoleSuperAdmin, Placement{AssignedRole: hierarchy.RoleTeamAdmin}},
		{hierarchy.RoleTeamAdmin, Placement{AssignedRole: hierarchy.RoleManager, InheritsTeam: true, ReportsToInviter: true}},
		{hierarchy.RoleManager, Placement{AssignedRole: hierarchy.RoleEmployee, InheritsTeam: true, ReportsToInviter: true}},
	}
	for _, tc := range cases {
		t.Run(tc.inviter.String(), func(t *testing.T) {
			for i := 0; i < 3; i++ {
				got, err := Resolve(tc.inviter)
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
			}
		})
	}

	t.Run("employee cannot sponsor", func(t *testing.T) {
		_, err := Resolve(hierarchy.RoleEmployee)
		require.Error(t, err)
		assert.True(t, serrors.Is(err, serrors.KindForbidden))
		assert.False(t, CanSponsor(hierarchy.RoleEmployee))
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := Resolve("owner")
		assert.True(t, serrors.Is(err, serrors.KindValidation))
	})
}

func TestResolveOnboarding(t *testing.T) {
	org := uuid.New()
	team := uuid.New()

	t.Run("bootstrap", func(t *testing.T) {
		a, err := ResolveOnboarding(nil)
		require.NoError(t, err)
		assert.Equal(t, hierarchy.RoleSuperAdmin, a.Role)
		assert.True(t, a.NewOrganization)
		assert.Equal(t, uuid.Nil, a.OrganizationID)
	})

	t.Run("team admin invites a manager", func(t *testing.T) {
		inviter := &Inviter{ID: uuid.New(), OrganizationID: org, TeamID: team, Role: hierarchy.RoleTeamAdmin}
		a, err := ResolveOnboarding(inviter)
		require.NoError(t, err)
		assert.Equal(t, Assignment{Role: hierarchy.RoleManager, OrganizationID: org, TeamID: team, ReportsTo: inviter.ID}, a)
	})

	t.Run("super admin invites a teamless team admin", func(t *testing.T) {
		inviter := &Inviter{ID: uuid.New(), OrganizationID: org, Role: hierarchy.RoleSuperAdmin}
		a, err := ResolveOnboarding(inviter)
		require.NoError(t, err)
		assert.Equal(t, hierarchy.RoleTeamAdmin, a.Role)
		assert.Equal(t, uuid.Nil, a.TeamID)
		assert.Equal(t, uuid.Nil, a.ReportsTo)
		assert.False(t, a.NewOrganization)
	})

	t.Run("employee inviter", func(t *testing.T) {
		_, err := ResolveOnboarding(&Inviter{ID: uuid.New(), OrganizationID: org, TeamID: team, Role: hierarchy.RoleEmployee})
		assert.True(t, serrors.Is(err, serrors.KindForbidden))
	})

	t.Run("teamless manager", func(t *testing.T) {
		_, err := ResolveOnboarding(&Inviter{ID: uuid.New(), OrganizationID: org, Role: hierarchy.RoleManager})
		assert.True(t, serrors.Is(err, serrors.KindInvalidState))
	})
}

func TestInviteUsable(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	inv := &Invite{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, inv.Usable(now))
	assert.False(t, inv.Usable(now.Add(2*time.Hour)))

	consumed := now
	inv.ConsumedAt = &consumed
	assert.False(t, inv.Usable(now))
}

func TestNewCode(t *testing.T) {
	a, b := NewCode(), NewCode()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 16)
	assert.Equal(t, a, NormalizeCode(" "+a+" "))
}
