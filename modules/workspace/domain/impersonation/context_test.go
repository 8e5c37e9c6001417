package impersonation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

func principal(org uuid.UUID, role hierarchy.Role) hierarchy.Principal {
	p := hierarchy.Principal{ID: uuid.New(), OrganizationID: org, Role: role}
	if role != hierarchy.RoleSuperAdmin {
		p.TeamID = uuid.New()
	}
	return p
}

func TestAssumeContainment(t *testing.T) {
	org := uuid.New()
	other := uuid.New()
	admin := principal(org, hierarchy.RoleTeamAdmin)

	forbidden := []hierarchy.Principal{
		principal(org, hierarchy.RoleSuperAdmin),
		principal(org, hierarchy.RoleTeamAdmin),
		principal(other, hierarchy.RoleManager),
		principal(other, hierarchy.RoleEmployee),
	}
	for _, target := range forbidden {
		t.Run("team admin to "+target.Role.String(), func(t *testing.T) {
			c := New(admin)
			next, err := c.Assume(target)
			require.Error(t, err)
			assert.True(t, serrors.Is(err, serrors.KindForbidden))
			assert.Equal(t, admin, next.Effective())
		})
	}

	for _, role := range []hierarchy.Role{hierarchy.RoleManager, hierarchy.RoleEmployee} {
		t.Run("team admin to same-org "+role.String(), func(t *testing.T) {
			target := principal(org, role)
			next, err := New(admin).Assume(target)
			require.NoError(t, err)
			assert.Equal(t, target, next.Effective())
			assert.Equal(t, admin, next.Real())
			assert.True(t, next.Impersonating())
		})
	}
}

func TestAssumeRequiresSeniorRole(t *testing.T) {
	org := uuid.New()
	for _, role := range []hierarchy.Role{hierarchy.RoleManager, hierarchy.RoleEmployee} {
		_, err := New(principal(org, role)).Assume(principal(org, hierarchy.RoleEmployee))
		assert.True(t, serrors.Is(err, serrors.KindForbidden), role)
	}
}

func TestSuperAdminAssume(t *testing.T) {
	org := uuid.New()
	boss := principal(org, hierarchy.RoleSuperAdmin)

	next, err := New(boss).Assume(principal(org, hierarchy.RoleTeamAdmin))
	require.NoError(t, err)
	assert.Equal(t, hierarchy.RoleTeamAdmin, next.Effective().Role)

	_, err = New(boss).Assume(principal(uuid.New(), hierarchy.RoleEmployee))
	assert.True(t, serrors.Is(err, serrors.KindForbidden))
}

func TestAssumeIsImmutableAndChainsFromReal(t *testing.T) {
	org := uuid.New()
	admin := principal(org, hierarchy.RoleTeamAdmin)
	mgr := principal(org, hierarchy.RoleManager)
	emp := principal(org, hierarchy.RoleEmployee)

	base := New(admin)
	first, err := base.Assume(mgr)
	require.NoError(t, err)
	assert.False(t, base.Impersonating())

	second, err := first.Assume(emp)
	require.NoError(t, err)
	assert.Equal(t, emp, second.Effective())
	assert.Equal(t, admin, second.Real())
	assert.Equal(t, mgr, first.Effective())

	released := second.Release()
	assert.Equal(t, admin, released.Effective())
	assert.False(t, released.Impersonating())

	self, err := first.Assume(admin)
	require.NoError(t, err)
	assert.False(t, self.Impersonating())
}

func TestAssumeRejectsMalformedTarget(t *testing.T) {
	boss := principal(uuid.New(), hierarchy.RoleSuperAdmin)
	_, err := New(boss).Assume(hierarchy.Principal{ID: uuid.New(), OrganizationID: boss.OrganizationID, Role: "owner"})
	assert.True(t, serrors.Is(err, serrors.KindForbidden))
}

func TestContextHelpers(t *testing.T) {
	_, err := EffectivePrincipal(context.Background())
	assert.True(t, serrors.Is(err, serrors.KindUnauthenticated))

	org := uuid.New()
	admin := principal(org, hierarchy.RoleTeamAdmin)
	emp := principal(org, hierarchy.RoleEmployee)
	c, err := New(admin).Assume(emp)
	require.NoError(t, err)

	ctx := WithContext(context.Background(), c)
	eff, err := EffectivePrincipal(ctx)
	require.NoError(t, err)
	assert.Equal(t, emp, eff)
	real, err := RealPrincipal(ctx)
	require.NoError(t, err)
	assert.Equal(t, admin, real)
}
