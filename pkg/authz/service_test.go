package authz

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

func newTestService(t *testing.T, mode Mode) *Service {
	t.Helper()
	root := filepath.Join("testdata")
	svc, err := NewService(Config{
		ModelPath:    filepath.Join(root, "model.conf"),
		PolicyPath:   filepath.Join(root, "policy.csv"),
		FlagProvider: StaticFlags(mode),
	})
	require.NoError(t, err)
	return svc
}

func request(role, object, action string) Request {
	return NewRequest(SubjectForRole(role), DomainFromOrganization(uuid.New()), object, action)
}

func TestServiceAuthorize(t *testing.T) {
	svc := newTestService(t, ModeEnforce)
	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, request("employee", "workspace.tasks", "read")))
	require.NoError(t, svc.Authorize(ctx, request("super_admin", "workspace.tasks", "create")), "inherited through the role chain")
	require.NoError(t, svc.Authorize(ctx, request("super_admin", "workspace.teams", "create")), "wildcard action")
}

func TestServiceAuthorizeDenied(t *testing.T) {
	svc := newTestService(t, ModeEnforce)

	err := svc.Authorize(context.Background(), request("employee", "workspace.tasks", "create"))
	require.Error(t, err)
	assert.True(t, serrors.Is(err, serrors.KindForbidden))

	err = svc.Authorize(context.Background(), request("manager", "workspace.impersonation", "assume"))
	require.Error(t, err)
}

func TestServiceAuthorizeShadowMode(t *testing.T) {
	svc := newTestService(t, ModeShadow)
	require.NoError(t, svc.Authorize(context.Background(), request("employee", "workspace.teams", "create")))
}

func TestServiceMode(t *testing.T) {
	svc := newTestService(t, ModeDisabled)
	require.Equal(t, ModeDisabled, svc.Mode())
	require.NoError(t, svc.Authorize(context.Background(), request("nobody", "workspace.teams", "create")))
}

func TestServiceInspect(t *testing.T) {
	svc := newTestService(t, ModeEnforce)
	res, err := svc.Inspect(context.Background(), request("manager", "workspace.tasks", "read"))
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.NotEmpty(t, res.Trace)
}

func TestServiceCapabilities(t *testing.T) {
	svc := newTestService(t, ModeEnforce)
	create := Capability{Object: "workspace.tasks", Action: "create"}
	read := Capability{Object: "workspace.tasks", Action: "read"}

	state := svc.Capabilities(context.Background(), SubjectForRole("employee"), "global", []Capability{create, read})
	assert.False(t, state.Capability(create))
	assert.True(t, state.Capability(read))
}

func TestFileFlagProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.yaml")
	p := NewFileFlagProvider(path, ModeEnforce)
	assert.Equal(t, ModeEnforce, p.Mode(), "missing file uses the fallback")

	require.NoError(t, os.WriteFile(path, []byte("mode: shadow\n"), 0o644))
	assert.Equal(t, ModeShadow, p.Mode())

	require.NoError(t, os.Remove(path))
	assert.Equal(t, ModeShadow, p.Mode(), "last good value survives a missing file")
}
