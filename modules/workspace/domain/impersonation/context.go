package impersonation

import (
	"context"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

// Context pairs the authenticated principal with the principal whose scope is in effect.
// Values are immutable; Assume and Release return new values.
type Context struct {
	real      hierarchy.Principal
	effective hierarchy.Principal
}

func New(real hierarchy.Principal) Context {
	return Context{real: real, effective: real}
}

func (c Context) Real() hierarchy.Principal      { return c.real }
func (c Context) Effective() hierarchy.Principal { return c.effective }

func (c Context) Impersonating() bool {
	return c.real.ID != c.effective.ID
}

var errForbidden = serrors.Forbidden("IMPERSONATION_FORBIDDEN", "forbidden")

// CanAssume checks the containment rules of real assuming target.
func CanAssume(real, target hierarchy.Principal) error {
	switch real.Role {
	case hierarchy.RoleSuperAdmin:
		if target.OrganizationID != real.OrganizationID {
			return errForbidden
		}
		return nil
	case hierarchy.RoleTeamAdmin:
		if target.OrganizationID != real.OrganizationID {
			return errForbidden
		}
		if target.Role == hierarchy.RoleSuperAdmin || target.Role == hierarchy.RoleTeamAdmin {
			return errForbidden
		}
		return nil
	default:
		return errForbidden
	}
}

// Assume returns a context whose effective principal is target.
// Containment is always checked against the real principal.
func (c Context) Assume(target hierarchy.Principal) (Context, error) {
	if target.ID == c.real.ID {
		return c.Release(), nil
	}
	if err := target.Validate(); err != nil {
		return c, errForbidden.WithCause(err)
	}
	if err := CanAssume(c.real, target); err != nil {
		return c, err
	}
	return Context{real: c.real, effective: target}, nil
}

func (c Context) Release() Context {
	return New(c.real)
}

type ctxKey struct{}

func WithContext(ctx context.Context, c Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func FromContext(ctx context.Context) (Context, bool) {
	c, ok := ctx.Value(ctxKey{}).(Context)
	return c, ok
}

// EffectivePrincipal returns the principal whose scope applies to ctx.
func EffectivePrincipal(ctx context.Context) (hierarchy.Principal, error) {
	c, ok := FromContext(ctx)
	if !ok {
		return hierarchy.Principal{}, serrors.Unauthenticated("UNAUTHENTICATED", "unauthenticated")
	}
	return c.Effective(), nil
}

// RealPrincipal returns the authenticated principal of ctx.
func RealPrincipal(ctx context.Context) (hierarchy.Principal, error) {
	c, ok := FromContext(ctx)
	if !ok {
		return hierarchy.Principal{}, serrors.Unauthenticated("UNAUTHENTICATED", "unauthenticated")
	}
	return c.Real(), nil
}
