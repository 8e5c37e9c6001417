package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/impersonation"
	"github.com/jacksonlee411/taskgrid/pkg/authz"
	"github.com/jacksonlee411/taskgrid/pkg/composables"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

// CapabilityReporter is implemented by authorizers that can list what a subject may do.
type CapabilityReporter interface {
	Capabilities(ctx context.Context, subject, domain string, caps []authz.Capability) *authz.ViewState
}

var sessionCapabilities = []authz.Capability{
	{Object: tasksAuthzObject, Action: "read"},
	{Object: tasksAuthzObject, Action: "create"},
	{Object: tasksAuthzObject, Action: "update_status"},
	{Object: tasksAuthzObject, Action: "stats"},
	{Object: projectsAuthzObject, Action: "read"},
	{Object: projectsAuthzObject, Action: "create"},
	{Object: usersAuthzObject, Action: "read"},
	{Object: teamsAuthzObject, Action: "create"},
	{Object: invitesAuthzObject, Action: "create"},
	{Object: impersonationAuthzObject, Action: "assume"},
}

type ImpersonationService struct {
	repos      Repositories
	authorizer Authorizer
	audit      *AuditService
}

func NewImpersonationService(repos Repositories, authorizer Authorizer) *ImpersonationService {
	return &ImpersonationService{
		repos:      repos,
		authorizer: authorizer,
		audit:      NewAuditService(repos.Audit),
	}
}

// Assume lets real act as targetID. The target is looked up inside real's organization
// only, so targets of other tenants are reported as not found.
func (s *ImpersonationService) Assume(ctx context.Context, real hierarchy.Principal, targetID uuid.UUID) (impersonation.Context, error) {
	c := impersonation.New(real)
	if err := real.Validate(); err != nil {
		return c, err
	}
	if targetID == real.ID {
		return c, nil
	}

	target, err := s.repos.Users.GetByID(ctx, real.OrganizationID, targetID)
	if err != nil {
		if serrors.Is(err, serrors.KindNotFound) {
			return c, ErrUserNotFound.WithCause(err)
		}
		return c, err
	}
	if !target.IsActive {
		return c, ErrUserNotFound
	}
	if err := authorize(ctx, s.authorizer, real, impersonationAuthzObject, "assume"); err != nil {
		return c, err
	}
	assumed, err := c.Assume(target.Principal())
	if err != nil {
		return c, err
	}

	if err := s.audit.insert(ctx, assumed, "impersonation.assume", "user", target.ID); err != nil {
		return c, err
	}
	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"real_user_id":      real.ID,
		"effective_user_id": target.ID,
		"effective_role":    target.Role,
	}).Info("impersonation assumed")
	return assumed, nil
}

// Capabilities reports what p may do in its organization, keyed by object.action.
// It returns nil when the authorizer cannot enumerate capabilities.
func (s *ImpersonationService) Capabilities(ctx context.Context, p hierarchy.Principal) map[string]bool {
	reporter, ok := s.authorizer.(CapabilityReporter)
	if !ok {
		return nil
	}
	state := reporter.Capabilities(
		ctx,
		authz.SubjectForRole(p.Role.String()),
		authz.DomainFromOrganization(p.OrganizationID),
		sessionCapabilities,
	)
	return state.Capabilities
}
