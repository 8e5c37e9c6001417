package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/impersonation"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/onboarding"
	"github.com/jacksonlee411/taskgrid/pkg/composables"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

const DefaultInviteTTL = 7 * 24 * time.Hour

var (
	ErrInviteInvalid      = serrors.NotFound("INVITE_INVALID", "invite not found")
	ErrInviteUnusable     = serrors.Conflict("INVITE_UNUSABLE", "invite is expired or already used")
	ErrEmailTaken         = serrors.Conflict("EMAIL_TAKEN", "email is already registered")
	ErrOrganizationName   = serrors.Validation("ORGANIZATION_NAME_REQUIRED", "organization_name", "organization name is required")
	ErrRegistrantName     = serrors.Validation("NAME_REQUIRED", "name", "name is required")
	ErrRegistrantEmail    = serrors.Validation("EMAIL_REQUIRED", "email", "email is required")
	ErrInviterUnavailable = serrors.Conflict("INVITER_UNAVAILABLE", "inviter is no longer active")
)

// TokenMinter issues bearer tokens for freshly registered users.
type TokenMinter interface {
	Mint(userID, organizationID uuid.UUID) (string, time.Time, error)
}

type RegisterInput struct {
	Name             string
	Email            string
	InviteCode       string
	OrganizationName string
}

type Registration struct {
	User           *hierarchy.User
	OrganizationID uuid.UUID
	Token          string
	ExpiresAt      time.Time
}

type OnboardingService struct {
	repos      Repositories
	authorizer Authorizer
	tokens     TokenMinter
	audit      *AuditService
	inviteTTL  time.Duration
	now        clock
}

func NewOnboardingService(repos Repositories, authorizer Authorizer, tokens TokenMinter, inviteTTL time.Duration) *OnboardingService {
	if inviteTTL <= 0 {
		inviteTTL = DefaultInviteTTL
	}
	return &OnboardingService{
		repos:      repos,
		authorizer: authorizer,
		tokens:     tokens,
		audit:      NewAuditService(repos.Audit),
		inviteTTL:  inviteTTL,
	}
}

// IssueInvite creates an invite sponsored by the effective principal.
func (s *OnboardingService) IssueInvite(ctx context.Context) (*onboarding.Invite, error) {
	p, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authorizer, p, invitesAuthzObject, "create"); err != nil {
		return nil, err
	}
	if !onboarding.CanSponsor(p.Role) {
		return nil, onboarding.ErrCannotSponsor
	}

	now := s.now.now()
	inv := &onboarding.Invite{
		Code:           onboarding.NewCode(),
		OrganizationID: p.OrganizationID,
		InviterID:      p.ID,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.inviteTTL),
	}
	err = s.repos.Tx.InTx(ctx, func(txCtx context.Context) error {
		if err := s.repos.Invites.Create(txCtx, inv); err != nil {
			return err
		}
		return s.audit.Record(txCtx, "invite.create", "invite", uuid.Nil)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Register places a new user. Without an invite code the registrant bootstraps a new
// organization as its super admin; with one, the inviter's role decides the placement.
func (s *OnboardingService) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	code := onboarding.NormalizeCode(in.InviteCode)
	orgName := strings.TrimSpace(in.OrganizationName)
	switch {
	case name == "":
		return nil, ErrRegistrantName
	case email == "":
		return nil, ErrRegistrantEmail
	case code == "" && orgName == "":
		return nil, ErrOrganizationName
	}

	now := s.now.now()
	var (
		invite  *onboarding.Invite
		inviter *hierarchy.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.repos.Users.GetByEmail(gctx, email)
		switch {
		case err == nil:
			return ErrEmailTaken
		case serrors.Is(err, serrors.KindNotFound):
			return nil
		default:
			return err
		}
	})
	if code != "" {
		g.Go(func() error {
			var err error
			invite, inviter, err = s.lookupInvite(gctx, code, now)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var sponsor *onboarding.Inviter
	if inviter != nil {
		sponsor = &onboarding.Inviter{
			ID:             inviter.ID,
			OrganizationID: inviter.OrganizationID,
			TeamID:         inviter.TeamID,
			Role:           inviter.Role,
		}
	}
	assignment, err := onboarding.ResolveOnboarding(sponsor)
	if err != nil {
		return nil, err
	}

	user := &hierarchy.User{
		ID:             uuid.New(),
		OrganizationID: assignment.OrganizationID,
		TeamID:         assignment.TeamID,
		Role:           assignment.Role,
		ReportsTo:      assignment.ReportsTo,
		Name:           name,
		Email:          email,
		IsActive:       true,
		IsAvailable:    true,
		CreatedAt:      now,
	}
	var org *hierarchy.Organization
	if assignment.NewOrganization {
		org = &hierarchy.Organization{ID: uuid.New(), Name: orgName, Plan: hierarchy.PlanFree, CreatedAt: now}
		user.OrganizationID = org.ID
	}
	if err := hierarchy.ValidateUser(user); err != nil {
		return nil, err
	}
	if user.ReportsTo != uuid.Nil {
		if err := hierarchy.ValidateReportingEdge(user, inviter); err != nil {
			return nil, err
		}
	}

	err = s.repos.Tx.InTx(ctx, func(txCtx context.Context) error {
		if org != nil {
			if err := s.repos.Organizations.Create(txCtx, org); err != nil {
				return err
			}
		} else if err := s.repos.Invites.Consume(txCtx, invite.Code, user.ID, now); err != nil {
			return err
		}
		if err := s.repos.Users.Create(txCtx, user); err != nil {
			return err
		}
		if org != nil {
			if err := s.repos.Organizations.SetOwner(txCtx, org.ID, user.ID); err != nil {
				return err
			}
		}
		return s.audit.insert(txCtx, impersonation.New(user.Principal()), "user.register", "user", user.ID)
	})
	if err != nil {
		return nil, err
	}

	token, expires, err := s.tokens.Mint(user.ID, user.OrganizationID)
	if err != nil {
		return nil, serrors.Internal("TOKEN_MINT_FAILED", "failed to issue token", err)
	}

	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"user_id": user.ID,
		"org_id":  user.OrganizationID,
		"role":    user.Role,
	}).Info("user registered")

	return &Registration{User: user, OrganizationID: user.OrganizationID, Token: token, ExpiresAt: expires}, nil
}

func (s *OnboardingService) lookupInvite(ctx context.Context, code string, now time.Time) (*onboarding.Invite, *hierarchy.User, error) {
	inv, err := s.repos.Invites.GetByCode(ctx, code)
	if err != nil {
		if serrors.Is(err, serrors.KindNotFound) {
			return nil, nil, ErrInviteInvalid.WithCause(err)
		}
		return nil, nil, err
	}
	if !inv.Usable(now) {
		return nil, nil, ErrInviteUnusable
	}
	inviter, err := s.repos.Users.GetByID(ctx, inv.OrganizationID, inv.InviterID)
	if err != nil {
		if serrors.Is(err, serrors.KindNotFound) {
			return nil, nil, ErrInviterUnavailable.WithCause(err)
		}
		return nil, nil, err
	}
	if !inviter.IsActive {
		return nil, nil, ErrInviterUnavailable
	}
	return inv, inviter, nil
}
