package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/onboarding"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/scope"
	"github.com/jacksonlee411/taskgrid/pkg/authz"
)

// ListParams pages a list query. A zero Limit means no limit.
type ListParams struct {
	Limit  int
	Offset int
}

// Scoped queries take a predicate produced by scope.Resolve. Implementations must
// reject predicates that do not lead with the organization conjunct.
type UserRepository interface {
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (*hierarchy.User, error)
	GetByEmail(ctx context.Context, email string) (*hierarchy.User, error)
	List(ctx context.Context, pred scope.Predicate, params ListParams) ([]*hierarchy.User, error)
	Create(ctx context.Context, u *hierarchy.User) error
	Update(ctx context.Context, u *hierarchy.User) error
	UpdatePerformance(ctx context.Context, u *hierarchy.User) error
}

type TaskRepository interface {
	List(ctx context.Context, pred scope.Predicate, params ListParams) ([]*hierarchy.Task, error)
	Count(ctx context.Context, pred scope.Predicate) (int, error)
	CountOverdue(ctx context.Context, pred scope.Predicate, now time.Time) (int, error)
	// ListByAssignee returns every task assigned to userID regardless of who asks.
	ListByAssignee(ctx context.Context, organizationID, userID uuid.UUID) ([]*hierarchy.Task, error)
	Create(ctx context.Context, t *hierarchy.Task) error
	Update(ctx context.Context, t *hierarchy.Task) error
}

type ProjectRepository interface {
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (*hierarchy.Project, error)
	List(ctx context.Context, pred scope.Predicate, params ListParams) ([]*hierarchy.Project, error)
	Create(ctx context.Context, p *hierarchy.Project) error
}

type TeamRepository interface {
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (*hierarchy.Team, error)
	Create(ctx context.Context, t *hierarchy.Team) error
}

type OrganizationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*hierarchy.Organization, error)
	Create(ctx context.Context, o *hierarchy.Organization) error
	SetOwner(ctx context.Context, id, ownerID uuid.UUID) error
}

type InviteRepository interface {
	Create(ctx context.Context, inv *onboarding.Invite) error
	GetByCode(ctx context.Context, code string) (*onboarding.Invite, error)
	// Consume marks the invite used. A second consume of the same code returns a Conflict error.
	Consume(ctx context.Context, code string, userID uuid.UUID, at time.Time) error
}

type AuditRepository interface {
	Insert(ctx context.Context, e *AuditEntry) error
	List(ctx context.Context, organizationID uuid.UUID, params ListParams) ([]*AuditEntry, error)
}

// Transactor runs fn atomically. Repositories called with the ctx passed to fn join the transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Authorizer interface {
	Authorize(ctx context.Context, req authz.Request) error
}

// Repositories bundles one storage backend.
type Repositories struct {
	Users         UserRepository
	Tasks         TaskRepository
	Projects      ProjectRepository
	Teams         TeamRepository
	Organizations OrganizationRepository
	Invites       InviteRepository
	Audit         AuditRepository
	Tx            Transactor
}
