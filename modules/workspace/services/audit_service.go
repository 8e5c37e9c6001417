package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/impersonation"
	"github.com/jacksonlee411/taskgrid/pkg/composables"
)

// AuditEntry records who did what. RealUserID differs from EffectiveUserID while impersonating.
type AuditEntry struct {
	ID              uuid.UUID
	OrganizationID  uuid.UUID
	RealUserID      uuid.UUID
	EffectiveUserID uuid.UUID
	Action          string
	Resource        string
	ResourceID      uuid.UUID
	RequestID       string
	CreatedAt       time.Time
}

type AuditService struct {
	repo AuditRepository
	now  clock
}

func NewAuditService(repo AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Record writes an entry for the principals bound to ctx. It joins a transaction open in ctx.
func (s *AuditService) Record(ctx context.Context, action, resource string, resourceID uuid.UUID) error {
	c, ok := impersonation.FromContext(ctx)
	if !ok {
		return nil
	}
	return s.insert(ctx, c, action, resource, resourceID)
}

func (s *AuditService) insert(ctx context.Context, c impersonation.Context, action, resource string, resourceID uuid.UUID) error {
	entry := &AuditEntry{
		ID:              uuid.New(),
		OrganizationID:  c.Real().OrganizationID,
		RealUserID:      c.Real().ID,
		EffectiveUserID: c.Effective().ID,
		Action:          action,
		Resource:        resource,
		ResourceID:      resourceID,
		RequestID:       composables.UseRequestID(ctx),
		CreatedAt:       s.now.now(),
	}
	return s.repo.Insert(ctx, entry)
}

func (s *AuditService) List(ctx context.Context, organizationID uuid.UUID, params ListParams) ([]*AuditEntry, error) {
	return s.repo.List(ctx, organizationID, params)
}
