package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
	"github.com/jacksonlee411/taskgrid/pkg/composables"
)

const (
	auditInsertQuery = `
		INSERT INTO audit_log (
			id, organization_id, real_user_id, effective_user_id, action, resource, resource_id, request_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	auditFindQuery = `
		SELECT id, organization_id, real_user_id, effective_user_id, action, resource, resource_id, request_id, created_at
		FROM audit_log
		WHERE organization_id = $1
		ORDER BY created_at DESC, id`
)

type PgAuditRepository struct{}

func NewAuditRepository() services.AuditRepository {
	return &PgAuditRepository{}
}

func (g *PgAuditRepository) Insert(ctx context.Context, e *services.AuditEntry) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	if _, err := tx.Exec(ctx, auditInsertQuery,
		e.ID,
		e.OrganizationID,
		e.RealUserID,
		e.EffectiveUserID,
		e.Action,
		e.Resource,
		nullUUID(e.ResourceID),
		e.RequestID,
		e.CreatedAt,
	); err != nil {
		return errors.Wrap(err, "failed to insert audit entry")
	}
	return nil
}

func (g *PgAuditRepository) List(ctx context.Context, organizationID uuid.UUID, params services.ListParams) ([]*services.AuditEntry, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	rows, err := tx.Query(ctx, Join(auditFindQuery, FormatLimitOffset(params.Limit, params.Offset)), organizationID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list audit entries")
	}
	defer rows.Close()

	var out []*services.AuditEntry
	for rows.Next() {
		var (
			e          services.AuditEntry
			resourceID uuid.NullUUID
		)
		if err := rows.Scan(
			&e.ID,
			&e.OrganizationID,
			&e.RealUserID,
			&e.EffectiveUserID,
			&e.Action,
			&e.Resource,
			&resourceID,
			&e.RequestID,
			&e.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan audit entry")
		}
		e.ResourceID = fromNullUUID(resourceID)
		out = append(out, &e)
	}
	return out, rows.Err()
}
