package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/onboarding"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
	"github.com/jacksonlee411/taskgrid/pkg/composables"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

var (
	errInviteNotFound = serrors.NotFound("INVITE_INVALID", "invite not found")
	errInviteConsumed = serrors.Conflict("INVITE_UNUSABLE", "invite is expired or already used")
)

const (
	inviteFindQuery = `
		SELECT code, organization_id, inviter_id, created_at, expires_at, consumed_at, consumed_by
		FROM invites
		WHERE code = $1`

	inviteInsertQuery = `
		INSERT INTO invites (code, organization_id, inviter_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`

	// The conditional update is what makes consumption at-most-once under concurrency.
	inviteConsumeQuery = `
		UPDATE invites
		SET consumed_at = $2, consumed_by = $3
		WHERE code = $1 AND consumed_at IS NULL AND (expires_at IS NULL OR expires_at > $2)`
)

type PgInviteRepository struct{}

func NewInviteRepository() services.InviteRepository {
	return &PgInviteRepository{}
}

func (g *PgInviteRepository) Create(ctx context.Context, inv *onboarding.Invite) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	_, err = tx.Exec(ctx, inviteInsertQuery, inv.Code, inv.OrganizationID, inv.InviterID, inv.CreatedAt, nullTime(inv.ExpiresAt))
	return mapPgError(err, errInviteNotFound, "failed to create invite")
}

func (g *PgInviteRepository) GetByCode(ctx context.Context, code string) (*onboarding.Invite, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	var (
		inv        onboarding.Invite
		expiresAt  *time.Time
		consumedBy uuid.NullUUID
	)
	err = tx.QueryRow(ctx, inviteFindQuery, onboarding.NormalizeCode(code)).Scan(
		&inv.Code,
		&inv.OrganizationID,
		&inv.InviterID,
		&inv.CreatedAt,
		&expiresAt,
		&inv.ConsumedAt,
		&consumedBy,
	)
	if err != nil {
		return nil, mapPgError(err, errInviteNotFound, "failed to get invite")
	}
	inv.ExpiresAt = fromNullTime(expiresAt)
	inv.ConsumedBy = fromNullUUID(consumedBy)
	return &inv, nil
}

func (g *PgInviteRepository) Consume(ctx context.Context, code string, userID uuid.UUID, at time.Time) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	tag, err := tx.Exec(ctx, inviteConsumeQuery, onboarding.NormalizeCode(code), at, userID)
	if err != nil {
		return errors.Wrap(err, "failed to consume invite")
	}
	if tag.RowsAffected() == 0 {
		return errInviteConsumed
	}
	return nil
}
