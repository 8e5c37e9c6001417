package persistence

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/scope"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
	"github.com/jacksonlee411/taskgrid/pkg/composables"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

var errUserNotFound = serrors.NotFound("USER_NOT_FOUND", "user not found")

const (
	userFindQuery = `
		SELECT
			u.id,
			u.organization_id,
			u.team_id,
			u.role,
			u.reports_to,
			u.name,
			u.email,
			u.is_active,
			u.is_available,
			u.rating,
			u.completed_tasks,
			u.pending_tasks,
			u.overdue_tasks,
			u.active_projects,
			u.last_active_at,
			u.created_at
		FROM users u`

	userInsertQuery = `
		INSERT INTO users (
			id, organization_id, team_id, role, reports_to, name, email,
			is_active, is_available, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	userUpdateQuery = `
		UPDATE users
		SET team_id = $3, role = $4, reports_to = $5, name = $6, is_active = $7
		WHERE id = $1 AND organization_id = $2`

	userUpdatePerformanceQuery = `
		UPDATE users
		SET rating = $3,
			completed_tasks = $4,
			pending_tasks = $5,
			overdue_tasks = $6,
			active_projects = $7,
			last_active_at = $8,
			is_available = $9
		WHERE id = $1 AND organization_id = $2`
)

type PgUserRepository struct{}

func NewUserRepository() services.UserRepository {
	return &PgUserRepository{}
}

func (g *PgUserRepository) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*hierarchy.User, error) {
	users, err := g.queryUsers(ctx, Join(userFindQuery, "WHERE u.organization_id = $1 AND u.id = $2"), organizationID, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user by id")
	}
	if len(users) == 0 {
		return nil, errUserNotFound
	}
	return users[0], nil
}

func (g *PgUserRepository) GetByEmail(ctx context.Context, email string) (*hierarchy.User, error) {
	users, err := g.queryUsers(ctx, Join(userFindQuery, "WHERE u.email = $1"), strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user by email")
	}
	if len(users) == 0 {
		return nil, errUserNotFound
	}
	return users[0], nil
}

func (g *PgUserRepository) List(ctx context.Context, pred scope.Predicate, params services.ListParams) ([]*hierarchy.User, error) {
	where, args, err := scopedWhere(scope.KindUser, "u", pred, nil)
	if err != nil {
		return nil, err
	}
	query := Join(
		userFindQuery,
		JoinWhere(where),
		"ORDER BY u.name, u.id",
		FormatLimitOffset(params.Limit, params.Offset),
	)
	users, err := g.queryUsers(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	return users, nil
}

func (g *PgUserRepository) Create(ctx context.Context, u *hierarchy.User) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	_, err = tx.Exec(ctx, userInsertQuery,
		u.ID,
		u.OrganizationID,
		nullUUID(u.TeamID),
		string(u.Role),
		nullUUID(u.ReportsTo),
		u.Name,
		u.Email,
		u.IsActive,
		u.IsAvailable,
		u.CreatedAt,
	)
	return mapPgError(err, errUserNotFound, "failed to create user")
}

func (g *PgUserRepository) Update(ctx context.Context, u *hierarchy.User) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	tag, err := tx.Exec(ctx, userUpdateQuery,
		u.ID,
		u.OrganizationID,
		nullUUID(u.TeamID),
		string(u.Role),
		nullUUID(u.ReportsTo),
		u.Name,
		u.IsActive,
	)
	if err != nil {
		return mapPgError(err, errUserNotFound, "failed to update user")
	}
	if tag.RowsAffected() == 0 {
		return errUserNotFound
	}
	return nil
}

func (g *PgUserRepository) UpdatePerformance(ctx context.Context, u *hierarchy.User) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	perf := u.Performance
	tag, err := tx.Exec(ctx, userUpdatePerformanceQuery,
		u.ID,
		u.OrganizationID,
		perf.Rating,
		perf.CompletedTasks,
		perf.PendingTasks,
		perf.OverdueTasks,
		perf.ActiveProjects,
		perf.LastActiveAt,
		u.IsAvailable,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update user performance")
	}
	if tag.RowsAffected() == 0 {
		return errUserNotFound
	}
	return nil
}

func (g *PgUserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*hierarchy.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*hierarchy.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*hierarchy.User, error) {
	var (
		u         hierarchy.User
		teamID    uuid.NullUUID
		reportsTo uuid.NullUUID
		role      string
	)
	if err := row.Scan(
		&u.ID,
		&u.OrganizationID,
		&teamID,
		&role,
		&reportsTo,
		&u.Name,
		&u.Email,
		&u.IsActive,
		&u.IsAvailable,
		&u.Performance.Rating,
		&u.Performance.CompletedTasks,
		&u.Performance.PendingTasks,
		&u.Performance.OverdueTasks,
		&u.Performance.ActiveProjects,
		&u.Performance.LastActiveAt,
		&u.CreatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan user")
	}
	u.TeamID = fromNullUUID(teamID)
	u.ReportsTo = fromNullUUID(reportsTo)
	u.Role = hierarchy.Role(role)
	return &u, nil
}
