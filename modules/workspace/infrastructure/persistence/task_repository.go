package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/scope"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
	"github.com/jacksonlee411/taskgrid/pkg/composables"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

var errTaskNotFound = serrors.NotFound("TASK_NOT_FOUND", "task not found")

const (
	taskFindQuery = `
		SELECT
			t.id,
			t.organization_id,
			t.team_id,
			t.project_id,
			t.assigned_to,
			t.created_by,
			t.title,
			t.description,
			t.status,
			t.priority,
			t.deadline,
			t.completed_at,
			t.completion_comment,
			t.created_at,
			t.updated_at
		FROM tasks t`

	taskCountQuery = `SELECT COUNT(*) FROM tasks t`

	taskInsertQuery = `
		INSERT INTO tasks (
			id, organization_id, team_id, project_id, assigned_to, created_by, title, description,
			status, priority, deadline, completed_at, completion_comment, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	taskUpdateQuery = `
		UPDATE tasks
		SET team_id = $3,
			assigned_to = $4,
			title = $5,
			description = $6,
			status = $7,
			priority = $8,
			deadline = $9,
			completed_at = $10,
			completion_comment = $11,
			updated_at = $12
		WHERE id = $1 AND organization_id = $2`
)

type PgTaskRepository struct{}

func NewTaskRepository() services.TaskRepository {
	return &PgTaskRepository{}
}

func (g *PgTaskRepository) List(ctx context.Context, pred scope.Predicate, params services.ListParams) ([]*hierarchy.Task, error) {
	where, args, err := scopedWhere(scope.KindTask, "t", pred, nil)
	if err != nil {
		return nil, err
	}
	query := Join(
		taskFindQuery,
		JoinWhere(where),
		"ORDER BY t.created_at DESC, t.id",
		FormatLimitOffset(params.Limit, params.Offset),
	)
	tasks, err := g.queryTasks(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tasks")
	}
	return tasks, nil
}

func (g *PgTaskRepository) Count(ctx context.Context, pred scope.Predicate) (int, error) {
	where, args, err := scopedWhere(scope.KindTask, "t", pred, nil)
	if err != nil {
		return 0, err
	}
	return g.count(ctx, Join(taskCountQuery, JoinWhere(where)), args...)
}

func (g *PgTaskRepository) CountOverdue(ctx context.Context, pred scope.Predicate, now time.Time) (int, error) {
	where, args, err := scopedWhere(scope.KindTask, "t", pred, []any{now})
	if err != nil {
		return 0, err
	}
	return g.count(ctx, Join(
		taskCountQuery,
		JoinWhere(where, "t.status <> 'done'", "t.deadline IS NOT NULL", "t.deadline < $1"),
	), args...)
}

func (g *PgTaskRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	var n int
	if err := tx.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count tasks")
	}
	return n, nil
}

func (g *PgTaskRepository) ListByAssignee(ctx context.Context, organizationID, userID uuid.UUID) ([]*hierarchy.Task, error) {
	tasks, err := g.queryTasks(ctx,
		Join(taskFindQuery, "WHERE t.organization_id = $1 AND t.assigned_to = $2", "ORDER BY t.created_at, t.id"),
		organizationID, userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tasks by assignee")
	}
	return tasks, nil
}

func (g *PgTaskRepository) Create(ctx context.Context, t *hierarchy.Task) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	_, err = tx.Exec(ctx, taskInsertQuery,
		t.ID,
		t.OrganizationID,
		t.TeamID,
		t.ProjectID,
		t.AssignedTo,
		t.CreatedBy,
		t.Title,
		t.Description,
		string(t.Status),
		string(t.Priority),
		nullTime(t.Deadline),
		t.CompletedAt,
		t.CompletionComment,
		t.CreatedAt,
		t.UpdatedAt,
	)
	return mapPgError(err, errTaskNotFound, "failed to create task")
}

func (g *PgTaskRepository) Update(ctx context.Context, t *hierarchy.Task) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	tag, err := tx.Exec(ctx, taskUpdateQuery,
		t.ID,
		t.OrganizationID,
		t.TeamID,
		t.AssignedTo,
		t.Title,
		t.Description,
		string(t.Status),
		string(t.Priority),
		nullTime(t.Deadline),
		t.CompletedAt,
		t.CompletionComment,
		t.UpdatedAt,
	)
	if err != nil {
		return mapPgError(err, errTaskNotFound, "failed to update task")
	}
	if tag.RowsAffected() == 0 {
		return errTaskNotFound
	}
	return nil
}

func (g *PgTaskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]*hierarchy.Task, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*hierarchy.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(row pgx.Row) (*hierarchy.Task, error) {
	var (
		t                hierarchy.Task
		status, priority string
		deadline         *time.Time
	)
	if err := row.Scan(
		&t.ID,
		&t.OrganizationID,
		&t.TeamID,
		&t.ProjectID,
		&t.AssignedTo,
		&t.CreatedBy,
		&t.Title,
		&t.Description,
		&status,
		&priority,
		&deadline,
		&t.CompletedAt,
		&t.CompletionComment,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan task")
	}
	t.Status = hierarchy.TaskStatus(status)
	t.Priority = hierarchy.Priority(priority)
	t.Deadline = fromNullTime(deadline)
	return &t, nil
}
