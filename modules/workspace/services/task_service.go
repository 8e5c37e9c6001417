package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/events"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/routing"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/scope"
	"github.com/jacksonlee411/taskgrid/pkg/aggcache"
	"github.com/jacksonlee411/taskgrid/pkg/composables"
	"github.com/jacksonlee411/taskgrid/pkg/eventbus"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

var (
	ErrTaskNotFound        = serrors.NotFound("TASK_NOT_FOUND", "task not found")
	ErrCompletionComment   = serrors.Validation("TASK_COMMENT_REQUIRED", "comment", "a comment is required to complete a task")
	ErrTaskTeamRequired    = serrors.Validation("TASK_TEAM_REQUIRED", "team_id", "team is required")
	ErrTaskTitleRequired   = serrors.Validation("TASK_TITLE_REQUIRED", "title", "title is required")
	ErrTaskProjectRequired = serrors.Validation("TASK_PROJECT_REQUIRED", "project_id", "project is required")
)

const statsEndpoint = "tasks.stats"

type CreateTaskInput struct {
	Title       string
	Description string
	ProjectID   uuid.UUID
	// TeamID is only read for principals without a team.
	TeamID     uuid.UUID
	AssignedTo uuid.UUID
	AutoAssign bool
	Priority   hierarchy.Priority
	Deadline   time.Time
}

// TaskStats is the cached task aggregate of one principal's scope.
type TaskStats struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
	Overdue    int `json:"overdue"`
}

type TaskService struct {
	repos      Repositories
	authorizer Authorizer
	publisher  eventbus.EventBus
	cache      aggcache.Store
	audit      *AuditService
	now        clock
}

func NewTaskService(repos Repositories, authorizer Authorizer, publisher eventbus.EventBus, cache aggcache.Store) *TaskService {
	if cache == nil {
		cache = aggcache.Nop{}
	}
	return &TaskService{
		repos:      repos,
		authorizer: authorizer,
		publisher:  publisher,
		cache:      cache,
		audit:      NewAuditService(repos.Audit),
	}
}

func (s *TaskService) List(ctx context.Context, filters scope.Filters, params ListParams) ([]*hierarchy.Task, error) {
	p, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authorizer, p, tasksAuthzObject, "read"); err != nil {
		return nil, err
	}
	pred, err := scope.Resolve(p, scope.KindTask, filters)
	if err != nil {
		return nil, err
	}
	return s.repos.Tasks.List(ctx, pred, params)
}

// Get returns a task visible to the effective principal. Tasks outside its scope are not found.
func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (*hierarchy.Task, error) {
	p, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authorizer, p, tasksAuthzObject, "read"); err != nil {
		return nil, err
	}
	return s.visible(ctx, p, id)
}

func (s *TaskService) visible(ctx context.Context, p hierarchy.Principal, id uuid.UUID) (*hierarchy.Task, error) {
	pred, err := scope.Resolve(p, scope.KindTask, scope.Filters{})
	if err != nil {
		return nil, err
	}
	tasks, err := s.repos.Tasks.List(ctx, withID(pred, id), ListParams{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, ErrTaskNotFound
	}
	return tasks[0], nil
}

func (s *TaskService) Create(ctx context.Context, in CreateTaskInput) (*hierarchy.Task, error) {
	p, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authorizer, p, tasksAuthzObject, "create"); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTaskTitleRequired
	}
	if in.ProjectID == uuid.Nil {
		return nil, ErrTaskProjectRequired
	}
	priority := in.Priority
	if priority == "" {
		priority = hierarchy.PriorityMedium
	}
	teamID, err := targetTeam(p, in.TeamID)
	if err != nil {
		return nil, err
	}
	if teamID == uuid.Nil {
		return nil, ErrTaskTeamRequired
	}

	creator, err := s.repos.Users.GetByID(ctx, p.OrganizationID, p.ID)
	if err != nil {
		return nil, err
	}
	project, err := s.repos.Projects.GetByID(ctx, p.OrganizationID, in.ProjectID)
	if err != nil {
		return nil, err
	}

	autoAssigned := in.AutoAssign || in.AssignedTo == uuid.Nil
	var assignee *hierarchy.User
	if autoAssigned {
		assignee, err = s.selectAssignee(ctx, p, teamID, creator)
	} else {
		assignee, err = s.repos.Users.GetByID(ctx, p.OrganizationID, in.AssignedTo)
	}
	if err != nil {
		return nil, err
	}

	now := s.now.now()
	task := &hierarchy.Task{
		ID:             uuid.New(),
		OrganizationID: p.OrganizationID,
		TeamID:         teamID,
		ProjectID:      project.ID,
		AssignedTo:     assignee.ID,
		CreatedBy:      p.ID,
		Title:          title,
		Description:    strings.TrimSpace(in.Description),
		Status:         hierarchy.TaskStatusTodo,
		Priority:       priority,
		Deadline:       in.Deadline,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := hierarchy.ValidateTask(task, assignee, creator, project); err != nil {
		return nil, err
	}

	err = s.repos.Tx.InTx(ctx, func(txCtx context.Context) error {
		if err := s.repos.Tasks.Create(txCtx, task); err != nil {
			return err
		}
		return s.audit.Record(txCtx, "task.create", "task", task.ID)
	})
	if err != nil {
		return nil, err
	}

	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"task_id":       task.ID,
		"assigned_to":   task.AssignedTo,
		"auto_assigned": autoAssigned,
	}).Info("task created")

	s.publisher.Publish(&events.TaskCreatedEvent{
		OrganizationID: task.OrganizationID,
		TeamID:         task.TeamID,
		TaskID:         task.ID,
		ProjectID:      task.ProjectID,
		AssignedTo:     task.AssignedTo,
		CreatedBy:      task.CreatedBy,
		AutoAssigned:   autoAssigned,
		OccurredAt:     now,
	})
	return task, nil
}

// selectAssignee ranks the active members of team and falls back to the creator.
func (s *TaskService) selectAssignee(ctx context.Context, p hierarchy.Principal, teamID uuid.UUID, creator *hierarchy.User) (*hierarchy.User, error) {
	pred := scope.And{
		scope.Eq{Field: scope.FieldOrganizationID, Value: p.OrganizationID},
		scope.Eq{Field: scope.FieldTeamID, Value: teamID},
	}
	members, err := s.repos.Users.List(ctx, pred, ListParams{})
	if err != nil {
		return nil, err
	}
	requester := p
	requester.TeamID = teamID
	return routing.SelectAssignee(creator, routing.Candidates(requester, members)), nil
}

// UpdateStatus moves a visible task to status. Completing requires a comment; only the first
// completion stamps CompletedAt and emits TaskCompletedEvent.
func (s *TaskService) UpdateStatus(ctx context.Context, id uuid.UUID, status hierarchy.TaskStatus, comment string) (*hierarchy.Task, error) {
	p, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authorizer, p, tasksAuthzObject, "update_status"); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, serrors.Validation("TASK_STATUS", "status", "unknown status")
	}
	comment = strings.TrimSpace(comment)
	if status == hierarchy.TaskStatusDone && comment == "" {
		return nil, ErrCompletionComment
	}

	task, err := s.visible(ctx, p, id)
	if err != nil {
		return nil, err
	}
	previous := *task
	now := s.now.now()

	firstCompletion := status == hierarchy.TaskStatusDone && task.CompletedAt == nil
	task.Status = status
	task.UpdatedAt = now
	if status == hierarchy.TaskStatusDone {
		task.CompletionComment = comment
	}
	if firstCompletion {
		at := now
		task.CompletedAt = &at
	}

	err = s.repos.Tx.InTx(ctx, func(txCtx context.Context) error {
		if err := s.repos.Tasks.Update(txCtx, task); err != nil {
			return err
		}
		return s.audit.Record(txCtx, "task.update_status", "task", task.ID)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(&events.TaskUpdatedEvent{
		OrganizationID: task.OrganizationID,
		TaskID:         task.ID,
		TeamID:         task.TeamID,
		PreviousTeamID: previous.TeamID,
		AssignedTo:     task.AssignedTo,
		Status:         task.Status,
		PreviousStatus: previous.Status,
		OccurredAt:     now,
	})
	if firstCompletion {
		s.publisher.Publish(&events.TaskCompletedEvent{
			OrganizationID: task.OrganizationID,
			TeamID:         task.TeamID,
			TaskID:         task.ID,
			AssignedTo:     task.AssignedTo,
			CompletedBy:    p.ID,
			Comment:        comment,
			CompletedAt:    now,
		})
	}
	return task, nil
}

// Stats counts the tasks visible to the effective principal, read through the aggregate cache.
func (s *TaskService) Stats(ctx context.Context, filters scope.Filters) (TaskStats, error) {
	p, err := actor(ctx)
	if err != nil {
		return TaskStats{}, err
	}
	if err := authorize(ctx, s.authorizer, p, tasksAuthzObject, "stats"); err != nil {
		return TaskStats{}, err
	}
	pred, err := scope.Resolve(p, scope.KindTask, filters)
	if err != nil {
		return TaskStats{}, err
	}

	key := aggcache.KeyFor(statsEndpointFor(filters), p)
	return aggcache.Remember(ctx, s.cache, composables.UseLogger(ctx), key, func(ctx context.Context) (TaskStats, error) {
		return s.countTasks(ctx, pred)
	})
}

func (s *TaskService) countTasks(ctx context.Context, pred scope.Predicate) (TaskStats, error) {
	var stats TaskStats
	now := s.now.now()
	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int, status hierarchy.TaskStatus) {
		g.Go(func() error {
			n, err := s.repos.Tasks.Count(gctx, withStatus(pred, status))
			*dst = n
			return err
		})
	}
	count(&stats.Todo, hierarchy.TaskStatusTodo)
	count(&stats.InProgress, hierarchy.TaskStatusInProgress)
	count(&stats.Done, hierarchy.TaskStatusDone)
	g.Go(func() error {
		n, err := s.repos.Tasks.CountOverdue(gctx, pred, now)
		stats.Overdue = n
		return err
	})
	if err := g.Wait(); err != nil {
		return TaskStats{}, err
	}
	stats.Total = stats.Todo + stats.InProgress + stats.Done
	return stats, nil
}

func withStatus(pred scope.Predicate, status hierarchy.TaskStatus) scope.Predicate {
	and, _ := pred.(scope.And)
	out := make(scope.And, 0, len(and)+1)
	out = append(out, and...)
	return append(out, scope.Eq{Field: scope.FieldStatus, Value: string(status)})
}

func statsEndpointFor(f scope.Filters) string {
	var parts []string
	if f.TeamID != uuid.Nil {
		parts = append(parts, "team="+f.TeamID.String())
	}
	if f.AssignedTo != uuid.Nil {
		parts = append(parts, "assigned_to="+f.AssignedTo.String())
	}
	if f.ProjectID != uuid.Nil {
		parts = append(parts, "project="+f.ProjectID.String())
	}
	if f.Status != "" {
		parts = append(parts, fmt.Sprintf("status=%s", f.Status))
	}
	if len(parts) == 0 {
		return statsEndpoint
	}
	return statsEndpoint + "?" + strings.Join(parts, "&")
}
