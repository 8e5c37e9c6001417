package persistence

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/onboarding"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/scope"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

// MemoryStore keeps every workspace table in process. Predicates are evaluated with
// scope.Match, so it answers scoped queries exactly like the SQL compiler does.
// Transactions are serialized and roll back by restoring a snapshot. Writes outside a
// transaction wait for the running one, so a rollback never discards them.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data memoryData
}

type memoryData struct {
	organizations map[uuid.UUID]hierarchy.Organization
	teams         map[uuid.UUID]hierarchy.Team
	users         map[uuid.UUID]hierarchy.User
	projects      map[uuid.UUID]hierarchy.Project
	tasks         map[uuid.UUID]hierarchy.Task
	invites       map[string]onboarding.Invite
	audit         []services.AuditEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: memoryData{
		organizations: map[uuid.UUID]hierarchy.Organization{},
		teams:         map[uuid.UUID]hierarchy.Team{},
		users:         map[uuid.UUID]hierarchy.User{},
		projects:      map[uuid.UUID]hierarchy.Project{},
		tasks:         map[uuid.UUID]hierarchy.Task{},
		invites:       map[string]onboarding.Invite{},
	}}
}

// Repositories exposes the store through the service repository interfaces.
func (s *MemoryStore) Repositories() services.Repositories {
	return services.Repositories{
		Users:         memoryUsers{s},
		Tasks:         memoryTasks{s},
		Projects:      memoryProjects{s},
		Teams:         memoryTeams{s},
		Organizations: memoryOrganizations{s},
		Invites:       memoryInvites{s},
		Audit:         memoryAudit{s},
		Tx:            s,
	}
}

type memoryTxKey struct{}

func (s *MemoryStore) InTx(ctx context.Context, fn func(context.Context) error) error {
	if ctx.Value(memoryTxKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, memoryTxKey{}, true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// lockWrite takes the write lock for one mutation and returns its release. Outside a
// transaction it also holds txMu.
func (s *MemoryStore) lockWrite(ctx context.Context) func() {
	inTx := ctx.Value(memoryTxKey{}) != nil
	if !inTx {
		s.txMu.Lock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if !inTx {
			s.txMu.Unlock()
		}
	}
}

func (d memoryData) clone() memoryData {
	out := memoryData{
		organizations: make(map[uuid.UUID]hierarchy.Organization, len(d.organizations)),
		teams:         make(map[uuid.UUID]hierarchy.Team, len(d.teams)),
		users:         make(map[uuid.UUID]hierarchy.User, len(d.users)),
		projects:      make(map[uuid.UUID]hierarchy.Project, len(d.projects)),
		tasks:         make(map[uuid.UUID]hierarchy.Task, len(d.tasks)),
		invites:       make(map[string]onboarding.Invite, len(d.invites)),
		audit:         append([]services.AuditEntry(nil), d.audit...),
	}
	for k, v := range d.organizations {
		out.organizations[k] = v
	}
	for k, v := range d.teams {
		out.teams[k] = v
	}
	for k, v := range d.users {
		out.users[k] = v
	}
	for k, v := range d.projects {
		v.Members = append([]hierarchy.ProjectMember(nil), v.Members...)
		out.projects[k] = v
	}
	for k, v := range d.tasks {
		out.tasks[k] = v
	}
	for k, v := range d.invites {
		out.invites[k] = v
	}
	return out
}

// source materializes the rows needed to answer subqueries. Callers hold s.mu.
func (s *MemoryStore) source() scope.SliceSource {
	var src scope.SliceSource
	for _, t := range s.data.tasks {
		src.Tasks = append(src.Tasks, copyTask(t))
	}
	for _, p := range s.data.projects {
		src.Projects = append(src.Projects, copyProject(p))
	}
	for _, u := range s.data.users {
		src.Users = append(src.Users, copyUser(u))
	}
	return src
}

func copyUser(u hierarchy.User) *hierarchy.User {
	if u.Performance.Rating != nil {
		r := *u.Performance.Rating
		u.Performance.Rating = &r
	}
	if u.Performance.LastActiveAt != nil {
		at := *u.Performance.LastActiveAt
		u.Performance.LastActiveAt = &at
	}
	return &u
}

func copyTask(t hierarchy.Task) *hierarchy.Task {
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return &t
}

func copyProject(p hierarchy.Project) *hierarchy.Project {
	p.Members = append([]hierarchy.ProjectMember(nil), p.Members...)
	return &p
}

func checkScoped(pred scope.Predicate) error {
	if _, ok := scope.OrganizationOf(pred); !ok {
		return errUnscoped
	}
	return nil
}

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) GetByID(_ context.Context, organizationID, id uuid.UUID) (*hierarchy.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.data.users[id]
	if !ok || u.OrganizationID != organizationID {
		return nil, errUserNotFound
	}
	return copyUser(u), nil
}

func (r memoryUsers) GetByEmail(_ context.Context, email string) (*hierarchy.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.data.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, errUserNotFound
}

func (r memoryUsers) List(_ context.Context, pred scope.Predicate, params services.ListParams) ([]*hierarchy.User, error) {
	if err := checkScoped(pred); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	src := r.s.source()
	var out []*hierarchy.User
	for _, u := range src.Users {
		if scope.Match(pred, scope.UserRecord(u), src) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return page(out, params), nil
}

func (r memoryUsers) Create(ctx context.Context, u *hierarchy.User) error {
	defer r.s.lockWrite(ctx)()
	if _, ok := r.s.data.users[u.ID]; ok {
		return serrors.Conflict("UNIQUE_VIOLATION", "record already exists")
	}
	for _, existing := range r.s.data.users {
		if existing.Email == u.Email {
			return serrors.Conflict("EMAIL_TAKEN", "email is already registered")
		}
	}
	if _, ok := r.s.data.organizations[u.OrganizationID]; !ok {
		return serrors.Validation("REFERENCE_MISSING", "organization_id", "referenced record does not exist")
	}
	r.s.data.users[u.ID] = *copyUser(*u)
	return nil
}

func (r memoryUsers) Update(ctx context.Context, u *hierarchy.User) error {
	defer r.s.lockWrite(ctx)()
	existing, ok := r.s.data.users[u.ID]
	if !ok || existing.OrganizationID != u.OrganizationID {
		return errUserNotFound
	}
	existing.TeamID = u.TeamID
	existing.Role = u.Role
	existing.ReportsTo = u.ReportsTo
	existing.Name = u.Name
	existing.IsActive = u.IsActive
	r.s.data.users[u.ID] = existing
	return nil
}

func (r memoryUsers) UpdatePerformance(ctx context.Context, u *hierarchy.User) error {
	defer r.s.lockWrite(ctx)()
	existing, ok := r.s.data.users[u.ID]
	if !ok || existing.OrganizationID != u.OrganizationID {
		return errUserNotFound
	}
	existing.Performance = copyUser(*u).Performance
	existing.IsAvailable = u.IsAvailable
	r.s.data.users[u.ID] = existing
	return nil
}

type memoryTasks struct{ s *MemoryStore }

func (r memoryTasks) match(pred scope.Predicate) ([]*hierarchy.Task, error) {
	if err := checkScoped(pred); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	src := r.s.source()
	var out []*hierarchy.Task
	for _, t := range src.Tasks {
		if scope.Match(pred, scope.TaskRecord(t), src) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r memoryTasks) List(_ context.Context, pred scope.Predicate, params services.ListParams) ([]*hierarchy.Task, error) {
	out, err := r.match(pred)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return page(out, params), nil
}

func (r memoryTasks) Count(_ context.Context, pred scope.Predicate) (int, error) {
	out, err := r.match(pred)
	return len(out), err
}

func (r memoryTasks) CountOverdue(_ context.Context, pred scope.Predicate, now time.Time) (int, error) {
	out, err := r.match(pred)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, t := range out {
		if t.Overdue(now) {
			n++
		}
	}
	return n, nil
}

func (r memoryTasks) ListByAssignee(_ context.Context, organizationID, userID uuid.UUID) ([]*hierarchy.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*hierarchy.Task
	for _, t := range r.s.data.tasks {
		if t.OrganizationID == organizationID && t.AssignedTo == userID {
			out = append(out, copyTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memoryTasks) Create(ctx context.Context, t *hierarchy.Task) error {
	defer r.s.lockWrite(ctx)()
	if _, ok := r.s.data.tasks[t.ID]; ok {
		return serrors.Conflict("UNIQUE_VIOLATION", "record already exists")
	}
	r.s.data.tasks[t.ID] = *copyTask(*t)
	return nil
}

func (r memoryTasks) Update(ctx context.Context, t *hierarchy.Task) error {
	defer r.s.lockWrite(ctx)()
	existing, ok := r.s.data.tasks[t.ID]
	if !ok || existing.OrganizationID != t.OrganizationID {
		return errTaskNotFound
	}
	updated := *copyTask(*t)
	updated.CreatedBy = existing.CreatedBy
	updated.ProjectID = existing.ProjectID
	updated.CreatedAt = existing.CreatedAt
	r.s.data.tasks[t.ID] = updated
	return nil
}

type memoryProjects struct{ s *MemoryStore }

func (r memoryProjects) GetByID(_ context.Context, organizationID, id uuid.UUID) (*hierarchy.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.data.projects[id]
	if !ok || p.OrganizationID != organizationID {
		return nil, errProjectNotFound
	}
	return copyProject(p), nil
}

func (r memoryProjects) List(_ context.Context, pred scope.Predicate, params services.ListParams) ([]*hierarchy.Project, error) {
	if err := checkScoped(pred); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	src := r.s.source()
	var out []*hierarchy.Project
	for _, p := range src.Projects {
		if scope.Match(pred, scope.ProjectRecord(p), src) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return page(out, params), nil
}

func (r memoryProjects) Create(ctx context.Context, p *hierarchy.Project) error {
	defer r.s.lockWrite(ctx)()
	if _, ok := r.s.data.projects[p.ID]; ok {
		return serrors.Conflict("UNIQUE_VIOLATION", "record already exists")
	}
	r.s.data.projects[p.ID] = *copyProject(*p)
	return nil
}

type memoryTeams struct{ s *MemoryStore }

func (r memoryTeams) GetByID(_ context.Context, organizationID, id uuid.UUID) (*hierarchy.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.data.teams[id]
	if !ok || t.OrganizationID != organizationID {
		return nil, errTeamNotFound
	}
	t.MemberIDs = nil
	for _, u := range r.s.data.users {
		if u.TeamID == id {
			t.MemberIDs = append(t.MemberIDs, u.ID)
		}
	}
	sort.Slice(t.MemberIDs, func(i, j int) bool { return t.MemberIDs[i].String() < t.MemberIDs[j].String() })
	return &t, nil
}

func (r memoryTeams) Create(ctx context.Context, t *hierarchy.Team) error {
	defer r.s.lockWrite(ctx)()
	if _, ok := r.s.data.teams[t.ID]; ok {
		return serrors.Conflict("UNIQUE_VIOLATION", "record already exists")
	}
	cp := *t
	cp.MemberIDs = nil
	r.s.data.teams[t.ID] = cp
	return nil
}

type memoryOrganizations struct{ s *MemoryStore }

func (r memoryOrganizations) GetByID(_ context.Context, id uuid.UUID) (*hierarchy.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.data.organizations[id]
	if !ok {
		return nil, errOrganizationNotFound
	}
	return &o, nil
}

func (r memoryOrganizations) Create(ctx context.Context, o *hierarchy.Organization) error {
	defer r.s.lockWrite(ctx)()
	if _, ok := r.s.data.organizations[o.ID]; ok {
		return serrors.Conflict("UNIQUE_VIOLATION", "record already exists")
	}
	cp := *o
	if cp.Plan == "" {
		cp.Plan = hierarchy.PlanFree
	}
	r.s.data.organizations[o.ID] = cp
	return nil
}

func (r memoryOrganizations) SetOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	defer r.s.lockWrite(ctx)()
	o, ok := r.s.data.organizations[id]
	if !ok {
		return errOrganizationNotFound
	}
	o.OwnerID = ownerID
	r.s.data.organizations[id] = o
	return nil
}

type memoryInvites struct{ s *MemoryStore }

func (r memoryInvites) Create(ctx context.Context, inv *onboarding.Invite) error {
	defer r.s.lockWrite(ctx)()
	code := onboarding.NormalizeCode(inv.Code)
	if _, ok := r.s.data.invites[code]; ok {
		return serrors.Conflict("UNIQUE_VIOLATION", "record already exists")
	}
	cp := *inv
	cp.Code = code
	r.s.data.invites[code] = cp
	return nil
}

func (r memoryInvites) GetByCode(_ context.Context, code string) (*onboarding.Invite, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	inv, ok := r.s.data.invites[onboarding.NormalizeCode(code)]
	if !ok {
		return nil, errInviteNotFound
	}
	if inv.ConsumedAt != nil {
		at := *inv.ConsumedAt
		inv.ConsumedAt = &at
	}
	return &inv, nil
}

func (r memoryInvites) Consume(ctx context.Context, code string, userID uuid.UUID, at time.Time) error {
	defer r.s.lockWrite(ctx)()
	code = onboarding.NormalizeCode(code)
	inv, ok := r.s.data.invites[code]
	if !ok || !inv.Usable(at) {
		return errInviteConsumed
	}
	consumed := at
	inv.ConsumedAt = &consumed
	inv.ConsumedBy = userID
	r.s.data.invites[code] = inv
	return nil
}

type memoryAudit struct{ s *MemoryStore }

func (r memoryAudit) Insert(ctx context.Context, e *services.AuditEntry) error {
	defer r.s.lockWrite(ctx)()
	r.s.data.audit = append(r.s.data.audit, *e)
	return nil
}

func (r memoryAudit) List(_ context.Context, organizationID uuid.UUID, params services.ListParams) ([]*services.AuditEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*services.AuditEntry
	for i := len(r.s.data.audit) - 1; i >= 0; i-- {
		if e := r.s.data.audit[i]; e.OrganizationID == organizationID {
			out = append(out, &e)
		}
	}
	return page(out, params), nil
}

func page[T any](items []T, params services.ListParams) []T {
	if params.Offset > 0 {
		if params.Offset >= len(items) {
			return nil
		}
		items = items[params.Offset:]
	}
	if params.Limit > 0 && params.Limit < len(items) {
		items = items[:params.Limit]
	}
	return items
}
