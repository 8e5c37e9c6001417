package scope

import (
	"github.com/google/uuid"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
)

// Record exposes field values of a stored entity. Single-valued fields return one element.
type Record interface {
	Values(f Field) []any
}

// Source resolves the records referenced by subqueries.
type Source interface {
	Records(kind Kind) []Record
}

// Match evaluates p against rec. Subqueries are answered from src.
func Match(p Predicate, rec Record, src Source) bool {
	switch v := p.(type) {
	case Eq:
		return anyEqual(rec.Values(v.Field), v.Value)
	case Contains:
		return anyEqual(rec.Values(v.Field), v.Value)
	case In:
		if src == nil {
			return false
		}
		set := selectValues(v.Sub, src)
		for _, val := range rec.Values(v.Field) {
			if _, ok := set[val]; ok {
				return true
			}
		}
		return false
	case And:
		for _, term := range v {
			if !Match(term, rec, src) {
				return false
			}
		}
		return true
	case Or:
		for _, term := range v {
			if Match(term, rec, src) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func anyEqual(values []any, want any) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func selectValues(sub Subquery, src Source) map[any]struct{} {
	set := make(map[any]struct{})
	for _, r := range src.Records(sub.Kind) {
		if !Match(sub.Where, r, src) {
			continue
		}
		for _, v := range r.Values(sub.Select) {
			set[v] = struct{}{}
		}
	}
	return set
}

func id(v uuid.UUID) []any {
	if v == uuid.Nil {
		return nil
	}
	return []any{v}
}

type taskRecord struct{ t *hierarchy.Task }

// TaskRecord adapts a task for Match.
func TaskRecord(t *hierarchy.Task) Record { return taskRecord{t} }

func (r taskRecord) Values(f Field) []any {
	switch f {
	case FieldID:
		return id(r.t.ID)
	case FieldOrganizationID:
		return id(r.t.OrganizationID)
	case FieldTeamID:
		return id(r.t.TeamID)
	case FieldAssignedTo:
		return id(r.t.AssignedTo)
	case FieldCreatedBy:
		return id(r.t.CreatedBy)
	case FieldProjectID:
		return id(r.t.ProjectID)
	case FieldStatus:
		return []any{string(r.t.Status)}
	}
	return nil
}

type projectRecord struct{ p *hierarchy.Project }

// ProjectRecord adapts a project for Match.
func ProjectRecord(p *hierarchy.Project) Record { return projectRecord{p} }

func (r projectRecord) Values(f Field) []any {
	switch f {
	case FieldID:
		return id(r.p.ID)
	case FieldOrganizationID:
		return id(r.p.OrganizationID)
	case FieldTeamID:
		return id(r.p.TeamID)
	case FieldOwnerID:
		return id(r.p.OwnerID)
	case FieldMembers:
		out := make([]any, 0, len(r.p.Members))
		for _, m := range r.p.Members {
			out = append(out, m.UserID)
		}
		return out
	}
	return nil
}

type userRecord struct{ u *hierarchy.User }

// UserRecord adapts a user for Match.
func UserRecord(u *hierarchy.User) Record { return userRecord{u} }

func (r userRecord) Values(f Field) []any {
	switch f {
	case FieldID:
		return id(r.u.ID)
	case FieldOrganizationID:
		return id(r.u.OrganizationID)
	case FieldTeamID:
		return id(r.u.TeamID)
	case FieldReportsTo:
		return id(r.u.ReportsTo)
	}
	return nil
}

// SliceSource is a Source over in-memory slices.
type SliceSource struct {
	Tasks    []*hierarchy.Task
	Projects []*hierarchy.Project
	Users    []*hierarchy.User
}

func (s SliceSource) Records(kind Kind) []Record {
	var out []Record
	switch kind {
	case KindTask:
		for _, t := range s.Tasks {
			out = append(out, TaskRecord(t))
		}
	case KindProject:
		for _, p := range s.Projects {
			out = append(out, ProjectRecord(p))
		}
	case KindUser:
		for _, u := range s.Users {
			out = append(out, UserRecord(u))
		}
	}
	return out
}
