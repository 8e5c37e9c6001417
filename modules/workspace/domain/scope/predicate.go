package scope

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind names the resource a predicate filters.
type Kind string

const (
	KindTask    Kind = "task"
	KindProject Kind = "project"
	KindUser    Kind = "user"
)

func (k Kind) Valid() bool {
	switch k {
	case KindTask, KindProject, KindUser:
		return true
	}
	return false
}

// Field is a logical column shared by the SQL compiler and in-memory evaluation.
type Field string

const (
	FieldID             Field = "id"
	FieldOrganizationID Field = "organization_id"
	FieldTeamID         Field = "team_id"
	FieldAssignedTo     Field = "assigned_to"
	FieldCreatedBy      Field = "created_by"
	FieldProjectID      Field = "project_id"
	FieldOwnerID        Field = "owner_id"
	FieldMembers        Field = "members"
	FieldReportsTo      Field = "reports_to"
	FieldStatus         Field = "status"
)

// Predicate is a closed filter expression. The concrete types are Eq, Contains, In, And and Or.
type Predicate interface {
	predicate()
}

// Eq matches records whose single-valued field equals Value.
type Eq struct {
	Field Field
	Value any
}

// Contains matches records whose multi-valued field includes Value.
type Contains struct {
	Field Field
	Value any
}

// Subquery selects one column from the records of Kind matching Where.
type Subquery struct {
	Kind   Kind
	Select Field
	Where  Predicate
}

// In matches records whose field value is produced by Sub.
type In struct {
	Field Field
	Sub   Subquery
}

// And matches when every term matches. An empty And matches everything.
type And []Predicate

// Or matches when any term matches. An empty Or matches nothing.
type Or []Predicate

func (Eq) predicate()       {}
func (Contains) predicate() {}
func (In) predicate()       {}
func (And) predicate()      {}
func (Or) predicate()       {}

// OrganizationOf returns the tenant conjunct that leads every resolved predicate.
func OrganizationOf(p Predicate) (uuid.UUID, bool) {
	and, ok := p.(And)
	if !ok || len(and) == 0 {
		return uuid.Nil, false
	}
	eq, ok := and[0].(Eq)
	if !ok || eq.Field != FieldOrganizationID {
		return uuid.Nil, false
	}
	id, ok := eq.Value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// Explain renders p in a compact, SQL-like form.
func Explain(p Predicate) string {
	var b strings.Builder
	explain(&b, p)
	return b.String()
}

func explain(b *strings.Builder, p Predicate) {
	switch v := p.(type) {
	case Eq:
		fmt.Fprintf(b, "%s = %v", v.Field, v.Value)
	case Contains:
		fmt.Fprintf(b, "%v IN %s", v.Value, v.Field)
	case In:
		fmt.Fprintf(b, "%s IN (SELECT %s FROM %s WHERE ", v.Field, v.Sub.Select, v.Sub.Kind)
		explain(b, v.Sub.Where)
		b.WriteString(")")
	case And:
		joinExplain(b, []Predicate(v), " AND ", "TRUE")
	case Or:
		joinExplain(b, []Predicate(v), " OR ", "FALSE")
	default:
		b.WriteString("FALSE")
	}
}

func joinExplain(b *strings.Builder, terms []Predicate, sep, empty string) {
	if len(terms) == 0 {
		b.WriteString(empty)
		return
	}
	if len(terms) > 1 {
		b.WriteString("(")
	}
	for i, t := range terms {
		if i > 0 {
			b.WriteString(sep)
		}
		explain(b, t)
	}
	if len(terms) > 1 {
		b.WriteString(")")
	}
}
