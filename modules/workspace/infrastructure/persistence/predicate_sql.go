package persistence

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/scope"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

type tableDef struct {
	name    string
	columns map[scope.Field]string
}

var tables = map[scope.Kind]tableDef{
	scope.KindTask: {
		name: "tasks",
		columns: map[scope.Field]string{
			scope.FieldID:             "id",
			scope.FieldOrganizationID: "organization_id",
			scope.FieldTeamID:         "team_id",
			scope.FieldAssignedTo:     "assigned_to",
			scope.FieldCreatedBy:      "created_by",
			scope.FieldProjectID:      "project_id",
			scope.FieldStatus:         "status",
		},
	},
	scope.KindProject: {
		name: "projects",
		columns: map[scope.Field]string{
			scope.FieldID:             "id",
			scope.FieldOrganizationID: "organization_id",
			scope.FieldTeamID:         "team_id",
			scope.FieldOwnerID:        "owner_id",
		},
	},
	scope.KindUser: {
		name: "users",
		columns: map[scope.Field]string{
			scope.FieldID:             "id",
			scope.FieldOrganizationID: "organization_id",
			scope.FieldTeamID:         "team_id",
			scope.FieldReportsTo:      "reports_to",
		},
	},
}

var errUnscoped = serrors.Internal("QUERY_UNSCOPED", "query is missing the organization filter", nil)

// scopedWhere compiles pred for kind under alias and refuses predicates that do not
// lead with the organization conjunct.
func scopedWhere(kind scope.Kind, alias string, pred scope.Predicate, args []any) (string, []any, error) {
	if _, ok := scope.OrganizationOf(pred); !ok {
		return "", nil, errUnscoped
	}
	return CompilePredicate(kind, alias, pred, args)
}

// CompilePredicate renders pred as a SQL boolean expression over kind's table aliased as
// alias. Values are appended to args and referenced positionally, continuing after the
// arguments already present.
func CompilePredicate(kind scope.Kind, alias string, pred scope.Predicate, args []any) (string, []any, error) {
	c := &sqlCompiler{args: args}
	sql, err := c.compile(kind, alias, pred)
	if err != nil {
		return "", nil, err
	}
	return sql, c.args, nil
}

type sqlCompiler struct {
	args []any
	// subqueries numbers nested aliases so that inner queries never shadow outer ones.
	subqueries int
}

func (c *sqlCompiler) bind(v any) string {
	c.args = append(c.args, v)
	return fmt.Sprintf("$%d", len(c.args))
}

func (c *sqlCompiler) column(kind scope.Kind, alias string, f scope.Field) (string, error) {
	def, ok := tables[kind]
	if !ok {
		return "", errors.Errorf("unknown kind %q", kind)
	}
	col, ok := def.columns[f]
	if !ok {
		return "", errors.Errorf("field %q is not a column of %s", f, def.name)
	}
	return alias + "." + col, nil
}

func (c *sqlCompiler) compile(kind scope.Kind, alias string, pred scope.Predicate) (string, error) {
	switch p := pred.(type) {
	case scope.Eq:
		col, err := c.column(kind, alias, p.Field)
		if err != nil {
			return "", err
		}
		return col + " = " + c.bind(p.Value), nil

	case scope.Contains:
		if kind != scope.KindProject || p.Field != scope.FieldMembers {
			return "", errors.Errorf("contains is not supported on %s.%s", kind, p.Field)
		}
		c.subqueries++
		pm := fmt.Sprintf("pm%d", c.subqueries)
		return fmt.Sprintf(
			"EXISTS (SELECT 1 FROM project_members %s WHERE %s.project_id = %s.id AND %s.user_id = %s)",
			pm, pm, alias, pm, c.bind(p.Value),
		), nil

	case scope.In:
		col, err := c.column(kind, alias, p.Field)
		if err != nil {
			return "", err
		}
		def, ok := tables[p.Sub.Kind]
		if !ok {
			return "", errors.Errorf("unknown kind %q", p.Sub.Kind)
		}
		c.subqueries++
		sub := fmt.Sprintf("s%d", c.subqueries)
		selected, err := c.column(p.Sub.Kind, sub, p.Sub.Select)
		if err != nil {
			return "", err
		}
		where, err := c.compile(p.Sub.Kind, sub, p.Sub.Where)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s IN (SELECT %s FROM %s %s WHERE %s)", col, selected, def.name, sub, where), nil

	case scope.And:
		return c.join(kind, alias, p, " AND ", "TRUE")

	case scope.Or:
		return c.join(kind, alias, p, " OR ", "FALSE")

	case nil:
		return "", errors.New("nil predicate")

	default:
		return "", errors.Errorf("unsupported predicate %T", pred)
	}
}

func (c *sqlCompiler) join(kind scope.Kind, alias string, terms []scope.Predicate, sep, empty string) (string, error) {
	if len(terms) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		sql, err := c.compile(kind, alias, t)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}
