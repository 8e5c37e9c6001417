package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/scope"
	"github.com/jacksonlee411/taskgrid/modules/workspace/infrastructure/persistence"
)

func newScopeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scope",
		Short: "Inspect data scoping rules",
	}

	var role, kind, userID, orgID, teamID string
	explain := &cobra.Command{
		Use:   "explain",
		Short: "Print the predicate and SQL a principal's queries are restricted by",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := hierarchy.Principal{Role: hierarchy.Role(role)}
			var err error
			if p.ID, err = parseOptionalID(userID, true); err != nil {
				return fmt.Errorf("scope: --user: %w", err)
			}
			if p.OrganizationID, err = parseOptionalID(orgID, true); err != nil {
				return fmt.Errorf("scope: --org: %w", err)
			}
			if p.TeamID, err = parseOptionalID(teamID, false); err != nil {
				return fmt.Errorf("scope: --team: %w", err)
			}

			pred, err := scope.Resolve(p, scope.Kind(kind), scope.Filters{})
			if err != nil {
				return err
			}
			where, sqlArgs, err := persistence.CompilePredicate(scope.Kind(kind), "t", pred, nil)
			if err != nil {
				return err
			}
			args := make([]string, 0, len(sqlArgs))
			for _, a := range sqlArgs {
				args = append(args, fmt.Sprint(a))
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"predicate": scope.Explain(pred),
				"sql":       where,
				"args":      args,
			})
		},
	}
	explain.Flags().StringVar(&role, "role", "", "super_admin, team_admin, manager or employee")
	explain.Flags().StringVar(&kind, "kind", string(scope.KindTask), "task, project or user")
	explain.Flags().StringVar(&userID, "user", "", "user id (random when empty)")
	explain.Flags().StringVar(&orgID, "org", "", "organization id (random when empty)")
	explain.Flags().StringVar(&teamID, "team", "", "team id")
	_ = explain.MarkFlagRequired("role")

	cmd.AddCommand(explain)
	return cmd
}

func parseOptionalID(s string, random bool) (uuid.UUID, error) {
	if s == "" {
		if random {
			return uuid.New(), nil
		}
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}
