package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacksonlee411/taskgrid/internal/server"
	"github.com/jacksonlee411/taskgrid/pkg/application"
)

func newMigrateCmd(load ConfigLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrations(cmd.Context(), load, func(rt *server.Runtime, db *sql.DB) error {
					return rt.App.Migrations().Up(cmd.Context(), db, rt.Config.Logger().WithField("component", "migrations"))
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrations(cmd.Context(), load, func(rt *server.Runtime, db *sql.DB) error {
					return rt.App.Migrations().Down(cmd.Context(), db, rt.Config.Logger().WithField("component", "migrations"))
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrations(cmd.Context(), load, func(rt *server.Runtime, db *sql.DB) error {
					statuses, err := rt.App.Migrations().Status(cmd.Context(), db)
					if err != nil {
						return err
					}
					for _, s := range statuses {
						state := "pending"
						if s.Applied {
							state = "applied"
						}
						fmt.Fprintf(cmd.OutOrStdout(), "%-8s %d %s\n", state, s.Version, s.Path)
					}
					return nil
				})
			},
		},
	)
	return cmd
}

func withMigrations(ctx context.Context, load ConfigLoader, fn func(rt *server.Runtime, db *sql.DB) error) error {
	conf, err := load()
	if err != nil {
		return err
	}
	if conf.StorageBackend != "postgres" {
		return fmt.Errorf("migrate: STORAGE_BACKEND=%s has no schema", conf.StorageBackend)
	}
	rt, err := server.NewRuntime(ctx, conf)
	if err != nil {
		return err
	}
	defer rt.Close()

	db, err := application.Open(conf.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(rt, db)
}
