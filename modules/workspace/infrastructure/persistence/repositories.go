package persistence

import (
	"context"
	"embed"

	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
	"github.com/jacksonlee411/taskgrid/pkg/composables"
)

//go:embed schema/*.sql
var SchemaFS embed.FS

const SchemaDir = "schema"

type pgTransactor struct{}

func (pgTransactor) InTx(ctx context.Context, fn func(context.Context) error) error {
	return composables.InTx(ctx, fn)
}

// NewPostgresRepositories wires the pgx repositories. They resolve their connection
// from the context, so callers must attach a pool with composables.WithPool.
func NewPostgresRepositories() services.Repositories {
	return services.Repositories{
		Users:         NewUserRepository(),
		Tasks:         NewTaskRepository(),
		Projects:      NewProjectRepository(),
		Teams:         NewTeamRepository(),
		Organizations: NewOrganizationRepository(),
		Invites:       NewInviteRepository(),
		Audit:         NewAuditRepository(),
		Tx:            pgTransactor{},
	}
}

func NewMemoryRepositories() services.Repositories {
	return NewMemoryStore().Repositories()
}
