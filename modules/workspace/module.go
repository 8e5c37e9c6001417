package workspace

import (
	"time"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/scoring"
	"github.com/jacksonlee411/taskgrid/modules/workspace/handlers"
	"github.com/jacksonlee411/taskgrid/modules/workspace/infrastructure/persistence"
	"github.com/jacksonlee411/taskgrid/modules/workspace/presentation/controllers"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
	"github.com/jacksonlee411/taskgrid/pkg/aggcache"
	"github.com/jacksonlee411/taskgrid/pkg/application"
	"github.com/jacksonlee411/taskgrid/pkg/authn"
	"github.com/jacksonlee411/taskgrid/pkg/eventstream"
)

type ModuleOptions struct {
	Repositories services.Repositories
	Authorizer   services.Authorizer
	Tokens       *authn.Issuer
	Cache        aggcache.Store
	// Stream receives task and performance events. Nil disables forwarding.
	Stream eventstream.Publisher

	Scoring        scoring.Policy
	ScoringAsync   bool
	ScoringTimeout time.Duration

	InviteTTL         time.Duration
	ImpersonateHeader string
}

func NewModule(opts *ModuleOptions) *Module {
	return &Module{options: opts}
}

type Module struct {
	options     *ModuleOptions
	performance *services.PerformanceService
	stream      *handlers.StreamEventsHandler
}

func (m *Module) Register(app application.Application) error {
	if err := app.Migrations().RegisterSchema(persistence.SchemaFS, persistence.SchemaDir); err != nil {
		return err
	}

	opts := m.options
	repos := opts.Repositories
	bus := app.EventPublisher()

	m.performance = services.NewPerformanceService(repos, bus, opts.Scoring, opts.ScoringTimeout, app.Logger())
	app.RegisterServices(
		services.NewOnboardingService(repos, opts.Authorizer, opts.Tokens, opts.InviteTTL),
		services.NewUserService(repos, opts.Authorizer),
		services.NewTeamService(repos, opts.Authorizer),
		services.NewProjectService(repos, opts.Authorizer, bus),
		services.NewTaskService(repos, opts.Authorizer, bus, opts.Cache),
		services.NewImpersonationService(repos, opts.Authorizer),
		m.performance,
		controllers.NewSession(opts.Tokens, opts.ImpersonateHeader),
	)

	app.RegisterControllers(
		controllers.NewAccountController(app),
		controllers.NewTeamController(app),
		controllers.NewUserController(app),
		controllers.NewProjectController(app),
		controllers.NewTaskController(app),
	)

	handlers.RegisterCacheEventHandlers(app, opts.Cache)
	handlers.RegisterScoringEventHandlers(app, m.performance, opts.ScoringAsync)
	if opts.Stream != nil {
		m.stream = handlers.RegisterStreamEventHandlers(app, opts.Stream)
	}
	return nil
}

func (m *Module) Name() string {
	return "workspace"
}

// Shutdown waits for background scoring and flushes the event stream.
func (m *Module) Shutdown() error {
	if m.performance != nil {
		m.performance.Wait()
	}
	if m.stream != nil {
		return m.stream.Close()
	}
	return nil
}
