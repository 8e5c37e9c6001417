package server

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jacksonlee411/taskgrid/modules"
	"github.com/jacksonlee411/taskgrid/modules/workspace"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/scoring"
	"github.com/jacksonlee411/taskgrid/modules/workspace/infrastructure/persistence"
	"github.com/jacksonlee411/taskgrid/modules/workspace/services"
	"github.com/jacksonlee411/taskgrid/pkg/aggcache"
	"github.com/jacksonlee411/taskgrid/pkg/application"
	"github.com/jacksonlee411/taskgrid/pkg/authn"
	"github.com/jacksonlee411/taskgrid/pkg/authz"
	"github.com/jacksonlee411/taskgrid/pkg/configuration"
	"github.com/jacksonlee411/taskgrid/pkg/eventbus"
	"github.com/jacksonlee411/taskgrid/pkg/eventstream"
)

// Runtime is a fully wired application for one configuration.
type Runtime struct {
	Config     *configuration.Configuration
	App        application.Application
	Module     *workspace.Module
	Pool       *pgxpool.Pool
	Authorizer *authz.Service
	Tokens     *authn.Issuer
}

// NewRuntime connects storage, cache and the event stream named by conf and
// registers the workspace module.
func NewRuntime(ctx context.Context, conf *configuration.Configuration) (*Runtime, error) {
	logger := conf.Logger()
	rt := &Runtime{Config: conf}

	var repos services.Repositories
	switch conf.StorageBackend {
	case "memory":
		logger.Warn("storage: using the in-memory backend, data is lost on exit")
		repos = persistence.NewMemoryRepositories()
	default:
		poolConfig, err := pgxpool.ParseConfig(conf.Database.ConnectionString())
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		poolConfig.MaxConns = conf.Database.MaxConns
		rt.Pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		repos = persistence.NewPostgresRepositories()
	}

	cache, err := aggcache.New(aggcache.Options{
		Backend:  conf.Cache.Backend,
		TTL:      conf.Cache.TTL,
		RedisURL: conf.Cache.RedisURL,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.Authorizer, err = authz.NewService(authz.ConfigFrom(conf))
	if err != nil {
		rt.Close()
		return nil, err
	}

	secret := conf.JWT.Secret
	if secret == "" {
		logger.Warn("JWT_SECRET is not set; tokens will not survive a restart")
		secret = uuid.NewString()
	}
	rt.Tokens, err = authn.NewIssuer(secret, conf.JWT.Issuer, conf.JWT.TTL)
	if err != nil {
		rt.Close()
		return nil, err
	}

	var stream eventstream.Publisher
	if conf.Kafka.Enabled() {
		stream = eventstream.NewRetrying(eventstream.NewKafkaProducer(conf.Kafka.Brokers, conf.Kafka.Topic), 3, time.Second)
		logger.WithField("topic", conf.Kafka.Topic).Info("eventstream: forwarding to kafka")
	}

	policy := scoring.DefaultPolicy()
	policy.CapacityThreshold = conf.Scoring.CapacityThreshold
	policy.Scale = conf.Scoring.Scale

	rt.App = application.New(&application.ApplicationOptions{
		Pool:     rt.Pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	rt.Module = workspace.NewModule(&workspace.ModuleOptions{
		Repositories:      repos,
		Authorizer:        rt.Authorizer,
		Tokens:            rt.Tokens,
		Cache:             cache,
		Stream:            stream,
		Scoring:           policy,
		ScoringAsync:      conf.Scoring.Async,
		ScoringTimeout:    conf.Scoring.Timeout,
		InviteTTL:         conf.InviteTTL,
		ImpersonateHeader: conf.ImpersonateHeader,
	})
	if err := modules.Load(rt.App, rt.Module); err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to load modules: %w", err)
	}
	return rt, nil
}

// Migrate applies pending schema migrations. It is a no-op for the in-memory backend.
func (rt *Runtime) Migrate(ctx context.Context) error {
	if rt.Pool == nil {
		return nil
	}
	db, err := application.Open(rt.Config.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()
	return rt.App.Migrations().Up(ctx, db, rt.Config.Logger().WithField("component", "migrations"))
}

// Close drains background work and releases connections.
func (rt *Runtime) Close() {
	if rt.Module != nil {
		if err := rt.Module.Shutdown(); err != nil {
			rt.Config.Logger().WithError(err).Warn("eventstream: close failed")
		}
	}
	if rt.Pool != nil {
		rt.Pool.Close()
	}
}
