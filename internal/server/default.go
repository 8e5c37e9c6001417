package server

import (
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/taskgrid/pkg/application"
	"github.com/jacksonlee411/taskgrid/pkg/configuration"
	"github.com/jacksonlee411/taskgrid/pkg/metrics"
	"github.com/jacksonlee411/taskgrid/pkg/middleware"
	"github.com/jacksonlee411/taskgrid/pkg/routing"
	"github.com/jacksonlee411/taskgrid/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

// Default installs the request middleware stack and the operational controllers,
// then builds the HTTP server over every registered controller.
func Default(options *DefaultOptions) *server.HTTPServer {
	app := options.Application
	conf := options.Configuration

	loggerOpts := middleware.DefaultLoggerOptions()
	if conf.RequestIDHeader != "" {
		loggerOpts.RequestIDHeader = conf.RequestIDHeader
	}
	if rules, err := routing.LoadAllowlist("", "server"); err != nil {
		options.Logger.WithError(err).Warn("routing: allowlist unavailable, requests are logged without a route class")
	} else {
		loggerOpts.Classifier = routing.NewClassifier(rules)
	}
	app.RegisterMiddleware([]mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger, loggerOpts),
		middleware.ProvidePool(options.Pool),
	}...)

	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}
	return server.NewHTTPServer(app, conf.CORSAllowedOrigins)
}
