package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jacksonlee411/taskgrid/internal/server"
	"github.com/jacksonlee411/taskgrid/pkg/configuration"
)

const shutdownTimeout = 15 * time.Second

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	rt, err := server.NewRuntime(bootCtx, conf)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer rt.Close()

	if conf.MigrationsAuto {
		if err := rt.Migrate(bootCtx); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
	}

	serverInstance := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   rt.App,
		Pool:          rt.Pool,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on: %s", conf.SocketAddress)
		errCh <- serverInstance.Start(conf.SocketAddress)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Error("server stopped")
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := serverInstance.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("graceful shutdown failed")
		}
	}
}
