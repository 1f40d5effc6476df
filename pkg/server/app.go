package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tradevision/internal/repository/postgres"
	"tradevision/internal/service/generator"
	"tradevision/pkg/config"
	xhttp "tradevision/pkg/http"
	applogger "tradevision/pkg/logger"
)

// App encapsulates the application lifecycle.
type App struct {
	cfg        *config.Config
	handler    xhttp.Handler
	gen        *generator.Generator
	pool       *postgres.Pool
	logger     *applogger.Logger
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	handler xhttp.Handler,
	gen *generator.Generator,
	pool *postgres.Pool,
	l *applogger.Logger,
) *App {
	return &App{
		cfg:     cfg,
		handler: handler,
		gen:     gen,
		pool:    pool,
		logger:  l,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler, a.logger,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	if a.cfg.Generator.Enabled {
		if err := a.gen.Start(ctx); err != nil {
			a.logger.Warn("generator start error", applogger.Error(err))
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.gen.Status().Running {
		if err := a.gen.Stop(); err != nil {
			a.logger.Warn("generator stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	a.pool.Close()

	a.logger.Info("shutdown complete")
	return nil
}
