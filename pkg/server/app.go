package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"GrowthSim/internal/domain/repository"
	"GrowthSim/internal/handler/ws"
	"GrowthSim/internal/usecase"
	"GrowthSim/pkg/config"
	xhttp "GrowthSim/pkg/http"
	applogger "GrowthSim/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	sim        *usecase.Simulator
	source     repository.ObservationSource
	handler    xhttp.Handler
	publisher  repository.Publisher
	store      repository.SnapshotStore
	hub        *ws.Hub
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	sim *usecase.Simulator,
	source repository.ObservationSource,
	handler xhttp.Handler,
	publisher repository.Publisher,
	store repository.SnapshotStore,
	hub *ws.Hub,
) *App {
	return &App{
		cfg:       cfg,
		log:       l,
		sim:       sim,
		source:    source,
		handler:   handler,
		publisher: publisher,
		store:     store,
		hub:       hub,
	}
}

// Run starts the application and blocks until interrupted. The series feed
// may exhaust long before shutdown; the HTTP surface keeps serving the final
// state either way.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(a.cfg.Server.CORS),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	go func() {
		if err := a.sim.Run(ctx, a.source); err != nil {
			a.log.Error("simulation error", applogger.Error(err))
			return
		}
		a.log.Info("series exhausted, serving final state",
			applogger.String("series_file", a.cfg.Simulation.SeriesFile))
	}()
	a.log.Info("simulation started",
		applogger.String("series_file", a.cfg.Simulation.SeriesFile),
		applogger.String("method", a.cfg.Simulation.Method),
		applogger.String("policy", a.cfg.Simulation.Policy))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown(context.Background())
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.hub != nil {
		if err := a.hub.Close(); err != nil {
			a.log.Warn("websocket hub close error", applogger.Error(err))
		}
	}
	if a.source != nil {
		a.source.Close()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("snapshot store close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
