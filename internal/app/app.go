// Package app wires every component into one process: storage connections,
// the Graph Client, the Revision Writer, the Query Layer, the Streaming
// Layer, and the Catalog, then exposes them through the HTTP router from
// internal/http via a New/Run split.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bimatlas/bimatlas/internal/data/db"
	"github.com/bimatlas/bimatlas/internal/observability"
	"github.com/bimatlas/bimatlas/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Config   Config
	Clients  Clients
	Repos    Repos
	Services Services

	server        *http.Server
	otelShutdown  func(context.Context) error
	cancelSweeper context.CancelFunc
}

func New() (*App, error) {
	log, err := logger.New("development")
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	gormDB := pg.DB()

	clients, err := wireClients(context.Background(), log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(gormDB, log, clients.RevCache)
	serviceset := wireServices(gormDB, log, cfg, clients, reposet)
	handlerset := wireHandlers(log, serviceset, clients)
	router := wireRouter(log, cfg, handlerset)

	return &App{
		Log:          log,
		Config:       cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		server:       &http.Server{Addr: ":" + cfg.Port, Handler: router},
		otelShutdown: otelShutdown,
	}, nil
}

// Run starts the HTTP server and the optional reconcile sweeper and blocks
// until ctx is cancelled, then drains both within Config.ShutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	sweepCtx, cancelSweeper := context.WithCancel(context.Background())
	a.cancelSweeper = cancelSweeper
	a.Services.Sweeper.Start(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("server listening", "addr", a.server.Addr)
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
		defer cancel()
		_ = a.server.Shutdown(shutdownCtx)
		a.Close(shutdownCtx)
		return nil
	case err := <-errCh:
		a.Close(context.Background())
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) Close(ctx context.Context) {
	if a.cancelSweeper != nil {
		a.cancelSweeper()
	}
	a.Clients.Close(ctx)
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	a.Log.Sync()
}
