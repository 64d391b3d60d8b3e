// Package app is the composition root: it wires the remote client,
// location index, aggregator, queue, watcher, and HTTP surface together.
package app

import (
	"context"
	"errors"
	"log"
	"net/http"

	"rollout_dashboard/internal/clickup"
	"rollout_dashboard/internal/config"
	"rollout_dashboard/internal/dashboard"
	"rollout_dashboard/internal/events"
	"rollout_dashboard/internal/httpapi"
	"rollout_dashboard/internal/location"
	"rollout_dashboard/internal/watch"
	"rollout_dashboard/metrics"
	"rollout_dashboard/queue"
)

// App holds the wired components.
type App struct {
	cfg        config.Config
	client     *clickup.Client
	locations  *location.Provider
	aggregator *dashboard.Aggregator
	pool       *queue.Queue
	watcher    *watch.Watcher
	bus        *events.Bus
	mux        *http.ServeMux
}

func New(cfg config.Config) *App {
	bus := events.NewBus()
	stats := metrics.New()
	pool := queue.New(cfg.QueueSize, cfg.WorkerCount, cfg.RequestTimeout, stats)

	client := clickup.New(cfg)
	locations := location.NewProvider(client, cfg.IntakeListID)
	fields := clickup.FieldIDs{Phase: cfg.PhaseFieldID, Percent: cfg.PercentFieldID}
	aggregator := dashboard.NewAggregator(client, locations, fields, pool, bus, cfg.CacheTTL)
	watcher := watch.New(cfg, aggregator, bus)

	mux := http.NewServeMux()
	router := httpapi.NewRouter(cfg, aggregator, client, locations, pool, bus)
	router.Register(mux)

	return &App{
		cfg:        cfg,
		client:     client,
		locations:  locations,
		aggregator: aggregator,
		pool:       pool,
		watcher:    watcher,
		bus:        bus,
		mux:        mux,
	}
}

// Run starts the worker pool, watcher, and HTTP server, then blocks until
// the context is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.pool.Start(ctx)
	defer a.pool.Stop(context.Background())

	if err := a.watcher.Start(ctx); err != nil {
		// A missing config directory should not keep the service down.
		log.Printf("app: watcher start failed: %v", err)
	}

	if st := a.client.TestConnection(ctx); !st.Success {
		log.Printf("app: task API unreachable at startup: %s", st.Error)
	} else {
		log.Printf("app: task API reachable, %d workspaces visible", len(st.Teams))
	}

	srv := &http.Server{Addr: a.cfg.HTTPPort, Handler: a.mux}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	log.Printf("http listening on %s", a.cfg.HTTPPort)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Aggregator() *dashboard.Aggregator { return a.aggregator }
func (a *App) Locations() *location.Provider     { return a.locations }
func (a *App) Mux() *http.ServeMux               { return a.mux }
