// Package app assembles the scoring service: store, dispatcher,
// services, scoring backend and the HTTP surface.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ibsc/brickscore/external/eventhub"
	"github.com/ibsc/brickscore/internal/config"
	"github.com/ibsc/brickscore/internal/infrastructure/repository/sqlite"
	"github.com/ibsc/brickscore/internal/infrastructure/syncqueue"
	"github.com/ibsc/brickscore/internal/interfaces/httpapi"
	"github.com/ibsc/brickscore/internal/platform/logging"
	"github.com/ibsc/brickscore/internal/platform/resilience"
	"github.com/ibsc/brickscore/internal/usecase"
)

// App holds everything main needs to run and shut down cleanly.
type App struct {
	Server     *http.Server
	Store      *sqlite.Store
	Dispatcher *syncqueue.Dispatcher
}

func New(ctx context.Context, cfg config.Config, appVersion string, logger *logging.Logger, slogger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if slogger == nil {
		slogger = slog.Default()
	}

	store, err := sqlite.Open(ctx, sqlite.Config{
		Dir:         cfg.DataDir,
		AppVersion:  appVersion,
		PackVersion: cfg.PackVersion,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}

	dispatcher := syncqueue.New(logger, nil)
	if err := dispatcher.Start(); err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("start sync dispatcher: %w", err)
	}
	if cfg.SyncConfigured() {
		dispatcher.Configure(syncqueue.Credentials{
			SyncURL:   cfg.ReflectorSyncURL,
			EventCode: cfg.ReflectorEventCode,
			APIKey:    cfg.ReflectorAPIKey,
			Timeout:   cfg.ReflectorTimeout,
		})
	}

	events := usecase.NewEventService(store, store, dispatcher, logger)
	if err := events.Load(ctx); err != nil {
		dispatcher.Stop()
		_ = store.Close(ctx)
		return nil, fmt.Errorf("restore event state: %w", err)
	}

	reports := usecase.NewCycleReportService(store)

	// The scoresheet feature is all-or-nothing per session: if the
	// scoring service cannot be reached now, the route stays disabled
	// rather than failing referees mid-sheet.
	var scorer httpapi.ScoresheetScorer
	if cfg.EventHubEnabled {
		client := eventhub.NewClient(eventhub.ClientConfig{
			CommandsURL: cfg.EventHubCommandsURL,
			Timeout:     cfg.EventHubTimeout,
			Logger:      logger,
			CircuitBreaker: resilience.Config{
				Enabled:          cfg.EventHubCircuitEnabled,
				FailureThreshold: cfg.EventHubCircuitFailureCount,
				OpenTimeout:      cfg.EventHubCircuitOpenTimeout,
				HalfOpenProbes:   cfg.EventHubCircuitProbes,
			},
		})
		if err := client.Probe(ctx); err != nil {
			logger.Warn("scoresheet scoring disabled for this session", "error", err)
		} else {
			scorer = client
		}
	}

	handler := httpapi.NewHandler(events, reports, scorer, slogger)
	router := httpapi.NewRouter(handler, slogger)

	if cfg.HTTPAddr == "" {
		dispatcher.Stop()
		_ = store.Close(ctx)
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		Store:      store,
		Dispatcher: dispatcher,
	}, nil
}

// Shutdown drains the dispatcher and closes the store after the HTTP
// server has stopped accepting work.
func (a *App) Shutdown(ctx context.Context) error {
	a.Dispatcher.Stop()
	a.Dispatcher.Wait()

	if err := a.Store.Close(ctx); err != nil {
		return fmt.Errorf("close event store: %w", err)
	}
	return nil
}
