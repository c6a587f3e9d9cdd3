package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odvcencio/scribe/pkg/config"
	scribeerrors "github.com/odvcencio/scribe/pkg/errors"
	"github.com/odvcencio/scribe/pkg/logging"
	"github.com/odvcencio/scribe/pkg/storage"
	"github.com/odvcencio/scribe/pkg/telemetry"
)

// app holds what every editing or replaying command shares: config, the
// session logger, the telemetry hub and the catalog that listens to it.
type app struct {
	cfg    *config.Config
	id     string
	logger *logging.Logger
	hub    *telemetry.Hub
	store  *storage.Store
	tracer *telemetry.TracerProvider

	catalogDone chan struct{}
	closeOnce   sync.Once
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if globals.configPath != "" {
		cfg, err = config.LoadFromPath(globals.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if globals.metricsAddr != "" {
		cfg.Metrics.Addr = globals.metricsAddr
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// openApp loads config and starts logging, the catalog and tracing for the
// session id.
func openApp(id string) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(cfg.Logging.Dir, id)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: session logging disabled: %v\n", err)
		logger = logging.Discard()
	}
	logger.SetMinLevel(logging.ParseLevel(cfg.Logging.Level))

	var store *storage.Store
	if cfg.Storage.Enabled {
		store, err = storage.New(cfg.Storage.DBPath)
		if err != nil {
			_ = logger.Warn(logging.CategoryStorage, "catalog_unavailable", err.Error(), map[string]any{"path": cfg.Storage.DBPath})
			store = nil
		}
	}

	a := newApp(cfg, id, logger, store)

	if globals.trace {
		tp, err := telemetry.NewTracerProvider("scribe", stderr)
		if err != nil {
			a.Close()
			return nil, scribeerrors.Wrap(err, scribeerrors.ErrCodeInternal, "starting tracer")
		}
		a.tracer = tp
	}
	return a, nil
}

// newApp wires the catalog subscriber. store may be nil.
func newApp(cfg *config.Config, id string, logger *logging.Logger, store *storage.Store) *app {
	a := &app{
		cfg:         cfg,
		id:          id,
		logger:      logger,
		hub:         telemetry.NewHub(),
		store:       store,
		catalogDone: make(chan struct{}),
	}
	events, _ := a.hub.Subscribe()
	go func() {
		defer close(a.catalogDone)
		for ev := range events {
			a.catalog(ev)
		}
	}()
	return a
}

// catalog mirrors session lifecycle events into the store.
func (a *app) catalog(ev telemetry.Event) {
	if a.store == nil {
		return
	}
	var err error
	switch ev.Type {
	case telemetry.EventRecordStarted, telemetry.EventReplayStarted:
		mode := "record"
		if ev.Type == telemetry.EventReplayStarted {
			mode = "play"
		}
		logPath, _ := ev.Data["log"].(string)
		err = a.store.CreateSession(&storage.Session{
			ID:        ev.SessionID,
			Mode:      mode,
			LogPath:   logPath,
			Status:    storage.SessionStatusActive,
			StartedAt: ev.Timestamp,
		})
	case telemetry.EventRecordFinished:
		err = a.store.FinishSession(ev.SessionID, storage.SessionStatusCompleted,
			int64Of(ev.Data["events"]), int64Of(ev.Data["bytes"]), nil)
	case telemetry.EventReplayFinished:
		err = a.store.FinishSession(ev.SessionID, storage.SessionStatusCompleted,
			int64Of(ev.Data["dispatched"]), int64Of(ev.Data["offset"]), nil)
	case telemetry.EventRecordFailed, telemetry.EventReplayFailed:
		msg, _ := ev.Data["error"].(string)
		err = a.store.FinishSession(ev.SessionID, storage.SessionStatusFailed,
			int64Of(ev.Data["dispatched"]), int64Of(ev.Data["offset"]), errors.New(msg))
	}
	if err != nil {
		_ = a.logger.Warn(logging.CategoryStorage, "catalog_update_failed", err.Error(), map[string]any{
			"event": string(ev.Type),
		})
	}
}

func int64Of(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// serve runs fn, alongside the metrics endpoint when one is configured.
// Stopping fn stops the endpoint.
func (a *app) serve(ctx context.Context, fn func(context.Context) error) error {
	addr := a.cfg.Metrics.Addr
	if addr == "" {
		return fn(ctx)
	}

	srv := telemetry.NewMetricsServer(addr)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return scribeerrors.Wrap(err, scribeerrors.ErrCodeInternal, "metrics server").WithContext("addr", addr)
		}
		return nil
	})
	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		return fn(gctx)
	})
	_ = a.logger.Info(logging.CategoryUI, "metrics_serving", "", map[string]any{"addr": addr})
	return g.Wait()
}

// Close drains the catalog and releases everything. Safe to call twice.
func (a *app) Close() {
	if a == nil {
		return
	}
	a.closeOnce.Do(func() {
		a.hub.Close()
		<-a.catalogDone
		if a.tracer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = a.tracer.Shutdown(ctx)
			cancel()
		}
		_ = a.store.Close()
		_ = a.logger.Close()
	})
}
