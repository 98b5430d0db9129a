// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/grove/internal/api"
	"github.com/starford/grove/internal/garden"
	"github.com/starford/grove/internal/index"
	"github.com/starford/grove/internal/logging"
	"github.com/starford/grove/internal/sse"
	"github.com/starford/grove/internal/storage"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", logOutput: os.Stderr}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// Garden is a loaded garden service plus the resources backing it.
type Garden struct {
	Service *garden.Service
	Logger  *slog.Logger
	Config  *Config
	Version string

	db *index.DB
}

// Close releases the index database, if any.
func (g *Garden) Close() error {
	if g.db == nil {
		return nil
	}
	return g.db.Close()
}

// Open builds the logger, storage, index and garden service described by
// the options and performs the initial load.
func Open(ctx context.Context, opts ...Option) (*Garden, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	cfg := app.config

	logger, err := logging.New(app.logOutput, cfg.App.LogLevel, cfg.App.LogFormat)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("version", app.version),
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("base_path", cfg.Garden.BasePath),
		slog.String("render_mode", string(cfg.Garden.RenderMode)),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	store, err := storage.CreateFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	g := &Garden{Logger: logger, Config: cfg, Version: app.version}
	gopts := []garden.Option{
		garden.WithBasePath(cfg.Garden.BasePath),
		garden.WithRenderMode(cfg.Garden.RenderMode),
		garden.WithLogger(logger),
	}
	if cfg.SQLite.Enabled() {
		db, err := index.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init index: %w", err)
		}
		g.db = db
		gopts = append(gopts, garden.WithIndex(db))
	}

	g.Service = garden.New(store, gopts...)
	if _, err := g.Service.Reload(ctx); err != nil {
		g.Close()
		return nil, fmt.Errorf("initial load: %w", err)
	}
	return g, nil
}

// newHandler assembles the top-level router: middleware, health checks and
// the API mounted under /api.
func newHandler(svc *garden.Service, broker *sse.Broker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if svc.LoadedAt().IsZero() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"loading"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	var events http.Handler
	if broker != nil {
		events = broker
	}
	r.Mount("/api", api.NewRouter(svc, events))
	return r
}

// reloadAndPublish reloads the garden and forwards what changed to SSE
// subscribers.
func reloadAndPublish(ctx context.Context, svc *garden.Service, broker *sse.Broker, logger *slog.Logger) {
	changes, err := svc.Reload(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Error("reload failed", slog.String("error", err.Error()))
		}
		return
	}
	if changes.Empty() {
		return
	}
	broker.PublishBatch(sse.Batch{
		Created: changes.Created,
		Updated: changes.Updated,
		Deleted: changes.Deleted,
	})
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	g, err := Open(ctx, opts...)
	if err != nil {
		return err
	}
	defer g.Close()

	cfg, logger, svc := g.Config, g.Logger, g.Service

	// SSE broker.
	broker := sse.NewBroker(cfg.SSE.GraphThrottle)
	defer broker.Close()

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newHandler(svc, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	eg, gCtx := errgroup.WithContext(ctx)

	// Start file watcher; every quiet burst of edits triggers a reload.
	eg.Go(func() error {
		return index.Watch(gCtx, cfg.Vault.Path, index.DefaultDebounce, logger, func(ctx context.Context) {
			reloadAndPublish(ctx, svc, broker, logger)
		})
	})

	// Start HTTP server.
	eg.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	eg.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Close the broker first so open SSE streams end and Shutdown
		// does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := eg.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
