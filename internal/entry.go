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

	"github.com/DanielLetto2020/Letto-Dashboard/internal/api"
	"github.com/DanielLetto2020/Letto-Dashboard/internal/auth"
	"github.com/DanielLetto2020/Letto-Dashboard/internal/backup"
	"github.com/DanielLetto2020/Letto-Dashboard/internal/heartbeat"
	"github.com/DanielLetto2020/Letto-Dashboard/internal/probe"
	"github.com/DanielLetto2020/Letto-Dashboard/internal/sse"
	"github.com/DanielLetto2020/Letto-Dashboard/internal/status"
	"github.com/DanielLetto2020/Letto-Dashboard/internal/translate"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("workspace_root", cfg.Workspace.Root),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure workspace directory exists.
	if err := os.MkdirAll(cfg.Workspace.Root, 0o755); err != nil {
		return fmt.Errorf("create workspace dir: %w", err)
	}

	// Token gate.
	gate := auth.NewGate(cfg.Auth.MasterKey, cfg.Auth.TokenFile)

	// Probe set.
	tree, err := probe.NewTree(cfg.Workspace.Root, cfg.Workspace.SystemRoot,
		cfg.Workspace.MarkerFile, cfg.Workspace.MaxTreeDepth, logger)
	if err != nil {
		return fmt.Errorf("init tree walker: %w", err)
	}
	gitProbe := probe.NewGit(cfg.Probes.GitRoot, logger)
	jobs := probe.NewJobs(cfg.Jobs.File, cfg.Jobs.TTL(), logger)
	hb := heartbeat.NewStore(cfg.Workspace.HeartbeatPath(), cfg.Workspace.MarkerPath())

	var rules []probe.LabelRule
	for _, r := range cfg.Probes.Rules {
		rules = append(rules, probe.LabelRule{Match: r.Match, Label: r.Label})
	}

	aggregator := status.New(status.Probes{
		Host:      probe.NewHost(cfg.Probes.DiskPath, logger),
		Agents:    probe.NewAgents(rules, cfg.Probes.Watch, logger),
		Git:       gitProbe,
		Tree:      tree,
		Session:   probe.NewSession(cfg.Session.CLI, cfg.Session.Marker, cfg.Session.CacheFile, logger),
		Jobs:      jobs,
		Heartbeat: hb,
	}, cfg.Probes.Timeout(), logger)

	// Push channel for change hints.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// API surface.
	handler := api.NewHandler(
		aggregator,
		hb,
		tree,
		backup.NewArchiver(cfg.Workspace.Root, cfg.Workspace.MarkerFile, cfg.Backup.Include, logger),
		translate.NewClient(cfg.Translate.Endpoint, cfg.Translate.Target, cfg.Translate.ChunkSize, logger),
		probe.NewProjects(cfg.Workspace.ProjectsPath(), gitProbe, logger),
	)
	apiRouter := api.NewRouter(gate, handler, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the scheduler's jobs file so the TTL cache refreshes early and
	// connected clients hear about the change.
	g.Go(func() error {
		if err := probe.WatchFile(gCtx, cfg.Jobs.File, logger, func() {
			jobs.Invalidate()
			broker.PublishChange("jobs.updated")
		}); err != nil {
			logger.Warn("jobs watcher unavailable", slog.String("error", err.Error()))
		}
		return nil
	})

	// Watch the heartbeat blob for out-of-band edits.
	g.Go(func() error {
		if err := probe.WatchFile(gCtx, cfg.Workspace.HeartbeatPath(), logger, func() {
			broker.PublishChange("heartbeat.updated")
		}); err != nil {
			logger.Warn("heartbeat watcher unavailable", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
