package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/menuwatch/menuwatch/alert"
	"github.com/menuwatch/menuwatch/api"
	"github.com/menuwatch/menuwatch/config"
	"github.com/menuwatch/menuwatch/metrics"
	"github.com/menuwatch/menuwatch/sched"
	"github.com/menuwatch/menuwatch/scraper"
	"github.com/menuwatch/menuwatch/session"
	"github.com/menuwatch/menuwatch/store"
	"github.com/menuwatch/menuwatch/tracker"
	"github.com/menuwatch/menuwatch/worker"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("menuwatch starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"workers", cfg.Worker.Workers,
		"remote_browser", cfg.Session.ProviderToken != "",
	)

	// ── 3. Initialise metrics and state ─────────────────────────────
	met := metrics.New()
	menus := store.NewMenuStore(slog.Default())
	sources := store.NewSourceRegistry()

	tr, err := tracker.New(cfg.Tracker.MaxJobs, slog.Default())
	if err != nil {
		slog.Error("failed to initialise job tracker", "error", err)
		os.Exit(1)
	}

	// ── 4. Wire the scrape pipeline ─────────────────────────────────
	var notifier worker.Notifier
	if cfg.Alert.WebhookURL != "" {
		notifier = alert.NewNotifier(cfg.Alert.WebhookURL, cfg.Alert.WebhookSecret)
	}

	orch := worker.NewOrchestrator(
		cfg.Scraper,
		cfg.Session,
		tr,
		menus,
		sources,
		store.StaticMapper{},
		scraper.NewDriver(cfg.Scraper),
		session.Factory(cfg.Session, met),
		met,
		notifier,
		slog.Default(),
	)

	pool := worker.NewPool(orch, cfg.Worker.Workers, cfg.Worker.QueueSize, slog.Default())
	ctx, stopWorkers := context.WithCancel(context.Background())
	pool.Start(ctx)

	// ── 5. Start the scheduled sweep ────────────────────────────────
	var scheduler *sched.Scheduler
	if cfg.Sched.Enabled {
		scheduler, err = sched.New(cfg.Sched, sources, tr, pool, slog.Default())
		if err != nil {
			slog.Error("failed to initialise scheduler", "error", err)
			os.Exit(1)
		}
		scheduler.Start(ctx)
	}

	// ── 6. Setup router and HTTP server ─────────────────────────────
	router := api.NewRouter(api.Deps{
		Tracker:   tr,
		Pool:      pool,
		Sources:   sources,
		Menus:     menus,
		Scheduler: scheduler,
		Registry:  met.Registry,
		StartTime: time.Now(),
	}, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	if scheduler != nil {
		scheduler.Stop()
	}
	pool.Shutdown()
	stopWorkers()

	slog.Info("menuwatch stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
