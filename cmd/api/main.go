// Command api is the Sideline API server: recording matching, team and
// camera administration, reconciliation triggers, the recording-start
// listener, and the cron jobs.
//
// Usage:
//
//	sideline-api
//	API_PORT=8080 sideline-api
//	sideline-api --memory
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/sideline/internal/api"
	"github.com/albapepper/sideline/internal/api/handler"
	"github.com/albapepper/sideline/internal/app"
	"github.com/albapepper/sideline/internal/config"
	"github.com/albapepper/sideline/internal/jobs"
	"github.com/albapepper/sideline/internal/listener"
	"github.com/albapepper/sideline/internal/ratelimit"

	_ "github.com/albapepper/sideline/docs" // swagger docs
)

func main() {
	memory := flag.Bool("memory", false, "use the in-memory store (no database, no listener)")
	flag.Parse()

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	var cfg *config.Config
	if *memory {
		cfg = config.LoadWithoutDatabase()
	} else {
		var err error
		cfg, err = config.Load()
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	a, err := app.New(ctx, cfg, *memory, logger)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// Thumbnail eviction
	go a.Cache.Run(ctx, time.Hour)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled, "ttl", cfg.CacheTTL)

	// Start LISTEN/NOTIFY consumer for recording-start events
	if a.Pool != nil {
		go listener.Start(ctx, cfg.DatabaseURL, a.Matcher, logger)
	}

	// Route limiter, swept by the jobs runner along with the caller limiter
	routeLimiter := ratelimit.NewSlidingWindow(cfg.RateLimitRequests, cfg.RateLimitWindow)

	runner, err := jobs.New(jobs.Config{
		ScheduleRefresh: cfg.ScheduleRefreshCron,
		LiveReconcile:   cfg.LiveReconcileCron,
		ReplayReconcile: cfg.ReplayReconcileCron,
	}, jobs.Tasks{
		Mappings:  a.Store,
		Refresher: a.Scraper,
		Lives:     a.Lives,
		Replays:   a.Replays,
		Sweep: func(now time.Time) int {
			return routeLimiter.Sweep(now) + a.CallerLimiter.Sweep(now)
		},
	}, logger)
	if err != nil {
		logger.Error("Failed to schedule jobs", "error", err)
		os.Exit(1)
	}
	go runner.Run(ctx)

	// Create router
	deps := handler.Deps{
		Store:     a.Store,
		Cache:     a.Cache,
		Gateway:   a.Gateway,
		Matcher:   a.Matcher,
		Refresher: a.Scraper,
		Lives:     a.Lives,
		Replays:   a.Replays,
		Permanent: a.Permanent,
	}
	if a.Pool != nil {
		deps.DB = a.Pool
	}
	router := api.NewRouter(handler.New(deps), routeLimiter, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute, // reconcile triggers run inline
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Sideline API",
			"addr", addr,
			"environment", cfg.Environment,
			"memory", *memory,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
