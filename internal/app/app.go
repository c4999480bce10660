// Package app builds the object graph shared by cmd/api and cmd/sideline.
// Exactly one gateway and one caller limiter exist per process; every
// schedule-provider consumer reaches the provider through them.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/albapepper/sideline/internal/cache"
	"github.com/albapepper/sideline/internal/config"
	"github.com/albapepper/sideline/internal/db"
	"github.com/albapepper/sideline/internal/gateway"
	"github.com/albapepper/sideline/internal/matcher"
	"github.com/albapepper/sideline/internal/provider/schedule"
	"github.com/albapepper/sideline/internal/ratelimit"
	"github.com/albapepper/sideline/internal/reconcile"
	"github.com/albapepper/sideline/internal/secret"
	"github.com/albapepper/sideline/internal/store"
	"github.com/albapepper/sideline/internal/video"
)

// App is the wired service.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Pool  *db.Pool // nil on the in-memory store
	Store *store.Store
	Box   *secret.Box // nil without CREDENTIAL_KEY
	Cache *cache.Cache

	Gateway       *gateway.Gateway
	CallerLimiter *ratelimit.SlidingWindow
	Scraper       *schedule.Scraper

	Video  *video.Service
	Authed *video.Authed

	Matcher   *matcher.Matcher
	Lives     *reconcile.Lives
	Replays   *reconcile.Replays
	Permanent *reconcile.Permanent
}

// New connects to the database (unless memory is set) and wires every
// component.
func New(ctx context.Context, cfg *config.Config, memory bool, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	if memory {
		a.Store = store.New(store.NewMemory())
		logger.Info("Using in-memory document store")
	} else {
		pool, err := db.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.Pool = pool
		a.Store = store.New(store.NewPostgres(pool.Pool))
		logger.Info("Database connected",
			"min_conns", cfg.DBPoolMinConns,
			"max_conns", cfg.DBPoolMaxConns)
	}

	box, err := secret.New(cfg.CredentialKey)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load credential key: %w", err)
	}
	if box == nil {
		logger.Warn("CREDENTIAL_KEY not set; token refresh is disabled")
	}
	a.Box = box

	a.Cache = cache.New(cfg.CacheEnabled, cfg.CacheTTL)

	// Schedule provider: one gateway, one caller window.
	a.Gateway = gateway.New(gateway.Config{
		MinDelay: cfg.GatewayMinDelay,
		DailyCap: cfg.GatewayDailyCap,
	}, logger)
	a.CallerLimiter = ratelimit.NewSlidingWindow(cfg.ScheduleCallerLimit, cfg.ScheduleCallerWindow)
	client := schedule.NewClient(cfg.ScheduleAPIURL, a.Gateway, a.CallerLimiter, logger)
	a.Scraper = schedule.NewScraper(client, a.Store, cfg.SchoolName, logger)

	// Video platform
	vc := video.NewClient(cfg.VideoBaseURL, cfg.VideoRequestsPerSecond, logger)
	a.Authed = video.NewAuthed(a.Store, box, vc, logger)
	a.Video = video.NewService(vc, a.Authed, logger)

	// Domain
	guard := &reconcile.Guard{}
	a.Matcher = matcher.New(a.Store, a.Scraper, cfg.MatchWindow, logger)
	a.Lives = reconcile.NewLives(a.Store, a.Video, a.Cache, guard, cfg.SchoolName, cfg.MaxTags, logger)
	a.Replays = reconcile.NewReplays(a.Store, a.Video, guard, cfg.SchoolName, logger)
	a.Permanent = reconcile.NewPermanent(a.Store, a.Video, guard, cfg.SchoolName, cfg.MaxTags, logger)

	return a, nil
}

// Close releases the database pool.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}
