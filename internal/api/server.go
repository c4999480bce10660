// Package api assembles the HTTP surface: middleware, CORS, rate limiting,
// and routes onto the handler package.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/albapepper/sideline/internal/api/handler"
	"github.com/albapepper/sideline/internal/config"
	"github.com/albapepper/sideline/internal/ratelimit"
)

// NewRouter creates and configures the Chi router with all middleware and
// routes. limiter may be nil when route rate limiting is disabled.
func NewRouter(h *handler.Handler, limiter *ratelimit.SlidingWindow, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Recoverer)

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "If-None-Match", handler.SnifferHeader},
		ExposedHeaders:   []string{"X-Process-Time", "ETag", "Retry-After", "X-RateLimit-Remaining"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
		r.Get("/gateway", h.HealthCheckGateway)
	})

	// Prometheus
	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI, backed by the document registered in package docs
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
		httpSwagger.DocExpansion("list"),
	))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitEnabled && limiter != nil {
			r.Use(RateLimitMiddleware(limiter, cfg.RateLimitWindow))
		}

		// Recordings
		r.Post("/recordings/match", h.MatchRecording)

		// Sniffers
		r.Put("/sniffers/{snifferID}/cameras", h.PutCameras)

		// Teams
		r.Route("/teams/{teamID}", func(r chi.Router) {
			r.Put("/mapping", h.PutMapping)
			r.Get("/schedule", h.GetSchedule)
			r.Post("/refresh", h.RefreshTeam)
			r.Post("/permanent-live", h.EnsurePermanentLive)
		})

		// Thumbnails
		r.Get("/games/{gameID}/thumbnail", h.GetThumbnail)
		r.Put("/games/{gameID}/thumbnail", h.PutThumbnail)

		// Reconciliation
		r.Post("/reconcile/lives", h.ReconcileLives)
		r.Post("/reconcile/replays", h.ReconcileReplays)
	})

	return r
}
