// Package handler provides HTTP handlers for all API endpoints.
// Handlers decode and validate input, call one domain operation, and write
// the result through package respond.
package handler

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/albapepper/sideline/internal/api/respond"
	"github.com/albapepper/sideline/internal/cache"
	"github.com/albapepper/sideline/internal/matcher"
	"github.com/albapepper/sideline/internal/model"
	"github.com/albapepper/sideline/internal/reconcile"
	"github.com/albapepper/sideline/internal/store"
)

// SnifferHeader identifies the calling sniffer. It keys route rate limiting
// and is the caller charged for schedule-provider traffic.
const SnifferHeader = "X-Sniffer-ID"

// CallerKey names the caller of an external request: the sniffer header when
// present, else the client IP. It is never empty, so anonymous requests are
// still charged against the per-caller schedule window.
func CallerKey(r *http.Request) string {
	if id := r.Header.Get(SnifferHeader); id != "" {
		return "sniffer:" + id
	}
	ip, _, _ := net.SplitHostPort(r.RemoteAddr)
	if ip == "" {
		ip = r.RemoteAddr
	}
	return "ip:" + ip
}

// HealthChecker verifies the backing database. Nil when running on the
// in-memory store.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Matcher resolves a recording to a game.
type Matcher interface {
	MatchRecording(ctx context.Context, caller, cameraID string, start time.Time) (*matcher.Result, error)
}

// Refresher re-scrapes one team's schedule.
type Refresher interface {
	RefreshTeam(ctx context.Context, caller, teamID string) (*model.TeamSchedule, error)
}

// LivesReconciler creates scheduled lives.
type LivesReconciler interface {
	Run(ctx context.Context) (*reconcile.LivesResult, error)
	RunTeam(ctx context.Context, teamID string) (*reconcile.TeamLives, error)
}

// ReplaysReconciler files replays into season playlists.
type ReplaysReconciler interface {
	Run(ctx context.Context) (*reconcile.ReplaysResult, error)
}

// PermanentLives ensures a team's permanent live.
type PermanentLives interface {
	Ensure(ctx context.Context, teamID string) (*reconcile.PermanentLive, error)
}

// StatsSource reports component state for health endpoints.
type StatsSource interface {
	Stats() map[string]interface{}
}

// Deps are the handler dependencies wired by the composition root.
type Deps struct {
	DB        HealthChecker
	Store     *store.Store
	Cache     *cache.Cache
	Gateway   StatsSource
	Matcher   Matcher
	Refresher Refresher
	Lives     LivesReconciler
	Replays   ReplaysReconciler
	Permanent PermanentLives
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	Deps
	validate *validator.Validate
}

// New creates a Handler with shared dependencies.
func New(d Deps) *Handler {
	return &Handler{Deps: d, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Sideline API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if h.DB == nil {
		respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
			"status":    "healthy",
			"database":  "memory",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	if err := h.DB.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns thumbnail cache statistics.
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.Cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckGateway returns schedule-provider queue and quota state.
func (h *Handler) HealthCheckGateway(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"gateway":   h.Gateway.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// decode reads a JSON body into v and validates it. It writes the 400
// itself and reports false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Request body is not valid JSON", err.Error())
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_REQUEST", "Request failed validation", err.Error())
		return false
	}
	return true
}
