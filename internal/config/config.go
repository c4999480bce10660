// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/sideline.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Table names: single source of truth, matches db.Migrate
// --------------------------------------------------------------------------

const (
	DocumentsTable = "documents"
)

// RecordingChannel is the LISTEN/NOTIFY channel for recording-start events.
const RecordingChannel = "recording_started"

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	LogLevel    slog.Level

	// CORS
	CORSAllowOrigins []string

	// Route rate limiting (per caller sliding window)
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Schedule provider
	ScheduleAPIURL       string
	ScheduleCallerLimit  int
	ScheduleCallerWindow time.Duration
	GatewayMinDelay      time.Duration
	GatewayDailyCap      int

	// Video platform
	VideoBaseURL           string
	VideoRequestsPerSecond float64
	CredentialKey          string // base64 master key for stored passwords

	// Matching and titles
	MatchWindow time.Duration
	SchoolName  string
	MaxTags     int

	// Jobs (cron specs; empty disables)
	ScheduleRefreshCron string
	LiveReconcileCron   string
	ReplayReconcileCron string

	// Thumbnail cache
	CacheEnabled bool
	CacheTTL     time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}
	cfg := LoadWithoutDatabase()
	cfg.DatabaseURL = dbURL
	return cfg, nil
}

// LoadWithoutDatabase reads everything except DATABASE_URL. Used by CLI
// commands that run against the in-memory store.
func LoadWithoutDatabase() *Config {
	return &Config{
		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		LogLevel:    envLevel("LOG_LEVEL", slog.LevelInfo),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("ROUTE_RATE_LIMIT_REQUESTS", 10),
		RateLimitWindow:   envDuration("ROUTE_RATE_LIMIT_WINDOW", 60*time.Second),

		ScheduleAPIURL:       envOr("SCHEDULE_API_URL", "https://api.schedules.example/graphql"),
		ScheduleCallerLimit:  envInt("SCHEDULE_CALLER_LIMIT", 15),
		ScheduleCallerWindow: envDuration("SCHEDULE_CALLER_WINDOW", 60*time.Second),
		GatewayMinDelay:      envDuration("GATEWAY_MIN_DELAY", time.Second),
		GatewayDailyCap:      envInt("GATEWAY_DAILY_CAP", 2000),

		VideoBaseURL:           envOr("VIDEO_BASE_URL", "http://localhost:9000"),
		VideoRequestsPerSecond: envFloat("VIDEO_REQUESTS_PER_SECOND", 5),
		CredentialKey:          envOr("CREDENTIAL_KEY", ""),

		MatchWindow: time.Duration(envInt("MATCH_WINDOW_MINUTES", 15)) * time.Minute,
		SchoolName:  envOr("SCHOOL_NAME", ""),
		MaxTags:     envInt("MAX_TAGS", 5),

		ScheduleRefreshCron: envOr("SCHEDULE_REFRESH_CRON", "0 5 * * *"),
		LiveReconcileCron:   envOr("LIVE_RECONCILE_CRON", "*/30 * * * *"),
		ReplayReconcileCron: envOr("REPLAY_RECONCILE_CRON", "15 * * * *"),

		CacheEnabled: envBool("CACHE_ENABLED", true),
		CacheTTL:     envDuration("CACHE_TTL", 7*24*time.Hour),
	}
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("90s") or bare seconds ("90").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		return fallback
	}
	return l
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
