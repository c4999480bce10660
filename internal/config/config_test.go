package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sideline")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 15, cfg.ScheduleCallerLimit)
	assert.Equal(t, time.Second, cfg.GatewayMinDelay)
	assert.Equal(t, 2000, cfg.GatewayDailyCap)
	assert.Equal(t, 15*time.Minute, cfg.MatchWindow)
	assert.Equal(t, 5, cfg.MaxTags)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sideline")
	t.Setenv("GATEWAY_MIN_DELAY", "250ms")
	t.Setenv("SCHEDULE_CALLER_WINDOW", "30")
	t.Setenv("VIDEO_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("MATCH_WINDOW_MINUTES", "nope")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.GatewayMinDelay)
	assert.Equal(t, 30*time.Second, cfg.ScheduleCallerWindow)
	assert.Equal(t, 2.5, cfg.VideoRequestsPerSecond)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
	assert.Equal(t, 15*time.Minute, cfg.MatchWindow)
}
