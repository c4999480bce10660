package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/sideline/internal/config"
	"github.com/albapepper/sideline/internal/model"
	"github.com/albapepper/sideline/internal/secret"
)

func testConfig() *config.Config {
	return &config.Config{
		ScheduleAPIURL:       "http://127.0.0.1:1/graphql",
		ScheduleCallerLimit:  15,
		ScheduleCallerWindow: time.Minute,
		GatewayMinDelay:      time.Millisecond,
		GatewayDailyCap:      10,
		VideoBaseURL:         "http://127.0.0.1:1",
		MatchWindow:          15 * time.Minute,
		SchoolName:           "Central",
		MaxTags:              5,
		CacheEnabled:         true,
	}
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNewInMemory(t *testing.T) {
	a, err := New(context.Background(), testConfig(), true, quiet())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Pool)
	assert.Nil(t, a.Box)
	assert.NotNil(t, a.Gateway)
	assert.NotNil(t, a.Matcher)
	assert.NotNil(t, a.Lives)
	assert.NotNil(t, a.Replays)
	assert.NotNil(t, a.Permanent)

	// The matcher reads the same store the app exposes.
	ctx := context.Background()
	tip := time.Date(2025, 12, 5, 19, 0, 0, 0, time.UTC)
	require.NoError(t, a.Store.PutSchedule(ctx, &model.TeamSchedule{
		TeamID: "team-1",
		Games:  []model.Game{{ID: "g1", StartTime: tip}},
	}))
	res, err := a.Matcher.MatchRecording(ctx, "s1", "cam-1", tip.Add(3*time.Minute))
	require.NoError(t, err)
	assert.True(t, res.Matched())
}

func TestNewWithCredentialKey(t *testing.T) {
	key, err := secret.GenerateKey()
	require.NoError(t, err)
	cfg := testConfig()
	cfg.CredentialKey = key

	a, err := New(context.Background(), cfg, true, quiet())
	require.NoError(t, err)
	assert.NotNil(t, a.Box)

	cfg.CredentialKey = "not base64!"
	_, err = New(context.Background(), cfg, true, quiet())
	assert.Error(t, err)
}
