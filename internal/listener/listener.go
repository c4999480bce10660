// Package listener provides a Postgres LISTEN/NOTIFY consumer for
// recording-start events. It holds a dedicated pgx connection (not from the
// pool) listening on the `recording_started` channel.
//
// Sniffers insert a notification when a camera starts recording; each event
// runs the schedule matcher (with its single re-scrape fallback) and logs
// the matched game.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jpillora/backoff"

	"github.com/albapepper/sideline/internal/config"
	"github.com/albapepper/sideline/internal/matcher"
)

const (
	minReconnect = time.Second
	maxReconnect = 30 * time.Second
)

// RecordingEvent is the JSON payload from pg_notify('recording_started', ...).
type RecordingEvent struct {
	SnifferID string    `json:"sniffer_id"`
	CameraID  string    `json:"camera_id"`
	StartTime time.Time `json:"start_time"`
}

// Caller is the key charged for any schedule re-scrape the event triggers:
// the sniffer when the payload names one, else the camera.
func (e RecordingEvent) Caller() string {
	if e.SnifferID != "" {
		return "sniffer:" + e.SnifferID
	}
	return "camera:" + e.CameraID
}

// Matcher resolves a recording to a game.
type Matcher interface {
	MatchRecording(ctx context.Context, caller, cameraID string, start time.Time) (*matcher.Result, error)
}

// Start opens a dedicated connection and listens on the recording channel.
// It reconnects with jittered exponential backoff on connection loss. Blocks
// until ctx is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, m Matcher, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	b := &backoff.Backoff{Min: minReconnect, Max: maxReconnect, Factor: 2, Jitter: true}

	for {
		connected, err := listenLoop(ctx, dbURL, m, logger)
		if ctx.Err() != nil {
			logger.Info("Recording listener stopped (context cancelled)")
			return
		}
		if connected {
			b.Reset()
		}

		wait := b.Duration()
		logger.Error("Recording listener disconnected, reconnecting...",
			"error", err, "backoff", wait)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. It reports whether LISTEN
// succeeded, so a session that ran for a while resets the backoff.
func listenLoop(ctx context.Context, dbURL string, m Matcher, logger *slog.Logger) (bool, error) {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return false, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+config.RecordingChannel)
	if err != nil {
		return false, fmt.Errorf("LISTEN %s: %w", config.RecordingChannel, err)
	}
	logger.Info("Recording listener connected", "channel", config.RecordingChannel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return true, fmt.Errorf("wait for notification: %w", err)
		}

		// Process asynchronously to avoid blocking the listener
		go Handle(ctx, m, notification.Payload, logger)
	}
}

// Handle parses one payload and runs the matcher on it. The returned result
// is nil when the payload is unusable or matching failed.
func Handle(ctx context.Context, m Matcher, payload string, logger *slog.Logger) *matcher.Result {
	var event RecordingEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		logger.Warn("Failed to parse recording event", "payload", payload, "error", err)
		return nil
	}
	if event.CameraID == "" || event.StartTime.IsZero() {
		logger.Warn("Recording event missing camera or start time", "payload", payload)
		return nil
	}

	res, err := m.MatchRecording(ctx, event.Caller(), event.CameraID, event.StartTime)
	if err != nil {
		logger.Error("Recording match failed",
			"sniffer", event.SnifferID, "camera", event.CameraID, "error", err)
		return nil
	}

	if !res.Matched() {
		logger.Info("Recording matched no game",
			"sniffer", event.SnifferID,
			"camera", event.CameraID,
			"start", event.StartTime,
			"fallback", res.Fallback,
			"reason", res.Reason)
		return res
	}

	logger.Info("Recording matched",
		"sniffer", event.SnifferID,
		"camera", event.CameraID,
		"team", res.Hit.TeamID,
		"game", res.Hit.Game.ID,
		"title", res.Hit.Game.Title,
		"delta", res.Hit.Delta,
		"fallback", res.Fallback)
	return res
}
