// Package matcher resolves a recording's start time to a cached game.
//
// The primary pass scans every cached schedule. On a miss, the fallback
// re-scrapes the in-season teams bound to the recording's camera and runs
// the primary pass once more. The fallback never loops.
package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/albapepper/sideline/internal/metrics"
	"github.com/albapepper/sideline/internal/model"
)

// Store is the slice of the document store the matcher reads.
type Store interface {
	ListSchedules(ctx context.Context) ([]*model.TeamSchedule, error)
	ListCameraOwners(ctx context.Context) ([]string, error)
	GetCameras(ctx context.Context, snifferID string) ([]model.CameraAssignment, error)
}

// Refresher re-scrapes and persists a team's schedule.
type Refresher interface {
	RefreshTeam(ctx context.Context, caller, teamID string) (*model.TeamSchedule, error)
}

// Hit is a matched game.
type Hit struct {
	TeamID string
	Game   model.Game
	Delta  time.Duration // game start minus recording start
}

// Match finds the game whose start lies within window of start. Among several
// candidates, the smallest absolute difference wins, then the smaller game id.
func Match(start time.Time, schedules []*model.TeamSchedule, window time.Duration) (*Hit, bool) {
	var best *Hit
	var bestAbs time.Duration
	for _, s := range schedules {
		for _, g := range s.Games {
			delta := g.StartTime.Sub(start)
			abs := delta
			if abs < 0 {
				abs = -abs
			}
			if abs > window {
				continue
			}
			if best == nil || abs < bestAbs || (abs == bestAbs && g.ID < best.Game.ID) {
				best = &Hit{TeamID: s.TeamID, Game: g, Delta: delta}
				bestAbs = abs
			}
		}
	}
	return best, best != nil
}

// Result is the outcome of one MatchRecording call.
type Result struct {
	Hit         *Hit
	Fallback    bool     // the fallback path ran
	Refreshed   []string // teams re-scraped by the fallback
	OutOfSeason []string // bound teams skipped by the season check
	Errors      []string // per-team refresh failures
	Reason      string   // why nothing matched
}

// Matched reports whether a game was found.
func (r *Result) Matched() bool { return r.Hit != nil }

// Matcher runs the primary pass and the fallback.
type Matcher struct {
	store     Store
	refresher Refresher
	window    time.Duration
	logger    *slog.Logger
}

// New creates a matcher with the given match tolerance.
func New(st Store, refresher Refresher, window time.Duration, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{store: st, refresher: refresher, window: window, logger: logger}
}

// MatchRecording matches a recording from cameraID starting at start. caller
// is the reporting sniffer; fallback refreshes are charged to it. Refresh
// failures are recorded on the result; only store failures return an error.
func (m *Matcher) MatchRecording(ctx context.Context, caller, cameraID string, start time.Time) (*Result, error) {
	schedules, err := m.store.ListSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	if hit, ok := Match(start, schedules, m.window); ok {
		metrics.MatchAttempts.WithLabelValues("hit").Inc()
		return &Result{Hit: hit}, nil
	}

	res := &Result{Fallback: true}
	teams, err := m.boundTeams(ctx, cameraID)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		res.Reason = fmt.Sprintf("no game within %s and camera %s is bound to no team", m.window, cameraID)
		metrics.MatchAttempts.WithLabelValues("miss").Inc()
		return res, nil
	}

	sports := make(map[string]string, len(schedules))
	for _, s := range schedules {
		sports[s.TeamID] = s.Team.Sport
	}

	for _, teamID := range teams {
		if !InSeason(sports[teamID], start) {
			res.OutOfSeason = append(res.OutOfSeason, teamID)
			continue
		}
		if _, err := m.refresher.RefreshTeam(ctx, caller, teamID); err != nil {
			m.logger.Warn("Fallback refresh failed", "team", teamID, "error", err)
			res.Errors = append(res.Errors, fmt.Sprintf("team %s: %v", teamID, err))
			continue
		}
		res.Refreshed = append(res.Refreshed, teamID)
	}

	if len(res.Refreshed) == 0 {
		res.Reason = fmt.Sprintf("no in-season team bound to camera %s could be refreshed", cameraID)
		metrics.MatchAttempts.WithLabelValues("miss").Inc()
		return res, nil
	}

	schedules, err = m.store.ListSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	if hit, ok := Match(start, schedules, m.window); ok {
		res.Hit = hit
		metrics.MatchAttempts.WithLabelValues("fallback_hit").Inc()
		return res, nil
	}

	res.Reason = fmt.Sprintf("no game within %s after refreshing %d team(s)", m.window, len(res.Refreshed))
	metrics.MatchAttempts.WithLabelValues("miss").Inc()
	return res, nil
}

// boundTeams returns the sorted ids of every team bound to cameraID by any
// sniffer.
func (m *Matcher) boundTeams(ctx context.Context, cameraID string) ([]string, error) {
	owners, err := m.store.ListCameraOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("list camera owners: %w", err)
	}
	seen := make(map[string]bool)
	for _, owner := range owners {
		cams, err := m.store.GetCameras(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("load cameras of %s: %w", owner, err)
		}
		for _, c := range cams {
			if c.CameraID == cameraID && c.TeamID != "" {
				seen[c.TeamID] = true
			}
		}
	}
	teams := make([]string, 0, len(seen))
	for id := range seen {
		teams = append(teams, id)
	}
	sort.Strings(teams)
	return teams, nil
}
