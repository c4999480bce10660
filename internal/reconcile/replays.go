package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/albapepper/sideline/internal/metrics"
	"github.com/albapepper/sideline/internal/model"
	"github.com/albapepper/sideline/internal/video"
)

// DefaultChannelVideos is how many recent channel videos a pass inspects.
const DefaultChannelVideos = 50

// TeamReplays is the replay outcome of one team.
type TeamReplays struct {
	TeamID          string   `json:"team_id"`
	Status          string   `json:"status"`
	Reason          string   `json:"reason,omitempty"`
	Season          int      `json:"season,omitempty"`
	PlaylistID      string   `json:"playlist_id,omitempty"`
	PlaylistCreated bool     `json:"playlist_created,omitempty"`
	Candidates      int      `json:"candidates"`
	Added           int      `json:"added"`
	Failed          int      `json:"failed"`
	Errors          []string `json:"errors,omitempty"`
}

// ReplaysResult aggregates a replay pass.
type ReplaysResult struct {
	Succeeded int            `json:"succeeded"`
	Errored   int            `json:"errored"`
	Skipped   int            `json:"skipped"`
	Added     int            `json:"added"`
	Playlists int            `json:"playlists_created"`
	Teams     []*TeamReplays `json:"teams"`
}

func (r *ReplaysResult) add(t *TeamReplays) {
	r.Teams = append(r.Teams, t)
	switch t.Status {
	case StatusSuccess:
		r.Succeeded++
	case StatusError:
		r.Errored++
	case StatusSkipped:
		r.Skipped++
	}
	r.Added += t.Added
	if t.PlaylistCreated {
		r.Playlists++
	}
}

// Summary returns a human-readable summary of the pass.
func (r *ReplaysResult) Summary() string {
	return fmt.Sprintf("teams=%d success=%d error=%d skipped=%d added=%d playlists_created=%d",
		len(r.Teams), r.Succeeded, r.Errored, r.Skipped, r.Added, r.Playlists)
}

// Replays files each team's recent replays into its season playlist.
type Replays struct {
	store         Store
	platform      Platform
	guard         *Guard
	school        string
	channelVideos int
	logger        *slog.Logger
	now           func() time.Time
}

// NewReplays creates the replay reconciler.
func NewReplays(st Store, p Platform, guard *Guard, school string, logger *slog.Logger) *Replays {
	if logger == nil {
		logger = slog.Default()
	}
	if guard == nil {
		guard = &Guard{}
	}
	return &Replays{
		store:         st,
		platform:      p,
		guard:         guard,
		school:        school,
		channelVideos: DefaultChannelVideos,
		logger:        logger,
		now:           time.Now,
	}
}

// Run reconciles every team mapping.
func (r *Replays) Run(ctx context.Context) (*ReplaysResult, error) {
	mappings, err := r.store.ListMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}

	result := &ReplaysResult{}
	for _, m := range mappings {
		t := r.reconcileMapping(ctx, m)
		metrics.ReconcileOutcomes.WithLabelValues("replays", t.Status).Inc()
		if t.Status == StatusError {
			r.logger.Warn("Replay reconciliation failed", "team", t.TeamID, "reason", t.Reason)
		}
		result.add(t)
	}

	r.logger.Info("Replays reconciled", "summary", result.Summary())
	return result, nil
}

func (r *Replays) reconcileMapping(ctx context.Context, m *model.TeamMapping) *TeamReplays {
	t := &TeamReplays{TeamID: m.TeamID}

	sched, err := loadSchedule(ctx, r.store, m.TeamID)
	if err != nil {
		t.Status, t.Reason = StatusError, fmt.Sprintf("load schedule: %v", err)
		return t
	}

	permID := permanentLiveID(m, sched)
	if permID == "" {
		t.Status, t.Reason = StatusSkipped, "no permanent live"
		return t
	}
	if len(m.Seasons) == 0 {
		t.Status, t.Reason = StatusSkipped, "no season entries"
		return t
	}

	var info model.TeamInfo
	t.Season = r.now().Year()
	if sched != nil {
		info = sched.Team
		if sched.Team.Season > 0 {
			t.Season = sched.Team.Season
		}
	}

	if _, err := r.platform.Token(ctx, m.SnifferID); err != nil {
		t.Status, t.Reason = StatusError, fmt.Sprintf("token unavailable: %v", err)
		return t
	}

	if err := r.reconcileTeam(ctx, m, info, permID, t); err != nil {
		t.Status, t.Reason = StatusError, err.Error()
		return t
	}
	t.Status = StatusSuccess
	t.Reason = fmt.Sprintf("added %d of %d replay(s)", t.Added, t.Candidates)
	if t.Failed > 0 {
		t.Status = StatusError
		t.Reason = fmt.Sprintf("%d of %d replay(s) failed to add", t.Failed, t.Candidates)
	}
	return t
}

func (r *Replays) reconcileTeam(ctx context.Context, m *model.TeamMapping, info model.TeamInfo, permID string, t *TeamReplays) error {
	playlistID, created, err := ensurePlaylist(ctx, r.store, r.platform, r.guard, m.TeamID, t.Season, info, r.school)
	if err != nil {
		return fmt.Errorf("ensure playlist: %w", err)
	}
	t.PlaylistID, t.PlaylistCreated = playlistID, created

	handle := m.ChannelHandle
	if handle == "" {
		handle = m.ChannelID
	}
	videos, err := r.platform.ListChannelVideos(ctx, m.SnifferID, handle, r.channelVideos)
	if err != nil {
		return fmt.Errorf("list channel videos: %w", err)
	}

	members, err := r.platform.ListPlaylistVideos(ctx, m.SnifferID, playlistID)
	if errors.Is(err, video.ErrNotFound) {
		r.logger.Warn("Season playlist missing, recreating", "team", m.TeamID, "playlist", playlistID)
		if err := clearPlaylist(ctx, r.store, r.guard, m.TeamID, t.Season, playlistID); err != nil {
			return fmt.Errorf("clear stale playlist: %w", err)
		}
		playlistID, created, err = ensurePlaylist(ctx, r.store, r.platform, r.guard, m.TeamID, t.Season, info, r.school)
		if err != nil {
			return fmt.Errorf("recreate playlist: %w", err)
		}
		t.PlaylistID, t.PlaylistCreated = playlistID, t.PlaylistCreated || created
		members = nil
	} else if err != nil {
		return fmt.Errorf("list playlist videos: %w", err)
	}

	present := make(map[string]bool, len(members))
	for _, id := range members {
		present[id] = true
	}
	cutoff := time.Date(t.Season, time.July, 1, 0, 0, 0, 0, time.UTC)

	for _, v := range videos {
		if v.IsLive || v.ID == permID || v.CreatedAt.Before(cutoff) || present[v.ID] {
			continue
		}
		if !IsTeamReplay(info, v) {
			continue
		}
		t.Candidates++
		if err := r.platform.AddToPlaylist(ctx, m.SnifferID, playlistID, v.ID); err != nil {
			t.Failed++
			t.Errors = append(t.Errors, fmt.Sprintf("video %s: %v", v.ID, err))
			r.logger.Warn("Adding replay to playlist failed", "team", m.TeamID, "video", v.ID, "error", err)
			if fatalForTeam(err) {
				break
			}
			continue
		}
		present[v.ID] = true
		t.Added++
		r.logger.Info("Replay added to playlist", "team", m.TeamID, "video", v.ID, "playlist", playlistID)
	}
	return nil
}

func permanentLiveID(m *model.TeamMapping, sched *model.TeamSchedule) string {
	if m.PermanentLiveID != "" {
		return m.PermanentLiveID
	}
	if sched != nil && sched.PermanentLive != nil {
		return sched.PermanentLive.VideoID
	}
	return ""
}
