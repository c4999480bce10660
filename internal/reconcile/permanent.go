package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/albapepper/sideline/internal/model"
	"github.com/albapepper/sideline/internal/title"
	"github.com/albapepper/sideline/internal/video"
)

// PermanentLive is the outcome of EnsurePermanentLive.
type PermanentLive struct {
	TeamID     string `json:"team_id"`
	VideoID    string `json:"video_id"`
	RTMPURL    string `json:"rtmp_url,omitempty"`
	StreamKey  string `json:"stream_key,omitempty"`
	Created    bool   `json:"created"`
	Season     int    `json:"season"`
	PlaylistID string `json:"playlist_id"`
}

// Permanent manages a team's long-running live and the season playlist its
// replays land in.
type Permanent struct {
	store    Store
	platform Platform
	guard    *Guard
	school   string
	maxTags  int
	logger   *slog.Logger
	now      func() time.Time
}

// NewPermanent creates the permanent-live manager.
func NewPermanent(st Store, p Platform, guard *Guard, school string, maxTags int, logger *slog.Logger) *Permanent {
	if logger == nil {
		logger = slog.Default()
	}
	if guard == nil {
		guard = &Guard{}
	}
	return &Permanent{store: st, platform: p, guard: guard, school: school, maxTags: maxTags, logger: logger, now: time.Now}
}

// Ensure makes sure a mapped team has a permanent live and a playlist for
// the current season. An existing live that still exists remotely is kept;
// a vanished one is replaced. The live id is recorded on the mapping, on the
// cached schedule, and on every camera bound to the team.
func (p *Permanent) Ensure(ctx context.Context, teamID string) (*PermanentLive, error) {
	v, err := p.guard.Do("permanent:"+teamID, func() (interface{}, error) {
		return p.ensure(ctx, teamID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*PermanentLive), nil
}

func (p *Permanent) ensure(ctx context.Context, teamID string) (*PermanentLive, error) {
	m, err := p.store.GetMapping(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("load mapping %s: %w", teamID, err)
	}
	sched, err := loadSchedule(ctx, p.store, teamID)
	if err != nil {
		return nil, fmt.Errorf("load schedule %s: %w", teamID, err)
	}

	out := &PermanentLive{TeamID: teamID, Season: p.now().Year()}
	var info model.TeamInfo
	if sched != nil {
		info = sched.Team
		if info.Season > 0 {
			out.Season = info.Season
		}
	}

	live, err := p.existing(ctx, m, sched)
	if err != nil {
		return nil, err
	}
	if live == nil {
		live, err = p.platform.CreateLive(ctx, m.SnifferID, video.LiveRequest{
			ChannelID:     m.ChannelID,
			Name:          title.PermanentLive(info, p.school),
			Privacy:       m.Privacy,
			Tags:          title.Tags(info, p.school, p.maxTags, m.Tags...),
			SaveReplay:    true,
			PermanentLive: true,
		})
		if err != nil {
			return nil, fmt.Errorf("create permanent live: %w", err)
		}
		out.Created = true
		p.logger.Info("Permanent live created", "team", teamID, "video", live.VideoID)
	}
	out.VideoID, out.RTMPURL, out.StreamKey = live.VideoID, live.RTMPURL, live.StreamKey

	if err := p.record(ctx, m, sched, live); err != nil {
		return nil, err
	}

	out.PlaylistID, _, err = ensurePlaylist(ctx, p.store, p.platform, p.guard, teamID, out.Season, info, p.school)
	if err != nil {
		return nil, fmt.Errorf("ensure playlist: %w", err)
	}
	return out, nil
}

// existing returns the recorded permanent live if it still exists remotely,
// or nil when a new one is needed.
func (p *Permanent) existing(ctx context.Context, m *model.TeamMapping, sched *model.TeamSchedule) (*model.LiveResource, error) {
	id := permanentLiveID(m, sched)
	if id == "" {
		return nil, nil
	}
	_, err := p.platform.GetVideo(ctx, m.SnifferID, id)
	switch {
	case err == nil:
		if sched != nil && sched.PermanentLive != nil && sched.PermanentLive.VideoID == id {
			return sched.PermanentLive, nil
		}
		return &model.LiveResource{VideoID: id}, nil
	case errors.Is(err, video.ErrNotFound):
		p.logger.Warn("Permanent live missing, recreating", "team", m.TeamID, "video", id)
		return nil, nil
	default:
		return nil, fmt.Errorf("verify permanent live %s: %w", id, err)
	}
}

func (p *Permanent) record(ctx context.Context, m *model.TeamMapping, sched *model.TeamSchedule, live *model.LiveResource) error {
	m.PermanentLiveID = live.VideoID
	if err := p.store.PutMapping(ctx, m); err != nil {
		return fmt.Errorf("persist mapping: %w", err)
	}
	if sched != nil {
		sched.PermanentLive = live
		if err := p.store.PutSchedule(ctx, sched); err != nil {
			return fmt.Errorf("persist schedule: %w", err)
		}
	}

	owners, err := p.store.ListCameraOwners(ctx)
	if err != nil {
		return fmt.Errorf("list camera owners: %w", err)
	}
	for _, owner := range owners {
		cams, err := p.store.GetCameras(ctx, owner)
		if err != nil {
			return fmt.Errorf("load cameras of %s: %w", owner, err)
		}
		changed := false
		for i := range cams {
			if cams[i].TeamID == m.TeamID && cams[i].PermanentLiveID != live.VideoID {
				cams[i].PermanentLiveID = live.VideoID
				changed = true
			}
		}
		if changed {
			if err := p.store.PutCameras(ctx, owner, cams); err != nil {
				return fmt.Errorf("persist cameras of %s: %w", owner, err)
			}
		}
	}
	return nil
}
