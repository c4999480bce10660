package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/albapepper/sideline/internal/metrics"
	"github.com/albapepper/sideline/internal/model"
	"github.com/albapepper/sideline/internal/title"
	"github.com/albapepper/sideline/internal/video"
)

// TeamLives is the scheduled-live outcome of one team.
type TeamLives struct {
	TeamID        string   `json:"team_id"`
	Status        string   `json:"status"`
	Reason        string   `json:"reason,omitempty"`
	Created       int      `json:"created"`
	Existing      int      `json:"existing"`
	Repaired      int      `json:"repaired"`
	SkippedPlayed int      `json:"skipped_played"`
	SkippedPast   int      `json:"skipped_past"`
	SkippedAway   int      `json:"skipped_away"`
	Failed        int      `json:"failed"`
	Errors        []string `json:"errors,omitempty"`
}

// Skipped is the total of all skip categories.
func (t *TeamLives) Skipped() int {
	return t.SkippedPlayed + t.SkippedPast + t.SkippedAway
}

func (t *TeamLives) addErrorf(format string, args ...interface{}) {
	t.Errors = append(t.Errors, fmt.Sprintf(format, args...))
}

// LivesResult aggregates a scheduled-live pass.
type LivesResult struct {
	Created       int          `json:"created"`
	Existing      int          `json:"existing"`
	Repaired      int          `json:"repaired"`
	SkippedPlayed int          `json:"skipped_played"`
	SkippedPast   int          `json:"skipped_past"`
	SkippedAway   int          `json:"skipped_away"`
	SkippedTeams  int          `json:"skipped_teams"`
	Failed        int          `json:"failed"`
	Teams         []*TeamLives `json:"teams"`
}

// Skipped is the total number of skipped games.
func (r *LivesResult) Skipped() int {
	return r.SkippedPlayed + r.SkippedPast + r.SkippedAway
}

func (r *LivesResult) add(t *TeamLives) {
	r.Teams = append(r.Teams, t)
	if t.Status == StatusSkipped {
		r.SkippedTeams++
	}
	r.Created += t.Created
	r.Existing += t.Existing
	r.Repaired += t.Repaired
	r.SkippedPlayed += t.SkippedPlayed
	r.SkippedPast += t.SkippedPast
	r.SkippedAway += t.SkippedAway
	r.Failed += t.Failed
}

// Summary returns a human-readable summary of the pass.
func (r *LivesResult) Summary() string {
	return fmt.Sprintf(
		"created=%d existing=%d repaired=%d skipped=%d (played=%d past=%d away=%d) failed=%d teams=%d skipped_teams=%d",
		r.Created, r.Existing, r.Repaired, r.Skipped(),
		r.SkippedPlayed, r.SkippedPast, r.SkippedAway,
		r.Failed, len(r.Teams), r.SkippedTeams,
	)
}

// Lives ensures every upcoming unplayed home game has a scheduled live.
type Lives struct {
	store    Store
	platform Platform
	thumbs   Thumbnails
	guard    *Guard
	school   string
	maxTags  int
	logger   *slog.Logger
	now      func() time.Time
}

// NewLives creates the scheduled-live reconciler. thumbs may be nil.
func NewLives(st Store, p Platform, thumbs Thumbnails, guard *Guard, school string, maxTags int, logger *slog.Logger) *Lives {
	if logger == nil {
		logger = slog.Default()
	}
	if guard == nil {
		guard = &Guard{}
	}
	return &Lives{
		store:    st,
		platform: p,
		thumbs:   thumbs,
		guard:    guard,
		school:   school,
		maxTags:  maxTags,
		logger:   logger,
		now:      time.Now,
	}
}

// Run reconciles every mapped team with a cached schedule.
func (l *Lives) Run(ctx context.Context) (*LivesResult, error) {
	mappings, err := l.store.ListMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}

	result := &LivesResult{}
	for _, m := range mappings {
		t := l.reconcileMapping(ctx, m)
		metrics.ReconcileOutcomes.WithLabelValues("lives", t.Status).Inc()
		result.add(t)
	}

	l.logger.Info("Scheduled lives reconciled", "summary", result.Summary())
	return result, nil
}

// RunTeam reconciles a single mapped team.
func (l *Lives) RunTeam(ctx context.Context, teamID string) (*TeamLives, error) {
	m, err := l.store.GetMapping(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("load mapping %s: %w", teamID, err)
	}
	return l.reconcileMapping(ctx, m), nil
}

func (l *Lives) reconcileMapping(ctx context.Context, m *model.TeamMapping) *TeamLives {
	sched, err := loadSchedule(ctx, l.store, m.TeamID)
	if err != nil {
		return &TeamLives{TeamID: m.TeamID, Status: StatusError, Reason: fmt.Sprintf("load schedule: %v", err)}
	}
	if sched == nil {
		return &TeamLives{TeamID: m.TeamID, Status: StatusSkipped, Reason: "no cached schedule"}
	}
	if _, err := l.platform.Token(ctx, m.SnifferID); err != nil {
		l.logger.Warn("Skipping team, no platform token", "team", m.TeamID, "sniffer", m.SnifferID, "error", err)
		return &TeamLives{TeamID: m.TeamID, Status: StatusSkipped, Reason: fmt.Sprintf("token unavailable: %v", err)}
	}

	v, err := l.guard.Do("lives:"+m.TeamID, func() (interface{}, error) {
		return l.reconcileTeam(ctx, m), nil
	})
	if err != nil {
		return &TeamLives{TeamID: m.TeamID, Status: StatusError, Reason: err.Error()}
	}
	return v.(*TeamLives)
}

// reconcileTeam walks the team's games. The schedule is re-read here so a
// pass that waited on the guard sees the lives the previous pass recorded.
func (l *Lives) reconcileTeam(ctx context.Context, m *model.TeamMapping) *TeamLives {
	t := &TeamLives{TeamID: m.TeamID}
	sched, err := loadSchedule(ctx, l.store, m.TeamID)
	if err != nil || sched == nil {
		t.Status, t.Reason = StatusError, fmt.Sprintf("reload schedule: %v", err)
		return t
	}

	now := l.now()
	for i := range sched.Games {
		g := &sched.Games[i]
		switch {
		case g.Played():
			t.SkippedPlayed++
			continue
		case !g.StartTime.After(now):
			t.SkippedPast++
			continue
		case g.HomeAway != model.Home:
			t.SkippedAway++
			continue
		}

		if g.HasLive() {
			_, err := l.platform.GetVideo(ctx, m.SnifferID, g.Live.VideoID)
			if err == nil {
				t.Existing++
				continue
			}
			if fatalForTeam(err) {
				t.Failed++
				t.addErrorf("game %s: verify live %s: %v", g.ID, g.Live.VideoID, err)
				break
			}
			l.logger.Warn("Scheduled live missing, recreating",
				"team", m.TeamID, "game", g.ID, "video", g.Live.VideoID, "error", err)
			g.Live = nil
			if err := l.store.PutSchedule(ctx, sched); err != nil {
				t.Failed++
				t.addErrorf("game %s: clear stale live: %v", g.ID, err)
				continue
			}
			t.Repaired++
		}

		live, err := l.platform.CreateLive(ctx, m.SnifferID, l.liveRequest(m, sched, g))
		if err != nil {
			t.Failed++
			t.addErrorf("game %s: create live: %v", g.ID, err)
			l.logger.Warn("Scheduled live creation failed", "team", m.TeamID, "game", g.ID, "error", err)
			if fatalForTeam(err) {
				break
			}
			continue
		}

		g.Live = live
		if err := l.store.PutSchedule(ctx, sched); err != nil {
			t.Failed++
			t.addErrorf("game %s: persist live %s: %v", g.ID, live.VideoID, err)
			l.logger.Error("Scheduled live created but not recorded",
				"team", m.TeamID, "game", g.ID, "video", live.VideoID, "error", err)
			continue
		}
		t.Created++
		l.logger.Info("Scheduled live created", "team", m.TeamID, "game", g.ID, "video", live.VideoID)
	}

	t.Status = StatusSuccess
	if len(t.Errors) > 0 {
		t.Status = StatusError
		t.Reason = strings.Join(t.Errors, "; ")
	}
	return t
}

func (l *Lives) liveRequest(m *model.TeamMapping, sched *model.TeamSchedule, g *model.Game) video.LiveRequest {
	name := g.Title
	if name == "" {
		name = title.Game(sched.Team, l.school, *g)
	}
	req := video.LiveRequest{
		ChannelID:      m.ChannelID,
		Name:           name,
		Privacy:        m.Privacy,
		Tags:           title.Tags(sched.Team, l.school, l.maxTags, m.Tags...),
		SaveReplay:     true,
		ScheduledStart: g.StartTime,
	}
	if l.thumbs != nil {
		if thumb, ok := l.thumbs.Thumbnail(g.ID); ok {
			req.Thumbnail = thumb
		}
	}
	return req
}
