package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/albapepper/sideline/internal/model"
	"github.com/albapepper/sideline/internal/store"
	"github.com/albapepper/sideline/internal/title"
)

// ScheduleStore is the slice of the document store the scraper needs.
type ScheduleStore interface {
	GetSchedule(ctx context.Context, teamID string) (*model.TeamSchedule, error)
	PutSchedule(ctx context.Context, s *model.TeamSchedule) error
}

// Scraper refreshes cached team schedules from the provider.
type Scraper struct {
	client *Client
	store  ScheduleStore
	school string
	logger *slog.Logger
	now    func() time.Time
}

// NewScraper creates a scraper. school is the fallback school name used in
// titles when the provider carries none.
func NewScraper(client *Client, st ScheduleStore, school string, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{client: client, store: st, school: school, logger: logger, now: time.Now}
}

// RefreshTeam re-scrapes one team, regenerates game titles, and replaces the
// cached schedule. Live-resource fields of games that survive the refresh
// are carried over, as is the team's permanent live.
func (s *Scraper) RefreshTeam(ctx context.Context, caller, teamID string) (*model.TeamSchedule, error) {
	team, err := s.client.Team(ctx, caller, teamID)
	if err != nil {
		return nil, err
	}
	if team.CurrentSeason == nil || team.CurrentSeason.ID == "" {
		return nil, fmt.Errorf("refresh team %s: no current season", teamID)
	}

	entries, err := s.client.Schedule(ctx, caller, teamID, team.CurrentSeason.ID)
	if err != nil {
		return nil, err
	}

	sched := &model.TeamSchedule{
		TeamID:   teamID,
		SeasonID: team.CurrentSeason.ID,
		Team: model.TeamInfo{
			Name:       team.Name,
			Sport:      team.Sport,
			Gender:     team.Gender,
			Level:      team.Level,
			Season:     team.CurrentSeason.Year,
			LogoURL:    team.LogoURL,
			OrgID:      team.Organization.ID,
			SchoolName: team.Organization.Name,
		},
		Games:     make([]model.Game, 0, len(entries)),
		ScrapedAt: s.now().UTC(),
	}
	for _, e := range entries {
		sched.Games = append(sched.Games, toGame(e))
	}

	prev, err := s.store.GetSchedule(ctx, teamID)
	switch {
	case err == nil:
		carryLives(prev, sched)
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("load cached schedule %s: %w", teamID, err)
	}

	title.RegenerateTitles(sched, s.school)
	sched.SortGames()

	if err := s.store.PutSchedule(ctx, sched); err != nil {
		return nil, err
	}
	s.logger.Info("Schedule refreshed", "team", teamID, "season", sched.Team.Season, "games", len(sched.Games))
	return sched, nil
}

// OrgResult tracks an organization-wide refresh.
type OrgResult struct {
	TeamsRefreshed int
	GamesCached    int
	Errors         []string
}

// AddErrorf records a formatted error message.
func (r *OrgResult) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the refresh.
func (r *OrgResult) Summary() string {
	return fmt.Sprintf("teams=%d games=%d errors=%d", r.TeamsRefreshed, r.GamesCached, len(r.Errors))
}

// RefreshOrganization refreshes every team on an organization's roster. A
// failing team is recorded and the rest continue.
func (s *Scraper) RefreshOrganization(ctx context.Context, caller, orgID string) (*OrgResult, error) {
	org, err := s.client.Organization(ctx, caller, orgID)
	if err != nil {
		return nil, err
	}

	result := &OrgResult{}
	for _, t := range org.Teams {
		sched, err := s.RefreshTeam(ctx, caller, t.ID)
		if err != nil {
			s.logger.Warn("Team refresh failed", "team", t.ID, "error", err)
			result.AddErrorf("team %s: %v", t.ID, err)
			continue
		}
		result.TeamsRefreshed++
		result.GamesCached += len(sched.Games)
	}
	return result, nil
}

func toGame(e Entry) model.Game {
	ha := model.Away
	switch e.HomeAway {
	case "H":
		ha = model.Home
	case "N":
		ha = model.Neutral
	}
	return model.Game{
		ID:              e.ID,
		HomeAway:        ha,
		StartTime:       e.ScheduledAt.UTC(),
		Outcome:         e.Outcome,
		BroadcastStatus: e.BroadcastStatus,
		Opponent: model.Opponent{
			Name:     e.Opponent.Name,
			SchoolID: e.Opponent.SchoolID,
			Mascot:   e.Opponent.Mascot,
			ImageURL: e.Opponent.ImageURL,
		},
	}
}

func carryLives(prev, next *model.TeamSchedule) {
	next.PermanentLive = prev.PermanentLive
	for i := range next.Games {
		if old := prev.Game(next.Games[i].ID); old != nil && old.Live != nil {
			live := *old.Live
			next.Games[i].Live = &live
		}
	}
}
