package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/sideline/internal/model"
	"github.com/albapepper/sideline/internal/store"
	"github.com/albapepper/sideline/internal/title"
	"github.com/albapepper/sideline/internal/video"
)

func seedLives(t *testing.T, st *store.Store, games ...model.Game) {
	t.Helper()
	ctx := context.Background()
	sched := &model.TeamSchedule{TeamID: "T", Team: boysVarsity, Games: games}
	title.RegenerateTitles(sched, "Central")
	require.NoError(t, st.PutSchedule(ctx, sched))
	require.NoError(t, st.PutMapping(ctx, &model.TeamMapping{
		TeamID: "T", ChannelID: "ch-1", SnifferID: "s1", Tags: []string{"hoops"},
	}))
}

func homeGame(id string, start time.Time) model.Game {
	return model.Game{ID: id, HomeAway: model.Home, StartTime: start, Opponent: model.Opponent{Name: "Eastside"}}
}

func newLives(st *store.Store, p *fakePlatform, thumbs Thumbnails) *Lives {
	l := NewLives(st, p, thumbs, &Guard{}, "Central", 5, nil)
	l.now = func() time.Time { return now }
	return l
}

func TestLivesCreatesOnlyForUpcomingUnplayedHomeGames(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	p := newFakePlatform()

	upcoming := now.Add(48 * time.Hour)
	away := homeGame("away", upcoming)
	away.HomeAway = model.Away
	neutral := homeGame("neutral", upcoming)
	neutral.HomeAway = model.Neutral
	played := homeGame("played", upcoming)
	played.Outcome = 1
	seedLives(t, st, homeGame("home", upcoming), away, neutral, played, homeGame("past", now.Add(-time.Hour)))

	res, err := newLives(st, p, fakeThumbs{"home": []byte("jpeg")}).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 0, res.Existing)
	assert.Equal(t, 2, res.SkippedAway)
	assert.Equal(t, 1, res.SkippedPlayed)
	assert.Equal(t, 1, res.SkippedPast)
	assert.Equal(t, 4, res.Skipped())
	require.Len(t, res.Teams, 1)
	assert.Equal(t, StatusSuccess, res.Teams[0].Status)

	require.Len(t, p.lives, 1)
	req := p.lives[0]
	assert.Equal(t, "Boys Varsity Basketball: Central vs Eastside", req.Name)
	assert.Equal(t, "ch-1", req.ChannelID)
	assert.True(t, req.ScheduledStart.Equal(upcoming))
	assert.True(t, req.SaveReplay)
	assert.Equal(t, []byte("jpeg"), req.Thumbnail)
	assert.Equal(t, "Central Boys Varsity Basketball", req.Tags[0])
	assert.Equal(t, "hoops", req.Tags[1])
	assert.LessOrEqual(t, len(req.Tags), 5)

	sched, err := st.GetSchedule(ctx, "T")
	require.NoError(t, err)
	require.True(t, sched.Game("home").HasLive())
	assert.Equal(t, "live-1", sched.Game("home").Live.VideoID)
	assert.False(t, sched.Game("away").HasLive())
}

func TestLivesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	p := newFakePlatform()
	seedLives(t, st, homeGame("g1", now.Add(24*time.Hour)), homeGame("g2", now.Add(72*time.Hour)))
	l := newLives(st, p, nil)

	first, err := l.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)

	second, err := l.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.Existing)
	assert.Equal(t, 2, p.liveCount())
}

func TestLivesRecreatesDeletedLive(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	p := newFakePlatform()
	seedLives(t, st, homeGame("g1", now.Add(24*time.Hour)))
	l := newLives(st, p, nil)

	_, err := l.Run(ctx)
	require.NoError(t, err)
	sched, err := st.GetSchedule(ctx, "T")
	require.NoError(t, err)
	original := sched.Game("g1").Live.VideoID

	p.deleteVideo(original)

	res, err := l.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Repaired)
	assert.Equal(t, 1, res.Created)

	sched, err = st.GetSchedule(ctx, "T")
	require.NoError(t, err)
	replacement := sched.Game("g1").Live.VideoID
	assert.NotEmpty(t, replacement)
	assert.NotEqual(t, original, replacement)
}

func TestLivesCreationFailureDoesNotStopTeam(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	p := newFakePlatform()
	bad := homeGame("bad", now.Add(24*time.Hour))
	bad.Opponent.Name = "Failtown"
	seedLives(t, st, bad, homeGame("good", now.Add(48*time.Hour)))
	p.failCreate["Boys Varsity Basketball: Central vs Failtown"] = true

	res, err := newLives(st, p, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, StatusError, res.Teams[0].Status)
	assert.Contains(t, res.Teams[0].Reason, "bad")

	sched, err := st.GetSchedule(ctx, "T")
	require.NoError(t, err)
	assert.False(t, sched.Game("bad").HasLive())
	assert.True(t, sched.Game("good").HasLive())
}

func TestLivesFatalErrorsKeepStoredLives(t *testing.T) {
	for name, fatal := range map[string]error{
		"reauth":   fmt.Errorf("get video: %w", video.ErrReauthRequired),
		"deadline": fmt.Errorf("get video: %w", context.DeadlineExceeded),
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			st := newStore()
			p := newFakePlatform()

			g1 := homeGame("g1", now.Add(24*time.Hour))
			g1.Live = &model.LiveResource{VideoID: "stored-1"}
			g2 := homeGame("g2", now.Add(48*time.Hour))
			g2.Live = &model.LiveResource{VideoID: "stored-2"}
			seedLives(t, st, g1, g2, homeGame("g3", now.Add(72*time.Hour)))

			// A second team on a healthy sniffer.
			require.NoError(t, st.PutSchedule(ctx, &model.TeamSchedule{
				TeamID: "U", Team: boysVarsity, Games: []model.Game{homeGame("u1", now.Add(24*time.Hour))},
			}))
			require.NoError(t, st.PutMapping(ctx, &model.TeamMapping{TeamID: "U", ChannelID: "ch-2", SnifferID: "s2"}))

			p.snifferErr["s1"] = fatal

			res, err := newLives(st, p, nil).Run(ctx)
			require.NoError(t, err)
			require.Len(t, res.Teams, 2)

			team := res.Teams[0]
			assert.Equal(t, "T", team.TeamID)
			assert.Equal(t, StatusError, team.Status)
			assert.Equal(t, 1, team.Failed, "the team stops at the first fatal error")
			assert.Zero(t, team.Repaired)
			assert.Zero(t, team.Created)

			assert.Equal(t, StatusSuccess, res.Teams[1].Status)
			assert.Equal(t, 1, res.Teams[1].Created)
			require.Equal(t, 1, p.liveCount())
			assert.Equal(t, "ch-2", p.lives[0].ChannelID)

			sched, err := st.GetSchedule(ctx, "T")
			require.NoError(t, err)
			require.True(t, sched.Game("g1").HasLive())
			assert.Equal(t, "stored-1", sched.Game("g1").Live.VideoID)
			require.True(t, sched.Game("g2").HasLive())
			assert.Equal(t, "stored-2", sched.Game("g2").Live.VideoID)
			assert.False(t, sched.Game("g3").HasLive())
		})
	}
}

func TestLivesSkipsTeamsWithoutTokenOrSchedule(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	p := newFakePlatform()
	seedLives(t, st, homeGame("g1", now.Add(24*time.Hour)))
	require.NoError(t, st.PutMapping(ctx, &model.TeamMapping{TeamID: "U", SnifferID: "s1"}))
	p.tokenErr = errors.New("re-authentication required")

	res, err := newLives(st, p, nil).Run(ctx)
	require.NoError(t, err)
	require.Len(t, res.Teams, 2)
	assert.Equal(t, StatusSkipped, res.Teams[0].Status)
	assert.Contains(t, res.Teams[0].Reason, "token unavailable")
	assert.Equal(t, StatusSkipped, res.Teams[1].Status)
	assert.Equal(t, "no cached schedule", res.Teams[1].Reason)
	assert.Equal(t, 2, res.SkippedTeams)
	assert.Zero(t, p.liveCount())
}

func TestLivesConcurrentPassesCreateOnce(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	p := newFakePlatform()
	seedLives(t, st, homeGame("g1", now.Add(24*time.Hour)))
	l := newLives(st, p, nil)

	// Hold the first creation until the second pass is underway.
	release := make(chan struct{})
	var once sync.Once
	p.createHook = func() { once.Do(func() { <-release }) }

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Run(ctx)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, p.liveCount())
}

func TestRunTeam(t *testing.T) {
	st := newStore()
	p := newFakePlatform()
	seedLives(t, st, homeGame("g1", now.Add(24*time.Hour)))

	res, err := newLives(st, p, nil).RunTeam(context.Background(), "T")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	_, err = newLives(st, p, nil).RunTeam(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
