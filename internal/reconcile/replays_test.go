package reconcile

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/sideline/internal/model"
	"github.com/albapepper/sideline/internal/store"
	"github.com/albapepper/sideline/internal/video"
)

func seedReplays(t *testing.T, st *store.Store, p *fakePlatform) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.PutSchedule(ctx, &model.TeamSchedule{TeamID: "T", Team: boysVarsity}))
	m := &model.TeamMapping{TeamID: "T", ChannelID: "ch-1", ChannelHandle: "central_hoops", SnifferID: "s1", PermanentLiveID: "perm"}
	m.SetPlaylist(2024, model.SeasonPlaylist{PlaylistID: "pl-2024", DisplayName: "last season"})
	require.NoError(t, st.PutMapping(ctx, m))

	nov := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	p.channel = []video.Video{
		{ID: "perm", Name: "Central Boys Varsity Basketball Live", CreatedAt: nov},
		{ID: "r1", Name: "Boys Varsity Basketball vs Eastside", CreatedAt: nov},
		{ID: "r2", Name: "Senior night", Tags: []string{"Central Boys Varsity Basketball"}, CreatedAt: nov},
		{ID: "girls", Name: "Girls JV Basketball vs Eastside", CreatedAt: nov},
		{ID: "old", Name: "Boys Varsity Basketball vs Westview", CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "streaming", Name: "Boys Varsity Basketball now", IsLive: true, CreatedAt: nov},
	}
}

func newReplays(st *store.Store, p *fakePlatform) *Replays {
	r := NewReplays(st, p, &Guard{}, "Central", nil)
	r.now = func() time.Time { return now }
	return r
}

func TestReplaysCreatesPlaylistAndAddsTeamReplays(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	p := newFakePlatform()
	seedReplays(t, st, p)

	res, err := newReplays(st, p).Run(ctx)
	require.NoError(t, err)
	require.Len(t, res.Teams, 1)
	team := res.Teams[0]
	assert.Equal(t, StatusSuccess, team.Status, team.Reason)
	assert.Equal(t, 2025, team.Season)
	assert.True(t, team.PlaylistCreated)
	assert.Equal(t, 2, team.Added)

	assert.ElementsMatch(t, []string{"r1", "r2"}, p.playlists[team.PlaylistID])
	assert.Equal(t, "Central Boys Varsity Basketball 2025-26", p.playlistNames[team.PlaylistID])

	m, err := st.GetMapping(ctx, "T")
	require.NoError(t, err)
	pl, ok := m.Playlist(2025)
	require.True(t, ok)
	assert.Equal(t, team.PlaylistID, pl.PlaylistID)
	_, ok = m.Playlist(2024)
	assert.True(t, ok, "other seasons are kept")
}

func TestReplaysSecondPassAddsNothing(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	p := newFakePlatform()
	seedReplays(t, st, p)
	r := newReplays(st, p)

	_, err := r.Run(ctx)
	require.NoError(t, err)
	res, err := r.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Added)
	assert.Equal(t, 0, res.Playlists)
	assert.Equal(t, StatusSuccess, res.Teams[0].Status)
	assert.Len(t, p.playlists, 1)
}

func TestReplaysRecreatesDeletedPlaylist(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	p := newFakePlatform()
	seedReplays(t, st, p)
	r := newReplays(st, p)

	first, err := r.Run(ctx)
	require.NoError(t, err)
	original := first.Teams[0].PlaylistID
	p.deletePlaylist(original)

	res, err := r.Run(ctx)
	require.NoError(t, err)
	team := res.Teams[0]
	assert.Equal(t, StatusSuccess, team.Status, team.Reason)
	assert.NotEqual(t, original, team.PlaylistID)
	assert.True(t, team.PlaylistCreated)
	assert.Equal(t, 2, team.Added)

	m, err := st.GetMapping(ctx, "T")
	require.NoError(t, err)
	pl, _ := m.Playlist(2025)
	assert.Equal(t, team.PlaylistID, pl.PlaylistID)
}

func TestReplaysPerVideoFailureContinues(t *testing.T) {
	st := newStore()
	p := newFakePlatform()
	seedReplays(t, st, p)
	p.failAdd["r1"] = true

	res, err := newReplays(st, p).Run(context.Background())
	require.NoError(t, err)
	team := res.Teams[0]
	assert.Equal(t, StatusError, team.Status)
	assert.Equal(t, 1, team.Added)
	assert.Equal(t, 1, team.Failed)
	assert.Equal(t, []string{"r2"}, p.playlists[team.PlaylistID])
}

func TestReplaysReauthFailsOnlyThatTeam(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	p := newFakePlatform()
	seedReplays(t, st, p)

	// T already has this season's playlist; listing its channel needs re-auth.
	m, err := st.GetMapping(ctx, "T")
	require.NoError(t, err)
	m.SetPlaylist(2025, model.SeasonPlaylist{PlaylistID: "pl-keep"})
	require.NoError(t, st.PutMapping(ctx, m))
	p.playlists["pl-keep"] = nil

	// V has no playlist yet; creating one needs re-auth.
	v := &model.TeamMapping{TeamID: "V", ChannelID: "ch-3", SnifferID: "s3", PermanentLiveID: "perm-v"}
	v.SetPlaylist(2024, model.SeasonPlaylist{PlaylistID: "pl-v-2024"})
	require.NoError(t, st.PutMapping(ctx, v))
	require.NoError(t, st.PutSchedule(ctx, &model.TeamSchedule{TeamID: "V", Team: boysVarsity}))

	// U shares the fake channel, and with it the permanent live.
	u := &model.TeamMapping{TeamID: "U", ChannelID: "ch-2", SnifferID: "s2", PermanentLiveID: "perm"}
	u.SetPlaylist(2024, model.SeasonPlaylist{PlaylistID: "pl-u-2024"})
	require.NoError(t, st.PutMapping(ctx, u))
	require.NoError(t, st.PutSchedule(ctx, &model.TeamSchedule{TeamID: "U", Team: boysVarsity}))

	p.snifferErr["s1"] = fmt.Errorf("list videos: %w", video.ErrReauthRequired)
	p.snifferErr["s3"] = fmt.Errorf("create playlist: %w", video.ErrReauthRequired)

	res, err := newReplays(st, p).Run(ctx)
	require.NoError(t, err)
	require.Len(t, res.Teams, 3)

	byTeam := map[string]*TeamReplays{}
	for _, team := range res.Teams {
		byTeam[team.TeamID] = team
	}
	assert.Equal(t, StatusError, byTeam["T"].Status)
	assert.Contains(t, byTeam["T"].Reason, "list channel videos")
	assert.Equal(t, StatusError, byTeam["V"].Status)
	assert.Contains(t, byTeam["V"].Reason, "create playlist")
	assert.Equal(t, StatusSuccess, byTeam["U"].Status, byTeam["U"].Reason)
	assert.Equal(t, 2, byTeam["U"].Added)

	m, err = st.GetMapping(ctx, "T")
	require.NoError(t, err)
	pl, ok := m.Playlist(2025)
	require.True(t, ok)
	assert.Equal(t, "pl-keep", pl.PlaylistID)
	assert.Empty(t, p.playlists["pl-keep"])

	v, err = st.GetMapping(ctx, "V")
	require.NoError(t, err)
	_, ok = v.Playlist(2025)
	assert.False(t, ok)
}

func TestReplaysReauthStopsAdding(t *testing.T) {
	st := newStore()
	p := newFakePlatform()
	seedReplays(t, st, p)
	p.addErr = fmt.Errorf("add item: %w", video.ErrReauthRequired)

	res, err := newReplays(st, p).Run(context.Background())
	require.NoError(t, err)
	team := res.Teams[0]
	assert.Equal(t, StatusError, team.Status)
	assert.Equal(t, 1, team.Failed)
	assert.Zero(t, team.Added)
}

func TestReplaysSkipsAndErrors(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	p := newFakePlatform()

	noPerm := &model.TeamMapping{TeamID: "A", SnifferID: "s1"}
	noPerm.SetPlaylist(2025, model.SeasonPlaylist{PlaylistID: "x"})
	require.NoError(t, st.PutMapping(ctx, noPerm))
	require.NoError(t, st.PutMapping(ctx, &model.TeamMapping{TeamID: "B", SnifferID: "s1", PermanentLiveID: "perm"}))

	// Permanent live known only from the schedule.
	c := &model.TeamMapping{TeamID: "C", SnifferID: "s1"}
	c.SetPlaylist(2025, model.SeasonPlaylist{PlaylistID: "x"})
	require.NoError(t, st.PutMapping(ctx, c))
	require.NoError(t, st.PutSchedule(ctx, &model.TeamSchedule{
		TeamID: "C", Team: boysVarsity, PermanentLive: &model.LiveResource{VideoID: "perm-c"},
	}))
	p.tokenErr = errors.New("re-authentication required")

	res, err := newReplays(st, p).Run(ctx)
	require.NoError(t, err)
	require.Len(t, res.Teams, 3)
	assert.Equal(t, "no permanent live", res.Teams[0].Reason)
	assert.Equal(t, "no season entries", res.Teams[1].Reason)
	assert.Equal(t, StatusError, res.Teams[2].Status)
	assert.Contains(t, res.Teams[2].Reason, "token unavailable")
	assert.Equal(t, "teams=3 success=0 error=1 skipped=2 added=0 playlists_created=0", res.Summary())
}

func TestReplaysSeasonFallsBackToCalendarYear(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	p := newFakePlatform()
	m := &model.TeamMapping{TeamID: "T", SnifferID: "s1", PermanentLiveID: "perm"}
	m.SetPlaylist(2024, model.SeasonPlaylist{PlaylistID: "pl-2024"})
	require.NoError(t, st.PutMapping(ctx, m))

	res, err := newReplays(st, p).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, now.Year(), res.Teams[0].Season)
	assert.Equal(t, StatusSuccess, res.Teams[0].Status)
}
