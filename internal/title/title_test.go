package title

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/sideline/internal/model"
)

var boysVarsity = model.TeamInfo{
	Name:   "Central Boys Varsity Basketball",
	Sport:  "BASKETBALL",
	Gender: "MENS",
	Level:  "VARSITY",
	Season: 2025,
}

func TestGameTitle(t *testing.T) {
	home := model.Game{HomeAway: model.Home, Opponent: model.Opponent{Name: "Eastside"}}
	away := model.Game{HomeAway: model.Away, Opponent: model.Opponent{Name: "Eastside"}}

	assert.Equal(t, "Boys Varsity Basketball: Central vs Eastside", Game(boysVarsity, "Central", home))
	assert.Equal(t, "Boys Varsity Basketball: Central @ Eastside", Game(boysVarsity, "Central", away))
}

func TestGameTitlePrefersTeamSchool(t *testing.T) {
	info := boysVarsity
	info.SchoolName = "North"
	g := model.Game{HomeAway: model.Neutral, Opponent: model.Opponent{Name: "South"}}
	assert.Equal(t, "Boys Varsity Basketball: North vs South", Game(info, "Central", g))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Girls", Gender("WOMENS"))
	assert.Equal(t, "Junior High", Level("JUNIOR_HIGH"))
	assert.Equal(t, "Cross Country", Sport("CROSS_COUNTRY"))
	assert.Equal(t, "", Sport(""))
}

func TestPlaylistTitle(t *testing.T) {
	assert.Equal(t, "Central Boys Varsity Basketball 2025-26", Playlist(boysVarsity, "Central", 2025))
	assert.Equal(t, "Central Boys Varsity Basketball 2099-00", Playlist(boysVarsity, "Central", 2099))
}

func TestPermanentLiveTitle(t *testing.T) {
	assert.Equal(t, "Central Boys Varsity Basketball Live", PermanentLive(boysVarsity, "Central"))
	assert.Equal(t, "Central Live", PermanentLive(model.TeamInfo{}, "Central"))
}

func TestTagsDedupedTruncatedAndCapped(t *testing.T) {
	tags := Tags(boysVarsity, "Central", 5, "basketball", "A very long tag that exceeds thirty characters")
	assert.Len(t, tags, 5)
	assert.Equal(t, "Central Boys Varsity Basketball", tags[0])
	assert.Equal(t, "basketball", tags[1])
	assert.NotContains(t, tags, "Basketball")
	for _, tag := range tags {
		assert.LessOrEqual(t, len(tag), MaxTagLength)
	}

	assert.Empty(t, Tags(boysVarsity, "Central", 0))
}

func TestTagsKeepTeamNameAheadOfExtras(t *testing.T) {
	extra := []string{"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}
	tags := Tags(boysVarsity, "Central", 5, extra...)
	assert.Equal(t, []string{"Central Boys Varsity Basketball", "one", "two", "three", "four"}, tags)
}

func TestTagsTruncateByRune(t *testing.T) {
	long := strings.Repeat("é", 40)
	tags := Tags(model.TeamInfo{}, "", 5, long)
	require.Len(t, tags, 1)
	assert.True(t, utf8.ValidString(tags[0]))
	assert.Equal(t, MaxTagLength, utf8.RuneCountInString(tags[0]))
}

func TestRegenerateTitles(t *testing.T) {
	s := &model.TeamSchedule{
		Team: boysVarsity,
		Games: []model.Game{
			{ID: "1", HomeAway: model.Home, Opponent: model.Opponent{Name: "A"}},
			{ID: "2", HomeAway: model.Away, Opponent: model.Opponent{Name: "B"}},
		},
	}
	RegenerateTitles(s, "Central")
	assert.Equal(t, "Boys Varsity Basketball: Central vs A", s.Games[0].Title)
	assert.Equal(t, "Boys Varsity Basketball: Central @ B", s.Games[1].Title)
}
