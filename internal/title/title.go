// Package title generates game titles, playlist titles, and tags from team
// metadata.
package title

import (
	"fmt"
	"strings"

	"github.com/albapepper/sideline/internal/model"
)

// MaxTagLength is the longest tag the video platform accepts.
const MaxTagLength = 30

var genders = map[string]string{
	"MENS":   "Boys",
	"WOMENS": "Girls",
	"COED":   "Coed",
}

var levels = map[string]string{
	"VARSITY":     "Varsity",
	"JV":          "JV",
	"FRESHMAN":    "Freshman",
	"JUNIOR_HIGH": "Junior High",
}

// Gender returns the display label of a gender code.
func Gender(code string) string {
	if l, ok := genders[code]; ok {
		return l
	}
	return humanize(code)
}

// Level returns the display label of a level code.
func Level(code string) string {
	if l, ok := levels[code]; ok {
		return l
	}
	return humanize(code)
}

// Sport title-cases a sport code: CROSS_COUNTRY -> Cross Country.
func Sport(code string) string {
	return humanize(code)
}

// Team returns "<Gender> <Level> <Sport>", skipping empty parts.
func Team(info model.TeamInfo) string {
	return join(Gender(info.Gender), Level(info.Level), Sport(info.Sport))
}

// School returns the school name carried by the team, else fallback.
func School(info model.TeamInfo, fallback string) string {
	if info.SchoolName != "" {
		return info.SchoolName
	}
	return fallback
}

// Game returns the matchup title of a game.
func Game(info model.TeamInfo, school string, g model.Game) string {
	sep := "vs"
	if g.HomeAway == model.Away {
		sep = "@"
	}
	opp := g.Opponent.Name
	if opp == "" {
		opp = "TBD"
	}
	matchup := join(School(info, school), sep, opp)
	team := Team(info)
	if team == "" {
		return matchup
	}
	return team + ": " + matchup
}

// Playlist returns the season playlist title, e.g.
// "Central Boys Varsity Basketball 2025-26".
func Playlist(info model.TeamInfo, school string, season int) string {
	return join(School(info, school), Team(info), fmt.Sprintf("%d-%02d", season, (season+1)%100))
}

// PermanentLive returns the title of a team's permanent live.
func PermanentLive(info model.TeamInfo, school string) string {
	return join(School(info, school), Team(info), "Live")
}

// Tags builds the tag list for a live video: the team name first, then the
// extra tags, then sport, level, gender and school. Tags are deduplicated
// case-insensitively, truncated to MaxTagLength runes, and capped at limit.
func Tags(info model.TeamInfo, school string, limit int, extra ...string) []string {
	candidates := append([]string{info.Name}, extra...)
	candidates = append(candidates,
		Sport(info.Sport),
		Level(info.Level),
		Gender(info.Gender),
		School(info, school),
	)

	seen := make(map[string]bool)
	var out []string
	for _, t := range candidates {
		if len(out) >= limit {
			break
		}
		t = strings.TrimSpace(t)
		if r := []rune(t); len(r) > MaxTagLength {
			t = strings.TrimSpace(string(r[:MaxTagLength]))
		}
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return out
}

// RegenerateTitles fills the title of every game in the schedule.
func RegenerateTitles(s *model.TeamSchedule, school string) {
	for i := range s.Games {
		s.Games[i].Title = Game(s.Team, school, s.Games[i])
	}
}

func humanize(code string) string {
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(code), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func join(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
