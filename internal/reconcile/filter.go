package reconcile

import (
	"strings"
	"unicode"

	"github.com/albapepper/sideline/internal/model"
	"github.com/albapepper/sideline/internal/video"
)

// Replay classification is best effort. An exact team-name tag is trusted
// outright; otherwise the title must name the team's gender and sport and
// carry a compatible level marker.

var genderWords = map[string][]string{
	"MENS":   {"boys", "boy", "mens", "men"},
	"WOMENS": {"girls", "girl", "womens", "women", "ladies", "lady"},
}

// Level markers, checked in this order so "junior varsity" is never read as
// varsity and "junior high" never as JV.
var levelMarkers = []struct {
	level   string
	phrases []string
}{
	{"JV", []string{"jv", "junior varsity"}},
	{"JUNIOR_HIGH", []string{"junior high", "jh", "middle school", "7th grade", "8th grade"}},
	{"FRESHMAN", []string{"freshman", "frosh", "9th grade"}},
	{"VARSITY", []string{"varsity"}},
}

// IsTeamReplay reports whether v looks like a replay of the team.
func IsTeamReplay(info model.TeamInfo, v video.Video) bool {
	if name := strings.TrimSpace(info.Name); name != "" {
		for _, tag := range v.Tags {
			if strings.EqualFold(strings.TrimSpace(tag), name) {
				return true
			}
		}
	}
	return titleMatches(info, v.Name)
}

func titleMatches(info model.TeamInfo, videoTitle string) bool {
	tokens := normalize(videoTitle)
	if len(tokens) == 0 {
		return false
	}
	phrase := " " + strings.Join(tokens, " ") + " "

	if words, ok := genderWords[strings.ToUpper(info.Gender)]; ok && !hasAnyToken(tokens, words) {
		return false
	}

	sport := strings.Join(normalize(strings.ReplaceAll(info.Sport, "_", " ")), " ")
	if sport == "" || !strings.Contains(phrase, " "+sport+" ") {
		return false
	}

	want := teamLevel(info)
	got := detectLevel(phrase)
	if got == "" {
		return want == "VARSITY"
	}
	return got == want
}

// teamLevel is the team's level, overridden to JUNIOR_HIGH when the team
// name itself says so.
func teamLevel(info model.TeamInfo) string {
	if detectLevel(" "+strings.Join(normalize(info.Name), " ")+" ") == "JUNIOR_HIGH" {
		return "JUNIOR_HIGH"
	}
	if info.Level == "" {
		return "VARSITY"
	}
	return strings.ToUpper(info.Level)
}

func detectLevel(phrase string) string {
	for _, m := range levelMarkers {
		for _, p := range m.phrases {
			if strings.Contains(phrase, " "+p+" ") {
				return m.level
			}
		}
	}
	return ""
}

func hasAnyToken(tokens, words []string) bool {
	for _, t := range tokens {
		for _, w := range words {
			if t == w {
				return true
			}
		}
	}
	return false
}

// normalize lowercases s and splits it on anything that is not a letter or
// digit, so "Boys' Varsity-Basketball" becomes [boys varsity basketball].
func normalize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
