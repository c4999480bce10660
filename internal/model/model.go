// Package model defines the documents shared by the scraper, matcher, and
// reconcilers. Every type here is persisted whole through internal/store.
package model

import (
	"sort"
	"time"
)

// --------------------------------------------------------------------------
// Schedules
// --------------------------------------------------------------------------

// HomeAway is the venue designation of a game relative to the team.
type HomeAway string

const (
	Home    HomeAway = "HOME"
	Away    HomeAway = "AWAY"
	Neutral HomeAway = "NEUTRAL"
)

// Opponent describes the other side of a game.
type Opponent struct {
	Name     string `json:"name"`
	SchoolID string `json:"school_id,omitempty"`
	Mascot   string `json:"mascot,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// LiveResource identifies a live video on the video platform.
type LiveResource struct {
	VideoID   string    `json:"video_id"`
	RTMPURL   string    `json:"rtmp_url,omitempty"`
	StreamKey string    `json:"stream_key,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Game is a single schedule entry.
type Game struct {
	ID              string        `json:"id"`
	HomeAway        HomeAway      `json:"home_away"`
	Opponent        Opponent      `json:"opponent"`
	StartTime       time.Time     `json:"start_time"`
	Outcome         int           `json:"outcome"` // 0 = not yet played
	BroadcastStatus string        `json:"broadcast_status,omitempty"`
	Title           string        `json:"title,omitempty"`
	Live            *LiveResource `json:"live,omitempty"`
}

// Played reports whether the provider has recorded an outcome.
func (g *Game) Played() bool { return g.Outcome != 0 }

// HasLive reports whether a live resource id is recorded for the game.
func (g *Game) HasLive() bool { return g.Live != nil && g.Live.VideoID != "" }

// TeamInfo is the team metadata carried by a schedule.
type TeamInfo struct {
	Name       string `json:"name"`
	Sport      string `json:"sport"`  // BASKETBALL, FOOTBALL, ...
	Gender     string `json:"gender"` // MENS, WOMENS, COED
	Level      string `json:"level"`  // VARSITY, JV, FRESHMAN, JUNIOR_HIGH
	Season     int    `json:"season"`
	LogoURL    string `json:"logo_url,omitempty"`
	OrgID      string `json:"org_id,omitempty"`
	SchoolName string `json:"school_name,omitempty"`
}

// TeamSchedule is the cached schedule of one team. It is replaced wholesale
// on refresh; only the live-resource fields are updated in place.
type TeamSchedule struct {
	TeamID        string        `json:"team_id"`
	SeasonID      string        `json:"season_id,omitempty"`
	Team          TeamInfo      `json:"team"`
	Games         []Game        `json:"games"`
	ScrapedAt     time.Time     `json:"scraped_at"`
	PermanentLive *LiveResource `json:"permanent_live,omitempty"`
}

// Game returns a pointer to the game with the given id, or nil.
func (s *TeamSchedule) Game(id string) *Game {
	for i := range s.Games {
		if s.Games[i].ID == id {
			return &s.Games[i]
		}
	}
	return nil
}

// SortGames orders games by start time, then id.
func (s *TeamSchedule) SortGames() {
	sort.SliceStable(s.Games, func(i, j int) bool {
		a, b := s.Games[i], s.Games[j]
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.Before(b.StartTime)
		}
		return a.ID < b.ID
	})
}

// --------------------------------------------------------------------------
// Mappings
// --------------------------------------------------------------------------

// SeasonPlaylist is the replay playlist of one season.
type SeasonPlaylist struct {
	PlaylistID  string `json:"playlist_id"`
	DisplayName string `json:"display_name"`
}

// TeamMapping binds a team to a channel on the video platform.
type TeamMapping struct {
	TeamID          string                 `json:"team_id"`
	ChannelID       string                 `json:"channel_id"`
	ChannelHandle   string                 `json:"channel_handle"`
	SnifferID       string                 `json:"sniffer_id"` // owner account
	Tags            []string               `json:"tags,omitempty"`
	Privacy         int                    `json:"privacy,omitempty"`
	PermanentLiveID string                 `json:"permanent_live_id,omitempty"`
	Seasons         map[int]SeasonPlaylist `json:"seasons,omitempty"`
}

// Playlist returns the playlist entry for a season.
func (m *TeamMapping) Playlist(season int) (SeasonPlaylist, bool) {
	p, ok := m.Seasons[season]
	if !ok || p.PlaylistID == "" {
		return SeasonPlaylist{}, false
	}
	return p, true
}

// SetPlaylist records the playlist of a season.
func (m *TeamMapping) SetPlaylist(season int, p SeasonPlaylist) {
	if m.Seasons == nil {
		m.Seasons = make(map[int]SeasonPlaylist)
	}
	m.Seasons[season] = p
}

// --------------------------------------------------------------------------
// Sniffers
// --------------------------------------------------------------------------

// CameraAssignment binds a camera owned by a sniffer to a team.
type CameraAssignment struct {
	CameraID        string `json:"camera_id"`
	Path            string `json:"path"`
	TeamID          string `json:"team_id,omitempty"`
	PermanentLiveID string `json:"permanent_live_id,omitempty"`
}

// SnifferCredential is the stored identity of one sniffer.
type SnifferCredential struct {
	SnifferID         string    `json:"sniffer_id"`
	SessionToken      string    `json:"session_token,omitempty"`
	SessionExpiry     time.Time `json:"session_expiry,omitempty"`
	PlatformUsername  string    `json:"platform_username"`
	EncryptedPassword string    `json:"encrypted_password,omitempty"`
	AccessToken       string    `json:"access_token,omitempty"`
	TokenRefreshedAt  time.Time `json:"token_refreshed_at,omitempty"`
	LastSeen          time.Time `json:"last_seen,omitempty"`
}
