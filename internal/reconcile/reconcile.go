// Package reconcile brings video platform resources in line with the cached
// schedules and mappings: scheduled lives for upcoming home games, permanent
// team lives, and season replay playlists.
//
// Every pass processes teams one at a time and captures each team's failure
// in its result entry. A pass only returns an error when it cannot list its
// work at all. "Ensure exists" steps for the same team are collapsed through
// a shared Guard so concurrent passes do not create duplicates.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/albapepper/sideline/internal/model"
	"github.com/albapepper/sideline/internal/store"
	"github.com/albapepper/sideline/internal/title"
	"github.com/albapepper/sideline/internal/video"
)

// Platform is the video platform as seen by the reconcilers. Every method
// runs on behalf of a sniffer and refreshes its token as needed.
type Platform interface {
	Token(ctx context.Context, snifferID string) (string, error)
	CreateLive(ctx context.Context, snifferID string, req video.LiveRequest) (*model.LiveResource, error)
	GetVideo(ctx context.Context, snifferID, videoID string) (*video.Video, error)
	CreatePlaylist(ctx context.Context, snifferID string, req video.PlaylistRequest) (string, error)
	ListChannelVideos(ctx context.Context, snifferID, channelHandle string, count int) ([]video.Video, error)
	ListPlaylistVideos(ctx context.Context, snifferID, playlistID string) ([]string, error)
	AddToPlaylist(ctx context.Context, snifferID, playlistID, videoID string) error
}

// Store is the slice of the document store the reconcilers use.
type Store interface {
	GetSchedule(ctx context.Context, teamID string) (*model.TeamSchedule, error)
	PutSchedule(ctx context.Context, s *model.TeamSchedule) error
	GetMapping(ctx context.Context, teamID string) (*model.TeamMapping, error)
	PutMapping(ctx context.Context, m *model.TeamMapping) error
	ListMappings(ctx context.Context) ([]*model.TeamMapping, error)
	ListCameraOwners(ctx context.Context) ([]string, error)
	GetCameras(ctx context.Context, snifferID string) ([]model.CameraAssignment, error)
	PutCameras(ctx context.Context, snifferID string, cams []model.CameraAssignment) error
}

// Thumbnails looks up cached matchup thumbnails by game id.
type Thumbnails interface {
	Thumbnail(gameID string) ([]byte, bool)
}

// Guard collapses concurrent "ensure exists" work on the same key into one
// execution whose result every caller shares.
type Guard struct {
	group singleflight.Group
}

// Do runs fn once per key among concurrent callers.
func (g *Guard) Do(key string, fn func() (interface{}, error)) (interface{}, error) {
	v, err, _ := g.group.Do(key, fn)
	return v, err
}

// Team result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// loadSchedule returns the cached schedule of a team, or nil if none exists.
func loadSchedule(ctx context.Context, st Store, teamID string) (*model.TeamSchedule, error) {
	s, err := st.GetSchedule(ctx, teamID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return s, err
}

// ensurePlaylist returns the playlist id of a team's season, creating and
// persisting one if the mapping has none. The mapping is re-read under the
// guard so a playlist created by a concurrent pass is reused.
func ensurePlaylist(ctx context.Context, st Store, p Platform, guard *Guard, teamID string, season int, info model.TeamInfo, school string) (string, bool, error) {
	type ensured struct {
		id      string
		created bool
	}
	v, err := guard.Do("playlist:"+teamID+":"+strconv.Itoa(season), func() (interface{}, error) {
		m, err := st.GetMapping(ctx, teamID)
		if err != nil {
			return nil, fmt.Errorf("load mapping: %w", err)
		}
		if pl, ok := m.Playlist(season); ok {
			return ensured{id: pl.PlaylistID}, nil
		}

		name := title.Playlist(info, school, season)
		id, err := p.CreatePlaylist(ctx, m.SnifferID, video.PlaylistRequest{
			DisplayName: name,
			ChannelID:   m.ChannelID,
			Privacy:     m.Privacy,
		})
		if err != nil {
			return nil, fmt.Errorf("create playlist: %w", err)
		}
		m.SetPlaylist(season, model.SeasonPlaylist{PlaylistID: id, DisplayName: name})
		if err := st.PutMapping(ctx, m); err != nil {
			return nil, fmt.Errorf("persist playlist %s: %w", id, err)
		}
		return ensured{id: id, created: true}, nil
	})
	if err != nil {
		return "", false, err
	}
	e := v.(ensured)
	return e.id, e.created, nil
}

// clearPlaylist drops a season entry that still points at stale.
func clearPlaylist(ctx context.Context, st Store, guard *Guard, teamID string, season int, stale string) error {
	_, err := guard.Do("playlist-clear:"+teamID+":"+strconv.Itoa(season), func() (interface{}, error) {
		m, err := st.GetMapping(ctx, teamID)
		if err != nil {
			return nil, fmt.Errorf("load mapping: %w", err)
		}
		if pl, ok := m.Playlist(season); !ok || pl.PlaylistID != stale {
			return nil, nil
		}
		delete(m.Seasons, season)
		return nil, st.PutMapping(ctx, m)
	})
	return err
}

// fatalForTeam reports whether err makes further calls for the same sniffer
// pointless within this pass.
func fatalForTeam(err error) bool {
	return errors.Is(err, video.ErrReauthRequired) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
