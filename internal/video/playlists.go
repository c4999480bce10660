package video

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// playlistPageSize is the largest page the platform serves.
const playlistPageSize = 100

// PlaylistRequest describes a playlist to create.
type PlaylistRequest struct {
	DisplayName string
	ChannelID   string
	Privacy     int
}

// CreatePlaylist creates a playlist and returns its id.
func (c *Client) CreatePlaylist(ctx context.Context, token string, req PlaylistRequest) (string, error) {
	privacy := req.Privacy
	if privacy == 0 {
		privacy = PrivacyPublic
	}
	fields := []formField{
		{Name: "displayName", Value: req.DisplayName},
		{Name: "privacy", Value: strconv.Itoa(privacy)},
	}
	if req.ChannelID != "" {
		fields = append(fields, formField{Name: "videoChannelId", Value: req.ChannelID})
	}

	var resp struct {
		VideoPlaylist struct {
			ID   int    `json:"id"`
			UUID string `json:"uuid"`
		} `json:"videoPlaylist"`
	}
	if err := c.sendForm(ctx, "POST", "/api/v1/video-playlists", token, fields, &resp); err != nil {
		return "", fmt.Errorf("create playlist %q: %w", req.DisplayName, err)
	}
	if resp.VideoPlaylist.UUID == "" {
		return "", fmt.Errorf("create playlist %q: response carried no playlist id", req.DisplayName)
	}
	return resp.VideoPlaylist.UUID, nil
}

// AddToPlaylist appends a video to a playlist.
func (c *Client) AddToPlaylist(ctx context.Context, token, playlistID, videoID string) error {
	body := map[string]string{"videoId": videoID}
	path := "/api/v1/video-playlists/" + url.PathEscape(playlistID) + "/videos"
	if err := c.sendJSON(ctx, "POST", path, token, body, nil); err != nil {
		return fmt.Errorf("add video %s to playlist %s: %w", videoID, playlistID, err)
	}
	return nil
}

// ListPlaylistVideos returns the ids of every video in a playlist.
func (c *Client) ListPlaylistVideos(ctx context.Context, token, playlistID string) ([]string, error) {
	type element struct {
		Video *Video `json:"video"`
	}
	path := "/api/v1/video-playlists/" + url.PathEscape(playlistID) + "/videos"

	var ids []string
	for start := 0; ; start += playlistPageSize {
		params := url.Values{}
		params.Set("start", strconv.Itoa(start))
		params.Set("count", strconv.Itoa(playlistPageSize))

		var p page[element]
		if err := c.getJSON(ctx, path, token, params, &p); err != nil {
			return nil, fmt.Errorf("list playlist %s: %w", playlistID, err)
		}
		for _, e := range p.Data {
			// Deleted or private videos come back with a null video.
			if e.Video != nil {
				ids = append(ids, e.Video.ID)
			}
		}
		if len(p.Data) < playlistPageSize || start+len(p.Data) >= p.Total {
			return ids, nil
		}
	}
}
