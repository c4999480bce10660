package video

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Privacy levels accepted by the platform.
const (
	PrivacyPublic   = 1
	PrivacyUnlisted = 2
	PrivacyPrivate  = 3
)

// Video is a video or live on the platform. ID is the platform uuid.
type Video struct {
	ID          string    `json:"uuid"`
	NumericID   int       `json:"id"`
	Name        string    `json:"name"`
	IsLive      bool      `json:"isLive"`
	CreatedAt   time.Time `json:"createdAt"`
	PublishedAt time.Time `json:"publishedAt"`
	Tags        []string  `json:"tags"`
}

// Channel is a video channel owned by the signed-in account.
type Channel struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// VideoUpdate carries the fields to change; nil fields are left alone.
type VideoUpdate struct {
	Name    *string  `json:"name,omitempty"`
	Privacy *int     `json:"privacy,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

type page[T any] struct {
	Total int `json:"total"`
	Data  []T `json:"data"`
}

// GetVideo fetches one video by id.
func (c *Client) GetVideo(ctx context.Context, token, videoID string) (*Video, error) {
	var v Video
	if err := c.getJSON(ctx, "/api/v1/videos/"+url.PathEscape(videoID), token, nil, &v); err != nil {
		return nil, fmt.Errorf("get video %s: %w", videoID, err)
	}
	return &v, nil
}

// UpdateVideo changes video metadata.
func (c *Client) UpdateVideo(ctx context.Context, token, videoID string, upd VideoUpdate) error {
	if err := c.sendJSON(ctx, "PUT", "/api/v1/videos/"+url.PathEscape(videoID), token, upd, nil); err != nil {
		return fmt.Errorf("update video %s: %w", videoID, err)
	}
	return nil
}

// DeleteVideo removes a video.
func (c *Client) DeleteVideo(ctx context.Context, token, videoID string) error {
	if err := c.sendJSON(ctx, "DELETE", "/api/v1/videos/"+url.PathEscape(videoID), token, nil, nil); err != nil {
		return fmt.Errorf("delete video %s: %w", videoID, err)
	}
	return nil
}

// ListChannelVideos returns the most recent videos of a channel, newest
// first, up to count.
func (c *Client) ListChannelVideos(ctx context.Context, token, channelHandle string, count int) ([]Video, error) {
	params := url.Values{}
	params.Set("count", strconv.Itoa(count))
	params.Set("sort", "-publishedAt")

	var p page[Video]
	if err := c.getJSON(ctx, "/api/v1/video-channels/"+url.PathEscape(channelHandle)+"/videos", token, params, &p); err != nil {
		return nil, fmt.Errorf("list channel %s videos: %w", channelHandle, err)
	}
	return p.Data, nil
}

// ListChannels returns the channels of the signed-in account.
func (c *Client) ListChannels(ctx context.Context, token string) ([]Channel, error) {
	var me struct {
		VideoChannels []Channel `json:"videoChannels"`
	}
	if err := c.getJSON(ctx, "/api/v1/users/me", token, nil, &me); err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return me.VideoChannels, nil
}

// Categories returns the platform's video categories keyed by id.
func (c *Client) Categories(ctx context.Context) (map[string]string, error) {
	out := map[string]string{}
	if err := c.getJSON(ctx, "/api/v1/videos/categories", "", nil, &out); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// Privacies returns the platform's privacy levels keyed by id.
func (c *Client) Privacies(ctx context.Context) (map[string]string, error) {
	out := map[string]string{}
	if err := c.getJSON(ctx, "/api/v1/videos/privacies", "", nil, &out); err != nil {
		return nil, fmt.Errorf("list privacies: %w", err)
	}
	return out, nil
}
