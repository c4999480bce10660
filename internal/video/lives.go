package video

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// LiveRequest describes a live to create.
type LiveRequest struct {
	ChannelID      string
	Name           string
	Description    string
	Privacy        int
	Tags           []string
	SaveReplay     bool
	PermanentLive  bool
	ScheduledStart time.Time // zero starts immediately
	Thumbnail      []byte    // JPEG, optional
}

// LiveInfo carries the ingest endpoint of a live.
type LiveInfo struct {
	RTMPURL   string `json:"rtmpUrl"`
	StreamKey string `json:"streamKey"`
}

// CreateLive creates a live video and returns its id.
func (c *Client) CreateLive(ctx context.Context, token string, req LiveRequest) (string, error) {
	privacy := req.Privacy
	if privacy == 0 {
		privacy = PrivacyPublic
	}
	fields := []formField{
		{Name: "channelId", Value: req.ChannelID},
		{Name: "name", Value: req.Name},
		{Name: "privacy", Value: strconv.Itoa(privacy)},
		{Name: "saveReplay", Value: strconv.FormatBool(req.SaveReplay)},
		{Name: "permanentLive", Value: strconv.FormatBool(req.PermanentLive)},
	}
	if req.Description != "" {
		fields = append(fields, formField{Name: "description", Value: req.Description})
	}
	for _, t := range req.Tags {
		fields = append(fields, formField{Name: "tags[]", Value: t})
	}
	if !req.ScheduledStart.IsZero() {
		fields = append(fields, formField{
			Name:  "schedules[0][startAt]",
			Value: req.ScheduledStart.UTC().Format(time.RFC3339),
		})
	}
	if len(req.Thumbnail) > 0 {
		fields = append(fields, formField{Name: "thumbnailfile", Value: "thumbnail.jpg", File: req.Thumbnail})
	}

	var resp struct {
		Video struct {
			ID   int    `json:"id"`
			UUID string `json:"uuid"`
		} `json:"video"`
	}
	if err := c.sendForm(ctx, "POST", "/api/v1/videos/live", token, fields, &resp); err != nil {
		return "", fmt.Errorf("create live %q: %w", req.Name, err)
	}
	if resp.Video.UUID == "" {
		return "", fmt.Errorf("create live %q: response carried no video id", req.Name)
	}
	return resp.Video.UUID, nil
}

// GetLiveInfo returns the ingest endpoint of a live.
func (c *Client) GetLiveInfo(ctx context.Context, token, videoID string) (*LiveInfo, error) {
	var info LiveInfo
	if err := c.getJSON(ctx, "/api/v1/videos/live/"+url.PathEscape(videoID), token, nil, &info); err != nil {
		return nil, fmt.Errorf("get live %s: %w", videoID, err)
	}
	return &info, nil
}
