package video

import (
	"context"
	"log/slog"
	"time"

	"github.com/albapepper/sideline/internal/model"
)

// Service exposes the platform operations the reconcilers need, keyed by
// sniffer rather than token. Every call goes through Authed.
type Service struct {
	client *Client
	authed *Authed
	logger *slog.Logger
	now    func() time.Time
}

// NewService binds a client to a credential-refreshing wrapper.
func NewService(client *Client, authed *Authed, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, authed: authed, logger: logger, now: time.Now}
}

// Token resolves the sniffer's current access token.
func (s *Service) Token(ctx context.Context, snifferID string) (string, error) {
	return s.authed.Token(ctx, snifferID)
}

// CreateLive creates a live and fetches its ingest endpoint. A failed endpoint
// lookup is logged; the created video id is still returned so the live is
// never orphaned.
func (s *Service) CreateLive(ctx context.Context, snifferID string, req LiveRequest) (*model.LiveResource, error) {
	var id string
	err := s.authed.Do(ctx, snifferID, func(ctx context.Context, token string) error {
		var err error
		id, err = s.client.CreateLive(ctx, token, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	live := &model.LiveResource{VideoID: id, CreatedAt: s.now().UTC()}
	err = s.authed.Do(ctx, snifferID, func(ctx context.Context, token string) error {
		info, err := s.client.GetLiveInfo(ctx, token, id)
		if err != nil {
			return err
		}
		live.RTMPURL, live.StreamKey = info.RTMPURL, info.StreamKey
		return nil
	})
	if err != nil {
		s.logger.Warn("Live created without ingest details", "video", id, "error", err)
	}
	return live, nil
}

func (s *Service) GetVideo(ctx context.Context, snifferID, videoID string) (*Video, error) {
	var v *Video
	err := s.authed.Do(ctx, snifferID, func(ctx context.Context, token string) error {
		var err error
		v, err = s.client.GetVideo(ctx, token, videoID)
		return err
	})
	return v, err
}

func (s *Service) UpdateVideo(ctx context.Context, snifferID, videoID string, upd VideoUpdate) error {
	return s.authed.Do(ctx, snifferID, func(ctx context.Context, token string) error {
		return s.client.UpdateVideo(ctx, token, videoID, upd)
	})
}

func (s *Service) DeleteVideo(ctx context.Context, snifferID, videoID string) error {
	return s.authed.Do(ctx, snifferID, func(ctx context.Context, token string) error {
		return s.client.DeleteVideo(ctx, token, videoID)
	})
}

func (s *Service) ListChannels(ctx context.Context, snifferID string) ([]Channel, error) {
	var out []Channel
	err := s.authed.Do(ctx, snifferID, func(ctx context.Context, token string) error {
		var err error
		out, err = s.client.ListChannels(ctx, token)
		return err
	})
	return out, err
}

func (s *Service) ListChannelVideos(ctx context.Context, snifferID, channelHandle string, count int) ([]Video, error) {
	var out []Video
	err := s.authed.Do(ctx, snifferID, func(ctx context.Context, token string) error {
		var err error
		out, err = s.client.ListChannelVideos(ctx, token, channelHandle, count)
		return err
	})
	return out, err
}

func (s *Service) CreatePlaylist(ctx context.Context, snifferID string, req PlaylistRequest) (string, error) {
	var id string
	err := s.authed.Do(ctx, snifferID, func(ctx context.Context, token string) error {
		var err error
		id, err = s.client.CreatePlaylist(ctx, token, req)
		return err
	})
	return id, err
}

func (s *Service) ListPlaylistVideos(ctx context.Context, snifferID, playlistID string) ([]string, error) {
	var out []string
	err := s.authed.Do(ctx, snifferID, func(ctx context.Context, token string) error {
		var err error
		out, err = s.client.ListPlaylistVideos(ctx, token, playlistID)
		return err
	})
	return out, err
}

func (s *Service) AddToPlaylist(ctx context.Context, snifferID, playlistID, videoID string) error {
	return s.authed.Do(ctx, snifferID, func(ctx context.Context, token string) error {
		return s.client.AddToPlaylist(ctx, token, playlistID, videoID)
	})
}

// Categories and Privacies are public lookups; no sniffer token is needed.

func (s *Service) Categories(ctx context.Context) (map[string]string, error) {
	return s.client.Categories(ctx)
}

func (s *Service) Privacies(ctx context.Context) (map[string]string, error) {
	return s.client.Privacies(ctx)
}
