package reconcile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/albapepper/sideline/internal/model"
	"github.com/albapepper/sideline/internal/store"
	"github.com/albapepper/sideline/internal/video"
)

// fakePlatform is an in-memory video platform.
type fakePlatform struct {
	mu            sync.Mutex
	seq           int
	videos        map[string]*video.Video
	playlists     map[string][]string
	playlistNames map[string]string
	channel       []video.Video
	lives         []video.LiveRequest

	tokenErr   error
	snifferErr map[string]error // every platform call made for the sniffer
	failCreate map[string]bool  // by live name
	failAdd    map[string]bool  // by video id
	addErr     error
	createHook func()
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		videos:        map[string]*video.Video{},
		playlists:     map[string][]string{},
		playlistNames: map[string]string{},
		snifferErr:    map[string]error{},
		failCreate:    map[string]bool{},
		failAdd:       map[string]bool{},
	}
}

func notFound() error {
	return &video.APIError{Method: "GET", Path: "/x", StatusCode: http.StatusNotFound}
}

func (f *fakePlatform) Token(ctx context.Context, snifferID string) (string, error) {
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	return "tok-" + snifferID, nil
}

func (f *fakePlatform) CreateLive(ctx context.Context, snifferID string, req video.LiveRequest) (*model.LiveResource, error) {
	if f.createHook != nil {
		f.createHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.snifferErr[snifferID]; err != nil {
		return nil, err
	}
	if f.failCreate[req.Name] {
		return nil, errors.New("upstream 500")
	}
	f.seq++
	id := fmt.Sprintf("live-%d", f.seq)
	f.videos[id] = &video.Video{ID: id, Name: req.Name, IsLive: true}
	f.lives = append(f.lives, req)
	return &model.LiveResource{VideoID: id, StreamKey: "key-" + id}, nil
}

func (f *fakePlatform) GetVideo(ctx context.Context, snifferID, videoID string) (*video.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.snifferErr[snifferID]; err != nil {
		return nil, err
	}
	v, ok := f.videos[videoID]
	if !ok {
		return nil, notFound()
	}
	return v, nil
}

func (f *fakePlatform) CreatePlaylist(ctx context.Context, snifferID string, req video.PlaylistRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.snifferErr[snifferID]; err != nil {
		return "", err
	}
	f.seq++
	id := fmt.Sprintf("pl-%d", f.seq)
	f.playlists[id] = nil
	f.playlistNames[id] = req.DisplayName
	return id, nil
}

func (f *fakePlatform) ListChannelVideos(ctx context.Context, snifferID, channelHandle string, count int) ([]video.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.snifferErr[snifferID]; err != nil {
		return nil, err
	}
	return append([]video.Video(nil), f.channel...), nil
}

func (f *fakePlatform) ListPlaylistVideos(ctx context.Context, snifferID, playlistID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.snifferErr[snifferID]; err != nil {
		return nil, err
	}
	ids, ok := f.playlists[playlistID]
	if !ok {
		return nil, notFound()
	}
	return append([]string(nil), ids...), nil
}

func (f *fakePlatform) AddToPlaylist(ctx context.Context, snifferID, playlistID, videoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	if f.failAdd[videoID] {
		return errors.New("upstream 500")
	}
	if _, ok := f.playlists[playlistID]; !ok {
		return notFound()
	}
	f.playlists[playlistID] = append(f.playlists[playlistID], videoID)
	return nil
}

func (f *fakePlatform) deleteVideo(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.videos, id)
}

func (f *fakePlatform) deletePlaylist(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.playlists, id)
}

func (f *fakePlatform) liveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lives)
}

type fakeThumbs map[string][]byte

func (f fakeThumbs) Thumbnail(gameID string) ([]byte, bool) {
	b, ok := f[gameID]
	return b, ok
}

var (
	now         = time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC)
	boysVarsity = model.TeamInfo{
		Name:       "Central Boys Varsity Basketball",
		Sport:      "BASKETBALL",
		Gender:     "MENS",
		Level:      "VARSITY",
		Season:     2025,
		SchoolName: "Central",
	}
)

func newStore() *store.Store {
	return store.New(store.NewMemory())
}
