// Package store persists the schedule, mapping, camera, and credential
// documents. Every document is read whole and overwritten whole; there are no
// partial-field updates.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/goccy/go-json"

	"github.com/albapepper/sideline/internal/model"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Document kinds.
const (
	KindSchedule   = "schedule"
	KindMapping    = "mapping"
	KindCameras    = "cameras"
	KindCredential = "credential"
)

// Documents is the raw key-value backend.
type Documents interface {
	Get(ctx context.Context, kind, key string) ([]byte, error)
	Put(ctx context.Context, kind, key string, body []byte) error
	// List returns every document of a kind keyed by document key.
	List(ctx context.Context, kind string) (map[string][]byte, error)
}

// Store is the typed document store used by the rest of the service.
type Store struct {
	docs Documents
}

// New wraps a document backend.
func New(docs Documents) *Store {
	return &Store{docs: docs}
}

// --------------------------------------------------------------------------
// Schedules
// --------------------------------------------------------------------------

func (s *Store) GetSchedule(ctx context.Context, teamID string) (*model.TeamSchedule, error) {
	var sched model.TeamSchedule
	if err := s.get(ctx, KindSchedule, teamID, &sched); err != nil {
		return nil, err
	}
	return &sched, nil
}

func (s *Store) PutSchedule(ctx context.Context, sched *model.TeamSchedule) error {
	return s.put(ctx, KindSchedule, sched.TeamID, sched)
}

// ListSchedules returns every cached schedule ordered by team id.
func (s *Store) ListSchedules(ctx context.Context) ([]*model.TeamSchedule, error) {
	return list[model.TeamSchedule](ctx, s.docs, KindSchedule)
}

// --------------------------------------------------------------------------
// Mappings
// --------------------------------------------------------------------------

func (s *Store) GetMapping(ctx context.Context, teamID string) (*model.TeamMapping, error) {
	var m model.TeamMapping
	if err := s.get(ctx, KindMapping, teamID, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) PutMapping(ctx context.Context, m *model.TeamMapping) error {
	return s.put(ctx, KindMapping, m.TeamID, m)
}

// ListMappings returns every team mapping ordered by team id.
func (s *Store) ListMappings(ctx context.Context) ([]*model.TeamMapping, error) {
	return list[model.TeamMapping](ctx, s.docs, KindMapping)
}

// --------------------------------------------------------------------------
// Cameras
// --------------------------------------------------------------------------

// GetCameras returns the camera assignments of a sniffer. A sniffer with no
// document has no cameras.
func (s *Store) GetCameras(ctx context.Context, snifferID string) ([]model.CameraAssignment, error) {
	var cams []model.CameraAssignment
	err := s.get(ctx, KindCameras, snifferID, &cams)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return cams, err
}

func (s *Store) PutCameras(ctx context.Context, snifferID string, cams []model.CameraAssignment) error {
	if cams == nil {
		cams = []model.CameraAssignment{}
	}
	return s.put(ctx, KindCameras, snifferID, cams)
}

// ListCameraOwners returns the ids of every sniffer with a camera document.
func (s *Store) ListCameraOwners(ctx context.Context) ([]string, error) {
	docs, err := s.docs.List(ctx, KindCameras)
	if err != nil {
		return nil, fmt.Errorf("list cameras: %w", err)
	}
	return sortedKeys(docs), nil
}

// --------------------------------------------------------------------------
// Credentials
// --------------------------------------------------------------------------

func (s *Store) GetCredential(ctx context.Context, snifferID string) (*model.SnifferCredential, error) {
	var c model.SnifferCredential
	if err := s.get(ctx, KindCredential, snifferID, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) PutCredential(ctx context.Context, c *model.SnifferCredential) error {
	return s.put(ctx, KindCredential, c.SnifferID, c)
}

// ListCredentials returns every stored credential ordered by sniffer id.
func (s *Store) ListCredentials(ctx context.Context) ([]*model.SnifferCredential, error) {
	return list[model.SnifferCredential](ctx, s.docs, KindCredential)
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func (s *Store) get(ctx context.Context, kind, key string, out interface{}) error {
	body, err := s.docs.Get(ctx, kind, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%s %q: %w", kind, key, ErrNotFound)
		}
		return fmt.Errorf("get %s %q: %w", kind, key, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %q: %w", kind, key, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, kind, key string, v interface{}) error {
	if key == "" {
		return fmt.Errorf("put %s: empty key", kind)
	}
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s %q: %w", kind, key, err)
	}
	if err := s.docs.Put(ctx, kind, key, body); err != nil {
		return fmt.Errorf("put %s %q: %w", kind, key, err)
	}
	return nil
}

func list[T any](ctx context.Context, docs Documents, kind string) ([]*T, error) {
	raw, err := docs.List(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	out := make([]*T, 0, len(raw))
	for _, key := range sortedKeys(raw) {
		var v T
		if err := json.Unmarshal(raw[key], &v); err != nil {
			return nil, fmt.Errorf("decode %s %q: %w", kind, key, err)
		}
		out = append(out, &v)
	}
	return out, nil
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
