package store

import (
	"context"
	"sync"
)

// Memory is an in-process Documents backend. Bodies are copied on the way in
// and out so callers never share buffers.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]map[string][]byte
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, kind, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.docs[kind][key]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(body), nil
}

func (m *Memory) Put(ctx context.Context, kind, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[kind] == nil {
		m.docs[kind] = make(map[string][]byte)
	}
	m.docs[kind][key] = clone(body)
	return nil
}

func (m *Memory) List(ctx context.Context, kind string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.docs[kind]))
	for k, v := range m.docs[kind] {
		out[k] = clone(v)
	}
	return out, nil
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
