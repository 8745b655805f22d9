package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore keeps objects in a map. Fail, when set, is returned by Put;
// FailURL by URL.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
	BaseURL string
	Fail    error
	FailURL error
}

type Object struct {
	ContentType string
	Data        []byte
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{objects: map[string]Object{}, BaseURL: baseURL}
}

func (m *MemoryStore) Put(_ context.Context, key, contentType string, body io.Reader, _ int64) error {
	if m.Fail != nil {
		return m.Fail
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{ContentType: contentType, Data: buf.Bytes()}
	return nil
}

func (m *MemoryStore) URL(_ context.Context, key string) (string, error) {
	if m.FailURL != nil {
		return "", m.FailURL
	}
	return m.BaseURL + "/" + key, nil
}

// Get returns a stored object.
func (m *MemoryStore) Get(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Keys lists stored keys in no particular order.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}
