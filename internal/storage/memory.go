package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore is an ObjectStore kept in process memory. The server uses it
// when no bucket is configured; tests use it with failure injection.
type MemoryStore struct {
	mu           sync.RWMutex
	objects      map[string][]byte
	contentTypes map[string]string
	failures     map[string]error
	deleteError  error
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
		failures:     make(map[string]error),
	}
}

// List returns matching keys in map iteration order, which is random
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Download returns a copy of the stored bytes
func (m *MemoryStore) Download(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, ok := m.failures[key]; ok {
		return nil, err
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
	}
	return append([]byte(nil), data...), nil
}

// Upload stores a copy of data
func (m *MemoryStore) Upload(_ context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = append([]byte(nil), data...)
	m.contentTypes[key] = contentType
	return nil
}

// Delete removes keys unless a delete failure was injected
func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteError != nil {
		return m.deleteError
	}
	for _, key := range keys {
		delete(m.objects, key)
		delete(m.contentTypes, key)
	}
	return nil
}

// ContentType returns the type recorded by Upload
func (m *MemoryStore) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.contentTypes[key]
}

// Len returns the number of stored objects
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// FailDownload makes every Download of key return err
func (m *MemoryStore) FailDownload(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[key] = err
}

// FailDeletes makes every Delete return err. Pass nil to reset.
func (m *MemoryStore) FailDeletes(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteError = err
}
