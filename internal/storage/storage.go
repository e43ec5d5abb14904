// Package storage provides the key/value persistence used for extension
// state: the settings record and the pending PKCE verifier.
//
// Values are opaque JSON documents addressed by a fixed key, mirroring the
// browser's extension storage area.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("storage: closed")

// Storage is a key/value store of JSON documents.
//
// Get reports found=false with a nil error when the key is absent.
type Storage interface {
	Get(ctx context.Context, key string) (value json.RawMessage, found bool, err error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Remove(ctx context.Context, key string) error
}

// MemoryStorage keeps values in a map. ReadErr, when set, is returned by
// every Get; tests use it to simulate an unreadable store.
type MemoryStorage struct {
	mu      sync.RWMutex
	values  map[string]json.RawMessage
	ReadErr error
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]json.RawMessage)}
}

// Get returns a copy of the stored value.
func (m *MemoryStorage) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ReadErr != nil {
		return nil, false, m.ReadErr
	}
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append(json.RawMessage(nil), v...), true, nil
}

// Set stores a copy of value.
func (m *MemoryStorage) Set(_ context.Context, key string, value json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = append(json.RawMessage(nil), value...)
	return nil
}

// Remove deletes key. Missing keys are not an error.
func (m *MemoryStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

// Keys returns the number of stored keys.
func (m *MemoryStorage) Keys() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
