package auth

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// SessionStore persists the single session of the local user.
//
// Load returns a nil session and nil error when no session is stored.
// Implementations must be safe for concurrent use.
type SessionStore interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context) error
}

// MemoryStore keeps the session in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	session *Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored session.
func (m *MemoryStore) Load(_ context.Context) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.session == nil {
		return nil, nil
	}
	s := *m.session
	return &s, nil
}

// Save replaces the stored session.
func (m *MemoryStore) Save(_ context.Context, session *Session) error {
	if session == nil {
		return NewError(ErrSessionStoreFailed, "session cannot be nil", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := *session
	m.session = &s
	return nil
}

// Delete removes the stored session.
func (m *MemoryStore) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = nil
	return nil
}

// FileStore keeps the session as a JSON file readable only by the owner.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the session file location.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the session file. A missing file means no session.
func (f *FileStore) Load(_ context.Context) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, WrapError(ErrSessionStoreFailed, "session file is corrupt", err, map[string]interface{}{
			"path": f.path,
		})
	}
	return &s, nil
}

// Save writes the session file with 0600 permissions.
func (f *FileStore) Save(_ context.Context, session *Session) error {
	if session == nil {
		return NewError(ErrSessionStoreFailed, "session cannot be nil", nil)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// Delete removes the session file. A missing file is not an error.
func (f *FileStore) Delete(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
