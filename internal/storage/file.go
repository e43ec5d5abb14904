package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/heyraji/heyraji/internal/errors"
)

// FileStorage persists all keys in a single JSON object on disk.
//
// Every write rewrites the file through a temp file and rename, so a crash
// leaves either the old or the new document.
type FileStorage struct {
	path string
	mu   sync.Mutex
}

// NewFileStorage returns a store backed by path. The file is created on the
// first write.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Path returns the backing file path.
func (f *FileStorage) Path() string {
	return f.path
}

// Get reads key from the document.
func (f *FileStorage) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return nil, false, err
	}
	v, ok := doc[key]
	return v, ok, nil
}

// Set writes key into the document.
func (f *FileStorage) Set(_ context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("storage: value for %q is not valid JSON", key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	doc[key] = value
	return f.save(doc)
}

// Remove deletes key from the document.
func (f *FileStorage) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return f.save(doc)
}

func (f *FileStorage) load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return make(map[string]json.RawMessage), nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "failed to read storage file", err)
	}

	doc := make(map[string]json.RawMessage)
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewFileUnmarshalError(f.path, "JSON", err)
	}
	return doc, nil
}

func (f *FileStorage) save(doc map[string]json.RawMessage) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return errors.Wrap(errors.ErrCodeDirectoryFailed, "failed to create storage directory", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileMarshal, "failed to encode storage file", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".storage-*.json")
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to write storage file", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to set storage file permissions", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to close storage file", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to replace storage file", err)
	}
	return nil
}
