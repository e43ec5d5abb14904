package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyraji/heyraji/internal/errors"
)

func backends(t *testing.T) map[string]Storage {
	return map[string]Storage{
		"memory": NewMemoryStorage(),
		"file":   NewFileStorage(filepath.Join(t.TempDir(), "nested", "storage.json")),
	}
}

func TestStorage_SetGetRemove(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, found, err := s.Get(ctx, "heyraji.settings")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, s.Set(ctx, "heyraji.settings", json.RawMessage(`{"language":"pt"}`)))
			require.NoError(t, s.Set(ctx, "other", json.RawMessage(`1`)))

			v, found, err := s.Get(ctx, "heyraji.settings")
			require.NoError(t, err)
			require.True(t, found)
			assert.JSONEq(t, `{"language":"pt"}`, string(v))

			require.NoError(t, s.Remove(ctx, "heyraji.settings"))
			require.NoError(t, s.Remove(ctx, "missing"))

			_, found, err = s.Get(ctx, "heyraji.settings")
			require.NoError(t, err)
			assert.False(t, found)

			v, found, err = s.Get(ctx, "other")
			require.NoError(t, err)
			require.True(t, found)
			assert.JSONEq(t, `1`, string(v))
		})
	}
}

func TestMemoryStorage_ReadErr(t *testing.T) {
	s := NewMemoryStorage()
	s.ReadErr = fmt.Errorf("quota exceeded")

	_, _, err := s.Get(context.Background(), "k")
	assert.EqualError(t, err, "quota exceeded")
}

func TestMemoryStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	value := json.RawMessage(`{"a":1}`)
	require.NoError(t, s.Set(ctx, "k", value))
	value[2] = 'b'

	got, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got))
	assert.Equal(t, 1, s.Keys())
}

func TestFileStorage_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "storage.json")

	require.NoError(t, NewFileStorage(path).Set(ctx, "k", json.RawMessage(`"v"`)))

	v, found, err := NewFileStorage(path).Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `"v"`, string(v))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, _, err := NewFileStorage(path).Get(context.Background(), "k")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeFileUnmarshal))
}

func TestFileStorage_RejectsInvalidJSON(t *testing.T) {
	s := NewFileStorage(filepath.Join(t.TempDir(), "storage.json"))

	err := s.Set(context.Background(), "k", json.RawMessage(`{`))
	assert.Error(t, err)
}

func TestFileStorage_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	_, found, err := NewFileStorage(path).Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPostgresStorage_Closed(t *testing.T) {
	s := NewPostgresStorage(nil)
	ctx := context.Background()

	_, _, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Set(ctx, "k", json.RawMessage(`1`)), ErrClosed)
	assert.ErrorIs(t, s.Remove(ctx, "k"), ErrClosed)
	assert.NoError(t, s.Close())
}

func TestOpenPostgres_InvalidDSN(t *testing.T) {
	_, err := OpenPostgres(context.Background(), "postgres://%zz")
	assert.Error(t, err)
}
