package platform

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyraji/heyraji/internal/storage"
)

func TestHealth(t *testing.T) {
	srv, reqs := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": "v2.150.0", "name": "GoTrue"})
	})
	client := newTestClient(srv, storage.NewMemoryStorage())

	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2.150.0", status.Version)
	assert.Equal(t, "GoTrue", status.Name)

	all := reqs.all()
	require.Len(t, all, 1)
	assert.Equal(t, "/auth/v1/health", all[0].path)
	assert.Equal(t, anonKey, all[0].header.Get("apikey"))
}

func TestHealth_BadKey(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid API key"})
	})
	client := newTestClient(srv, storage.NewMemoryStorage())

	_, err := client.Health(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid API key", apiErr.Message)
}
