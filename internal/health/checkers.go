package health

import (
	"context"
	"fmt"
	"time"

	"github.com/heyraji/heyraji/internal/auth"
	"github.com/heyraji/heyraji/internal/platform"
	"github.com/heyraji/heyraji/internal/storage"
)

// StorageChecker reads one key from a settings storage backend.
type StorageChecker struct {
	store storage.Storage
	key   string
}

// NewStorageChecker creates a checker that reads key from store.
func NewStorageChecker(store storage.Storage, key string) *StorageChecker {
	return &StorageChecker{store: store, key: key}
}

// Name returns "storage".
func (c *StorageChecker) Name() string {
	return "storage"
}

// Check reports degraded when the stored value cannot be read; callers fall
// back to defaults in that case.
func (c *StorageChecker) Check(ctx context.Context) *Result {
	_, found, err := c.store.Get(ctx, c.key)
	switch {
	case err != nil:
		return Degraded(fmt.Sprintf("settings unreadable, defaults apply: %v", err)).
			WithDetail("error", err.Error()).
			WithRemedy("Run 'heyraji settings reset' to start from defaults")
	case !found:
		return Healthy("no settings stored, defaults apply")
	default:
		return Healthy("settings stored")
	}
}

// SessionChecker loads the persisted session.
type SessionChecker struct {
	store auth.SessionStore
}

// NewSessionChecker creates a checker over store.
func NewSessionChecker(store auth.SessionStore) *SessionChecker {
	return &SessionChecker{store: store}
}

// Name returns "session".
func (c *SessionChecker) Name() string {
	return "session"
}

// Check reports unhealthy when the store cannot be read and degraded when
// there is no usable session.
func (c *SessionChecker) Check(ctx context.Context) *Result {
	session, err := c.store.Load(ctx)
	switch {
	case err != nil:
		return Unhealthy(err.Error()).
			WithRemedy("Run 'heyraji config set session.backend file' if no OS keyring is available")
	case session == nil:
		return Degraded("not signed in").
			WithRemedy("Sign in with 'heyraji auth login'")
	case session.IsExpired():
		return Degraded(fmt.Sprintf("session for %s has expired", session.Email)).
			WithDetail("email", session.Email).
			WithRemedy("Run 'heyraji auth refresh'")
	default:
		return Healthy(fmt.Sprintf("signed in as %s", session.Email)).
			WithDetail("email", session.Email).
			WithDetail("expires_in", session.ExpiresIn().Round(time.Second).String())
	}
}

// Pinger is the part of the platform client BackendChecker needs.
type Pinger interface {
	Health(ctx context.Context) (*platform.HealthStatus, error)
}

// BackendChecker calls the auth backend health endpoint.
type BackendChecker struct {
	client Pinger
}

// NewBackendChecker creates a checker over client.
func NewBackendChecker(client Pinger) *BackendChecker {
	return &BackendChecker{client: client}
}

// Name returns "backend".
func (c *BackendChecker) Name() string {
	return "backend"
}

// Check reports unhealthy when the backend is unreachable or rejects the anon
// key.
func (c *BackendChecker) Check(ctx context.Context) *Result {
	start := time.Now()
	status, err := c.client.Health(ctx)
	latency := time.Since(start)
	if err != nil {
		return Unhealthy(err.Error()).
			WithLatency(latency).
			WithRemedy("Check auth.url and auth.anon_key with 'heyraji config view'")
	}
	return Healthy(fmt.Sprintf("%s %s reachable", status.Name, status.Version)).
		WithLatency(latency).
		WithDetail("latency_ms", latency.Milliseconds())
}
