package platform

import (
	"context"
	"net/http"
)

// HealthStatus is the auth backend's /health payload.
type HealthStatus struct {
	Version     string `json:"version"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Health reports whether the auth backend is reachable and accepts the anon
// key.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	resp, err := c.doRequest(ctx, "health", http.MethodGet, "/auth/v1/health", nil, "")
	if err != nil {
		return nil, err
	}

	var status HealthStatus
	if err := parseResponse(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
