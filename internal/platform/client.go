// Package platform is the HTTP client for the HeyRaji auth backend, a
// GoTrue-compatible API served under /auth/v1.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heyraji/heyraji/internal/log"
	"github.com/heyraji/heyraji/internal/metrics"
	"github.com/heyraji/heyraji/internal/storage"
	"github.com/heyraji/heyraji/internal/version"
)

// ProviderName identifies sessions issued by this backend.
const ProviderName = "heyraji"

// Client is the auth backend API client
type Client struct {
	BaseURL     string
	AnonKey     string
	RedirectURL string
	HTTPClient  *http.Client

	storage storage.Storage
	logger  *log.Logger
	metrics *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// WithStorage sets where the pending PKCE verifier is kept between sending
// a code and exchanging the redirect.
func WithStorage(s storage.Storage) Option {
	return func(c *Client) {
		if s != nil {
			c.storage = s
		}
	}
}

// WithRedirectURL sets the redirect target for emailed links.
func WithRedirectURL(u string) Option {
	return func(c *Client) { c.RedirectURL = u }
}

// WithLogger sets the client logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables backend request metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a new auth backend client
func NewClient(baseURL, anonKey string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		AnonKey: anonKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		storage: storage.NewMemoryStorage(),
		logger:  log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "platform")
	return c
}

// doRequest performs an HTTP request against the auth API. endpoint is a
// short name used for metrics and logs. bearer, when empty, falls back to
// the anon key.
func (c *Client) doRequest(ctx context.Context, endpoint, method, path string, body interface{}, bearer string) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if bearer == "" {
		bearer = c.AnonKey
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	req.Header.Set("User-Agent", version.GetInfo().UserAgent())
	if c.AnonKey != "" {
		req.Header.Set("apikey", c.AnonKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.RecordBackendRequest(endpoint, 0, elapsed)
		c.logger.WithError(err).DebugContext(ctx, "auth request failed",
			"endpoint", endpoint, "request_id", requestID)
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}

	c.metrics.RecordBackendRequest(endpoint, resp.StatusCode, elapsed)
	c.logger.DebugContext(ctx, "auth request",
		"endpoint", endpoint, "status", resp.StatusCode,
		"request_id", requestID, "duration", elapsed)
	return resp, nil
}

// ErrorResponse represents an API error response. The backend uses
// different fields depending on the endpoint.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e ErrorResponse) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// APIError is returned for non-2xx responses. Message is the backend's own
// message.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// parseResponse parses the response body into the target struct
func parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)

		// Try to parse as JSON error response
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil {
			if msg := errResp.text(); msg != "" {
				code := errResp.ErrorCode
				if code == "" {
					code = errResp.Error
				}
				return &APIError{StatusCode: resp.StatusCode, Code: code, Message: msg}
			}
		}

		// Fallback to raw body
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
