// Package auth implements the email one-time-code sign-in handshake and the
// redirect callback resolver.
//
// A Client is constructed explicitly around a remote Provider and a
// SessionStore; there is no package-level client. Callers observe sign-in,
// sign-out and refresh through Subscribe.
package auth

import (
	"context"
	"net/mail"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/heyraji/heyraji/internal/log"
	"github.com/heyraji/heyraji/internal/metrics"
)

// Methods by which a session is obtained.
const (
	MethodOTPVerify       = "otp_verify"
	MethodCodeExchange    = "code_exchange"
	MethodTokenPair       = "token_pair"
	MethodExistingSession = "existing_session"
	MethodRefresh         = "refresh"
)

// Session represents an authenticated user session.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Email        string    `json:"email,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`

	// Provider names the auth backend that issued the tokens.
	Provider string `json:"provider,omitempty"`

	// Method records how the session was obtained (MethodCodeExchange etc.).
	Method string `json:"method,omitempty"`
}

// IsExpired reports whether the access token has expired. A zero ExpiresAt
// is treated as unknown and never expired.
func (s *Session) IsExpired() bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(s.ExpiresAt)
}

// ExpiresIn returns the remaining access token lifetime.
func (s *Session) ExpiresIn() time.Duration {
	if s.ExpiresAt.IsZero() {
		return 0
	}
	return time.Until(s.ExpiresAt)
}

// Provider is the remote auth backend. Every method either returns a
// session or an error carrying the backend's failure reason.
type Provider interface {
	// SendOTP emails a one-time code (and magic link) to email.
	SendOTP(ctx context.Context, email string) error

	// VerifyOTP exchanges an emailed one-time code for a session.
	VerifyOTP(ctx context.Context, email, code string) (*Session, error)

	// ExchangeCode exchanges an authorization code from a redirect.
	ExchangeCode(ctx context.Context, code string) (*Session, error)

	// SetSession validates an access/refresh token pair from a redirect.
	SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error)

	// Refresh obtains a new token pair.
	Refresh(ctx context.Context, refreshToken string) (*Session, error)

	// SignOut revokes the session remotely.
	SignOut(ctx context.Context, accessToken string) error
}

// Client drives the sign-in handshake against a Provider and keeps the
// resulting session in a SessionStore.
type Client struct {
	provider Provider
	store    SessionStore
	logger   *log.Logger
	metrics  *metrics.Metrics

	mu     sync.Mutex
	subs   map[int]*Subscription
	nextID int
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables auth counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a Client. store may be nil, in which case sessions are
// kept in memory for the lifetime of the Client.
func NewClient(provider Provider, store SessionStore, opts ...Option) *Client {
	if store == nil {
		store = NewMemoryStore()
	}
	c := &Client{
		provider: provider,
		store:    store,
		logger:   log.DefaultLogger(),
		subs:     make(map[int]*Subscription),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "auth")
	return c
}

var otpCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// ValidateEmail checks that email is a bare address.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return NewError(ErrInvalidEmail, "invalid email address", map[string]interface{}{
			"email": email,
		})
	}
	return nil
}

// ValidateOTPCode checks that code is six digits.
func ValidateOTPCode(code string) error {
	if !otpCodePattern.MatchString(code) {
		return NewError(ErrInvalidCode, "code must be 6 digits", nil)
	}
	return nil
}

// SendOTP requests a one-time code for email.
func (c *Client) SendOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := ValidateEmail(email); err != nil {
		c.metrics.RecordOTPSend("invalid")
		return err
	}

	if err := c.provider.SendOTP(ctx, email); err != nil {
		c.metrics.RecordOTPSend("failure")
		return WrapError(ErrProviderFailed, "failed to send code", err, map[string]interface{}{
			"email": email,
		})
	}

	c.metrics.RecordOTPSend("success")
	c.logger.InfoContext(ctx, "one-time code sent", "email", email)
	return nil
}

// VerifyOTP exchanges a one-time code for a session and stores it.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidateOTPCode(code); err != nil {
		return nil, err
	}

	s, err := c.provider.VerifyOTP(ctx, email, code)
	if err != nil {
		c.metrics.RecordAuthAttempt(MethodOTPVerify, "failure")
		return nil, WrapError(ErrProviderFailed, "code verification failed", err, map[string]interface{}{
			"email": email,
		})
	}
	if s.Email == "" {
		s.Email = email
	}

	return c.establish(ctx, s, MethodOTPVerify, EventSignedIn)
}

// Session returns the stored session, or nil when signed out.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	s, err := c.store.Load(ctx)
	if err != nil {
		return nil, WrapError(ErrSessionStoreFailed, "failed to load session", err, nil)
	}
	return s, nil
}

// Refresh exchanges the stored refresh token for a new session.
func (c *Client) Refresh(ctx context.Context) (*Session, error) {
	current, err := c.Session(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil || current.RefreshToken == "" {
		return nil, NewError(ErrSessionNotFound, "no session to refresh", nil)
	}
	return c.refresh(ctx, current)
}

func (c *Client) refresh(ctx context.Context, current *Session) (*Session, error) {
	s, err := c.provider.Refresh(ctx, current.RefreshToken)
	if err != nil {
		c.metrics.RecordAuthAttempt(MethodRefresh, "failure")
		return nil, WrapError(ErrRefreshFailed, "token refresh failed", err, nil)
	}
	if s.Email == "" {
		s.Email = current.Email
	}

	return c.establish(ctx, s, MethodRefresh, EventTokenRefreshed)
}

// SignOut revokes the session remotely and removes it locally. Remote
// revocation is best effort; the local session is always removed.
func (c *Client) SignOut(ctx context.Context) error {
	current, err := c.Session(ctx)
	if err != nil {
		return err
	}

	if current != nil && current.AccessToken != "" {
		if err := c.provider.SignOut(ctx, current.AccessToken); err != nil {
			c.logger.WithError(err).WarnContext(ctx, "remote sign-out failed")
		}
	}

	if err := c.store.Delete(ctx); err != nil {
		return WrapError(ErrSessionStoreFailed, "failed to delete session", err, nil)
	}

	c.logger.InfoContext(ctx, "signed out")
	c.emit(StateChange{Event: EventSignedOut})
	return nil
}

// establish completes a session obtained by method, persists it and
// notifies subscribers.
func (c *Client) establish(ctx context.Context, s *Session, method string, event Event) (*Session, error) {
	s.Method = method
	if err := fillFromClaims(s); err != nil {
		c.logger.WithError(err).DebugContext(ctx, "access token claims not readable")
	}

	if err := c.store.Save(ctx, s); err != nil {
		c.metrics.RecordAuthAttempt(method, "failure")
		return nil, WrapError(ErrSessionStoreFailed, "failed to store session", err, nil)
	}

	c.metrics.RecordAuthAttempt(method, "success")
	c.logger.InfoContext(ctx, "session established", "method", method, "email", s.Email)
	c.emit(StateChange{Event: event, Session: s})
	return s, nil
}
