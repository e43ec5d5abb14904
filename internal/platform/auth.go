package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/heyraji/heyraji/internal/auth"
)

// VerifierKey is the storage key of the pending PKCE code verifier.
const VerifierKey = "heyraji.pkce_verifier"

var _ auth.Provider = (*Client)(nil)

// User represents an auth backend user
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// TokenResponse is returned by the verify and token endpoints.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

func (t *TokenResponse) session() *auth.Session {
	s := &auth.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Email:        t.User.Email,
		UserID:       t.User.ID,
		Provider:     ProviderName,
	}
	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0).UTC()
	case t.ExpiresIn > 0:
		s.ExpiresAt = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second).UTC().Truncate(time.Second)
	}
	return s
}

// SendOTP emails a one-time code and magic link to email. A fresh PKCE
// verifier is stored so the link's code can be exchanged later.
func (c *Client) SendOTP(ctx context.Context, email string) error {
	verifier, err := c.newVerifier(ctx)
	if err != nil {
		return err
	}

	req := map[string]interface{}{
		"email":                 email,
		"create_user":           true,
		"code_challenge":        oauth2.S256ChallengeFromVerifier(verifier),
		"code_challenge_method": "s256",
	}

	path := "/auth/v1/otp"
	if c.RedirectURL != "" {
		path += "?" + url.Values{"redirect_to": {c.RedirectURL}}.Encode()
	}

	resp, err := c.doRequest(ctx, "otp", http.MethodPost, path, req, "")
	if err != nil {
		return err
	}
	return parseResponse(resp, nil)
}

// VerifyOTP exchanges an emailed one-time code for a session.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (*auth.Session, error) {
	req := map[string]string{
		"type":  "email",
		"email": email,
		"token": code,
	}

	resp, err := c.doRequest(ctx, "verify", http.MethodPost, "/auth/v1/verify", req, "")
	if err != nil {
		return nil, err
	}

	var tok TokenResponse
	if err := parseResponse(resp, &tok); err != nil {
		return nil, err
	}
	return tok.session(), nil
}

// ExchangeCode exchanges the authorization code of a redirect using the
// stored PKCE verifier. The verifier is consumed on success.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*auth.Session, error) {
	verifier, err := c.loadVerifier(ctx)
	if err != nil {
		return nil, err
	}

	req := map[string]string{
		"auth_code":     code,
		"code_verifier": verifier,
	}
	resp, err := c.doRequest(ctx, "token_pkce", http.MethodPost, "/auth/v1/token?grant_type=pkce", req, "")
	if err != nil {
		return nil, err
	}

	var tok TokenResponse
	if err := parseResponse(resp, &tok); err != nil {
		return nil, err
	}

	if err := c.storage.Remove(ctx, VerifierKey); err != nil {
		c.logger.WithError(err).WarnContext(ctx, "failed to clear code verifier")
	}
	return tok.session(), nil
}

// SetSession validates a token pair taken from a redirect by fetching the
// user it belongs to. An access token that has already expired is
// refreshed first.
func (c *Client) SetSession(ctx context.Context, accessToken, refreshToken string) (*auth.Session, error) {
	if claims, err := auth.ParseAccessClaims(accessToken); err == nil &&
		claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		c.logger.DebugContext(ctx, "access token from redirect has expired, refreshing")
		return c.Refresh(ctx, refreshToken)
	}

	user, err := c.GetUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	return &auth.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Email:        user.Email,
		UserID:       user.ID,
		Provider:     ProviderName,
	}, nil
}

// GetUser returns the user that owns accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	resp, err := c.doRequest(ctx, "user", http.MethodGet, "/auth/v1/user", nil, accessToken)
	if err != nil {
		return nil, err
	}

	var user User
	if err := parseResponse(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Refresh obtains a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*auth.Session, error) {
	req := map[string]string{"refresh_token": refreshToken}

	resp, err := c.doRequest(ctx, "token_refresh", http.MethodPost, "/auth/v1/token?grant_type=refresh_token", req, "")
	if err != nil {
		return nil, err
	}

	var tok TokenResponse
	if err := parseResponse(resp, &tok); err != nil {
		return nil, err
	}
	return tok.session(), nil
}

// SignOut revokes the session server side.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	resp, err := c.doRequest(ctx, "logout", http.MethodPost, "/auth/v1/logout", nil, accessToken)
	if err != nil {
		return err
	}
	return parseResponse(resp, nil)
}

// AuthorizeURL returns the hosted sign-in URL for an external identity
// provider (e.g. "google"). The redirect carries a code for ExchangeCode.
func (c *Client) AuthorizeURL(ctx context.Context, provider string) (string, error) {
	verifier, err := c.newVerifier(ctx)
	if err != nil {
		return "", err
	}

	cfg := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.BaseURL + "/auth/v1/authorize",
			TokenURL: c.BaseURL + "/auth/v1/token?grant_type=pkce",
		},
		RedirectURL: c.RedirectURL,
	}

	opts := []oauth2.AuthCodeOption{
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("provider", provider),
	}
	if c.RedirectURL != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_to", c.RedirectURL))
	}
	return cfg.AuthCodeURL("", opts...), nil
}

func (c *Client) newVerifier(ctx context.Context) (string, error) {
	verifier := oauth2.GenerateVerifier()
	data, err := json.Marshal(verifier)
	if err != nil {
		return "", err
	}
	if err := c.storage.Set(ctx, VerifierKey, data); err != nil {
		return "", auth.WrapError(auth.ErrSessionStoreFailed, "failed to store code verifier", err, nil)
	}
	return verifier, nil
}

func (c *Client) loadVerifier(ctx context.Context) (string, error) {
	raw, found, err := c.storage.Get(ctx, VerifierKey)
	if err != nil {
		return "", auth.WrapError(auth.ErrMissingVerifier, "failed to read code verifier", err, nil)
	}
	var verifier string
	if found {
		if err := json.Unmarshal(raw, &verifier); err != nil {
			return "", auth.WrapError(auth.ErrMissingVerifier, "stored code verifier is corrupt", err, nil)
		}
	}
	if verifier == "" {
		return "", auth.NewError(auth.ErrMissingVerifier,
			"no pending sign-in on this device; request a new code and open the link here", nil)
	}
	return verifier, nil
}
