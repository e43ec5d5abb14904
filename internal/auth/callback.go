package auth

import (
	"context"
	"net/url"
	"strings"
)

// ResolveCallback turns the fragment and query of an auth redirect into a
// session. Exactly one path is attempted, in order of precedence:
//
//  1. a "code" query parameter is exchanged for a session;
//  2. an access_token and refresh_token pair in the fragment is validated;
//  3. otherwise an already stored session is returned.
//
// A failed remote call yields a nil session and the provider error; no
// other path is tried. When nothing yields a session both results are nil.
// An error reported by the provider in the redirect itself is returned
// before any path is attempted.
func (c *Client) ResolveCallback(ctx context.Context, hash, query string) (*Session, error) {
	fragment := parseParams(strings.TrimPrefix(hash, "#"))
	params := parseParams(strings.TrimPrefix(query, "?"))

	if err := redirectError(params, fragment); err != nil {
		c.logger.WithError(err).WarnContext(ctx, "auth provider returned an error")
		return nil, err
	}

	if code := params.Get("code"); code != "" {
		if fragment.Get("access_token") != "" {
			c.logger.DebugContext(ctx, "redirect carries both code and token pair, using code")
		}
		return c.exchangeCode(ctx, code)
	}

	access, refresh := fragment.Get("access_token"), fragment.Get("refresh_token")
	if access != "" && refresh != "" {
		return c.setSession(ctx, access, refresh)
	}

	return c.existingSession(ctx)
}

func (c *Client) exchangeCode(ctx context.Context, code string) (*Session, error) {
	s, err := c.provider.ExchangeCode(ctx, code)
	if err != nil {
		c.metrics.RecordAuthAttempt(MethodCodeExchange, "failure")
		return nil, WrapError(ErrExchangeFailed, "authorization code exchange failed", err, nil)
	}
	return c.establish(ctx, s, MethodCodeExchange, EventSignedIn)
}

func (c *Client) setSession(ctx context.Context, access, refresh string) (*Session, error) {
	s, err := c.provider.SetSession(ctx, access, refresh)
	if err != nil {
		c.metrics.RecordAuthAttempt(MethodTokenPair, "failure")
		return nil, WrapError(ErrTokenPairRejected, "token pair was rejected", err, nil)
	}
	return c.establish(ctx, s, MethodTokenPair, EventSignedIn)
}

func (c *Client) existingSession(ctx context.Context) (*Session, error) {
	s, err := c.Session(ctx)
	if err != nil {
		c.metrics.RecordAuthAttempt(MethodExistingSession, "failure")
		return nil, err
	}
	if s == nil {
		c.metrics.RecordAuthAttempt(MethodExistingSession, "none")
		return nil, nil
	}
	if s.IsExpired() {
		c.logger.DebugContext(ctx, "stored session has expired", "expires_at", s.ExpiresAt)
		c.metrics.RecordAuthAttempt(MethodExistingSession, "expired")
		if s.RefreshToken == "" {
			return nil, nil
		}
		// A failed refresh leaves the caller signed out, same as no session.
		refreshed, err := c.refresh(ctx, s)
		if err != nil {
			c.logger.InfoContext(ctx, "expired session could not be refreshed", "error", err)
			return nil, nil
		}
		return refreshed, nil
	}

	c.metrics.RecordAuthAttempt(MethodExistingSession, "success")
	return s, nil
}

// ParseRedirectURL splits a redirect URL into its fragment and query.
func ParseRedirectURL(raw string) (hash, query string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", NewError(ErrInvalidRedirect, "redirect URL is empty", nil)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", WrapError(ErrInvalidRedirect, "redirect URL is not valid", err, nil)
	}
	return u.EscapedFragment(), u.RawQuery, nil
}

func parseParams(s string) url.Values {
	// Malformed pairs are dropped; the rest are kept.
	v, _ := url.ParseQuery(s)
	return v
}

func redirectError(sets ...url.Values) error {
	for _, v := range sets {
		code := v.Get("error")
		desc := v.Get("error_description")
		if code == "" && desc == "" {
			continue
		}
		if desc == "" {
			desc = code
		}
		return NewError(ErrCallbackProvider, desc, map[string]interface{}{
			"error":      code,
			"error_code": v.Get("error_code"),
		})
	}
	return nil
}
