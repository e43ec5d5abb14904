package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/heyraji/heyraji/internal/auth"
	"github.com/heyraji/heyraji/internal/log"
	"github.com/heyraji/heyraji/internal/metrics"
	"github.com/heyraji/heyraji/internal/storage"
)

const anonKey = "anon-key"

type recorded struct {
	method string
	path   string
	query  url.Values
	header http.Header
	body   map[string]interface{}
}

type recorder struct {
	mu   sync.Mutex
	reqs []recorded
}

func (r *recorder) all() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded(nil), r.reqs...)
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := recorded{method: r.Method, path: r.URL.Path, query: r.URL.Query(), header: r.Header.Clone()}
		_ = json.NewDecoder(r.Body).Decode(&req.body)

		rec.mu.Lock()
		rec.reqs = append(rec.reqs, req)
		rec.mu.Unlock()

		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func tokenBody(access string) map[string]interface{} {
	return map[string]interface{}{
		"access_token":  access,
		"token_type":    "bearer",
		"expires_in":    3600,
		"expires_at":    1893456000,
		"refresh_token": "refresh-1",
		"user":          map[string]string{"id": "user-1", "email": "ana@example.com"},
	}
}

func newTestClient(srv *httptest.Server, store storage.Storage, opts ...Option) *Client {
	opts = append([]Option{WithStorage(store), WithLogger(log.Discard())}, opts...)
	return NewClient(srv.URL+"/", anonKey, opts...)
}

func TestSendOTP_StoresVerifierAndSendsChallenge(t *testing.T) {
	srv, reqs := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{})
	})
	store := storage.NewMemoryStorage()
	c := newTestClient(srv, store, WithRedirectURL("https://app.heyraji.com/auth/callback"))

	require.NoError(t, c.SendOTP(context.Background(), "ana@example.com"))

	require.Len(t, reqs.all(), 1)
	req := reqs.all()[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/auth/v1/otp", req.path)
	assert.Equal(t, "https://app.heyraji.com/auth/callback", req.query.Get("redirect_to"))
	assert.Equal(t, anonKey, req.header.Get("apikey"))
	assert.Equal(t, "Bearer "+anonKey, req.header.Get("Authorization"))
	_, err := uuid.Parse(req.header.Get("X-Request-Id"))
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(req.header.Get("User-Agent"), "heyraji-cli/"))

	assert.Equal(t, "ana@example.com", req.body["email"])
	assert.Equal(t, true, req.body["create_user"])
	assert.Equal(t, "s256", req.body["code_challenge_method"])

	raw, found, err := store.Get(context.Background(), VerifierKey)
	require.NoError(t, err)
	require.True(t, found)
	var verifier string
	require.NoError(t, json.Unmarshal(raw, &verifier))
	assert.Equal(t, oauth2.S256ChallengeFromVerifier(verifier), req.body["code_challenge"])
}

func TestVerifyOTP(t *testing.T) {
	srv, reqs := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, tokenBody("access-1"))
	})
	c := newTestClient(srv, storage.NewMemoryStorage())

	s, err := c.VerifyOTP(context.Background(), "ana@example.com", "123456")
	require.NoError(t, err)

	assert.Equal(t, "/auth/v1/verify", reqs.all()[0].path)
	assert.Equal(t, map[string]interface{}{"type": "email", "email": "ana@example.com", "token": "123456"}, reqs.all()[0].body)

	assert.Equal(t, "access-1", s.AccessToken)
	assert.Equal(t, "refresh-1", s.RefreshToken)
	assert.Equal(t, "ana@example.com", s.Email)
	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, ProviderName, s.Provider)
	assert.Equal(t, time.Unix(1893456000, 0).UTC(), s.ExpiresAt)
}

func TestVerifyOTP_SurfacesProviderMessage(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
		want string
	}{
		{"msg field", map[string]interface{}{"code": 403, "error_code": "otp_expired", "msg": "Token has expired or is invalid"}, "Token has expired or is invalid"},
		{"oauth style", map[string]string{"error": "invalid_grant", "error_description": "Invalid Refresh Token: Refresh Token Not Found"}, "Invalid Refresh Token: Refresh Token Not Found"},
		{"message field", map[string]string{"message": "Invalid API key"}, "Invalid API key"},
		{"error only", map[string]string{"error": "unauthorized"}, "unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusForbidden, tt.body)
			})
			c := newTestClient(srv, storage.NewMemoryStorage())

			s, err := c.VerifyOTP(context.Background(), "ana@example.com", "000000")
			assert.Nil(t, s)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
		})
	}
}

func TestParseResponse_NonJSONError(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down\n"))
	})
	c := newTestClient(srv, storage.NewMemoryStorage())

	err := c.SignOut(context.Background(), "a")
	require.Error(t, err)
	assert.Equal(t, "request failed with status 502: upstream down", err.Error())
}

func TestExchangeCode(t *testing.T) {
	srv, reqs := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/v1/otp" {
			writeJSON(w, http.StatusOK, map[string]string{})
			return
		}
		writeJSON(w, http.StatusOK, tokenBody("access-2"))
	})
	store := storage.NewMemoryStorage()
	c := newTestClient(srv, store)
	ctx := context.Background()

	require.NoError(t, c.SendOTP(ctx, "ana@example.com"))
	challenge := reqs.all()[0].body["code_challenge"]

	s, err := c.ExchangeCode(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", s.AccessToken)

	exchange := reqs.all()[1]
	assert.Equal(t, "/auth/v1/token", exchange.path)
	assert.Equal(t, "pkce", exchange.query.Get("grant_type"))
	assert.Equal(t, "code-1", exchange.body["auth_code"])
	verifier, _ := exchange.body["code_verifier"].(string)
	assert.Equal(t, challenge, oauth2.S256ChallengeFromVerifier(verifier))

	_, found, err := store.Get(ctx, VerifierKey)
	require.NoError(t, err)
	assert.False(t, found, "verifier consumed")
}

func TestExchangeCode_MissingVerifier(t *testing.T) {
	srv, reqs := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, tokenBody("x"))
	})
	c := newTestClient(srv, storage.NewMemoryStorage())

	_, err := c.ExchangeCode(context.Background(), "code-1")
	assert.True(t, auth.IsAuthError(err, auth.ErrMissingVerifier))
	assert.Empty(t, reqs.all())
}

func TestExchangeCode_FailureKeepsVerifier(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/v1/otp" {
			writeJSON(w, http.StatusOK, map[string]string{})
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error_code": "flow_state_not_found", "msg": "invalid flow state, no valid flow state found"})
	})
	store := storage.NewMemoryStorage()
	c := newTestClient(srv, store)
	ctx := context.Background()
	require.NoError(t, c.SendOTP(ctx, "ana@example.com"))

	_, err := c.ExchangeCode(ctx, "stale")
	require.Error(t, err)
	assert.Equal(t, "invalid flow state, no valid flow state found", err.Error())

	_, found, _ := store.Get(ctx, VerifierKey)
	assert.True(t, found)
}

func TestSetSession(t *testing.T) {
	srv, reqs := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"id": "user-9", "email": "bo@example.com"})
	})
	c := newTestClient(srv, storage.NewMemoryStorage())

	access := signed(t, time.Now().Add(time.Hour))
	s, err := c.SetSession(context.Background(), access, "refresh-9")
	require.NoError(t, err)

	req := reqs.all()[0]
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/auth/v1/user", req.path)
	assert.Equal(t, "Bearer "+access, req.header.Get("Authorization"))
	assert.Equal(t, anonKey, req.header.Get("apikey"))

	assert.Equal(t, "user-9", s.UserID)
	assert.Equal(t, "bo@example.com", s.Email)
	assert.Equal(t, "refresh-9", s.RefreshToken)
}

func TestSetSession_ExpiredAccessTokenRefreshes(t *testing.T) {
	srv, reqs := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, tokenBody("fresh"))
	})
	c := newTestClient(srv, storage.NewMemoryStorage())

	s, err := c.SetSession(context.Background(), signed(t, time.Now().Add(-time.Minute)), "refresh-9")
	require.NoError(t, err)
	assert.Equal(t, "fresh", s.AccessToken)

	req := reqs.all()[0]
	assert.Equal(t, "/auth/v1/token", req.path)
	assert.Equal(t, "refresh_token", req.query.Get("grant_type"))
	assert.Equal(t, "refresh-9", req.body["refresh_token"])
}

func TestSetSession_Rejected(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"code": 401, "msg": "invalid JWT: unable to parse or verify signature"})
	})
	c := newTestClient(srv, storage.NewMemoryStorage())

	s, err := c.SetSession(context.Background(), "not-a-jwt", "r")
	assert.Nil(t, s)
	assert.EqualError(t, err, "invalid JWT: unable to parse or verify signature")
}

func TestSignOut(t *testing.T) {
	srv, reqs := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(srv, storage.NewMemoryStorage())

	require.NoError(t, c.SignOut(context.Background(), "access-1"))
	assert.Equal(t, "/auth/v1/logout", reqs.all()[0].path)
	assert.Equal(t, "Bearer access-1", reqs.all()[0].header.Get("Authorization"))
}

func TestAuthorizeURL(t *testing.T) {
	store := storage.NewMemoryStorage()
	c := NewClient("https://auth.heyraji.test", anonKey,
		WithStorage(store), WithRedirectURL("https://app.heyraji.com/cb"), WithLogger(log.Discard()))

	raw, err := c.AuthorizeURL(context.Background(), "google")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/auth/v1/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "google", q.Get("provider"))
	assert.Equal(t, "https://app.heyraji.com/cb", q.Get("redirect_to"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))

	_, found, err := store.Get(context.Background(), VerifierKey)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestClient_WorksWithAuthClient(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/otp":
			writeJSON(w, http.StatusOK, map[string]string{})
		default:
			writeJSON(w, http.StatusOK, tokenBody("access-3"))
		}
	})
	backend := newTestClient(srv, storage.NewMemoryStorage())
	client := auth.NewClient(backend, auth.NewMemoryStore(), auth.WithLogger(log.Discard()))
	ctx := context.Background()

	require.NoError(t, client.SendOTP(ctx, "ana@example.com"))
	s, err := client.ResolveCallback(ctx, "", "code=from-link")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, auth.MethodCodeExchange, s.Method)
}

func TestDoRequest_Metrics(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	_, m := metrics.NewRegistry()
	c := newTestClient(srv, storage.NewMemoryStorage(), WithMetrics(m))

	require.NoError(t, c.SignOut(context.Background(), "a"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("logout", "204")))
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-9",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}
