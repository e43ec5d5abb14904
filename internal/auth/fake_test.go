package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// fakeProvider records calls and returns canned results.
type fakeProvider struct {
	mu sync.Mutex

	calls []string

	sendErr     error
	verifyErr   error
	exchangeErr error
	setErr      error
	refreshErr  error
	signOutErr  error

	session *Session

	// block, when non-nil, delays ExchangeCode until closed.
	block chan struct{}
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		session: &Session{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			Email:        "ana@example.com",
			UserID:       "user-1",
			ExpiresAt:    time.Now().Add(time.Hour).UTC().Truncate(time.Second),
			Provider:     "fake",
		},
	}
}

func (f *fakeProvider) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeProvider) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeProvider) result(err error) (*Session, error) {
	if err != nil {
		return nil, err
	}
	s := *f.session
	return &s, nil
}

func (f *fakeProvider) SendOTP(_ context.Context, email string) error {
	f.record("SendOTP:" + email)
	return f.sendErr
}

func (f *fakeProvider) VerifyOTP(_ context.Context, email, code string) (*Session, error) {
	f.record("VerifyOTP:" + email + ":" + code)
	return f.result(f.verifyErr)
}

func (f *fakeProvider) ExchangeCode(ctx context.Context, code string) (*Session, error) {
	f.record("ExchangeCode:" + code)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result(f.exchangeErr)
}

func (f *fakeProvider) SetSession(_ context.Context, access, refresh string) (*Session, error) {
	f.record("SetSession:" + access + ":" + refresh)
	if f.setErr != nil {
		return nil, f.setErr
	}
	return &Session{AccessToken: access, RefreshToken: refresh, Provider: "fake"}, nil
}

func (f *fakeProvider) Refresh(_ context.Context, refresh string) (*Session, error) {
	f.record("Refresh:" + refresh)
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &Session{AccessToken: "access-2", RefreshToken: "refresh-2", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeProvider) SignOut(_ context.Context, access string) error {
	f.record("SignOut:" + access)
	return f.signOutErr
}

var errRemote = errors.New("Invalid login credentials")

// signedToken builds an HS256 token; the client never verifies it.
func signedToken(claims jwt.Claims) string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		panic(err)
	}
	return tok
}
