package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stateRecorder struct {
	mu     sync.Mutex
	states []CallbackState
}

func (r *stateRecorder) record(u CallbackUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, u.State)
}

func (r *stateRecorder) get() []CallbackState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CallbackState(nil), r.states...)
}

type resolverFunc func(ctx context.Context, hash, query string) (*Session, error)

func (f resolverFunc) ResolveCallback(ctx context.Context, hash, query string) (*Session, error) {
	return f(ctx, hash, query)
}

func TestRunCallback_Success(t *testing.T) {
	p := newFakeProvider()
	c, _ := newTestClient(p)
	rec := &stateRecorder{}

	final := RunCallback(context.Background(), c, "", "code=abc", time.Second, rec.record)

	assert.Equal(t, CallbackSuccess, final.State)
	require.NotNil(t, final.Session)
	assert.NoError(t, final.Err)
	assert.Equal(t, []CallbackState{CallbackProcessing, CallbackSuccess}, rec.get())
}

func TestRunCallback_RemoteFailure(t *testing.T) {
	p := newFakeProvider()
	p.exchangeErr = errRemote
	c, _ := newTestClient(p)
	rec := &stateRecorder{}

	final := RunCallback(context.Background(), c, "", "code=abc", time.Second, rec.record)

	assert.Equal(t, CallbackError, final.State)
	assert.Nil(t, final.Session)
	assert.True(t, IsAuthError(final.Err, ErrExchangeFailed))
	assert.Equal(t, []CallbackState{CallbackProcessing, CallbackError}, rec.get())
}

func TestRunCallback_NoSessionIsError(t *testing.T) {
	c, _ := newTestClient(newFakeProvider())

	final := RunCallback(context.Background(), c, "", "", time.Second, nil)

	assert.Equal(t, CallbackError, final.State)
	assert.True(t, IsAuthError(final.Err, ErrCallbackNoSession))
}

func TestRunCallback_Timeout(t *testing.T) {
	p := newFakeProvider()
	p.block = make(chan struct{})
	c, store := newTestClient(p)
	rec := &stateRecorder{}

	final := RunCallback(context.Background(), c, "", "code=slow", 20*time.Millisecond, rec.record)

	assert.Equal(t, CallbackError, final.State)
	assert.True(t, IsAuthError(final.Err, ErrCallbackTimeout))
	assert.GreaterOrEqual(t, final.Elapsed, 20*time.Millisecond)
	assert.Equal(t, []CallbackState{CallbackProcessing, CallbackError}, rec.get())

	// The remote call is not cancelled by the guard and may still land.
	close(p.block)
	assert.Eventually(t, func() bool {
		s, _ := store.Load(context.Background())
		return s != nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []CallbackState{CallbackProcessing, CallbackError}, rec.get(), "no state after terminal")
}

func TestRunCallback_DefaultTimeout(t *testing.T) {
	var gotCtx context.Context
	r := resolverFunc(func(ctx context.Context, _, _ string) (*Session, error) {
		gotCtx = ctx
		return &Session{AccessToken: "a"}, nil
	})

	final := RunCallback(context.Background(), r, "", "", 0, nil)
	assert.Equal(t, CallbackSuccess, final.State)

	_, hasDeadline := gotCtx.Deadline()
	assert.False(t, hasDeadline, "guard must not impose a deadline on the resolver")
}

func TestRunCallback_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	defer close(release)
	r := resolverFunc(func(context.Context, string, string) (*Session, error) {
		<-release
		return nil, errors.New("late")
	})

	cancel()
	final := RunCallback(ctx, r, "", "", time.Minute, nil)

	assert.Equal(t, CallbackError, final.State)
	assert.ErrorIs(t, final.Err, context.Canceled)
}
