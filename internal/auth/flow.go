package auth

import (
	"context"
	"time"
)

// DefaultCallbackTimeout bounds how long a callback may stay processing.
const DefaultCallbackTimeout = 30 * time.Second

// CallbackState is the UI-facing state of a callback.
type CallbackState string

// Callback states. Processing moves to exactly one of Success or Error.
const (
	CallbackProcessing CallbackState = "processing"
	CallbackSuccess    CallbackState = "success"
	CallbackError      CallbackState = "error"
)

// CallbackUpdate reports a state transition.
type CallbackUpdate struct {
	State   CallbackState
	Session *Session
	Err     error
	Elapsed time.Duration
}

// CallbackResolver resolves a redirect into a session. *Client implements it.
type CallbackResolver interface {
	ResolveCallback(ctx context.Context, hash, query string) (*Session, error)
}

// RunCallback resolves a redirect under a wall-clock guard. onState, when
// not nil, receives the processing state and then the terminal one. If the
// resolver has not returned within timeout the terminal state is Error with
// ErrCallbackTimeout; the in-flight remote call is left to finish on its
// own. A resolution that yields no session is also an Error.
func RunCallback(ctx context.Context, r CallbackResolver, hash, query string, timeout time.Duration, onState func(CallbackUpdate)) CallbackUpdate {
	if timeout <= 0 {
		timeout = DefaultCallbackTimeout
	}
	notify := func(u CallbackUpdate) {
		if onState != nil {
			onState(u)
		}
	}

	start := time.Now()
	notify(CallbackUpdate{State: CallbackProcessing})

	type result struct {
		session *Session
		err     error
	}
	done := make(chan result, 1)
	go func() {
		s, err := r.ResolveCallback(ctx, hash, query)
		done <- result{session: s, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var final CallbackUpdate
	select {
	case res := <-done:
		switch {
		case res.err != nil:
			final = CallbackUpdate{State: CallbackError, Err: res.err}
		case res.session == nil:
			final = CallbackUpdate{State: CallbackError, Err: NewError(ErrCallbackNoSession, "no session could be established from the redirect", nil)}
		default:
			final = CallbackUpdate{State: CallbackSuccess, Session: res.session}
		}
	case <-timer.C:
		final = CallbackUpdate{State: CallbackError, Err: NewError(ErrCallbackTimeout, "sign-in timed out, please try again", map[string]interface{}{
			"timeout": timeout.String(),
		})}
	case <-ctx.Done():
		final = CallbackUpdate{State: CallbackError, Err: ctx.Err()}
	}

	final.Elapsed = time.Since(start)
	notify(final)
	return final
}
