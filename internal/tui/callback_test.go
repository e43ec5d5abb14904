package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyraji/heyraji/internal/auth"
)

func newTestCallbackModel(update auth.CallbackUpdate) CallbackModel {
	return NewCallbackModel(func() auth.CallbackUpdate { return update }, PlainStyles())
}

func TestCallbackModel_Init(t *testing.T) {
	m := newTestCallbackModel(auth.CallbackUpdate{State: auth.CallbackSuccess})

	assert.NotNil(t, m.Init())
	assert.Equal(t, auth.CallbackProcessing, m.Result().State)
	assert.Contains(t, m.View(), "Signing you in...")
}

func TestCallbackModel_RunCommandProducesDone(t *testing.T) {
	want := auth.CallbackUpdate{State: auth.CallbackSuccess, Session: &auth.Session{Email: "ana@example.com"}}
	m := newTestCallbackModel(want)

	msg := m.run()
	done, ok := msg.(callbackDoneMsg)
	require.True(t, ok)
	assert.Equal(t, want, done.update)
}

func TestCallbackModel_Success(t *testing.T) {
	update := auth.CallbackUpdate{State: auth.CallbackSuccess, Session: &auth.Session{Email: "ana@example.com"}}
	m := newTestCallbackModel(update)

	next, cmd := m.Update(callbackDoneMsg{update: update})
	require.NotNil(t, cmd)
	final := next.(CallbackModel)

	assert.Equal(t, auth.CallbackSuccess, final.Result().State)
	assert.Contains(t, final.View(), "✓ Signed in as ana@example.com")
}

func TestCallbackModel_Error(t *testing.T) {
	update := auth.CallbackUpdate{
		State: auth.CallbackError,
		Err:   auth.NewError(auth.ErrCallbackTimeout, "sign-in timed out, please try again", nil),
	}
	m := newTestCallbackModel(update)

	next, _ := m.Update(callbackDoneMsg{update: update})
	final := next.(CallbackModel)

	assert.Equal(t, auth.CallbackError, final.Result().State)
	assert.Contains(t, final.View(), "sign-in timed out")
}

func TestCallbackModel_CancelKey(t *testing.T) {
	m := newTestCallbackModel(auth.CallbackUpdate{})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	final := next.(CallbackModel)

	assert.Equal(t, auth.CallbackError, final.Result().State)
	assert.True(t, errors.Is(final.Result().Err, context.Canceled))
}

func TestCallbackModel_KeysIgnoredAfterTerminal(t *testing.T) {
	update := auth.CallbackUpdate{State: auth.CallbackSuccess, Session: &auth.Session{}}
	m := newTestCallbackModel(update)
	next, _ := m.Update(callbackDoneMsg{update: update})

	next, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.Equal(t, auth.CallbackSuccess, next.(CallbackModel).Result().State)
}

func TestCallbackModel_SpinnerStopsAfterTerminal(t *testing.T) {
	update := auth.CallbackUpdate{State: auth.CallbackError, Err: errors.New("x")}
	m := newTestCallbackModel(update)
	next, _ := m.Update(callbackDoneMsg{update: update})

	_, cmd := next.Update(spinner.TickMsg{})
	assert.Nil(t, cmd)
}

func TestStylesFor(t *testing.T) {
	plain := StylesFor(true)
	assert.Equal(t, "x", plain.Error.Render("x"))
	assert.NotNil(t, StylesFor(false).Title)
}
