package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/heyraji/heyraji/internal/auth"
)

// callbackDoneMsg carries the terminal update of a callback run.
type callbackDoneMsg struct {
	update auth.CallbackUpdate
}

type callbackKeys struct {
	Quit key.Binding
}

func defaultCallbackKeys() callbackKeys {
	return callbackKeys{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc", "q"),
			key.WithHelp("q/esc", "cancel"),
		),
	}
}

// CallbackModel shows a spinner while an auth callback is processing and
// the terminal state once it resolves.
type CallbackModel struct {
	spinner spinner.Model
	styles  Styles
	keys    callbackKeys
	run     tea.Cmd

	state  auth.CallbackState
	result auth.CallbackUpdate
}

// NewCallbackModel creates the model. run performs the callback and is
// started by Init.
func NewCallbackModel(run func() auth.CallbackUpdate, styles Styles) CallbackModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Status

	return CallbackModel{
		spinner: s,
		styles:  styles,
		keys:    defaultCallbackKeys(),
		run: func() tea.Msg {
			return callbackDoneMsg{update: run()}
		},
		state: auth.CallbackProcessing,
	}
}

// Init starts the spinner and the callback.
func (m CallbackModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run)
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m CallbackModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) && m.state == auth.CallbackProcessing {
			m.state = auth.CallbackError
			m.result = auth.CallbackUpdate{State: auth.CallbackError, Err: context.Canceled}
			return m, tea.Quit
		}
		return m, nil

	case callbackDoneMsg:
		m.state = msg.update.State
		m.result = msg.update
		return m, tea.Quit

	case spinner.TickMsg:
		if m.state != auth.CallbackProcessing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current state (required by Bubble Tea)
func (m CallbackModel) View() string {
	var b strings.Builder

	switch m.state {
	case auth.CallbackProcessing:
		fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), m.styles.Status.Render("Signing you in..."))
		fmt.Fprintf(&b, "%s %s\n", m.styles.Key.Render(m.keys.Quit.Help().Key), m.styles.KeyDesc.Render(m.keys.Quit.Help().Desc))
	case auth.CallbackSuccess:
		who := ""
		if m.result.Session != nil && m.result.Session.Email != "" {
			who = " as " + m.result.Session.Email
		}
		fmt.Fprintf(&b, "%s\n", m.styles.Success.Render("✓ Signed in"+who))
	case auth.CallbackError:
		msg := "sign-in failed"
		if m.result.Err != nil {
			msg = m.result.Err.Error()
		}
		fmt.Fprintf(&b, "%s\n", m.styles.Error.Render("✗ "+msg))
	}

	return b.String()
}

// Result returns the terminal update; State is CallbackProcessing until the
// callback has resolved.
func (m CallbackModel) Result() auth.CallbackUpdate {
	if m.state == auth.CallbackProcessing {
		return auth.CallbackUpdate{State: auth.CallbackProcessing}
	}
	return m.result
}

// RunCallbackView runs auth.RunCallback behind a spinner on out.
func RunCallbackView(ctx context.Context, r auth.CallbackResolver, hash, query string, timeout time.Duration, styles Styles, out io.Writer) (auth.CallbackUpdate, error) {
	model := NewCallbackModel(func() auth.CallbackUpdate {
		return auth.RunCallback(ctx, r, hash, query, timeout, nil)
	}, styles)

	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return auth.CallbackUpdate{}, fmt.Errorf("callback view failed: %w", err)
	}

	m, ok := final.(CallbackModel)
	if !ok {
		return auth.CallbackUpdate{}, fmt.Errorf("unexpected model type %T", final)
	}
	return m.Result(), nil
}
