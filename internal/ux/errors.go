package ux

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/heyraji/heyraji/internal/auth"
	heyerrors "github.com/heyraji/heyraji/internal/errors"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\n💡 Suggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

var authSuggestions = map[string]string{
	auth.ErrInvalidEmail:       "Enter the full address you use for HeyRaji, e.g. you@example.com",
	auth.ErrInvalidCode:        "The code is the 6 digits from the sign-in email",
	auth.ErrInvalidRedirect:    "Paste the complete URL from the browser address bar after signing in",
	auth.ErrCallbackTimeout:    "The auth backend did not answer in time. Check your connection and run 'heyraji auth callback' again",
	auth.ErrCallbackNoSession:  "Start a new sign-in with 'heyraji auth login'",
	auth.ErrCallbackProvider:   "The sign-in link was rejected or has expired. Request a new one with 'heyraji auth login'",
	auth.ErrMissingVerifier:    "Complete the sign-in on the same machine that requested the code, or run 'heyraji auth login' again",
	auth.ErrSessionNotFound:    "You are signed out. Run 'heyraji auth login'",
	auth.ErrRefreshFailed:      "Your session can no longer be refreshed. Run 'heyraji auth login'",
	auth.ErrSessionStoreFailed: "Set session.backend to file with 'heyraji config set session.backend file' if the keyring is unavailable",
}

// EnhanceError analyzes an error and adds contextual suggestions
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	var suggested *ErrorWithSuggestion
	if errors.As(err, &suggested) {
		return err
	}

	// Coded errors already carry their own suggestions.
	var hrErr *heyerrors.HeyRajiError
	if errors.As(err, &hrErr) && len(hrErr.Suggestions) > 0 {
		return err
	}

	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		if s, ok := authSuggestions[authErr.Code]; ok {
			return NewErrorWithSuggestion(err, s)
		}
	}

	if errors.Is(err, keyring.ErrUnsupportedPlatform) {
		return NewErrorWithSuggestion(err,
			"No OS keyring is available. Run 'heyraji config set session.backend file'")
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "org.freedesktop.secrets") || strings.Contains(errMsg, "secret service") {
		return NewErrorWithSuggestion(err,
			"Start a Secret Service provider (gnome-keyring, KeePassXC) or run 'heyraji config set session.backend file'")
	}

	// Permission errors
	if strings.Contains(errMsg, "permission denied") {
		if strings.Contains(errMsg, ".heyraji") {
			return NewErrorWithSuggestion(err,
				"Check ownership of your HeyRaji home directory (default ~/.heyraji) or pass --home")
		}
		return NewErrorWithSuggestion(err,
			"Check file permissions and ensure you have access to the required files/directories")
	}

	// Network errors
	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no route to host") ||
		strings.Contains(errMsg, "no such host") {
		return NewErrorWithSuggestion(err,
			"Check your network connection and the auth.url setting ('heyraji config get auth.url')")
	}

	if strings.Contains(errMsg, "Invalid API key") || strings.Contains(errMsg, "No API key found") {
		return NewErrorWithSuggestion(err,
			"Set HEYRAJI_AUTH_ANON_KEY or run 'heyraji config set auth.anon_key <key>'")
	}

	if strings.Contains(errMsg, "database") && strings.Contains(errMsg, "does not exist") {
		return NewErrorWithSuggestion(err,
			"Check storage.dsn or HEYRAJI_DATABASE_URL, or switch back with 'heyraji config set storage.driver file'")
	}

	return err
}

// FormatError provides consistent error formatting with context
func FormatError(err error, context string) error {
	if err == nil {
		return nil
	}

	enhanced := EnhanceError(err)
	if context != "" {
		return fmt.Errorf("%s: %w", context, enhanced)
	}
	return enhanced
}
