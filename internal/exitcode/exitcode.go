package exitcode

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"

	"github.com/heyraji/heyraji/internal/auth"
	heyerrors "github.com/heyraji/heyraji/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, bad values)
	UsageError = 2

	// AuthError indicates an authentication failure
	AuthError = 5

	// NetworkError indicates the auth backend or database could not be reached
	NetworkError = 6

	// Interrupted indicates the command was cancelled by SIGINT or SIGTERM
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	code := DetermineExitCode(err)
	Exit(code)
}

// Auth codes caused by bad input rather than a failed sign-in.
var authUsageCodes = map[string]bool{
	auth.ErrInvalidEmail:    true,
	auth.ErrInvalidCode:     true,
	auth.ErrInvalidRedirect: true,
}

var usageCodes = map[heyerrors.ErrorCode]bool{
	heyerrors.ErrCodeSettingsUnknownKey:   true,
	heyerrors.ErrCodeSettingsLocale:       true,
	heyerrors.ErrCodeSettingsInvalidValue: true,
	heyerrors.ErrCodeConfigUnknownKey:     true,
	heyerrors.ErrCodeConfigAuthURL:        true,
	heyerrors.ErrCodeStorageDriver:        true,
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if errors.Is(err, context.Canceled) {
		return Interrupted
	}

	// Network failures are checked before auth codes: a provider failure
	// caused by an unreachable backend is a network problem.
	var netErr net.Error
	if errors.As(err, &netErr) {
		return NetworkError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NetworkError
	}

	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		if authUsageCodes[authErr.Code] {
			return UsageError
		}
		if authErr.Code == auth.ErrCallbackTimeout {
			return NetworkError
		}
		return AuthError
	}

	var hrErr *heyerrors.HeyRajiError
	if errors.As(err, &hrErr) && usageCodes[hrErr.Code] {
		return UsageError
	}

	// cobra reports argument and flag problems as plain errors
	errMsg := strings.ToLower(err.Error())
	for _, s := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "required flag", "invalid argument", "accepts ", "requires at least"} {
		if strings.Contains(errMsg, s) {
			return UsageError
		}
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags, arguments or values)"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
