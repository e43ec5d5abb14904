package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Settings errors (SETTINGS-001 to SETTINGS-099)
	ErrCodeSettingsUnknownKey   ErrorCode = "SETTINGS-001"
	ErrCodeSettingsLocale       ErrorCode = "SETTINGS-002"
	ErrCodeSettingsWriteFailed  ErrorCode = "SETTINGS-003"
	ErrCodeSettingsInvalidValue ErrorCode = "SETTINGS-004"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid    ErrorCode = "CONFIG-001"
	ErrCodeConfigUnknownKey ErrorCode = "CONFIG-002"
	ErrCodeConfigAuthURL    ErrorCode = "CONFIG-003"
	ErrCodeStorageDriver    ErrorCode = "CONFIG-004"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeDirectoryFailed ErrorCode = "IO-004"
	ErrCodeFileUnmarshal   ErrorCode = "IO-005"
	ErrCodeFileMarshal     ErrorCode = "IO-006"
)

// HeyRajiError is an error with a stable code and suggested fixes.
type HeyRajiError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *HeyRajiError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *HeyRajiError) Unwrap() error {
	return e.Cause
}

// ErrorCode returns the code as a string; the logger keys on it.
func (e *HeyRajiError) ErrorCode() string {
	return string(e.Code)
}

// New creates a new HeyRajiError
func New(code ErrorCode, message string) *HeyRajiError {
	return &HeyRajiError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new HeyRajiError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *HeyRajiError {
	return &HeyRajiError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *HeyRajiError) WithSuggestion(suggestion string) *HeyRajiError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *HeyRajiError) WithSuggestions(suggestions ...string) *HeyRajiError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// HasCode reports whether err is a HeyRajiError with the given code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if e, ok := err.(*HeyRajiError); ok && e.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Common error constructors for frequently used errors

// NewUnsupportedLocaleError creates an error for a language that cannot be
// resolved to a supported locale.
func NewUnsupportedLocaleError(value string, supported []string) *HeyRajiError {
	return New(ErrCodeSettingsLocale, fmt.Sprintf("unsupported language: %q", value)).
		WithSuggestion(fmt.Sprintf("Use one of: %s", strings.Join(supported, ", "))).
		WithSuggestion("Regional codes such as pt-BR are accepted and stored as their base language")
}

// NewUnknownSettingError creates an unknown settings key error
func NewUnknownSettingError(key string, known []string) *HeyRajiError {
	return New(ErrCodeSettingsUnknownKey, fmt.Sprintf("unknown setting: %s", key)).
		WithSuggestion(fmt.Sprintf("Known settings: %s", strings.Join(known, ", "))).
		WithSuggestion("Run 'heyraji settings view' to see current values")
}

// NewInvalidSettingValueError creates an invalid value error for a setting
func NewInvalidSettingValueError(key, value, expected string) *HeyRajiError {
	return New(ErrCodeSettingsInvalidValue, fmt.Sprintf("invalid value %q for setting %s", value, key)).
		WithSuggestion(fmt.Sprintf("Expected: %s", expected))
}

// NewAuthURLMissingError creates an error for a missing auth backend URL
func NewAuthURLMissingError() *HeyRajiError {
	return New(ErrCodeConfigAuthURL, "auth backend URL is not configured").WithSuggestions(
		"Set HEYRAJI_AUTH_URL in your environment or .env file",
		"Run 'heyraji config set auth.url https://<project>.supabase.co'",
	)
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *HeyRajiError {
	return Wrap(ErrCodeFileUnmarshal, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}
