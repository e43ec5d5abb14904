package auth

import (
	"errors"
	"fmt"
)

// Error codes for authentication failures
const (
	// Input validation errors
	ErrInvalidEmail    = "AUTH_INVALID_EMAIL"
	ErrInvalidCode     = "AUTH_INVALID_CODE"
	ErrInvalidRedirect = "AUTH_INVALID_REDIRECT"

	// Remote provider errors
	ErrProviderFailed    = "AUTH_PROVIDER_FAILED"
	ErrExchangeFailed    = "AUTH_CODE_EXCHANGE_FAILED"
	ErrTokenPairRejected = "AUTH_TOKEN_PAIR_REJECTED"
	ErrRefreshFailed     = "AUTH_REFRESH_FAILED"
	ErrMissingVerifier   = "AUTH_MISSING_VERIFIER"

	// Callback errors
	ErrCallbackProvider  = "AUTH_CALLBACK_PROVIDER_ERROR"
	ErrCallbackTimeout   = "AUTH_CALLBACK_TIMEOUT"
	ErrCallbackNoSession = "AUTH_CALLBACK_NO_SESSION"

	// Session errors
	ErrSessionNotFound    = "AUTH_SESSION_NOT_FOUND"
	ErrSessionStoreFailed = "AUTH_SESSION_STORE_FAILED"
	ErrTokenMalformed     = "AUTH_TOKEN_MALFORMED"
)

// AuthError represents an authentication error with code and context.
type AuthError struct {
	// Code is the error code (e.g., AUTH_CALLBACK_TIMEOUT)
	Code string

	// Message is a human-readable error message. For remote failures it
	// carries the provider's own message.
	Message string

	// Context provides additional details about the error
	Context map[string]interface{}

	// Cause is the underlying error that caused this error
	Cause error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AuthError) Unwrap() error {
	return e.Cause
}

// ErrorCode returns the code for structured logging.
func (e *AuthError) ErrorCode() string {
	return e.Code
}

// NewError creates a new AuthError.
func NewError(code, message string, context map[string]interface{}) *AuthError {
	return &AuthError{
		Code:    code,
		Message: message,
		Context: context,
	}
}

// WrapError wraps an existing error with an AuthError.
func WrapError(code, message string, cause error, context map[string]interface{}) *AuthError {
	return &AuthError{
		Code:    code,
		Message: message,
		Context: context,
		Cause:   cause,
	}
}

// IsAuthError checks if err, or any error it wraps, is an AuthError with
// the given code.
func IsAuthError(err error, code string) bool {
	var authErr *AuthError
	for err != nil {
		if !errors.As(err, &authErr) {
			return false
		}
		if authErr.Code == code {
			return true
		}
		err = authErr.Cause
	}
	return false
}
