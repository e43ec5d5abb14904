package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeSettingsLocale, "test error message")

	if err.Code != ErrCodeSettingsLocale {
		t.Errorf("expected code %s, got %s", ErrCodeSettingsLocale, err.Code)
	}

	if err.Message != "test error message" {
		t.Errorf("expected message 'test error message', got '%s'", err.Message)
	}

	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(ErrCodeFileReadFailed, "failed to read file", cause)

	if err.Code != ErrCodeFileReadFailed {
		t.Errorf("expected code %s, got %s", ErrCodeFileReadFailed, err.Code)
	}

	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *HeyRajiError
		wantCode string
		wantMsg  string
	}{
		{
			name:     "simple error",
			err:      New(ErrCodeSettingsUnknownKey, "unknown setting"),
			wantCode: "SETTINGS-001",
			wantMsg:  "unknown setting",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeFileReadFailed, "read failed", fmt.Errorf("permission denied")),
			wantCode: "IO-002",
			wantMsg:  "permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()

			if !strings.Contains(errStr, tt.wantCode) {
				t.Errorf("error string should contain code %s, got: %s", tt.wantCode, errStr)
			}

			if !strings.Contains(errStr, tt.wantMsg) {
				t.Errorf("error string should contain message '%s', got: %s", tt.wantMsg, errStr)
			}
		})
	}
}

func TestWithSuggestions(t *testing.T) {
	err := New(ErrCodeConfigInvalid, "bad config").
		WithSuggestion("Check the file").
		WithSuggestions("Run 'heyraji config view'", "Delete and recreate")

	if len(err.Suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(err.Suggestions))
	}

	out := err.Error()
	if !strings.Contains(out, "Suggestions:") {
		t.Errorf("missing suggestions block: %s", out)
	}
	if !strings.Contains(out, "\n  • Delete and recreate") {
		t.Errorf("missing suggestion line: %s", out)
	}
}

func TestHasCode(t *testing.T) {
	base := New(ErrCodeSettingsLocale, "unsupported")
	wrapped := fmt.Errorf("saving: %w", base)

	if !HasCode(wrapped, ErrCodeSettingsLocale) {
		t.Error("HasCode should find code through fmt wrapping")
	}
	if HasCode(wrapped, ErrCodeFileReadFailed) {
		t.Error("HasCode matched the wrong code")
	}
	if HasCode(nil, ErrCodeSettingsLocale) {
		t.Error("HasCode(nil) should be false")
	}
}

func TestCommonConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *HeyRajiError
		code ErrorCode
	}{
		{"unsupported locale", NewUnsupportedLocaleError("xx", []string{"en", "pt"}), ErrCodeSettingsLocale},
		{"unknown setting", NewUnknownSettingError("theme", []string{"language"}), ErrCodeSettingsUnknownKey},
		{"invalid value", NewInvalidSettingValueError("useTabGroups", "maybe", "true or false"), ErrCodeSettingsInvalidValue},
		{"auth url", NewAuthURLMissingError(), ErrCodeConfigAuthURL},
		{"unmarshal", NewFileUnmarshalError("/tmp/x.yaml", "YAML", fmt.Errorf("bad")), ErrCodeFileUnmarshal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if len(tt.err.Suggestions) == 0 {
				t.Error("expected at least one suggestion")
			}
		})
	}
}
