package tui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/heyraji/heyraji/internal/auth"
)

func TestIsInteractive(t *testing.T) {
	// Depends on how tests are run; only check it does not panic.
	_ = IsInteractive()
}

func TestShouldPrompt_CI(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
	}{
		{"GitHub Actions", "GITHUB_ACTIONS", "true"},
		{"GitLab CI", "GITLAB_CI", "true"},
		{"Jenkins", "JENKINS_URL", "http://jenkins.local"},
		{"Generic CI", "CI", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.val)
			assert.False(t, ShouldPrompt())
		})
	}
}

func TestPromptForSelect_NoOptions(t *testing.T) {
	_, err := PromptForSelect("Pick one", nil)
	assert.EqualError(t, err, "no options provided")
}

func TestValidationMessage(t *testing.T) {
	assert.NoError(t, validationMessage(nil))
	assert.EqualError(t, validationMessage(auth.ValidateOTPCode("12")), "code must be 6 digits")
	assert.EqualError(t, validationMessage(errors.New("plain")), "plain")
}
