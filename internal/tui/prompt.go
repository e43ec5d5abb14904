package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/heyraji/heyraji/internal/auth"
)

// Prompt represents a simple interactive prompt configuration
type Prompt struct {
	Message     string
	Default     string
	Placeholder string
	Required    bool
	Validate    func(string) error
}

// PromptForString displays an interactive prompt and returns the user's input
func PromptForString(p Prompt) (string, error) {
	value := p.Default

	input := huh.NewInput().
		Title(p.Message).
		Placeholder(p.Placeholder).
		Value(&value)
	if p.Validate != nil {
		input = input.Validate(p.Validate)
	}

	form := huh.NewForm(huh.NewGroup(input))

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}

	value = strings.TrimSpace(value)
	if p.Required && value == "" {
		return "", fmt.Errorf("value is required")
	}

	return value, nil
}

// PromptForEmail asks for the sign-in email address.
func PromptForEmail(defaultEmail string) (string, error) {
	return PromptForString(Prompt{
		Message:     "Email address",
		Default:     defaultEmail,
		Placeholder: "you@example.com",
		Required:    true,
		Validate: func(s string) error {
			return validationMessage(auth.ValidateEmail(strings.TrimSpace(s)))
		},
	})
}

// PromptForCode asks for the 6-digit code from the sign-in email.
func PromptForCode(email string) (string, error) {
	return PromptForString(Prompt{
		Message:     fmt.Sprintf("Enter the 6-digit code sent to %s", email),
		Placeholder: "123456",
		Required:    true,
		Validate: func(s string) error {
			return validationMessage(auth.ValidateOTPCode(strings.TrimSpace(s)))
		},
	})
}

// validationMessage strips the error code so the form shows plain text.
func validationMessage(err error) error {
	if err == nil {
		return nil
	}
	if authErr, ok := err.(*auth.AuthError); ok {
		return fmt.Errorf("%s", authErr.Message)
	}
	return err
}

// PromptForConfirmation displays a yes/no confirmation prompt
func PromptForConfirmation(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue

	confirm := huh.NewConfirm().
		Title(message).
		Value(&confirmed)

	form := huh.NewForm(huh.NewGroup(confirm))

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}

	return confirmed, nil
}

// PromptForSelect displays a selection prompt with multiple options
func PromptForSelect(message string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options provided")
	}

	var selected string
	selectField := huh.NewSelect[string]().
		Title(message).
		Options(huh.NewOptions(options...)...).
		Value(&selected)

	form := huh.NewForm(huh.NewGroup(selectField))

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}

	return selected, nil
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldPrompt returns true if prompts should be shown based on environment
// Prompts are disabled in CI environments or when stdin is not a terminal
func ShouldPrompt() bool {
	ciEnvVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"BUILDKITE",
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return false
		}
	}

	return IsInteractive()
}
