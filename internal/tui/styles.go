package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains lipgloss styles for terminal output
type Styles struct {
	Title   lipgloss.Style
	Status  lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Muted   lipgloss.Style
	Key     lipgloss.Style
	KeyDesc lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")). // Purple
			MarginBottom(1),
		Status: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")), // Cyan
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")), // Green
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Key: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")),
		KeyDesc: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
	}
}

// PlainStyles renders without colors or emphasis, for --no-color.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title:   plain,
		Status:  plain,
		Error:   plain,
		Success: plain,
		Muted:   plain,
		Key:     plain,
		KeyDesc: plain,
	}
}

// StylesFor picks DefaultStyles or PlainStyles.
func StylesFor(noColor bool) Styles {
	if noColor {
		return PlainStyles()
	}
	return DefaultStyles()
}
