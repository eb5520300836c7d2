package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Color palette shared by command output.
const (
	ColorPrimary = lipgloss.Color("#7C3AED")
	ColorMuted   = lipgloss.Color("#6B7280")
	ColorSuccess = lipgloss.Color("#10B981")
	ColorError   = lipgloss.Color("#EF4444")
	ColorWarning = lipgloss.Color("#F59E0B")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	plainStyle = lipgloss.NewStyle()
)

// styleFor returns style when w is a terminal and an unstyled renderer
// otherwise, so piped output and tests stay free of escape codes.
func styleFor(w io.Writer, style lipgloss.Style) lipgloss.Style {
	if shouldColorize(w) {
		return style
	}
	return plainStyle
}
