package cli

import "github.com/charmbracelet/lipgloss"

// Output styling for the live feed and list commands.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ECDC4"))

	commentAuthorStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#95E1A3"))

	notificationStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFE66D"))

	typingStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#6C757D"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)
