package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the browser's lipgloss styles.
type Styles struct {
	Title   lipgloss.Style
	Status  lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Key     lipgloss.Style
	Overlay lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BE9FD")),
		Status:  lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4")),
		Key:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F1FA8C")),
		Overlay: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#BD93F9")).Padding(1, 2),
	}
}
