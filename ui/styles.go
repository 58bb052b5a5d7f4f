package ui

import "github.com/charmbracelet/lipgloss"

// Dracula theme colors.
const (
	colorForeground = "#F8F8F2"
	colorCyan       = "#8BE9FD"
	colorGreen      = "#50FA7B"
	colorOrange     = "#FFB86C"
	colorPink       = "#FF79C6"
	colorPurple     = "#BD93F9"
	colorRed        = "#FF5555"
	colorComment    = "#6272A4"
)

type styles struct {
	title, section, muted, unread, info, warning, error, success, app lipgloss.Style
}

func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorPink)).
			Bold(true),
		section: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorPurple)).
			Bold(true).
			MarginTop(1),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorComment)),
		unread: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorCyan)).
			Bold(true),
		info: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorForeground)),
		warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorOrange)),
		error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorRed)).
			Bold(true),
		success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGreen)),
		app: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorCyan)),
	}
}
