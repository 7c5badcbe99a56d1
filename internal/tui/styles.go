package tui

import "github.com/charmbracelet/lipgloss"

// Colors defines the color palette for the TUI.
var Colors = struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Error   lipgloss.Color
	Running lipgloss.Color
	Stopped lipgloss.Color
	Warning lipgloss.Color
}{
	Primary: lipgloss.Color("#6C5CE7"), // Purple
	Muted:   lipgloss.Color("#636E72"), // Gray
	Error:   lipgloss.Color("#D63031"), // Red
	Running: lipgloss.Color("#FDCB6E"), // Yellow
	Stopped: lipgloss.Color("#00B894"), // Green
	Warning: lipgloss.Color("#FDCB6E"), // Yellow
}

// Styles holds the lipgloss styles for the TUI.
type Styles struct {
	Title       lipgloss.Style
	Header      lipgloss.Style
	Footer      lipgloss.Style
	ErrorMsg    lipgloss.Style
	WarningLine lipgloss.Style
	Running     lipgloss.Style
	Stopped     lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Primary),
		Header: lipgloss.NewStyle().
			Foreground(Colors.Muted),
		Footer: lipgloss.NewStyle().
			Foreground(Colors.Muted),
		ErrorMsg: lipgloss.NewStyle().
			Foreground(Colors.Error),
		WarningLine: lipgloss.NewStyle().
			Foreground(Colors.Warning),
		Running: lipgloss.NewStyle().
			Foreground(Colors.Running),
		Stopped: lipgloss.NewStyle().
			Foreground(Colors.Stopped),
	}
}
