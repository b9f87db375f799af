package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the chat.
type Theme struct {
	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	UserLabel  lipgloss.Style
	UserText   lipgloss.Style
	Thinking   lipgloss.Style
	StatusBar  lipgloss.Style
	Error      lipgloss.Style
	InputBox   lipgloss.Style
	Primary    lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	ErrorColor lipgloss.Color
}

// Default is the default theme.
var Default = Theme{
	Primary:    lipgloss.Color("#2EC4B6"),
	Muted:      lipgloss.Color("#737373"),
	Border:     lipgloss.Color("#404040"),
	ErrorColor: lipgloss.Color("#EF476F"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#2EC4B6")),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	UserLabel: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFD166")),
	UserText: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),
	Thinking: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")).
		Italic(true),
	StatusBar: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")),
	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF476F")).
		Bold(true),
	InputBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(0, 1),
}

// Plain drops colors for terminals without them and for golden output in tests.
var Plain = Theme{
	Title:     lipgloss.NewStyle().Bold(true),
	Subtitle:  lipgloss.NewStyle(),
	UserLabel: lipgloss.NewStyle().Bold(true),
	UserText:  lipgloss.NewStyle(),
	Thinking:  lipgloss.NewStyle(),
	StatusBar: lipgloss.NewStyle(),
	Error:     lipgloss.NewStyle(),
	InputBox: lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		Padding(0, 1),
}
