package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the dashboard.
type Theme struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Heading     lipgloss.Style
	Normal      lipgloss.Style
	Bold        lipgloss.Style
	Muted       lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	TabGap      lipgloss.Style
	StatusBar   lipgloss.Style
	Good        lipgloss.Style
	Bad         lipgloss.Style
	Caution     lipgloss.Style
	Box         lipgloss.Style
	Primary     lipgloss.Color
	Secondary   lipgloss.Color
	Subtle      lipgloss.Color
	Border      lipgloss.Color
	Success     lipgloss.Color
	Warning     lipgloss.Color
	Error       lipgloss.Color
}

// Default is the default theme.
var Default = Theme{
	// Colors
	Primary:   lipgloss.Color("#4682B4"),
	Secondary: lipgloss.Color("#95E1D3"),
	Subtle:    lipgloss.Color("#737373"),
	Border:    lipgloss.Color("#404040"),
	Success:   lipgloss.Color("#10b981"),
	Warning:   lipgloss.Color("#f59e0b"),
	Error:     lipgloss.Color("#ef4444"),

	// Text styles
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Heading: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#4682B4")).
		MarginTop(1),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),
	Bold: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")),

	// Tabs
	TabActive: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")).
		Background(lipgloss.Color("#4682B4")).
		Padding(0, 1),
	TabInactive: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")).
		Padding(0, 1),
	TabGap: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#404040")),

	StatusBar: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")).
		Background(lipgloss.Color("#262626")).
		Padding(0, 1),

	// Verdicts
	Good: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10b981")),
	Bad: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")),
	Caution: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f59e0b")),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(0, 1),
}

// Plain renders without colors, for tests and dumb terminals.
var Plain = Theme{
	Title:       lipgloss.NewStyle(),
	Subtitle:    lipgloss.NewStyle(),
	Heading:     lipgloss.NewStyle().MarginTop(1),
	Normal:      lipgloss.NewStyle(),
	Bold:        lipgloss.NewStyle(),
	Muted:       lipgloss.NewStyle(),
	TabActive:   lipgloss.NewStyle().Padding(0, 1),
	TabInactive: lipgloss.NewStyle().Padding(0, 1),
	TabGap:      lipgloss.NewStyle(),
	StatusBar:   lipgloss.NewStyle(),
	Good:        lipgloss.NewStyle(),
	Bad:         lipgloss.NewStyle(),
	Caution:     lipgloss.NewStyle(),
	Box:         lipgloss.NewStyle(),
}
