package analysis

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/grantlens/internal/cli"
)

// Styles contains the styling used when rendering a report to the terminal.
type Styles struct {
	// Base styles from CLI package
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style
	Subtle   lipgloss.Style
	Normal   lipgloss.Style

	Box            lipgloss.Style
	Stat           lipgloss.Style
	Significant    lipgloss.Style
	NotSignificant lipgloss.Style
	SectionHeader  lipgloss.Style
	FindingBox     lipgloss.Style
	WarningBox     lipgloss.Style
	Label          lipgloss.Style
}

// NewStyles creates a new Styles instance with default styling.
func NewStyles() *Styles {
	s := &Styles{
		Title:    cli.TitleStyle,
		Subtitle: cli.SubtitleStyle,
		Success:  cli.SuccessStyle,
		Warning:  cli.WarningStyle,
		Error:    cli.ErrorStyle,
		Info:     cli.InfoStyle,
		Subtle:   cli.SubtleStyle,
		Normal:   lipgloss.NewStyle(),
	}

	s.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(cli.SubtleColor).
		Padding(0, 1)

	s.Stat = lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.PrimaryColor)

	s.Significant = lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.AccentColor)

	s.NotSignificant = lipgloss.NewStyle().
		Foreground(cli.SubtleColor)

	s.SectionHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.InfoColor).
		MarginTop(1)

	s.FindingBox = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(cli.InfoColor).
		Padding(0, 1).
		MarginTop(1)

	s.WarningBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(cli.WarningColor).
		Padding(0, 1).
		MarginTop(1)

	s.Label = lipgloss.NewStyle().
		Bold(true)

	return s
}

// WithWidth returns a new Styles instance adjusted for the given terminal width.
func (s *Styles) WithWidth(width int) *Styles {
	newStyles := *s

	if width > 0 && width < 100 {
		newStyles.Box = s.Box.Width(width - 4)
		newStyles.FindingBox = s.FindingBox.Width(width - 4)
		newStyles.WarningBox = s.WarningBox.Width(width - 4)
	}

	return &newStyles
}

// ForPValue returns the significance style for a p-value at level alpha.
func (s *Styles) ForPValue(p, alpha float64) lipgloss.Style {
	if p < alpha {
		return s.Significant
	}
	return s.NotSignificant
}

// ForRetention returns the style for a cleaning retention fraction.
func (s *Styles) ForRetention(retention float64) lipgloss.Style {
	switch {
	case retention >= 0.9:
		return s.Success
	case retention >= 0.7:
		return s.Warning
	default:
		return s.Error
	}
}

// RenderProgressBar renders a fraction in [0, 1] as a bar of the given width.
func (s *Styles) RenderProgressBar(progress float64, width int) string {
	if width <= 0 {
		width = 30
	}

	filled := int(float64(width) * progress)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	// Unstyled so the width stays exact.
	return repeatChar("█", filled) + repeatChar("░", width-filled)
}

// RenderBox renders content in a styled box with optional title.
func (s *Styles) RenderBox(content string, title string, style lipgloss.Style) string {
	if title != "" {
		// lipgloss v1.1.0 has no border titles, so the title leads the content.
		titleStyled := s.Info.Bold(true).Render(" " + title + " ")
		return style.Render(titleStyled + "\n" + content)
	}
	return style.Render(content)
}

func repeatChar(char string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(char, n)
}
