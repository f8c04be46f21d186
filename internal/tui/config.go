package tui

import (
	"github.com/Veraticus/grantlens/internal/tui/themes"
)

// Config holds dashboard configuration.
type Config struct {
	Theme     themes.Theme
	TopN      int
	Width     int
	Height    int
	ShowHelp  bool
	AltScreen bool
}

// Option is a functional option for configuring the dashboard.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:     themes.Default,
		TopN:      10,
		Width:     100,
		Height:    30,
		ShowHelp:  true,
		AltScreen: true,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size. The first window size message
// replaces it.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithTopN sets how many agencies and topics the NIH tab lists.
func WithTopN(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.TopN = n
		}
	}
}

// WithHelp toggles the key help line.
func WithHelp(show bool) Option {
	return func(c *Config) {
		c.ShowHelp = show
	}
}

// WithAltScreen toggles the alternate screen buffer.
func WithAltScreen(enabled bool) Option {
	return func(c *Config) {
		c.AltScreen = enabled
	}
}
