package analysis

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func TestRepeatChar(t *testing.T) {
	tests := []struct {
		name     string
		char     string
		expected string
		n        int
	}{
		{name: "zero repetitions", char: "x", n: 0, expected: ""},
		{name: "negative repetitions", char: "x", n: -5, expected: ""},
		{name: "single repetition", char: "x", n: 1, expected: "x"},
		{name: "multiple repetitions", char: "█", n: 5, expected: "█████"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, repeatChar(tt.char, tt.n))
		})
	}
}

func TestStyles_ForPValue(t *testing.T) {
	styles := NewStyles()

	tests := []struct {
		name        string
		p           float64
		alpha       float64
		significant bool
	}{
		{name: "well below alpha", p: 0.001, alpha: 0.05, significant: true},
		{name: "exactly alpha", p: 0.05, alpha: 0.05, significant: false},
		{name: "above alpha", p: 0.3, alpha: 0.05, significant: false},
		{name: "stricter alpha", p: 0.02, alpha: 0.01, significant: false},
		{name: "zero p-value", p: 0, alpha: 0.05, significant: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := styles.ForPValue(tt.p, tt.alpha)
			if tt.significant {
				assert.Equal(t, styles.Significant, result)
			} else {
				assert.Equal(t, styles.NotSignificant, result)
			}
		})
	}
}

func TestStyles_ForRetention(t *testing.T) {
	styles := NewStyles()

	tests := []struct {
		name      string
		style     string
		retention float64
	}{
		{name: "full retention", retention: 1.0, style: "success"},
		{name: "boundary 0.9", retention: 0.9, style: "success"},
		{name: "moderate loss", retention: 0.8, style: "warning"},
		{name: "boundary 0.7", retention: 0.7, style: "warning"},
		{name: "heavy loss", retention: 0.4, style: "error"},
		{name: "nothing kept", retention: 0, style: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := styles.ForRetention(tt.retention)

			switch tt.style {
			case "success":
				assert.Equal(t, styles.Success, result)
			case "warning":
				assert.Equal(t, styles.Warning, result)
			case "error":
				assert.Equal(t, styles.Error, result)
			}
		})
	}
}

func TestStyles_RenderBox(t *testing.T) {
	styles := NewStyles()

	tests := []struct {
		name    string
		content string
		title   string
	}{
		{name: "box without title", content: "Test content"},
		{name: "box with title", content: "Test content with title", title: "Important"},
		{name: "multiline content", content: "Line 1\nLine 2\nLine 3", title: "Multi"},
		{name: "empty content with title", title: "Empty Box"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := styles.RenderBox(tt.content, tt.title, styles.Box)
			assert.NotEmpty(t, result)

			stripped := stripANSI(result)
			for _, line := range strings.Split(tt.content, "\n") {
				if line != "" {
					assert.Contains(t, stripped, line)
				}
			}
			if tt.title != "" {
				assert.Contains(t, stripped, tt.title)
			}
		})
	}
}

func TestStyles_RenderProgressBar_EdgeCases(t *testing.T) {
	styles := NewStyles()

	tests := []struct {
		name       string
		progress   float64
		width      int
		wantFilled int
		wantTotal  int
	}{
		{name: "zero width uses default", progress: 0.5, width: 0, wantFilled: 15, wantTotal: 30},
		{name: "negative width uses default", progress: 0.5, width: -10, wantFilled: 15, wantTotal: 30},
		{name: "large progress clamped", progress: 10.0, width: 20, wantFilled: 20, wantTotal: 20},
		{name: "negative progress clamped", progress: -0.5, width: 20, wantFilled: 0, wantTotal: 20},
		{name: "truncates partial cells", progress: 0.999, width: 10, wantFilled: 9, wantTotal: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stripped := stripANSI(styles.RenderProgressBar(tt.progress, tt.width))

			filled := strings.Count(stripped, "█")
			empty := strings.Count(stripped, "░")
			assert.Equal(t, tt.wantFilled, filled)
			assert.Equal(t, tt.wantTotal, filled+empty)
		})
	}
}

func TestStyles_WithWidth(t *testing.T) {
	original := NewStyles()

	tests := []struct {
		name    string
		width   int
		adjusts bool
	}{
		{name: "narrow terminal", width: 60, adjusts: true},
		{name: "very narrow terminal", width: 40, adjusts: true},
		{name: "wide terminal", width: 120},
		{name: "exactly 100", width: 100},
		{name: "zero width", width: 0},
		{name: "negative width", width: -50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adjusted := original.WithWidth(tt.width)
			require.NotNil(t, adjusted)

			if tt.adjusts {
				assert.NotEqual(t, original.Box, adjusted.Box)
				assert.NotEqual(t, original.FindingBox, adjusted.FindingBox)
			} else {
				assert.Equal(t, original.Box, adjusted.Box)
			}
		})
	}
}
