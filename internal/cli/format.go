package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// Money formats a dollar amount rounded to whole dollars, e.g. "$1,234".
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	if v < 0 {
		return "-$" + humanize.Comma(int64(math.Round(-v)))
	}
	return "$" + humanize.Comma(int64(math.Round(v)))
}

// MoneyShort formats a dollar amount in thousands or millions, e.g. "$1.2M".
func MoneyShort(v float64) string {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return "n/a"
	case math.Abs(v) >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	case math.Abs(v) >= 1e3:
		return fmt.Sprintf("$%.1fK", v/1e3)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

// Count formats an integer with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Percent formats a percentage with one decimal, e.g. "12.5%".
func Percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", v)
}

// Number formats a statistic with the given precision, "n/a" when undefined.
func Number(v float64, precision int) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.*f", precision, v)
}

// PValue formats a p-value in scientific notation when it is very small.
func PValue(p float64) string {
	if math.IsNaN(p) {
		return "n/a"
	}
	if p != 0 && p < 1e-4 {
		return fmt.Sprintf("%.4e", p)
	}
	return fmt.Sprintf("%.6f", p)
}

// Table renders rows as aligned plain-text columns with a styled header.
func Table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len([]rune(h))
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], len([]rune(row[i])))
		}
	}

	pad := func(cells []string) []string {
		out := make([]string, len(widths))
		for i := range widths {
			var c string
			if i < len(cells) {
				c = cells[i]
			}
			out[i] = c + strings.Repeat(" ", widths[i]-len([]rune(c)))
		}
		return out
	}

	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(strings.Join(pad(header), "  ")))
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString(strings.TrimRight(strings.Join(pad(row), "  "), " "))
		b.WriteString("\n")
	}
	return b.String()
}
