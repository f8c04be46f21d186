package pipeline

import (
	"math"
	"strconv"
	"strings"
)

var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
}

func isMissingToken(s string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(s))]
}

// ParseNumber coerces a cell to a finite float. Anything else is missing.
func ParseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if isMissingToken(raw) {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Accepted year range. Values outside it are treated as missing.
const (
	MinYear = 1000
	MaxYear = 9999
)

// ParseYear coerces a cell to a whole-number year between MinYear and MaxYear.
func ParseYear(s string) (int, bool) {
	f, ok := ParseNumber(s)
	if !ok || f != math.Trunc(f) || f < MinYear || f > MaxYear {
		return 0, false
	}
	return int(f), true
}
