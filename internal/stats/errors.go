// Package stats implements the descriptive statistics, power transforms and
// hypothesis tests used by the grant analysis.
package stats

import "errors"

// Precondition errors. Callers skip the affected section when they see one.
var (
	ErrEmptyInput       = errors.New("no values to analyze")
	ErrConstantInput    = errors.New("values have no variation")
	ErrInsufficientData = errors.New("not enough values for this statistic")
	ErrLengthMismatch   = errors.New("samples differ in length")
)
