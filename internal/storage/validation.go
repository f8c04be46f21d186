// Package storage persists the cleaned grant dataset and NIH extracts in
// SQLite and answers the aggregate queries behind the analysis.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/grantlens/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidLimit    = errors.New("limit must be positive")
	ErrInvalidGrant    = errors.New("invalid grant")
	ErrInvalidReport   = errors.New("invalid cleaning report")
	ErrInvalidRankBy   = errors.New("invalid state ranking")
	ErrInvalidTopicSet = errors.New("invalid topic summary kind")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateLimit(limit int) error {
	if limit <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	return nil
}

// validateDataset checks what the store relies on: a report naming every
// company and grants that carry company and grantmaker.
func validateDataset(ds *model.Dataset) error {
	if ds == nil {
		return fmt.Errorf("%w: dataset", ErrNilParameter)
	}
	if ds.Report == nil {
		return fmt.Errorf("%w: dataset report", ErrNilParameter)
	}
	if ds.Report.RunID == "" {
		return fmt.Errorf("%w: missing run ID", ErrInvalidReport)
	}
	if len(ds.Merged) != len(ds.Grants) {
		return fmt.Errorf("%w: %d merged rows for %d grants", ErrInvalidReport, len(ds.Merged), len(ds.Grants))
	}
	for i, g := range ds.Grants {
		if g.Company == "" {
			return fmt.Errorf("%w at index %d: missing company", ErrInvalidGrant, i)
		}
	}
	return nil
}
