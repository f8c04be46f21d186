package pipeline

import (
	"errors"
	"fmt"
)

// Pipeline errors.
var (
	ErrEmptyFile           = errors.New("file has no header row")
	ErrMissingColumn       = errors.New("required column missing")
	ErrNoOrganizations     = errors.New("no organizations to load")
	ErrInvalidOrganization = errors.New("invalid organization")
)

// Stage names the step of a load that failed.
type Stage string

// Load stages.
const (
	StageReadGrantmakers Stage = "read_grantmakers"
	StageReadGrants      Stage = "read_grants"
	StageValidateColumns Stage = "validate_columns"
	StageMerge           Stage = "merge"
)

// StageError reports which organization and stage failed during a load.
type StageError struct {
	Err   error
	Org   string
	Path  string
	Stage Stage
}

func (e *StageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s): %v", e.Org, e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Org, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
