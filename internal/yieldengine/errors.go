package yieldengine

import (
	"errors"
	"fmt"
)

// ErrMissingSource matches every MissingSourceError and MissingColumnError.
var ErrMissingSource = errors.New("missing source")

// MissingSourceError reports that one of the required input tables was not
// supplied. No partial result is produced.
type MissingSourceError struct {
	Source string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("missing source table: %s", e.Source)
}

// Is makes errors.Is(err, ErrMissingSource) succeed.
func (e *MissingSourceError) Is(target error) bool {
	return target == ErrMissingSource
}

// MissingColumnError reports that a supplied table lacks a column the engine
// cannot work without.
type MissingColumnError struct {
	Source string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("source table %s: missing required column %q", e.Source, e.Column)
}

// Is makes errors.Is(err, ErrMissingSource) succeed.
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingSource
}

// FieldParseError describes one cell that could not be coerced. It never aborts
// a run: the value is treated as absent and the error is collected.
type FieldParseError struct {
	Source     string `json:"source"`
	Row        int    `json:"row"`
	Column     string `json:"column"`
	SecurityID string `json:"security_id,omitempty"`
	Value      string `json:"value"`
	Err        error  `json:"-"`
}

func (e *FieldParseError) Error() string {
	if e.SecurityID != "" {
		return fmt.Sprintf("%s row %d (%s) column %q: cannot parse %q: %v",
			e.Source, e.Row, e.SecurityID, e.Column, e.Value, e.Err)
	}
	return fmt.Sprintf("%s row %d column %q: cannot parse %q: %v",
		e.Source, e.Row, e.Column, e.Value, e.Err)
}

func (e *FieldParseError) Unwrap() error {
	return e.Err
}
