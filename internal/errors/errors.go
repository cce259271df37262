package errors

import (
	"errors"
	"fmt"
)

// Code classifies pipeline errors by how the orchestrator must react.
type Code string

const (
	// CodeStructural marks errors that are fatal for a single table:
	// a required column is absent entirely or the file cannot be read.
	// The orchestrator substitutes an empty table and continues.
	CodeStructural Code = "STRUCTURAL"

	// CodeConfig marks setup errors that abort the run before any
	// table is processed.
	CodeConfig Code = "CONFIG"

	// CodeRuleSet marks errors in rule-set definitions (unknown rule
	// kind, missing reference table).
	CodeRuleSet Code = "RULE_SET"

	// CodeValue marks unparseable values in required numeric fields.
	// Correctors degrade these to sentinels; the code only escapes
	// through ClampMin when a caller opts out of degradation.
	CodeValue Code = "VALUE"

	// CodeInternal marks unexpected failures (artifact writes, report
	// generation).
	CodeInternal Code = "INTERNAL"
)

// Error is the structured error type used across the pipeline.
type Error struct {
	Code  Code
	Op    string // operation that failed, e.g. "dataset.Load"
	Table string // entity table involved, if any
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s: %s: table %s: %v", e.Code, e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Op, e.Err)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a structured pipeline error.
func New(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// NewTable creates a structured pipeline error bound to an entity table.
func NewTable(code Code, op, table string, err error) *Error {
	return &Error{Code: code, Op: op, Table: table, Err: err}
}

// MissingColumn reports a required column absent from a raw table.
// Per the error taxonomy this is a structural defect, not a data
// quality defect.
func MissingColumn(table, column string) *Error {
	return NewTable(CodeStructural, "dataset.RequireColumns", table,
		fmt.Errorf("required column %q is missing", column))
}

// UnreadableFile reports a raw table file that could not be opened or
// parsed at all.
func UnreadableFile(table, path string, err error) *Error {
	return NewTable(CodeStructural, "dataset.Load", table,
		fmt.Errorf("cannot read %s: %w", path, err))
}

// IsStructural reports whether err is (or wraps) a structural table
// error. The orchestrator uses this to decide on empty-table
// substitution.
func IsStructural(err error) bool {
	return HasCode(err, CodeStructural)
}

// HasCode reports whether err carries the given pipeline error code.
func HasCode(err error, code Code) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// CodeOf extracts the pipeline error code from err, defaulting to
// CodeInternal for unclassified errors.
func CodeOf(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeInternal
}
