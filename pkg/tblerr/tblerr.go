// Package tblerr defines the error taxonomy and warning codes for the
// table-recovery pipeline, grounded on the teacher's pkg/mcperr/catalog.go
// but expressed as idiomatic wrapped Go errors instead of MCP tool-result
// strings, since this module has no MCP transport to serialize through.
package tblerr

import (
	"errors"
	"fmt"
)

// Kind enumerates the error taxonomy from spec.md §7.
type Kind string

const (
	// InvalidArgument is a caller-visible contract violation, e.g. a
	// sheet list supplied for delimited-text input.
	InvalidArgument Kind = "invalid_argument"
	// UnsupportedFormat is an unknown input file extension.
	UnsupportedFormat Kind = "unsupported_format"
	// FileRead is a decoder failure surfaced by an external collaborator.
	FileRead Kind = "file_read"
	// OutputWrite is a filesystem failure emitting an artifact.
	OutputWrite Kind = "output_write"
)

// Error wraps an underlying cause with a Kind and the operation that
// produced it, so callers can branch with errors.Is/As while humans get
// a readable message.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error for the given kind and operation.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of err if it (or something it wraps) is an
// *Error, and false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// WarningCode enumerates the non-fatal warning codes from spec.md §7.
type WarningCode string

const (
	MidHeadersRemoved  WarningCode = "MidHeadersRemoved"
	DateParseFallback  WarningCode = "DateParseFallback"
	UnitConflict       WarningCode = "UnitConflict"
	DuplicateColumns   WarningCode = "DuplicateColumns"
	SparseBlockSkipped WarningCode = "SparseBlockSkipped"
	AmbiguousMergeSkip WarningCode = "AmbiguousMergeSkip"
)
