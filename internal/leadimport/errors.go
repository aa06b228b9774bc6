package leadimport

import (
	"errors"
	"fmt"
)

// Whole-run precondition failures. A run that fails one of these never
// processes a row.
var (
	ErrNoDataRows      = errors.New("import file needs a header line and at least one data line")
	ErrMissingIdentity = errors.New("missing identity column: file needs uniqueLeadId or profileUrl")
	ErrEmptyMapping    = errors.New("column mapping is empty: map at least one column")
)

var (
	// ErrUnknownField is returned when a mapping names a field outside the
	// destination vocabulary.
	ErrUnknownField = errors.New("unknown lead field")

	// ErrColumnNotFound is returned when a mapped column is absent from the header.
	ErrColumnNotFound = errors.New("column not found")

	// ErrFileTooLarge is returned by ReadText when the input exceeds its limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrRunNotFound is returned for unknown or evicted run IDs.
	ErrRunNotFound = errors.New("import run not found")
)

// RowTransformError wraps a failure to build a lead from one data row.
type RowTransformError struct {
	Row int // 1-based data row
	Err error
}

func (e *RowTransformError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowTransformError) Unwrap() error {
	return e.Err
}
