package errors

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrUnsupportedConfiguration = errors.New("unsupported configuration")
	ErrInvalidParameter         = errors.New("invalid parameter")

	// Ingestion and query errors
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrDuplicateLabel    = errors.New("duplicate label")

	// Lifecycle errors
	ErrInvalidState = errors.New("invalid state")
)

// DimensionMismatchError reports the expected and actual vector length.
// It matches ErrDimensionMismatch with errors.Is.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// NewDimensionMismatch returns a *DimensionMismatchError.
func NewDimensionMismatch(expected, actual int) error {
	return &DimensionMismatchError{Expected: expected, Actual: actual}
}

var codes = []struct {
	code string
	err  error
}{
	{"unsupported_configuration", ErrUnsupportedConfiguration},
	{"invalid_parameter", ErrInvalidParameter},
	{"dimension_mismatch", ErrDimensionMismatch},
	{"duplicate_label", ErrDuplicateLabel},
	{"invalid_state", ErrInvalidState},
}

// Code returns a stable wire name for the sentinel err wraps, or "" if none.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

// FromCode is the inverse of Code. Unknown codes yield nil.
func FromCode(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
