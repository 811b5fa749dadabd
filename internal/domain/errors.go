package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrReaderFailure is returned when a source document cannot be opened or parsed
	ErrReaderFailure = errors.New("document reader failure")

	// ErrReportNotFound is returned when a report is not in the repository (or has expired)
	ErrReportNotFound = errors.New("report not found")

	// ErrUnsupportedStyleSheet is returned when a style sheet is not a readable workbook
	ErrUnsupportedStyleSheet = errors.New("unsupported style sheet")
)

// ReaderError is the only fatal failure of a reconciliation run. It records
// which document failed so the caller can report it.
type ReaderError struct {
	Side  Side
	Cause error
}

func (e *ReaderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s document: %s: %v", e.Side, ErrReaderFailure, e.Cause)
	}
	return fmt.Sprintf("%s document: %s", e.Side, ErrReaderFailure)
}

func (e *ReaderError) Unwrap() error {
	return e.Cause
}

// Is reports ErrReaderFailure as a match so callers can use errors.Is.
func (e *ReaderError) Is(target error) bool {
	return target == ErrReaderFailure
}

// NewReaderError wraps cause as a reader failure on the given side
func NewReaderError(side Side, cause error) error {
	return &ReaderError{Side: side, Cause: cause}
}
