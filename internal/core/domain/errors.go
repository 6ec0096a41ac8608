package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmptyInput indicates empty or whitespace-only text where
	// content is required.
	ErrEmptyInput = errors.New("empty input")

	// ErrExtraction indicates text extraction from a source file failed.
	// Empty extracted text is treated identically to extraction failure.
	ErrExtraction = errors.New("text extraction failed")

	// ErrInvalidArgument indicates a malformed request parameter.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStoreUnavailable indicates the vector store's backing storage
	// cannot be reached.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrConflict indicates a concurrent ingest for the same document ID.
	// A document may have at most one active ingestion pipeline.
	ErrConflict = errors.New("document ingestion already in progress")
)

// DimensionMismatchError indicates a vector whose length disagrees with
// the store's configured dimension.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type DimensionMismatchError struct {
	Expected int
	Actual   int
	cause    error
}

// NewDimensionMismatchError builds a DimensionMismatchError.
func NewDimensionMismatchError(expected, actual int) *DimensionMismatchError {
	return &DimensionMismatchError{Expected: expected, Actual: actual}
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *DimensionMismatchError) Unwrap() error { return e.cause }

// PartialDeleteError indicates a document deletion that succeeded on one
// owning store but failed on the other. The system is left inconsistent
// and the caller must be told, not have it swallowed.
type PartialDeleteError struct {
	DocumentID string
	// Side names the store that failed: "vector" or "metadata".
	Side  string
	cause error
}

// NewPartialDeleteError builds a PartialDeleteError wrapping cause.
func NewPartialDeleteError(documentID, side string, cause error) *PartialDeleteError {
	return &PartialDeleteError{DocumentID: documentID, Side: side, cause: cause}
}

func (e *PartialDeleteError) Error() string {
	return fmt.Sprintf("partial delete of document %s: %s store failed: %v", e.DocumentID, e.Side, e.cause)
}

func (e *PartialDeleteError) Unwrap() error { return e.cause }
