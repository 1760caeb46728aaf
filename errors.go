package vectorcore

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the error taxonomy. Use errors.Is against these
// to classify a failure; CoreError.Code returns the matching stable string.
var (
	// ErrNotFound is returned when a collection, group, or record is unknown.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a uniqueness constraint is violated.
	ErrAlreadyExists = errors.New("already exists")

	// ErrDimensionMismatch is returned when an embedding's length disagrees
	// with its collection's dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidArgument is returned for malformed input: empty names,
	// k <= 0, malformed filters, zero-magnitude embeddings.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIndexStale is returned by a query when the installed index is
	// stale and the caller forbids both serving stale and falling back.
	ErrIndexStale = errors.New("index stale")

	// ErrIndexUnavailable is returned when no index is installed and
	// fallback is disabled.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrCancelled is returned when a cooperative cancellation token fires.
	ErrCancelled = errors.New("cancelled")

	// ErrDeadlineExceeded is returned when a query or lock wait exceeds its
	// deadline.
	ErrDeadlineExceeded = errors.New("deadline exceeded")

	// ErrInternal signals an invariant violation — a bug, not user error.
	ErrInternal = errors.New("internal error")
)

// CoreError wraps a sentinel error with the operation that produced it, so
// callers get both a stable code (via errors.Is) and a human message.
type CoreError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *CoreError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("vectorcore: %v", e.Err)
	}
	return fmt.Sprintf("vectorcore: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying sentinel error.
func (e *CoreError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, ErrNotFound) to match through the wrapper.
func (e *CoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// Code returns a stable machine-readable code for the wrapped sentinel, for
// callers (HTTP status mapping, etc.) that want a string instead of
// errors.Is checks.
func (e *CoreError) Code() string {
	switch {
	case errors.Is(e.Err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(e.Err, ErrAlreadyExists):
		return "ALREADY_EXISTS"
	case errors.Is(e.Err, ErrDimensionMismatch):
		return "DIMENSION_MISMATCH"
	case errors.Is(e.Err, ErrInvalidArgument):
		return "INVALID_ARGUMENT"
	case errors.Is(e.Err, ErrIndexStale):
		return "INDEX_STALE"
	case errors.Is(e.Err, ErrIndexUnavailable):
		return "INDEX_UNAVAILABLE"
	case errors.Is(e.Err, ErrCancelled):
		return "CANCELLED"
	case errors.Is(e.Err, ErrDeadlineExceeded):
		return "DEADLINE_EXCEEDED"
	default:
		return "INTERNAL"
	}
}

// wrapError wraps err with operation context. Returns nil if err is nil.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &CoreError{Op: op, Err: err}
}
