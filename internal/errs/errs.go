// Package errs implements LSPbridge's error taxonomy (spec.md §7): every
// fallible operation returns a tagged result rather than aborting the
// process. Modeled on the teacher's internal/errors package — a single
// Error struct tagged by Kind, with Unwrap() for errors.Is/As, built via
// New or Wrap and the WithPath builder.
package errs

import (
	"fmt"
	"time"
)

// Kind is the error taxonomy tag from spec.md §7.
type Kind string

const (
	KindConfigValidation    Kind = "config_validation"
	KindFileIO              Kind = "file_io"
	KindParseFailure        Kind = "parse_failure"
	KindDependencyResolution Kind = "dependency_resolution"
	KindCacheBackend        Kind = "cache_backend"
	KindTimeoutExceeded     Kind = "timeout_exceeded"
	KindRollbackUnavailable Kind = "rollback_unavailable"
	KindEditOutOfBounds     Kind = "edit_out_of_bounds"
	KindVerificationFailure Kind = "verification_failure"
)

// Error is the structured, user-visible failure record: (kind, path,
// reason). No exceptions cross the public API; every fallible operation
// returns one of these (or nil) instead.
type Error struct {
	Kind       Kind
	Path       string
	Reason     string
	Underlying error
	Timestamp  time.Time
}

// New creates a tagged Error for kind with the given reason.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason, Timestamp: time.Now()}
}

// Wrap creates a tagged Error wrapping an underlying error.
func Wrap(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Underlying: err, Timestamp: time.Now()}
}

// WithPath attaches the file path this error concerns and returns e.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		if e.Underlying != nil {
			return fmt.Sprintf("%s: %s (%s): %v", e.Kind, e.Reason, e.Path, e.Underlying)
		}
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Reason, e.Path)
	}
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is reports whether target is an *Error with the same Kind, so callers can
// do errors.Is(err, errs.New(errs.KindTimeoutExceeded, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
