// Package fault defines the stable error taxonomy shared by all watermark
// operations.
//
// Every failure surfaced to a caller carries a machine-readable Kind and a
// human-readable message. Kinds are part of the service contract:
//
//   - Validation: a required field is missing or malformed; rejected before
//     any external work is performed.
//   - Capability: an external capability (transform, matcher, OCR) raised a
//     fault; surfaced verbatim, never retried.
//   - NoMatch: the operation completed but produced no usable result
//     (template matching below the confidence floor).
//   - Timeout: a caller-supplied deadline expired during an external
//     delegation.
package fault

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the stable machine-readable classification of a failure.
type Kind string

const (
	Validation Kind = "validation"
	Capability Kind = "capability"
	NoMatch    Kind = "no_match"
	Timeout    Kind = "timeout"
)

// Error is a coded error with a stable kind and a human message.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error without losing it. The cause remains
// reachable through errors.Is and errors.As.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...) + ": " + cause.Error(),
		cause:   cause,
	}
}

// KindOf returns the kind of a coded error, or "" for uncoded errors.
// Context deadline errors map to Timeout even when uncoded.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	return ""
}
