package mutation

import (
	"errors"
	"fmt"
)

// ErrValidation is the sentinel wrapped by every ValidationError.
var ErrValidation = errors.New("mutation: invalid operation")

// ValidationError reports an operation requested against the wrong node kind.
// The working snapshot is left untouched.
type ValidationError struct {
	Op     string
	Path   string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ErrValidation.Error()
	}
	msg := fmt.Sprintf("mutation %s %q: %s", e.Op, e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

func invalid(op, path, reason string, cause error) error {
	return &ValidationError{Op: op, Path: path, Reason: reason, Err: cause}
}
