// internal/errors/errors.go - Error values shared by the driver factory and helpers

// Package errors defines the error values returned by RatDriver and the
// handler that reports them according to the configured debug level.
package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	// ErrElementNotFound is returned when a locator matches nothing.
	ErrElementNotFound = stderrors.New("element not found")
	// ErrTimeout is returned when a wait condition is not met in time.
	ErrTimeout = stderrors.New("timed out waiting for condition")
	// ErrNoShadowRoot is returned when an element hosts no open shadow root.
	ErrNoShadowRoot = stderrors.New("element has no shadow root")
	// ErrEmptyLocatorChain is returned when a shadow tree expansion gets no locators.
	ErrEmptyLocatorChain = stderrors.New("locator chain is empty")
	// ErrInvalidLocator is returned for locators with an empty value or unknown type.
	ErrInvalidLocator = stderrors.New("invalid locator")
	// ErrDriverNotStarted is returned when a session could not be opened.
	ErrDriverNotStarted = stderrors.New("driver not started")
	// ErrConfig marks preferences that could not be read, parsed or validated.
	ErrConfig = stderrors.New("invalid configuration")
	// ErrValidation marks scenario files that failed to parse or validate.
	ErrValidation = stderrors.New("validation failed")
)

// OpError records the helper operation and target that failed.
type OpError struct {
	Op     string
	Target string
	Err    error
}

func (e *OpError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Wrap returns nil for a nil err, otherwise an *OpError.
func Wrap(op, target string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Target: target, Err: err}
}

// kindError tags err with a sentinel while keeping err's message.
type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }

func (e *kindError) Unwrap() []error { return []error{e.kind, e.err} }

// Mark returns err tagged with kind, so Is(err, kind) holds and the message
// is unchanged. Mark returns nil for a nil err.
func Mark(err, kind error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// Is and As re-export the standard library helpers so callers importing this
// package under its default name keep access to them.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target interface{}) bool { return stderrors.As(err, target) }

func Join(errs ...error) error { return stderrors.Join(errs...) }
