// Package apperr defines the error kinds every workflow reports to its caller.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindInvalidState
	KindNotFound
	KindPersistence
	KindInsufficientStock
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInvalidState:
		return "invalid_state"
	case KindNotFound:
		return "not_found"
	case KindPersistence:
		return "persistence"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindForbidden:
		return "forbidden"
	}
	return "unknown"
}

// Error carries a human-readable message for the caller and, optionally, the
// underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error { return newf(KindValidation, format, args...) }

func InvalidState(format string, args ...any) *Error { return newf(KindInvalidState, format, args...) }

func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args...) }

func Forbidden(format string, args ...any) *Error { return newf(KindForbidden, format, args...) }

func InsufficientStock(format string, args ...any) *Error {
	return newf(KindInsufficientStock, format, args...)
}

// Persistence wraps a storage failure. The message stays generic; the cause is
// kept for logging.
func Persistence(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool { return KindOf(err) == kind }

// Message returns the caller-facing message, hiding causes of unknown errors.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Something went wrong, please try again."
}

// Wrap keeps typed errors intact and turns anything else into a persistence
// failure with the given message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Persistence(message, err)
}
