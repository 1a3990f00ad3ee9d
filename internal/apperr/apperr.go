// Package apperr defines the failure kinds shared by every layer of the
// application. Repositories and services return *Error values (usually one
// of their package-level sentinels), and the HTTP layer maps the Kind to a
// status code without inspecting message text.
//
// # Usage
//
//	var ErrBookNotFound = apperr.New(apperr.NotFound, "book_not_found", "book not found")
//
//	if apperr.IsKind(err, apperr.Conflict) {
//		// ...
//	}
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an expected failure.
type Kind string

const (
	NotFound     Kind = "not_found"
	Conflict     Kind = "conflict"
	Unauthorized Kind = "unauthorized"
	Forbidden    Kind = "forbidden"
	Validation   Kind = "validation"
	Internal     Kind = "internal"
)

// Error is a typed application failure. Code is a stable machine-readable
// identifier, Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

// New creates a sentinel error of the given kind.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind and code so that a wrapped copy produced by
// Wrap still satisfies errors.Is against the original sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// Wrap returns a copy of the sentinel carrying cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: cause}
}

// Withf returns a copy of the sentinel with a more specific message.
func (e *Error) Withf(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...), Err: e.Err}
}

// KindOf reports the kind of err, or Internal when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Validationf builds an ad-hoc validation failure.
func Validationf(code, format string, args ...any) *Error {
	return &Error{Kind: Validation, Code: code, Message: fmt.Sprintf(format, args...)}
}
