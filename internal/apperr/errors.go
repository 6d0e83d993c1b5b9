// Package apperr holds the error kinds every layer agrees on. Stores and
// services wrap them with %w; the HTTP layer maps them to status codes.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("admin access required")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrValidation         = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid password")
)

var kinds = []error{
	ErrUnauthenticated,
	ErrForbidden,
	ErrNotFound,
	ErrConflict,
	ErrValidation,
	ErrInvalidCredentials,
}

// Error is a kind together with a message written for the client.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message + ": " + e.Kind.Error()
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Errorf builds an Error of kind whose message is safe to return to clients.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Message returns the client-facing text for err: the message of the first
// Error in its chain, else the text of its kind. Driver and wrapping context
// never appear in it. Errors of no known kind yield "".
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return ""
}
