package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrInvalidEnum    = errors.New("invalid enum value")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrStorage        = errors.New("storage error")
	ErrObjectExists   = errors.New("object already exists")
	ErrGeneration     = errors.New("generation error")
	ErrContentPolicy  = errors.New("content policy violation")
	ErrGenUnavailable = errors.New("generation service unavailable")
	ErrDatabase       = errors.New("database error")
)

// Error carries a message that is safe to show to API clients. The wrapped
// cause is only meant for logs.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func validationError(format string, args ...any) *Error {
	return newError(ErrValidation, fmt.Sprintf(format, args...), nil)
}

func notFoundError(msg string) *Error {
	return newError(ErrNotFound, msg, nil)
}

func storageError(msg string, cause error) *Error {
	return newError(ErrStorage, msg, cause)
}

func databaseError(msg string, cause error) *Error {
	return newError(ErrDatabase, msg, cause)
}

// PublicMessage returns the client-facing part of err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
