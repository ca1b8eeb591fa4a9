package core

import (
	"errors"
)

// ErrorKind classifies failures of an insights request.
type ErrorKind string

const (
	KindInvalidFilter        ErrorKind = "invalid_filter"
	KindStoreUnavailable     ErrorKind = "store_unavailable"
	KindGeneratorUnavailable ErrorKind = "generator_unavailable"
	KindGeneratorFailed      ErrorKind = "generator_failed"
	KindInternal             ErrorKind = "internal"
)

// Error carries a kind, a client-facing message and the underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with the given kind. The message defaults to err's text.
func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Errorf returns an *Error with a fixed message and no cause.
func Errorf(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
