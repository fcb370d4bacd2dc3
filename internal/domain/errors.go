package domain

import (
	"errors"
	"sort"
	"strings"
)

// Error classes. Package-specific errors wrap one of these so the HTTP layer
// can map them with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyRequests    = errors.New("too many requests")
)

// ValidationError carries per-field messages. It matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError from field/message pairs.
func NewValidationError(pairs ...string) *ValidationError {
	v := &ValidationError{Fields: make(map[string]string, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		v.Fields[pairs[i]] = pairs[i+1]
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, v.Fields[k])
	}
	return strings.Join(msgs, ", ")
}

func (v *ValidationError) Unwrap() error { return ErrValidation }

// Invalid returns a ValidationError with a single field.
func Invalid(field, message string) error {
	return NewValidationError(field, message)
}

// Error is a client-facing message that belongs to one of the error classes.
type Error struct {
	Class error
	Msg   string
}

// New returns an error with message msg that matches class under errors.Is.
func New(class error, msg string) error {
	return &Error{Class: class, Msg: msg}
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Class }
