package api

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest marks a request body the server refuses to solve.
var ErrInvalidRequest = errors.New("invalid request")

// FieldError rejects one input of a request. Field is the JSON path of the
// offending value, such as "problem.terms[3]" or "solutions[1]".
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() []error {
	return []error{ErrInvalidRequest, e.Err}
}

func fieldError(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}

func fieldErrorf(field, format string, args ...any) error {
	return &FieldError{Field: field, Err: fmt.Errorf(format, args...)}
}
