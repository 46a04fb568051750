// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Error carries a numeric code, a human message and an optional wrapped cause.
// Build with the chainable setters:
//
//	errors.NewError().WithCode(errors.CodeDatabaseError).WithError(err)
type Error struct {
	Code       int
	Message    string
	InnerError error

	stack error
}

func NewError() *Error {
	return &Error{
		Code:  InternalError,
		stack: pkgerrors.New(""),
	}
}

func (e *Error) WithCode(code int) *Error {
	e.Code = code
	return e
}

func (e *Error) WithMessage(message string) *Error {
	e.Message = message
	return e
}

func (e *Error) WithMessagef(format string, args ...interface{}) *Error {
	e.Message = fmt.Sprintf(format, args...)
	return e
}

func (e *Error) WithError(err error) *Error {
	e.InnerError = err
	return e
}

func (e *Error) Error() string {
	if e.InnerError != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.InnerError)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.InnerError
}

// GetStackString returns the stack captured at construction time.
func (e *Error) GetStackString() string {
	return fmt.Sprintf("%+v", e.stack)
}

// AsError extracts an *Error from err, nil if err carries none.
func AsError(err error) *Error {
	var e *Error
	if pkgerrors.As(err, &e) {
		return e
	}
	return nil
}

// CodeOf returns err's code, InternalError for plain errors.
func CodeOf(err error) int {
	if e := AsError(err); e != nil {
		return e.Code
	}
	return InternalError
}
