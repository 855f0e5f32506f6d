package errors

import (
	"errors"
	"fmt"
)

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with the given code and a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err as the cause of a new Error. Returns nil if err is nil.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// Wrapf wraps err as the cause of a new Error with a formatted message.
// Returns nil if err is nil.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// Validation creates a [CodeValidation] error.
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// Validationf creates a [CodeValidation] error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return Newf(CodeValidation, format, args...)
}

// Unauthorized creates a [CodeAuthentication] error. This is the error
// protected endpoints return for every failed authentication attempt,
// regardless of the internal failure kind.
func Unauthorized(message string) *Error {
	return New(CodeAuthentication, message)
}

// Forbidden creates a [CodeAuthorization] error for an authenticated
// identity that lacks permission.
func Forbidden(message string) *Error {
	return New(CodeAuthorization, message)
}

// NotFound creates a [CodeNotFound] error.
func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

// NotFoundf creates a [CodeNotFound] error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return Newf(CodeNotFound, format, args...)
}

// Conflict creates a [CodeConflict] error.
func Conflict(message string) *Error {
	return New(CodeConflict, message)
}

// Internal creates a [CodeInternal] error. Use for unexpected failures
// whose details must not reach clients.
func Internal(message string) *Error {
	return New(CodeInternal, message)
}

// Internalf creates a [CodeInternal] error with a formatted message.
func Internalf(format string, args ...any) *Error {
	return Newf(CodeInternal, format, args...)
}

// Unavailable creates a [CodeUnavailable] error.
func Unavailable(message string) *Error {
	return New(CodeUnavailable, message)
}

// Timeout creates a [CodeTimeout] error.
func Timeout(message string) *Error {
	return New(CodeTimeout, message)
}

// FromError converts any error into an *Error. An existing *Error anywhere
// in the chain is returned as-is; anything else is wrapped as an internal
// error. Returns nil for a nil input.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, CodeInternal, "an unexpected error occurred")
}
