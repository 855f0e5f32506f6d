package errors

import "errors"

// AsError extracts an *Error from anywhere in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// GetCode returns the code of the first *Error in the chain, or the empty
// code if err is nil or carries no *Error.
func GetCode(err error) Code {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// HasCode reports whether err carries exactly the given code.
func HasCode(err error, code Code) bool {
	return GetCode(err) == code
}

// category reports whether err carries an *Error in the given category.
func category(err error, cat string) bool {
	e, ok := AsError(err)
	return ok && e.Code.Category() == cat
}

// IsValidation reports whether err is a validation error (VAL_xxx).
func IsValidation(err error) bool { return category(err, "VAL") }

// IsAuthentication reports whether err is an authentication error (AUTH_xxx).
func IsAuthentication(err error) bool { return category(err, "AUTH") }

// IsAuthorization reports whether err is an authorization error (AUTHZ_xxx).
func IsAuthorization(err error) bool { return category(err, "AUTHZ") }

// IsNotFound reports whether err is a not-found error (NF_xxx).
func IsNotFound(err error) bool { return category(err, "NF") }

// IsConflict reports whether err is a conflict error (CONF_xxx).
func IsConflict(err error) bool { return category(err, "CONF") }

// IsInternal reports whether err is an internal error (INT_xxx).
func IsInternal(err error) bool { return category(err, "INT") }

// IsUnavailable reports whether err is an unavailable error (UNAVAIL_xxx).
func IsUnavailable(err error) bool { return category(err, "UNAVAIL") }

// IsTimeout reports whether err is a timeout error (TIMEOUT_xxx).
func IsTimeout(err error) bool { return category(err, "TIMEOUT") }

// IsRetryable reports whether the operation that produced err is worth
// retrying. Only timeout and unavailable categories qualify.
func IsRetryable(err error) bool {
	e, ok := AsError(err)
	if !ok {
		return false
	}
	switch e.Code.Category() {
	case "TIMEOUT", "UNAVAIL":
		return true
	default:
		return false
	}
}

// IsClientError reports whether err maps to a 4xx HTTP status.
func IsClientError(err error) bool {
	e, ok := AsError(err)
	if !ok {
		return false
	}
	switch e.Code.Category() {
	case "VAL", "AUTH", "AUTHZ", "NF", "CONF":
		return true
	default:
		return false
	}
}

// IsServerError reports whether err maps to a 5xx HTTP status.
func IsServerError(err error) bool {
	e, ok := AsError(err)
	if !ok {
		return false
	}
	switch e.Code.Category() {
	case "INT", "UNAVAIL", "TIMEOUT":
		return true
	default:
		return false
	}
}
