// Package errors defines the coded error type shared by all FitStack
// backend packages. Every failure surfaced across a package boundary is a
// *[Error] carrying a stable machine-readable [Code], a human-readable
// message, and an optional wrapped cause.
//
// # Categories
//
// Codes are grouped by category prefix, and each category maps to one HTTP
// status:
//
//	VAL_xxx     validation       400
//	AUTH_xxx    authentication   401
//	AUTHZ_xxx   authorization    403
//	NF_xxx      not found        404
//	CONF_xxx    conflict         409
//	INT_xxx     internal         500
//	UNAVAIL_xxx unavailable      503
//	TIMEOUT_xxx timeout          504
//
// The AUTH category deliberately carries more codes than the API ever
// exposes: the request authenticator records the precise failure kind
// (expired, malformed, unknown signing key, key source unreachable) for
// logs and traces, while the HTTP boundary collapses all of them into a
// single generic 401.
//
// # Usage
//
//	return errors.New(errors.CodeValidation, "workout name is required")
//
//	if err := row.Scan(&w); err != nil {
//	    return errors.Wrap(err, errors.CodeInternalDatabase, "loading workout")
//	}
//
//	if errors.IsNotFound(err) { ... }
//
// Inspect a chain with [AsError], [GetCode], or the category predicates in
// checks.go; all of them traverse wrapped causes via the standard library's
// errors.As.
package errors
