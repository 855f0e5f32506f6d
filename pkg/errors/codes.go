package errors

// Code is a stable, machine-readable error code. Codes follow the pattern
// CATEGORY_NNN where CATEGORY is a short prefix (VAL, AUTH, ...) and NNN is
// a three-digit sequence number. Codes never change once assigned; new
// conditions get new numbers.
type Code string

const (
	// Validation errors (VAL_xxx) — HTTP 400.

	// CodeValidation is a general validation failure.
	CodeValidation Code = "VAL_001"

	// CodeValidationRequired marks a missing required field.
	CodeValidationRequired Code = "VAL_002"

	// CodeValidationFormat marks a field with an invalid format.
	CodeValidationFormat Code = "VAL_003"

	// Authentication errors (AUTH_xxx) — HTTP 401.
	//
	// CodeAuthentication is the only code the HTTP boundary ever returns
	// for a failed authentication attempt. The remaining AUTH codes exist
	// for internal diagnostics: the authenticator logs and traces them but
	// never sends them to clients.

	// CodeAuthentication is the generic authentication failure.
	CodeAuthentication Code = "AUTH_001"

	// CodeAuthenticationExpired marks a token outside its validity window
	// (expired, or not yet valid beyond the clock-skew tolerance).
	CodeAuthenticationExpired Code = "AUTH_002"

	// CodeAuthenticationMalformed marks a token whose compact serialization
	// or header cannot be parsed, or whose signature does not verify.
	CodeAuthenticationMalformed Code = "AUTH_003"

	// CodeAuthenticationUnknownKey marks an asymmetric token whose key
	// identifier is absent from the provider's key set even after a forced
	// refresh.
	CodeAuthenticationUnknownKey Code = "AUTH_004"

	// CodeAuthenticationKeySource marks a verification attempt that failed
	// because the signing-key source was unreachable and no cached key
	// snapshot existed. Distinct for operational alerting: it indicates a
	// provider outage, not a bad client token.
	CodeAuthenticationKeySource Code = "AUTH_005"

	// Authorization errors (AUTHZ_xxx) — HTTP 403.

	// CodeAuthorization is a general authorization failure.
	CodeAuthorization Code = "AUTHZ_001"

	// CodeAuthorizationDenied marks access denied to a specific resource.
	CodeAuthorizationDenied Code = "AUTHZ_002"

	// Not found errors (NF_xxx) — HTTP 404.

	// CodeNotFound is a general not-found error.
	CodeNotFound Code = "NF_001"

	// CodeNotFoundWorkout marks a workout that does not exist or is not
	// visible to the requesting user.
	CodeNotFoundWorkout Code = "NF_002"

	// CodeNotFoundProfile marks a user profile that does not exist.
	CodeNotFoundProfile Code = "NF_003"

	// Conflict errors (CONF_xxx) — HTTP 409.

	// CodeConflict is a general conflict error.
	CodeConflict Code = "CONF_001"

	// CodeConflictAlreadyExists marks a resource that already exists.
	CodeConflictAlreadyExists Code = "CONF_002"

	// Internal errors (INT_xxx) — HTTP 500.

	// CodeInternal is a general internal error.
	CodeInternal Code = "INT_001"

	// CodeInternalDatabase marks a failed database operation.
	CodeInternalDatabase Code = "INT_002"

	// CodeInternalConfiguration marks an invalid or unloadable configuration.
	CodeInternalConfiguration Code = "INT_003"

	// Unavailable errors (UNAVAIL_xxx) — HTTP 503.

	// CodeUnavailable is a general service-unavailable error.
	CodeUnavailable Code = "UNAVAIL_001"

	// CodeUnavailableDependency marks an unreachable dependency (database,
	// object store, identity provider).
	CodeUnavailableDependency Code = "UNAVAIL_002"

	// Timeout errors (TIMEOUT_xxx) — HTTP 504.

	// CodeTimeout is a general timeout error.
	CodeTimeout Code = "TIMEOUT_001"

	// CodeTimeoutDependency marks a dependency call that exceeded its
	// deadline.
	CodeTimeoutDependency Code = "TIMEOUT_002"
)

// String returns the code as a plain string.
func (c Code) String() string {
	return string(c)
}

// Category returns the prefix before the first underscore ("VAL", "AUTH",
// ...). A code without an underscore is its own category.
func (c Code) Category() string {
	s := string(c)
	for i := range len(s) {
		if s[i] == '_' {
			return s[:i]
		}
	}
	return s
}
