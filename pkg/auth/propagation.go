package auth

import (
	"net/http"
	"strings"
)

// HeaderAuthorization is the standard authorization header carrying the
// bearer token, on both inbound requests and outbound calls to the data
// platform.
const HeaderAuthorization = "Authorization"

// bearerPrefix is the standard "Bearer " scheme prefix.
const bearerPrefix = "Bearer "

// ExtractBearerToken extracts the token from an authorization header value.
// The "Bearer " prefix is matched case-insensitively. Returns an empty
// string when the header is empty, uses a different scheme, or carries no
// value after the prefix; callers treat all of those as "no credential".
func ExtractBearerToken(authHeader string) string {
	if len(authHeader) <= len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return authHeader[len(bearerPrefix):]
}

// TokenRoundTripper wraps an [http.RoundTripper] to re-present the inbound
// request's bearer token on outgoing HTTP calls. Repositories use a client
// built on this transport when calling the data platform, which validates
// the token independently and applies row-level security to the caller's
// rows. The authenticator never re-issues or re-signs anything; the exact
// inbound credential is forwarded.
//
// Example:
//
//	client := &http.Client{
//	    Transport: auth.NewTokenRoundTripper(http.DefaultTransport),
//	}
//	resp, err := client.Do(req.WithContext(ctx))
type TokenRoundTripper struct {
	wrapped http.RoundTripper
}

// NewTokenRoundTripper creates a TokenRoundTripper around the given
// transport. If transport is nil, [http.DefaultTransport] is used.
func NewTokenRoundTripper(transport http.RoundTripper) *TokenRoundTripper {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &TokenRoundTripper{wrapped: transport}
}

// RoundTrip executes the request with the context's bearer token attached.
// Requests without a token in their context, or with an Authorization
// header already set explicitly, pass through unmodified.
//
// RoundTrip implements the [http.RoundTripper] interface.
func (t *TokenRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	raw, ok := TokenFromContext(r.Context())
	if !ok || raw == "" {
		return t.wrapped.RoundTrip(r)
	}
	if r.Header.Get(HeaderAuthorization) != "" {
		return t.wrapped.RoundTrip(r)
	}

	// Clone the request to avoid mutating the original.
	clone := r.Clone(r.Context())
	clone.Header.Set(HeaderAuthorization, bearerPrefix+raw)
	return t.wrapped.RoundTrip(clone)
}
