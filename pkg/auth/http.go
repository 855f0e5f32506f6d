package auth

import (
	"net/http"
)

// unauthorizedBody is the uniform response for every rejected credential.
// It is identical for expired tokens, bad signatures, unknown keys, and
// key-source outages so the response cannot be used as an oracle.
var unauthorizedBody = []byte(`{"error":{"code":"AUTH_001","message":"not authenticated"}}` + "\n")

// writeUnauthorized writes the uniform 401 response.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write(unauthorizedBody)
}

// Middleware returns HTTP middleware that authenticates bearer tokens on
// incoming requests.
//
// A request without an Authorization header, or with a malformed one
// (wrong scheme, empty value), proceeds anonymously: no identity is
// attached and no error is raised. Whether an endpoint tolerates anonymous
// callers is a policy decision made downstream, typically with
// [RequireIdentity].
//
// A request that does present a bearer token must pass verification. Any
// failure produces the uniform 401 response; the internal failure kind is
// logged but never sent to the client.
//
// On success the [Identity] and the raw token are attached to the request
// context for handlers and repositories.
//
// Example:
//
//	mux := http.NewServeMux()
//	mux.Handle("/v1/workouts", auth.RequireIdentity(handleWorkouts))
//	mux.HandleFunc("/healthz", handleHealth)
//	http.ListenAndServe(":8080", auth.Middleware(authenticator)(mux))
func Middleware(authenticator *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := ExtractBearerToken(r.Header.Get(HeaderAuthorization))
			if raw == "" {
				// No credential presented; not an error.
				next.ServeHTTP(w, r)
				return
			}

			identity, err := authenticator.Authenticate(r.Context(), raw)
			if err != nil {
				writeUnauthorized(w)
				return
			}

			ctx := ContextWithIdentity(r.Context(), identity)
			ctx = ContextWithToken(ctx, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity wraps a handler that must only serve authenticated
// requests. Anonymous requests receive the uniform 401 response. Place it
// inside [Middleware], which performs the actual verification.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireIdentityFunc is the http.HandlerFunc form of [RequireIdentity].
func RequireIdentityFunc(next http.HandlerFunc) http.Handler {
	return RequireIdentity(next)
}
