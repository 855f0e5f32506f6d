// Package auth implements inbound request authentication for FitStack
// backend services.
//
// Tokens are bearer JWTs issued by the identity provider of the FitStack
// data platform. Two signing schemes are in use simultaneously and the
// scheme is chosen per request from the token itself:
//
//   - Tokens without a "kid" header are signed with the platform's shared
//     HMAC secret (HS256) and verified by [SymmetricVerifier].
//   - Tokens carrying a "kid" header are signed with a provider-published
//     asymmetric key (RS256 or ES256) and verified by [AsymmetricVerifier]
//     against keys discovered via the provider's
//     .well-known/openid-configuration document.
//
// The [Authenticator] orchestrates extraction, header inspection, dispatch,
// and verification, and attaches the resulting [Identity] plus the original
// raw token to the request context. Downstream repositories re-present that
// raw token to the data platform, which enforces row-level security from the
// same credential; this package never re-issues or re-signs anything.
//
// Security:
//
// Every authentication failure, whatever its internal cause, surfaces to
// clients as a uniform "not authenticated" response. The specific failure
// kind (expired, bad signature, unknown key, key source down) is recorded
// in logs and trace spans only. Raw tokens and the shared secret are never
// written to logs; see [Secret].
package auth

import (
	"errors"
	"time"
)

// IdentityType categorizes an authenticated caller.
type IdentityType string

const (
	// IdentityTypeUser is a FitStack app user authenticated with a token
	// issued by the data platform's identity provider.
	IdentityTypeUser IdentityType = "user"

	// IdentityTypeService is a backend service authenticating with a
	// platform-issued HMAC token for service-to-service calls.
	IdentityTypeService IdentityType = "service"

	// IdentityTypeSystem is an internal process such as a migration or a
	// scheduled job, not tied to a user or an external service.
	IdentityTypeSystem IdentityType = "system"
)

// String returns the string representation of the identity type.
func (t IdentityType) String() string {
	return string(t)
}

// Valid reports whether the identity type is one of the recognized values.
func (t IdentityType) Valid() bool {
	switch t {
	case IdentityTypeUser, IdentityTypeService, IdentityTypeSystem:
		return true
	default:
		return false
	}
}

// Identity is the request-scoped result of a successful authentication.
// It identifies who is making the request and exposes the validated claims
// for downstream authorization and audit.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Identity interface {
	// ID returns the unique identifier of the caller. For users this is
	// the token's subject claim, which maps to the platform user ID.
	ID() string

	// Type returns the category of the identity.
	Type() IdentityType

	// Claims returns the validated token claims as a map. Implementations
	// return a copy so callers cannot mutate the identity.
	Claims() map[string]any
}

// UserIdentity represents an authenticated app user. It is immutable after
// creation; the claims map is copied in both directions.
type UserIdentity struct {
	id          string
	email       string
	displayName string
	claims      map[string]any
}

// NewUserIdentity creates a UserIdentity. The id is required; email and
// displayName are taken from the token when present and may be empty.
func NewUserIdentity(id, email, displayName string, claims map[string]any) (*UserIdentity, error) {
	if id == "" {
		return nil, errors.New("auth: user identity id must not be empty")
	}
	copied := make(map[string]any, len(claims))
	for k, v := range claims {
		copied[k] = v
	}
	return &UserIdentity{
		id:          id,
		email:       email,
		displayName: displayName,
		claims:      copied,
	}, nil
}

// ID returns the platform user ID (the token's subject).
func (u *UserIdentity) ID() string { return u.id }

// Type returns IdentityTypeUser.
func (u *UserIdentity) Type() IdentityType { return IdentityTypeUser }

// Claims returns a shallow copy of the validated claims.
func (u *UserIdentity) Claims() map[string]any {
	copied := make(map[string]any, len(u.claims))
	for k, v := range u.claims {
		copied[k] = v
	}
	return copied
}

// Email returns the user's email address, or empty if the token carried none.
func (u *UserIdentity) Email() string { return u.email }

// DisplayName returns the user's display name, or empty if the token
// carried none.
func (u *UserIdentity) DisplayName() string { return u.displayName }

// ServiceIdentity represents an authenticated backend service.
// It is immutable after creation.
type ServiceIdentity struct {
	id          string
	serviceName string
	claims      map[string]any
}

// NewServiceIdentity creates a ServiceIdentity. Both id and serviceName
// are required.
func NewServiceIdentity(id, serviceName string, claims map[string]any) (*ServiceIdentity, error) {
	if id == "" {
		return nil, errors.New("auth: service identity id must not be empty")
	}
	if serviceName == "" {
		return nil, errors.New("auth: service identity serviceName must not be empty")
	}
	copied := make(map[string]any, len(claims))
	for k, v := range claims {
		copied[k] = v
	}
	return &ServiceIdentity{
		id:          id,
		serviceName: serviceName,
		claims:      copied,
	}, nil
}

// ID returns the unique identifier of the service identity.
func (s *ServiceIdentity) ID() string { return s.id }

// Type returns IdentityTypeService.
func (s *ServiceIdentity) Type() IdentityType { return IdentityTypeService }

// Claims returns a shallow copy of the validated claims.
func (s *ServiceIdentity) Claims() map[string]any {
	copied := make(map[string]any, len(s.claims))
	for k, v := range s.claims {
		copied[k] = v
	}
	return copied
}

// ServiceName returns the name of the calling service.
func (s *ServiceIdentity) ServiceName() string { return s.serviceName }

// Claims is the validated payload of a verified token. It is produced only
// after signature and standard-claim validation succeed, lives for the
// duration of the request, and is never cached or persisted.
type Claims struct {
	// Subject is the "sub" claim: the platform user ID for user tokens,
	// or the service account ID for service tokens.
	Subject string

	// Issuer is the validated "iss" claim.
	Issuer string

	// Audience is the validated "aud" claim. A single-string aud is
	// represented as a one-element slice.
	Audience []string

	// ExpiresAt is the "exp" claim.
	ExpiresAt time.Time

	// IssuedAt is the "iat" claim. Zero if the token carried none.
	IssuedAt time.Time

	// NotBefore is the "nbf" claim. Zero if the token carried none.
	NotBefore time.Time

	// Raw holds every claim from the token payload, including the standard
	// ones above, for downstream consumers that need provider-specific
	// claims (email, name, role).
	Raw map[string]any
}
