package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	fserr "github.com/fitstack/fitstack-core/pkg/errors"
)

// DefaultClockSkew is the allowed clock difference between this service and
// the identity provider when validating exp, nbf, and iat.
const DefaultClockSkew = 2 * time.Minute

// ---------------------------------------------------------------------------
// SymmetricVerifier — HS256 against the shared secret
// ---------------------------------------------------------------------------

// SymmetricVerifier validates tokens signed with the platform's shared HMAC
// secret. The accepted algorithm is pinned to HS256 via
// jwt.WithValidMethods, so a token carrying an asymmetric algorithm can
// never trick this verifier into using a public key as an HMAC secret.
//
// SymmetricVerifier is safe for concurrent use by multiple goroutines.
type SymmetricVerifier struct {
	secret   Secret
	issuer   string
	audience string
	leeway   time.Duration
}

// NewSymmetricVerifier creates a verifier for shared-secret tokens. The
// secret must be at least 32 bytes. A non-positive leeway applies
// [DefaultClockSkew].
func NewSymmetricVerifier(secret Secret, issuer, audience string, leeway time.Duration) (*SymmetricVerifier, error) {
	if len(secret.Value()) < 32 {
		return nil, fserr.New(fserr.CodeValidation, "auth: shared secret must be at least 32 bytes")
	}
	if issuer == "" {
		return nil, fserr.New(fserr.CodeValidation, "auth: expected issuer must not be empty")
	}
	if audience == "" {
		return nil, fserr.New(fserr.CodeValidation, "auth: expected audience must not be empty")
	}
	if leeway <= 0 {
		leeway = DefaultClockSkew
	}
	return &SymmetricVerifier{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		leeway:   leeway,
	}, nil
}

// Verify checks the token's HMAC signature and standard claims. On success
// it returns the validated claims; verification has no side effects, so
// verifying the same token twice yields the same claims.
func (v *SymmetricVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		return []byte(v.secret.Value()), nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, classifyVerifyError(err)
	}
	return claimsFromToken(token)
}

// ---------------------------------------------------------------------------
// AsymmetricVerifier — RS256/ES256 against provider-published keys
// ---------------------------------------------------------------------------

// AsymmetricVerifier validates tokens signed with a provider-published
// asymmetric key. The key is selected strictly by the token's own key
// identifier from the [KeySource]'s current snapshot: when the identifier
// is not in the snapshot, exactly one forced refresh is attempted (to pick
// up a rotated key), and if it is still absent the token is rejected. There
// is no fallback to trying other keys.
//
// AsymmetricVerifier is safe for concurrent use by multiple goroutines.
type AsymmetricVerifier struct {
	keys     *KeySource
	issuer   string
	audience string
	leeway   time.Duration
}

// NewAsymmetricVerifier creates a verifier backed by the given key source.
// A non-positive leeway applies [DefaultClockSkew].
func NewAsymmetricVerifier(keys *KeySource, issuer, audience string, leeway time.Duration) (*AsymmetricVerifier, error) {
	if keys == nil {
		return nil, fserr.New(fserr.CodeValidation, "auth: key source must not be nil")
	}
	if issuer == "" {
		return nil, fserr.New(fserr.CodeValidation, "auth: expected issuer must not be empty")
	}
	if audience == "" {
		return nil, fserr.New(fserr.CodeValidation, "auth: expected audience must not be empty")
	}
	if leeway <= 0 {
		leeway = DefaultClockSkew
	}
	return &AsymmetricVerifier{
		keys:     keys,
		issuer:   issuer,
		audience: audience,
		leeway:   leeway,
	}, nil
}

// Verify checks the token's signature against the key named by kid and
// validates standard claims. The claim-validation rules are identical to
// the symmetric path; only the signature check differs.
func (v *AsymmetricVerifier) Verify(ctx context.Context, raw, kid string) (*Claims, error) {
	snap, err := v.keys.Current(ctx)
	if err != nil {
		return nil, err
	}

	key, ok := snap.Key(kid)
	if !ok {
		// Possibly a rotated key the cached snapshot predates.
		snap, err = v.keys.ForceRefresh(ctx)
		if err != nil {
			return nil, err
		}
		key, ok = snap.Key(kid)
		if !ok {
			return nil, fserr.Newf(fserr.CodeAuthenticationUnknownKey, "auth: no signing key matches kid %q", kid)
		}
	}

	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, classifyVerifyError(err)
	}
	return claimsFromToken(token)
}

// ---------------------------------------------------------------------------
// Shared claim mapping and error classification
// ---------------------------------------------------------------------------

// claimsFromToken maps a fully validated jwt token into a *Claims.
func claimsFromToken(token *jwt.Token) (*Claims, error) {
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fserr.New(fserr.CodeAuthenticationMalformed, "auth: token claims are invalid")
	}

	sub, _ := mc["sub"].(string)
	if sub == "" {
		return nil, fserr.New(fserr.CodeAuthenticationMalformed, "auth: token is missing subject claim")
	}

	claims := &Claims{
		Subject: sub,
		Raw:     make(map[string]any, len(mc)),
	}
	for k, val := range mc {
		claims.Raw[k] = val
	}

	if iss, err := mc.GetIssuer(); err == nil {
		claims.Issuer = iss
	}
	if aud, err := mc.GetAudience(); err == nil {
		claims.Audience = aud
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if nbf, err := mc.GetNotBefore(); err == nil && nbf != nil {
		claims.NotBefore = nbf.Time
	}

	return claims, nil
}

// classifyVerifyError maps jwt library errors to internal authentication
// error codes. The codes distinguish failure kinds for logging and alerting
// only; at the request boundary every kind collapses to the same generic
// rejection.
func classifyVerifyError(err error) *fserr.Error {
	if err == nil {
		return nil
	}

	var fe *fserr.Error
	if errors.As(err, &fe) {
		return fe
	}

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fserr.Wrap(err, fserr.CodeAuthenticationExpired, "auth: token has expired")
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fserr.Wrap(err, fserr.CodeAuthenticationMalformed, "auth: token is malformed")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fserr.Wrap(err, fserr.CodeAuthenticationMalformed, "auth: token signature is invalid")
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return fserr.Wrap(err, fserr.CodeAuthenticationMalformed, "auth: token is not yet valid")
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return fserr.Wrap(err, fserr.CodeAuthenticationMalformed, "auth: token issuer is invalid")
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return fserr.Wrap(err, fserr.CodeAuthenticationMalformed, "auth: token audience is invalid")
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return fserr.Wrap(err, fserr.CodeAuthenticationMalformed, "auth: token is unverifiable")
	case errors.Is(err, jwt.ErrTokenInvalidClaims):
		return fserr.Wrap(err, fserr.CodeAuthenticationMalformed, "auth: token claims are invalid")
	default:
		return fserr.Wrap(err, fserr.CodeAuthentication, "auth: token verification failed")
	}
}
