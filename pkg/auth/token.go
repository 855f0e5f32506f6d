package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	fserr "github.com/fitstack/fitstack-core/pkg/errors"
)

// ---------------------------------------------------------------------------
// Secret type — prevents accidental logging of sensitive values
// ---------------------------------------------------------------------------

// Secret is a string type that redacts its value in String(), GoString(), and
// MarshalText() so the shared signing secret cannot leak through logs, JSON
// output, or fmt verbs. The actual value is only accessible via
// [Secret.Value], which should be called exactly where the raw bytes are
// needed for signature verification.
type Secret string

// secretRedacted is the placeholder printed in place of the actual value.
const secretRedacted = "[REDACTED]"

// String returns the redacted placeholder.
func (s Secret) String() string { return secretRedacted }

// GoString returns the redacted placeholder, covering %#v formatting.
func (s Secret) GoString() string { return secretRedacted }

// MarshalText implements [encoding.TextMarshaler], returning the redacted
// placeholder so the secret never serializes into JSON or YAML.
func (s Secret) MarshalText() ([]byte, error) { return []byte(secretRedacted), nil }

// Value returns the actual secret string.
func (s Secret) Value() string { return string(s) }

// ---------------------------------------------------------------------------
// Token inspection — decide the verification path without verifying
// ---------------------------------------------------------------------------

// maxTokenSize is the maximum accepted size for a token string (8 KB).
// Larger tokens are rejected before any decoding to bound work per request.
const maxTokenSize = 8192

// TokenHeader is the decoded header segment of a compact-serialized token.
// It is derived transiently to choose the verification path and is not
// retained past that decision.
type TokenHeader struct {
	// Algorithm is the "alg" header value.
	Algorithm string `json:"alg"`

	// KeyID is the "kid" header value, or empty when absent.
	KeyID string `json:"kid"`

	// Type is the "typ" header value, informational only.
	Type string `json:"typ"`
}

// HasKeyID reports whether the header carries a key identifier. Tokens with
// a key identifier are verified on the asymmetric path against
// provider-published keys; tokens without one are verified against the
// shared secret. An explicitly empty kid counts as absent.
func (h *TokenHeader) HasKeyID() bool {
	return h.KeyID != ""
}

// InspectToken decodes only the header segment of a compact three-segment
// token, without verifying the signature, and returns the parsed header.
// This is a read-only parse with no side effects.
//
// Malformed input (wrong segment count, invalid base64url, invalid JSON,
// missing alg) is an immediate authentication failure: a token whose header
// cannot be parsed never reaches a verifier, so an attacker cannot steer a
// broken token onto the symmetric path by omitting the key identifier.
// The "none" algorithm is rejected here as well.
func InspectToken(raw string) (*TokenHeader, error) {
	if raw == "" {
		return nil, fserr.New(fserr.CodeAuthenticationMalformed, "auth: token must not be empty")
	}
	if len(raw) > maxTokenSize {
		return nil, fserr.New(fserr.CodeAuthenticationMalformed, "auth: token exceeds maximum size")
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fserr.New(fserr.CodeAuthenticationMalformed, "auth: token is not a three-segment compact serialization")
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fserr.Wrap(err, fserr.CodeAuthenticationMalformed, "auth: token header is not valid base64url")
	}

	var header TokenHeader
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, fserr.Wrap(err, fserr.CodeAuthenticationMalformed, "auth: token header is not valid JSON")
	}

	if header.Algorithm == "" {
		return nil, fserr.New(fserr.CodeAuthenticationMalformed, "auth: token header is missing alg")
	}
	if strings.EqualFold(header.Algorithm, "none") {
		return nil, fserr.New(fserr.CodeAuthenticationMalformed, "auth: algorithm 'none' is not permitted")
	}

	return &header, nil
}
