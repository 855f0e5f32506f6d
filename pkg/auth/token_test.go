package auth

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fserr "github.com/fitstack/fitstack-core/pkg/errors"
)

// ---------------------------------------------------------------------------
// Secret type tests
// ---------------------------------------------------------------------------

func TestSecret_Redacts(t *testing.T) {
	t.Parallel()
	s := Secret("super-secret-key-value")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", s))

	text, err := s.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "[REDACTED]", string(text))
}

func TestSecret_Value_ReturnsActualValue(t *testing.T) {
	t.Parallel()
	s := Secret("super-secret-key-value")
	assert.Equal(t, "super-secret-key-value", s.Value())
}

// ---------------------------------------------------------------------------
// InspectToken tests
// ---------------------------------------------------------------------------

// tokenWithHeader builds a three-segment token whose header segment is the
// given JSON. Payload and signature segments are syntactically valid filler.
func tokenWithHeader(headerJSON string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(headerJSON))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"u1"}`))
	return header + "." + payload + ".c2ln"
}

func TestInspectToken_KeyIDPresent(t *testing.T) {
	t.Parallel()

	header, err := InspectToken(tokenWithHeader(`{"alg":"RS256","kid":"kid-1","typ":"JWT"}`))
	require.NoError(t, err)

	assert.True(t, header.HasKeyID())
	assert.Equal(t, "kid-1", header.KeyID)
	assert.Equal(t, "RS256", header.Algorithm)
	assert.Equal(t, "JWT", header.Type)
}

func TestInspectToken_KeyIDAbsent(t *testing.T) {
	t.Parallel()

	header, err := InspectToken(tokenWithHeader(`{"alg":"HS256","typ":"JWT"}`))
	require.NoError(t, err)

	assert.False(t, header.HasKeyID())
	assert.Equal(t, "HS256", header.Algorithm)
}

func TestInspectToken_EmptyKeyIDCountsAsAbsent(t *testing.T) {
	t.Parallel()

	header, err := InspectToken(tokenWithHeader(`{"alg":"HS256","kid":""}`))
	require.NoError(t, err)
	assert.False(t, header.HasKeyID())
}

func TestInspectToken_MalformedInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty string", raw: ""},
		{name: "no dots", raw: "nodotsatall"},
		{name: "two segments", raw: "aGVhZGVy.cGF5bG9hZA"},
		{name: "four segments", raw: "a.b.c.d"},
		{name: "header not base64url", raw: "!!!not-base64!!!.cGF5bG9hZA.c2ln"},
		{name: "header not JSON", raw: tokenWithHeader(`not json at all`)},
		{name: "kid not a string", raw: tokenWithHeader(`{"alg":"RS256","kid":42}`)},
		{name: "missing alg", raw: tokenWithHeader(`{"typ":"JWT","kid":"kid-1"}`)},
		{name: "oversized token", raw: strings.Repeat("a", maxTokenSize+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			header, err := InspectToken(tt.raw)
			require.Error(t, err)
			assert.Nil(t, header)
			assert.True(t, fserr.HasCode(err, fserr.CodeAuthenticationMalformed),
				"malformed input must carry the malformed code, got %v", err)
		})
	}
}

// A broken header must never fall through to the shared-secret path, so its
// failure is distinct from a well-formed header that merely lacks a kid.
func TestInspectToken_MalformedIsNotTreatedAsNoKeyID(t *testing.T) {
	t.Parallel()

	_, err := InspectToken("garbage.garbage.garbage")
	require.Error(t, err)

	header, err2 := InspectToken(tokenWithHeader(`{"alg":"HS256"}`))
	require.NoError(t, err2)
	assert.False(t, header.HasKeyID())
}

func TestInspectToken_RejectsAlgNone(t *testing.T) {
	t.Parallel()

	for _, alg := range []string{"none", "None", "NONE"} {
		t.Run(alg, func(t *testing.T) {
			t.Parallel()
			_, err := InspectToken(tokenWithHeader(`{"alg":"` + alg + `"}`))
			require.Error(t, err)
			assert.True(t, fserr.HasCode(err, fserr.CodeAuthenticationMalformed))
			assert.Contains(t, err.Error(), "none")
		})
	}
}
