package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	fserr "github.com/fitstack/fitstack-core/pkg/errors"
)

func newTestAuthenticator(t *testing.T, provider *fakeProvider) *Authenticator {
	t.Helper()
	a, err := New(newTestConfig(provider))
	require.NoError(t, err)
	return a
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		return Config{
			SharedSecret: Secret(testSharedSecret),
			Issuer:       testIssuer,
			Audience:     testAudience,
			ProviderURL:  "https://idp.example",
		}
	}
	validCfg := valid()
	assert.NoError(t, validCfg.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "short secret", mutate: func(c *Config) { c.SharedSecret = "short" }},
		{name: "empty issuer", mutate: func(c *Config) { c.Issuer = "" }},
		{name: "empty audience", mutate: func(c *Config) { c.Audience = "" }},
		{name: "empty provider URL", mutate: func(c *Config) { c.ProviderURL = "" }},
		{name: "negative clock skew", mutate: func(c *Config) { c.ClockSkew = -time.Second }},
		{name: "negative cache TTL", mutate: func(c *Config) { c.KeyCacheTTL = -time.Second }},
		{name: "negative fetch timeout", mutate: func(c *Config) { c.FetchTimeout = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, fserr.HasCode(err, fserr.CodeValidation))
		})
	}
}

// Scenario: a token signed with the shared secret, correct issuer and
// audience, expiring in 5 minutes, authenticates as the token's subject.
func TestAuthenticator_SymmetricTokenYieldsIdentity(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator(t, newFakeProvider(t))
	raw := authTestSignHMAC(t, []byte(testSharedSecret), authTestClaims("user-123"))

	identity, err := a.Authenticate(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "user-123", identity.ID())
	assert.Equal(t, IdentityTypeUser, identity.Type())
	assert.Equal(t, "user-123", identity.Claims()["sub"])
}

// Scenario: the same token with a wrong audience is rejected.
func TestAuthenticator_RejectsWrongAudience(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator(t, newFakeProvider(t))
	claims := authTestClaims("user-123")
	claims["aud"] = "other-app"
	raw := authTestSignHMAC(t, []byte(testSharedSecret), claims)

	_, err := a.Authenticate(context.Background(), raw)
	require.Error(t, err)
	assert.True(t, fserr.IsAuthentication(err))
}

// A kid in the header routes to the asymmetric path; its absence routes to
// the symmetric path. An HS256 token that smuggles in a kid lands on the
// asymmetric path and fails the pinned-algorithm check.
func TestAuthenticator_DispatchesOnKeyIDPresence(t *testing.T) {
	t.Parallel()

	key := authTestRSAKey(t)
	provider := newFakeProvider(t)
	provider.SetRSAKey("kid-1", &key.PublicKey)
	a := newTestAuthenticator(t, provider)

	// kid present: verified against the provider key.
	asymmetric := authTestSignRSA(t, key, "kid-1", authTestClaims("user-rsa"))
	identity, err := a.Authenticate(context.Background(), asymmetric)
	require.NoError(t, err)
	assert.Equal(t, "user-rsa", identity.ID())

	// kid absent: verified against the shared secret. No provider traffic
	// beyond the asymmetric case above.
	fetchesBefore := provider.jwksCalls.Load()
	symmetric := authTestSignHMAC(t, []byte(testSharedSecret), authTestClaims("user-hmac"))
	identity, err = a.Authenticate(context.Background(), symmetric)
	require.NoError(t, err)
	assert.Equal(t, "user-hmac", identity.ID())
	assert.Equal(t, fetchesBefore, provider.jwksCalls.Load())

	// HS256 with a kid header: routed asymmetric, rejected.
	confused := authTestSignHMACWithKid(t, []byte(testSharedSecret), "kid-1", authTestClaims("user-evil"))
	_, err = a.Authenticate(context.Background(), confused)
	require.Error(t, err)
	assert.True(t, fserr.IsAuthentication(err))
}

func TestAuthenticator_RejectsMalformedToken(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator(t, newFakeProvider(t))

	for _, raw := range []string{"", "garbage", "a.b", "!!!.!!!.!!!"} {
		_, err := a.Authenticate(context.Background(), raw)
		require.Error(t, err, "input %q", raw)
		assert.True(t, fserr.HasCode(err, fserr.CodeAuthenticationMalformed))
	}
}

func TestAuthenticator_RejectsAlgNone(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator(t, newFakeProvider(t))
	raw := tokenWithHeader(`{"alg":"none"}`)

	_, err := a.Authenticate(context.Background(), raw)
	require.Error(t, err)
	assert.True(t, fserr.HasCode(err, fserr.CodeAuthenticationMalformed))
}

// Scenario: key-set fetch fails and no snapshot was ever obtained. The
// rejection carries the key-source code internally; it is still an AUTH
// category error, never a server error.
func TestAuthenticator_KeySourceOutageRejectsClosed(t *testing.T) {
	t.Parallel()

	key := authTestRSAKey(t)
	provider := newFakeProvider(t)
	provider.SetFailing(true)
	a := newTestAuthenticator(t, provider)

	raw := authTestSignRSA(t, key, "kid-1", authTestClaims("user-456"))
	_, err := a.Authenticate(context.Background(), raw)
	require.Error(t, err)
	assert.True(t, fserr.HasCode(err, fserr.CodeAuthenticationKeySource))

	fe, ok := fserr.AsError(err)
	require.True(t, ok)
	assert.Equal(t, 401, fe.HTTPStatus())
}

// Verifying the same token twice through the full pipeline yields the same
// identity both times.
func TestAuthenticator_Idempotent(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator(t, newFakeProvider(t))
	raw := authTestSignHMAC(t, []byte(testSharedSecret), authTestClaims("user-123"))

	first, err := a.Authenticate(context.Background(), raw)
	require.NoError(t, err)
	second, err := a.Authenticate(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, first.ID(), second.ID())
	assert.Equal(t, first.Claims(), second.Claims())
}

func TestAuthenticator_ServiceTokenYieldsServiceIdentity(t *testing.T) {
	t.Parallel()

	a := newTestAuthenticator(t, newFakeProvider(t))
	claims := authTestClaims("svc-sync")
	claims["service_name"] = "workout-sync"
	raw := authTestSignHMAC(t, []byte(testSharedSecret), claims)

	identity, err := a.Authenticate(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, IdentityTypeService, identity.Type())
	svc, ok := identity.(*ServiceIdentity)
	require.True(t, ok)
	assert.Equal(t, "workout-sync", svc.ServiceName())
}

// Not parallel: swaps the global tracer provider.
func TestAuthenticator_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	a := newTestAuthenticator(t, newFakeProvider(t))

	raw := authTestSignHMAC(t, []byte(testSharedSecret), authTestClaims("user-123"))
	_, err := a.Authenticate(context.Background(), raw)
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background(), "garbage")
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "auth.Authenticate", spans[0].Name())

	var modes []string
	for _, span := range spans {
		for _, attr := range span.Attributes() {
			if string(attr.Key) == "auth.mode" {
				modes = append(modes, attr.Value.AsString())
			}
		}
	}
	assert.Equal(t, []string{"symmetric"}, modes, "failed inspection records no mode")
}
