package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	fserr "github.com/fitstack/fitstack-core/pkg/errors"
)

// tracerName is the OpenTelemetry instrumentation scope name for auth spans.
const tracerName = "github.com/fitstack/fitstack-core/pkg/auth"

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

// Config holds the authenticator's configuration. All values are supplied
// at process startup; nothing is mutated at runtime.
type Config struct {
	// SharedSecret is the HMAC key for tokens without a kid header.
	// Must be at least 32 bytes. The Secret type redacts the value in
	// logs and serialized output.
	SharedSecret Secret `json:"-" env:"AUTH_SHARED_SECRET" required:"true"`

	// Issuer is the expected "iss" claim on every accepted token.
	Issuer string `json:"issuer" env:"AUTH_ISSUER" required:"true"`

	// Audience is the expected "aud" claim on every accepted token.
	Audience string `json:"audience" env:"AUTH_AUDIENCE" required:"true"`

	// ProviderURL is the identity provider's base URL, used to discover
	// the asymmetric key set via .well-known/openid-configuration.
	ProviderURL string `json:"provider_url" env:"AUTH_PROVIDER_URL" required:"true"`

	// ClockSkew is the allowed clock difference when validating token
	// timestamps. Defaults to DefaultClockSkew.
	ClockSkew time.Duration `json:"clock_skew" env:"AUTH_CLOCK_SKEW" envDefault:"2m"`

	// KeyCacheTTL is how long a fetched key snapshot is served before a
	// refresh. Defaults to DefaultKeyCacheTTL.
	KeyCacheTTL time.Duration `json:"key_cache_ttl" env:"AUTH_KEY_CACHE_TTL" envDefault:"1h"`

	// FetchTimeout bounds a single discovery-plus-keys fetch.
	// Defaults to DefaultFetchTimeout.
	FetchTimeout time.Duration `json:"fetch_timeout" env:"AUTH_FETCH_TIMEOUT" envDefault:"10s"`

	// HTTPClient performs key-set fetches. If nil, a default client with
	// a timeout of FetchTimeout is used.
	HTTPClient HTTPClient `json:"-"`
}

// Validate checks the configuration for logical correctness.
func (c *Config) Validate() error {
	if len(c.SharedSecret.Value()) < 32 {
		return fserr.New(fserr.CodeValidation, "auth: shared secret must be at least 32 bytes")
	}
	if c.Issuer == "" {
		return fserr.New(fserr.CodeValidation, "auth: issuer must not be empty")
	}
	if c.Audience == "" {
		return fserr.New(fserr.CodeValidation, "auth: audience must not be empty")
	}
	if c.ProviderURL == "" {
		return fserr.New(fserr.CodeValidation, "auth: provider URL must not be empty")
	}
	if c.ClockSkew < 0 {
		return fserr.New(fserr.CodeValidation, "auth: clock skew must be non-negative")
	}
	if c.KeyCacheTTL < 0 {
		return fserr.New(fserr.CodeValidation, "auth: key cache TTL must be non-negative")
	}
	if c.FetchTimeout < 0 {
		return fserr.New(fserr.CodeValidation, "auth: fetch timeout must be non-negative")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Authenticator
// ---------------------------------------------------------------------------

// Authenticator verifies bearer tokens on inbound requests. Per request it
// inspects the token header, dispatches to the symmetric or asymmetric
// verifier based on the presence of a key identifier, and maps the
// validated claims to an [Identity].
//
// There are exactly two verification modes. The dispatch is a fixed
// two-way decision on the token's own header, not a pluggable strategy;
// adding a third scheme is a reviewed code change.
//
// Authenticator is safe for concurrent use by multiple goroutines; the only
// shared mutable state is the key source's snapshot pointer.
type Authenticator struct {
	cfg        Config
	tracer     trace.Tracer
	symmetric  *SymmetricVerifier
	asymmetric *AsymmetricVerifier
	keys       *KeySource
}

// New creates an Authenticator from the given configuration. The
// configuration is validated; no network activity happens until the first
// asymmetric token arrives.
func New(cfg Config) (*Authenticator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ClockSkew == 0 {
		cfg.ClockSkew = DefaultClockSkew
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.FetchTimeout
		if timeout == 0 {
			timeout = DefaultFetchTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	keys, err := NewKeySource(KeySourceConfig{
		IssuerURL:    cfg.ProviderURL,
		CacheTTL:     cfg.KeyCacheTTL,
		FetchTimeout: cfg.FetchTimeout,
		HTTPClient:   httpClient,
	})
	if err != nil {
		return nil, err
	}

	symmetric, err := NewSymmetricVerifier(cfg.SharedSecret, cfg.Issuer, cfg.Audience, cfg.ClockSkew)
	if err != nil {
		return nil, err
	}
	asymmetric, err := NewAsymmetricVerifier(keys, cfg.Issuer, cfg.Audience, cfg.ClockSkew)
	if err != nil {
		return nil, err
	}

	return &Authenticator{
		cfg:        cfg,
		tracer:     otel.Tracer(tracerName),
		symmetric:  symmetric,
		asymmetric: asymmetric,
		keys:       keys,
	}, nil
}

// KeySource exposes the authenticator's key source, mainly so operational
// tooling can trigger an eager warm-up at startup.
func (a *Authenticator) KeySource() *KeySource {
	return a.keys
}

// Authenticate verifies the raw bearer token and returns the Identity it
// represents. Callers pass the token already stripped of the "Bearer "
// prefix; the transport adapters handle extraction and treat a missing
// credential as an anonymous request before ever reaching this method.
//
// Every failure returns an error in the AUTH category. The specific code
// distinguishes the failure kind for logs and traces; transport adapters
// must collapse all of them into one uniform unauthenticated response.
// A panic during verification is recovered and reported the same way,
// never as a server error.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (identity Identity, err error) {
	ctx, span := a.tracer.Start(ctx, "auth.Authenticate")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "auth: panic during token verification",
				"panic", r,
			)
			identity = nil
			err = fserr.New(fserr.CodeAuthentication, "auth: token verification failed")
			recordAuthFailure(ctx, span, err)
		}
	}()

	header, err := InspectToken(raw)
	if err != nil {
		recordAuthFailure(ctx, span, err)
		return nil, err
	}

	var claims *Claims
	if header.HasKeyID() {
		span.SetAttributes(attribute.String("auth.mode", "asymmetric"))
		claims, err = a.asymmetric.Verify(ctx, raw, header.KeyID)
	} else {
		span.SetAttributes(attribute.String("auth.mode", "symmetric"))
		claims, err = a.symmetric.Verify(ctx, raw)
	}
	if err != nil {
		recordAuthFailure(ctx, span, err)
		return nil, err
	}

	identity, err = identityFromClaims(claims)
	if err != nil {
		recordAuthFailure(ctx, span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("auth.identity_id", identity.ID()),
		attribute.String("auth.identity_type", string(identity.Type())),
	)
	return identity, nil
}

// identityFromClaims maps validated claims to an Identity. Tokens carrying
// a service_name claim are service identities; everything else is an app
// user keyed by the subject.
func identityFromClaims(claims *Claims) (Identity, error) {
	if serviceName, ok := claims.Raw["service_name"].(string); ok && serviceName != "" {
		identity, err := NewServiceIdentity(claims.Subject, serviceName, claims.Raw)
		if err != nil {
			return nil, fserr.Wrap(err, fserr.CodeAuthenticationMalformed, "auth: failed to build service identity")
		}
		return identity, nil
	}

	email, _ := claims.Raw["email"].(string)
	name, _ := claims.Raw["name"].(string)
	identity, err := NewUserIdentity(claims.Subject, email, name, claims.Raw)
	if err != nil {
		return nil, fserr.Wrap(err, fserr.CodeAuthenticationMalformed, "auth: failed to build user identity")
	}
	return identity, nil
}

// recordAuthFailure logs the internal failure kind and marks the span.
// The logged code is the diagnostic detail that never reaches the client.
func recordAuthFailure(ctx context.Context, span trace.Span, err error) {
	code := fserr.GetCode(err)
	slog.WarnContext(ctx, "auth: authentication failed",
		"code", string(code),
		"error", err,
	)
	span.SetAttributes(attribute.String("auth.failure_code", string(code)))
	span.RecordError(err)
	span.SetStatus(codes.Error, "authentication failed")
}
