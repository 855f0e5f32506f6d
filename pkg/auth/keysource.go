package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	fserr "github.com/fitstack/fitstack-core/pkg/errors"
)

// HTTPClient abstracts the HTTP client used for fetching the discovery
// document and the key set. Callers may supply a client with custom
// transport settings; the standard [http.Client] satisfies this interface.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ---------------------------------------------------------------------------
// KeySnapshot — one immutable view of the provider's published keys
// ---------------------------------------------------------------------------

// KeySnapshot is an immutable view of the identity provider's published
// verification keys at one point in time. A refresh builds a complete new
// snapshot and atomically replaces the old one, so concurrent readers always
// observe either the previous or the new snapshot, never a partial one.
type KeySnapshot struct {
	keys      map[string]crypto.PublicKey
	jwksURL   string
	fetchedAt time.Time
}

// Key returns the public key with the given identifier, if the snapshot
// contains one.
func (s *KeySnapshot) Key(kid string) (crypto.PublicKey, bool) {
	key, ok := s.keys[kid]
	return key, ok
}

// Len returns the number of keys in the snapshot.
func (s *KeySnapshot) Len() int { return len(s.keys) }

// FetchedAt returns the time the snapshot was obtained from the provider.
func (s *KeySnapshot) FetchedAt() time.Time { return s.fetchedAt }

// ---------------------------------------------------------------------------
// KeySource — discovery, caching, and coalesced refresh
// ---------------------------------------------------------------------------

// KeySourceConfig configures a [KeySource].
type KeySourceConfig struct {
	// IssuerURL is the identity provider's base URL. The source appends
	// "/.well-known/openid-configuration" to locate the jwks_uri.
	IssuerURL string

	// CacheTTL is how long a fetched snapshot is considered fresh.
	// Zero or negative applies DefaultKeyCacheTTL.
	CacheTTL time.Duration

	// FetchTimeout bounds a single discovery-plus-keys fetch. The timeout
	// applies to the detached refresh context, not to any one caller's
	// request context. Zero or negative applies DefaultFetchTimeout.
	FetchTimeout time.Duration

	// HTTPClient performs the fetches. If nil, a default client with a
	// timeout of DefaultFetchTimeout is used.
	HTTPClient HTTPClient
}

const (
	// DefaultKeyCacheTTL is how long a key snapshot is served before a
	// refresh is attempted.
	DefaultKeyCacheTTL = 1 * time.Hour

	// DefaultFetchTimeout bounds the discovery and key-set fetch.
	DefaultFetchTimeout = 10 * time.Second
)

// maxJWKSResponseSize limits discovery and key-set response bodies (1 MB).
const maxJWKSResponseSize = 1 << 20

// KeySource maintains the current set of asymmetric verification keys
// published by the identity provider. The snapshot pointer is the only
// shared mutable state: readers load it without locking, and concurrent
// refreshes coalesce into a single in-flight fetch through a singleflight
// group.
//
// KeySource is safe for concurrent use by multiple goroutines.
type KeySource struct {
	issuerURL    string
	cacheTTL     time.Duration
	fetchTimeout time.Duration
	client       HTTPClient

	snapshot atomic.Pointer[KeySnapshot]
	group    singleflight.Group
}

// NewKeySource creates a KeySource for the given provider. No network
// activity happens until the first call to [KeySource.Current].
func NewKeySource(cfg KeySourceConfig) (*KeySource, error) {
	if cfg.IssuerURL == "" {
		return nil, fserr.New(fserr.CodeValidation, "auth: key source issuer URL must not be empty")
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultKeyCacheTTL
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	return &KeySource{
		issuerURL:    strings.TrimRight(cfg.IssuerURL, "/"),
		cacheTTL:     cfg.CacheTTL,
		fetchTimeout: cfg.FetchTimeout,
		client:       client,
	}, nil
}

// Current returns the current key snapshot. When no snapshot exists yet, or
// the cached one has outlived the TTL, a refresh is performed first.
//
// If the refresh fails but a previous snapshot exists, that stale snapshot
// is returned and the failure is logged; a refresh failure must never
// replace usable keys with nothing. If no snapshot has ever been obtained,
// Current fails closed with [fserr.CodeAuthenticationKeySource].
func (s *KeySource) Current(ctx context.Context) (*KeySnapshot, error) {
	snap := s.snapshot.Load()
	if snap != nil && time.Since(snap.fetchedAt) < s.cacheTTL {
		return snap, nil
	}
	return s.refresh(ctx)
}

// ForceRefresh performs a refresh regardless of snapshot age. The
// asymmetric verifier calls this once when a token's key identifier is
// missing from the current snapshot, to pick up a freshly rotated key
// before rejecting.
func (s *KeySource) ForceRefresh(ctx context.Context) (*KeySnapshot, error) {
	return s.refresh(ctx)
}

// refresh coalesces concurrent callers into one fetch. The fetch runs on a
// context detached from any caller, with its own timeout, so a cancelled
// request cannot abort a refresh that other requests are awaiting.
func (s *KeySource) refresh(ctx context.Context) (*KeySnapshot, error) {
	ch := s.group.DoChan("refresh", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
		defer cancel()

		snap, err := s.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		s.snapshot.Store(snap)
		return snap, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return s.degraded(ctx, res.Err)
		}
		return res.Val.(*KeySnapshot), nil
	case <-ctx.Done():
		// The shared fetch keeps running for other waiters.
		return s.degraded(ctx, ctx.Err())
	}
}

// degraded serves the stale snapshot if one exists, otherwise fails closed.
func (s *KeySource) degraded(ctx context.Context, cause error) (*KeySnapshot, error) {
	if snap := s.snapshot.Load(); snap != nil {
		slog.WarnContext(ctx, "auth: signing key refresh failed, serving stale snapshot",
			"error", cause,
			"issuer", s.issuerURL,
			"snapshot_age", time.Since(snap.fetchedAt).String(),
		)
		return snap, nil
	}
	return nil, fserr.Wrap(cause, fserr.CodeAuthenticationKeySource, "auth: signing keys unavailable")
}

// fetch performs discovery followed by the key-set fetch and builds a
// complete snapshot. It never touches the snapshot pointer; installation
// happens in refresh only after full success.
func (s *KeySource) fetch(ctx context.Context) (*KeySnapshot, error) {
	jwksURL, err := s.discoverJWKSURL(ctx)
	if err != nil {
		return nil, err
	}

	body, err := s.get(ctx, jwksURL)
	if err != nil {
		return nil, err
	}

	var doc jwksDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("auth: failed to parse key set JSON: %w", err)
	}

	keys := make(map[string]crypto.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kid == "" {
			continue
		}
		switch k.Kty {
		case "RSA":
			pub, err := parseRSAPublicKey(k.N, k.E)
			if err != nil {
				continue // Skip malformed keys.
			}
			keys[k.Kid] = pub
		case "EC":
			pub, err := parseECPublicKey(k.Crv, k.X, k.Y)
			if err != nil {
				continue
			}
			keys[k.Kid] = pub
		}
	}

	return &KeySnapshot{
		keys:      keys,
		jwksURL:   jwksURL,
		fetchedAt: time.Now(),
	}, nil
}

// discoverJWKSURL fetches the provider's openid-configuration document and
// returns its jwks_uri. Discovery is repeated on every refresh so a
// provider-side move of the key-set endpoint is picked up without restart.
func (s *KeySource) discoverJWKSURL(ctx context.Context) (string, error) {
	body, err := s.get(ctx, s.issuerURL+"/.well-known/openid-configuration")
	if err != nil {
		return "", err
	}

	var doc discoveryDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("auth: failed to parse discovery JSON: %w", err)
	}
	if doc.JWKSURI == "" {
		return "", fmt.Errorf("auth: discovery document missing jwks_uri")
	}
	return doc.JWKSURI, nil
}

// get performs an HTTP GET and returns the body, limited to
// maxJWKSResponseSize.
func (s *KeySource) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to create request for %s: %w", url, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: request to %s failed: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSResponseSize))
	if err != nil {
		return nil, fmt.Errorf("auth: failed to read response from %s: %w", url, err)
	}
	return body, nil
}

// discoveryDocument holds the relevant fields of an
// openid-configuration document.
type discoveryDocument struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

// jwksDocument is the JSON structure of a key-set endpoint response.
type jwksDocument struct {
	Keys []jwkKey `json:"keys"`
}

// jwkKey is a single key record. Only the fields needed for RSA and EC key
// reconstruction are included.
type jwkKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	// RSA fields
	N string `json:"n"`
	E string `json:"e"`
	// EC fields
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// parseRSAPublicKey constructs an *rsa.PublicKey from base64url-encoded
// modulus (n) and exponent (e) values.
func parseRSAPublicKey(nBase64, eBase64 string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nBase64)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to decode RSA modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eBase64)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to decode RSA exponent: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)

	return &rsa.PublicKey{
		N: n,
		E: int(e.Int64()),
	}, nil
}

// parseECPublicKey constructs an *ecdsa.PublicKey from a curve name and
// base64url-encoded x and y coordinates.
func parseECPublicKey(crv, xBase64, yBase64 string) (*ecdsa.PublicKey, error) {
	var curve elliptic.Curve
	switch crv {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	case "P-521":
		curve = elliptic.P521()
	default:
		return nil, fmt.Errorf("auth: unsupported EC curve %q", crv)
	}

	xBytes, err := base64.RawURLEncoding.DecodeString(xBase64)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to decode EC x coordinate: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(yBase64)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to decode EC y coordinate: %w", err)
	}

	return &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}
