package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Shared test fixtures
// ---------------------------------------------------------------------------

// testSharedSecret is a 32-byte HMAC key used across symmetric tests.
const testSharedSecret = "fitstack-test-shared-secret-32bb"

const (
	testIssuer   = "https://issuer.example"
	testAudience = "app"
)

// authTestClaims returns a claim set that passes validation against
// testIssuer and testAudience, expiring in 5 minutes.
func authTestClaims(sub string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub": sub,
		"iss": testIssuer,
		"aud": testAudience,
		"exp": now.Add(5 * time.Minute).Unix(),
		"iat": now.Unix(),
	}
}

// authTestSignHMAC creates an HS256-signed token with the given claims.
func authTestSignHMAC(t *testing.T, key []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString(key)
	require.NoError(t, err, "failed to sign HMAC token")
	return raw
}

// authTestSignHMACWithKid creates an HS256-signed token that carries a kid
// header, for exercising the dispatch on tokens that lie about their scheme.
func authTestSignHMACWithKid(t *testing.T, key []byte, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = kid
	raw, err := token.SignedString(key)
	require.NoError(t, err, "failed to sign HMAC token")
	return raw
}

// authTestSignRSA creates an RS256-signed token with the given kid and claims.
func authTestSignRSA(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	raw, err := token.SignedString(key)
	require.NoError(t, err, "failed to sign RSA token")
	return raw
}

// authTestSignECDSA creates an ES256-signed token with the given kid and claims.
func authTestSignECDSA(t *testing.T, key *ecdsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	raw, err := token.SignedString(key)
	require.NoError(t, err, "failed to sign ECDSA token")
	return raw
}

// authTestRSAKey generates a 2048-bit RSA key pair.
func authTestRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err, "failed to generate RSA key pair")
	return key
}

// authTestECDSAKey generates a P-256 ECDSA key pair.
func authTestECDSAKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err, "failed to generate ECDSA key pair")
	return key
}

// ---------------------------------------------------------------------------
// fakeProvider — httptest identity provider with discovery + key set
// ---------------------------------------------------------------------------

// fakeProvider serves an openid-configuration document and a key-set
// endpoint, counting fetches of each so tests can assert on refresh and
// coalescing behavior. Keys and the failure switch may be changed while
// the server runs.
type fakeProvider struct {
	srv *httptest.Server

	mu      sync.Mutex
	rsaKeys map[string]*rsa.PublicKey
	ecKeys  map[string]*ecdsa.PublicKey

	discoveryCalls atomic.Int64
	jwksCalls      atomic.Int64

	failing    atomic.Bool
	jwksDelay  time.Duration
	delayJWKSM sync.Mutex
}

// newFakeProvider starts a provider serving the given keys. The server is
// closed automatically when the test ends.
func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	p := &fakeProvider{
		rsaKeys: make(map[string]*rsa.PublicKey),
		ecKeys:  make(map[string]*ecdsa.PublicKey),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		p.discoveryCalls.Add(1)
		if p.failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":   p.srv.URL,
			"jwks_uri": p.srv.URL + "/keys",
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		p.jwksCalls.Add(1)
		if p.failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if d := p.delay(); d > 0 {
			time.Sleep(d)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(p.jwksDocument(t))
	})

	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

// URL returns the provider's base URL, used as the issuer/provider URL.
func (p *fakeProvider) URL() string { return p.srv.URL }

// SetRSAKey installs or replaces an RSA key under the given kid.
func (p *fakeProvider) SetRSAKey(kid string, pub *rsa.PublicKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rsaKeys[kid] = pub
}

// SetECDSAKey installs or replaces an EC key under the given kid.
func (p *fakeProvider) SetECDSAKey(kid string, pub *ecdsa.PublicKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ecKeys[kid] = pub
}

// RemoveKey deletes the key with the given kid, if present.
func (p *fakeProvider) RemoveKey(kid string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.rsaKeys, kid)
	delete(p.ecKeys, kid)
}

// SetFailing switches both endpoints between serving and returning 500.
func (p *fakeProvider) SetFailing(failing bool) {
	p.failing.Store(failing)
}

// SetJWKSDelay makes the key-set endpoint sleep before responding, to widen
// the window for concurrency tests.
func (p *fakeProvider) SetJWKSDelay(d time.Duration) {
	p.delayJWKSM.Lock()
	defer p.delayJWKSM.Unlock()
	p.jwksDelay = d
}

func (p *fakeProvider) delay() time.Duration {
	p.delayJWKSM.Lock()
	defer p.delayJWKSM.Unlock()
	return p.jwksDelay
}

// jwksDocument renders the current keys as a JWKS JSON document.
func (p *fakeProvider) jwksDocument(t *testing.T) []byte {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()

	type jwkEntry struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		Alg string `json:"alg,omitempty"`
		Use string `json:"use,omitempty"`
		N   string `json:"n,omitempty"`
		E   string `json:"e,omitempty"`
		Crv string `json:"crv,omitempty"`
		X   string `json:"x,omitempty"`
		Y   string `json:"y,omitempty"`
	}

	keys := make([]jwkEntry, 0, len(p.rsaKeys)+len(p.ecKeys))
	for kid, pub := range p.rsaKeys {
		keys = append(keys, jwkEntry{
			Kty: "RSA",
			Kid: kid,
			Alg: "RS256",
			Use: "sig",
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}
	for kid, pub := range p.ecKeys {
		keys = append(keys, jwkEntry{
			Kty: "EC",
			Kid: kid,
			Crv: "P-256",
			Use: "sig",
			X:   base64.RawURLEncoding.EncodeToString(pub.X.Bytes()),
			Y:   base64.RawURLEncoding.EncodeToString(pub.Y.Bytes()),
		})
	}

	doc, err := json.Marshal(map[string]any{"keys": keys})
	require.NoError(t, err, "failed to marshal JWKS")
	return doc
}

// newTestConfig returns an authenticator Config pointing at the provider,
// with short timeouts suitable for tests.
func newTestConfig(provider *fakeProvider) Config {
	return Config{
		SharedSecret: Secret(testSharedSecret),
		Issuer:       testIssuer,
		Audience:     testAudience,
		ProviderURL:  provider.URL(),
		ClockSkew:    30 * time.Second,
		KeyCacheTTL:  1 * time.Hour,
		FetchTimeout: 2 * time.Second,
	}
}
