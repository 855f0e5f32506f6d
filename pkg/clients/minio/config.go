package minio

import (
	"errors"
	"time"
)

// maxStatementTruncateLen caps operation descriptions recorded in trace
// spans. Longer statements are truncated so object keys containing user
// identifiers do not leak into telemetry systems.
const maxStatementTruncateLen = 100

// Default configuration settings for FitStack Kubernetes deployments.
const (
	// DefaultEndpoint is the Kubernetes Service DNS name for the MinIO
	// server in the FitStack data namespace.
	DefaultEndpoint = "minio.data.svc.cluster.local:9000"

	// DefaultRegion is the default S3 region for MinIO.
	DefaultRegion = "us-east-1"

	// DefaultUseSSL disables application-level TLS by default because
	// the service mesh provides mTLS at the network layer. For direct
	// internet-facing MinIO deployments, set UseSSL to true.
	DefaultUseSSL = false

	// DefaultMediaBucket is the bucket holding user media: progress
	// photos and workout export files.
	DefaultMediaBucket = "fitstack-media"

	// DefaultPresignExpiry is how long presigned download and upload
	// URLs remain valid. Mobile clients fetch media through presigned
	// URLs so the API never proxies image bytes.
	DefaultPresignExpiry = 15 * time.Minute

	// DefaultHealthTimeout is the maximum time for a health check probe
	// when the caller's context has no deadline.
	DefaultHealthTimeout = 5 * time.Second
)

// Secret is a string type that prevents accidental logging of sensitive
// values such as MinIO secret keys. Its [Secret.String] and
// [Secret.GoString] methods return a redacted placeholder. Use
// [Secret.Value] to retrieve the actual secret value.
type Secret string

// redacted is the placeholder string returned by Secret's string methods.
const redacted = "[REDACTED]"

// String returns "[REDACTED]" to prevent accidental logging of the secret.
func (s Secret) String() string {
	return redacted
}

// GoString returns "[REDACTED]" for fmt.Sprintf("%#v", secret) safety.
func (s Secret) GoString() string {
	return redacted
}

// Value returns the actual secret string. Handle the returned value with
// care; avoid logging, serializing, or storing it in plaintext.
func (s Secret) Value() string {
	return string(s)
}

// MarshalText implements encoding.TextMarshaler, returning "[REDACTED]"
// so the secret never appears in JSON or YAML output.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// Config holds the MinIO object storage connection configuration. In
// FitStack Kubernetes deployments the values are injected as environment
// variables by the External Secrets Operator.
//
// # Kubernetes Example
//
//	cfg := minio.DefaultConfig()
//	cfg.AccessKey = os.Getenv("MINIO_ACCESS_KEY")
//	cfg.SecretKey = minio.Secret(os.Getenv("MINIO_SECRET_KEY"))
//	client, err := minio.NewClient(ctx, *cfg)
type Config struct {
	// Endpoint is the MinIO server hostname and port.
	// Default: "minio.data.svc.cluster.local:9000"
	// Environment variable: MINIO_ENDPOINT
	Endpoint string `json:"endpoint,omitempty" env:"MINIO_ENDPOINT"`

	// AccessKey is the MinIO access key for authentication.
	// Environment variable: MINIO_ACCESS_KEY
	AccessKey string `json:"access_key,omitempty" env:"MINIO_ACCESS_KEY"`

	// SecretKey is the MinIO secret key. Uses the [Secret] type to
	// prevent accidental logging.
	// Environment variable: MINIO_SECRET_KEY
	SecretKey Secret `json:"-" env:"MINIO_SECRET_KEY"`

	// Region is the S3 region for the MinIO server.
	// Default: "us-east-1"
	// Environment variable: MINIO_REGION
	Region string `json:"region,omitempty" env:"MINIO_REGION"`

	// UseSSL enables TLS for the connection to MinIO.
	// Default: false (the mesh provides mTLS)
	// Environment variable: MINIO_USE_SSL
	UseSSL bool `json:"use_ssl,omitempty" env:"MINIO_USE_SSL"`

	// MediaBucket is the bucket holding progress photos and workout
	// exports.
	// Default: "fitstack-media"
	// Environment variable: MINIO_MEDIA_BUCKET
	MediaBucket string `json:"media_bucket,omitempty" env:"MINIO_MEDIA_BUCKET"`

	// PresignExpiry is the validity window for presigned URLs returned
	// to mobile clients.
	// Default: 15m
	// Environment variable: MINIO_PRESIGN_EXPIRY
	PresignExpiry time.Duration `json:"presign_expiry,omitempty" env:"MINIO_PRESIGN_EXPIRY"`

	// HealthBucket is the bucket name used for health checks. When
	// empty, the health check uses a probe bucket name
	// ("health-check-probe") and calls BucketExists, which tests
	// connectivity without requiring the bucket to exist.
	// Environment variable: MINIO_HEALTH_BUCKET
	HealthBucket string `json:"health_bucket,omitempty" env:"MINIO_HEALTH_BUCKET"`
}

// DefaultConfig returns a Config with default values suitable for the
// FitStack Kubernetes deployment. Callers should override fields as
// needed before passing the config to [NewClient].
func DefaultConfig() *Config {
	return &Config{
		Endpoint:      DefaultEndpoint,
		Region:        DefaultRegion,
		UseSSL:        DefaultUseSSL,
		MediaBucket:   DefaultMediaBucket,
		PresignExpiry: DefaultPresignExpiry,
	}
}

// Validate checks the configuration for invalid values and applies
// defaults for zero-valued fields. Returns the first validation error
// encountered, or nil if the configuration is valid.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("minio: config endpoint must not be empty")
	}
	if c.AccessKey == "" {
		return errors.New("minio: config access_key must not be empty")
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.MediaBucket == "" {
		c.MediaBucket = DefaultMediaBucket
	}
	if c.PresignExpiry < 0 {
		return errors.New("minio: config presign_expiry must not be negative")
	}
	if c.PresignExpiry == 0 {
		c.PresignExpiry = DefaultPresignExpiry
	}
	return nil
}

// truncateStatement truncates an operation description to
// [maxStatementTruncateLen] runes for safe inclusion in trace spans.
// Truncation is rune-aware to avoid splitting multi-byte UTF-8 characters.
func truncateStatement(s string) string {
	runes := []rune(s)
	if len(runes) <= maxStatementTruncateLen {
		return s
	}
	return string(runes[:maxStatementTruncateLen]) + "..."
}
