// Package fixtures provides shared test data constants and factory
// functions for the FitStack backend test suite.
//
// Using common constants for test identities prevents magic strings
// in tests and ensures consistency across packages.
package fixtures

// Standard profile values used across store and integration tests.
const (
	// ProfileID is the default profile ID for unit tests.
	ProfileID = "user-abc-123"

	// ProfileDisplayName is the default display name for unit tests.
	ProfileDisplayName = "Alex Carter"

	// AltProfileID is an alternative profile ID for tests requiring
	// two users, typically to verify row-level security isolation.
	AltProfileID = "user-def-456"

	// AltProfileDisplayName is an alternative display name.
	AltProfileDisplayName = "Sam Rivera"
)

// Standard workout values used in store tests.
const (
	// WorkoutTitle is the default workout title for unit tests.
	WorkoutTitle = "Morning Push Day"

	// ExerciseName is the default exercise name for workout set tests.
	ExerciseName = "bench-press"
)

// Standard identity values used in auth tests.
const (
	// TestSubject is the default subject claim for test identities.
	TestSubject = "user-abc-123"

	// TestIssuer is the default issuer for test identities.
	TestIssuer = "https://auth.fitstack.test"

	// TestAudience is the default audience for test identities.
	TestAudience = "fitstack-core"
)

// Standard configuration values used in config loader tests.
const (
	// TestEnvPrefix is the default environment variable prefix for config tests.
	TestEnvPrefix = "TESTAPP"

	// TestConfigYAML is a minimal valid YAML configuration for tests.
	TestConfigYAML = `host: localhost
port: 8080
database: testdb
`

	// TestConfigJSON is a minimal valid JSON configuration for tests.
	TestConfigJSON = `{
  "host": "localhost",
  "port": 8080,
  "database": "testdb"
}`
)

// Standard database configuration values used in postgres client tests.
const (
	// TestDBHost is the default database host for test configurations.
	TestDBHost = "localhost"

	// TestDBPort is the default database port for test configurations.
	TestDBPort = 5432

	// TestDBName is the default database name for test configurations.
	TestDBName = "testdb"

	// TestDBUser is the default database user for test configurations.
	TestDBUser = "testuser"

	// TestDBPassword is the default database password for test configurations.
	// This is a deliberately weak value suitable only for unit tests.
	TestDBPassword = "testpass"
)
