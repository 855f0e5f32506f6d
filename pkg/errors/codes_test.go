package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_Category(t *testing.T) {
	tests := []struct {
		name string
		code Code
		want string
	}{
		{name: "validation", code: CodeValidation, want: "VAL"},
		{name: "authentication", code: CodeAuthentication, want: "AUTH"},
		{name: "authentication expired", code: CodeAuthenticationExpired, want: "AUTH"},
		{name: "authentication key source", code: CodeAuthenticationKeySource, want: "AUTH"},
		{name: "authorization", code: CodeAuthorization, want: "AUTHZ"},
		{name: "not found workout", code: CodeNotFoundWorkout, want: "NF"},
		{name: "conflict", code: CodeConflict, want: "CONF"},
		{name: "internal database", code: CodeInternalDatabase, want: "INT"},
		{name: "unavailable dependency", code: CodeUnavailableDependency, want: "UNAVAIL"},
		{name: "timeout", code: CodeTimeout, want: "TIMEOUT"},
		{name: "no underscore", code: Code("WEIRD"), want: "WEIRD"},
		{name: "empty", code: Code(""), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.Category())
		})
	}
}

func TestCode_String(t *testing.T) {
	assert.Equal(t, "AUTH_005", CodeAuthenticationKeySource.String())
	assert.Equal(t, "NF_002", CodeNotFoundWorkout.String())
}

// Codes are a public contract; a changed value is a breaking change even
// when the constant name stays the same.
func TestCode_StableValues(t *testing.T) {
	stable := map[Code]string{
		CodeValidation:               "VAL_001",
		CodeValidationRequired:       "VAL_002",
		CodeValidationFormat:         "VAL_003",
		CodeAuthentication:           "AUTH_001",
		CodeAuthenticationExpired:    "AUTH_002",
		CodeAuthenticationMalformed:  "AUTH_003",
		CodeAuthenticationUnknownKey: "AUTH_004",
		CodeAuthenticationKeySource:  "AUTH_005",
		CodeAuthorization:            "AUTHZ_001",
		CodeAuthorizationDenied:      "AUTHZ_002",
		CodeNotFound:                 "NF_001",
		CodeNotFoundWorkout:          "NF_002",
		CodeNotFoundProfile:          "NF_003",
		CodeConflict:                 "CONF_001",
		CodeConflictAlreadyExists:    "CONF_002",
		CodeInternal:                 "INT_001",
		CodeInternalDatabase:         "INT_002",
		CodeInternalConfiguration:    "INT_003",
		CodeUnavailable:              "UNAVAIL_001",
		CodeUnavailableDependency:    "UNAVAIL_002",
		CodeTimeout:                  "TIMEOUT_001",
		CodeTimeoutDependency:        "TIMEOUT_002",
	}
	for code, want := range stable {
		assert.Equal(t, want, string(code))
	}
}
