package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	plain := New(CodeNotFoundWorkout, "workout not found")
	assert.Equal(t, "NF_002: workout not found", plain.Error())

	wrapped := Wrap(stderrors.New("no rows"), CodeInternalDatabase, "query failed")
	assert.Equal(t, "INT_002: query failed: no rows", wrapped.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, CodeUnavailableDependency, "postgres unreachable")

	assert.True(t, stderrors.Is(err, cause))
	assert.Nil(t, New(CodeInternal, "boom").Unwrap())
}

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeAuthentication, http.StatusUnauthorized},
		{CodeAuthenticationExpired, http.StatusUnauthorized},
		{CodeAuthorizationDenied, http.StatusForbidden},
		{CodeNotFoundProfile, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeInternal, http.StatusInternalServerError},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeTimeoutDependency, http.StatusGatewayTimeout},
		{Code("UNKNOWN_001"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "x").HTTPStatus())
		})
	}
}

func TestError_WithDetail(t *testing.T) {
	base := New(CodeValidation, "invalid field")
	detailed := base.WithDetail("field", "duration_seconds")

	assert.Equal(t, "duration_seconds", detailed.Details["field"])
	assert.Nil(t, base.Details, "original must not be mutated")

	merged := detailed.WithDetails(map[string]any{"field": "reps", "max": 100})
	assert.Equal(t, "reps", merged.Details["field"])
	assert.Equal(t, 100, merged.Details["max"])
	assert.Equal(t, "duration_seconds", detailed.Details["field"])
}

func TestError_Format(t *testing.T) {
	err := Wrap(stderrors.New("boom"), CodeInternal, "oops").WithDetail("op", "save")

	assert.Equal(t, "INT_001: oops: boom", fmt.Sprintf("%v", err))
	assert.Equal(t, "INT_001: oops: boom", fmt.Sprintf("%s", err))
	assert.Equal(t, `"INT_001: oops: boom"`, fmt.Sprintf("%q", err))

	verbose := fmt.Sprintf("%+v", err)
	assert.Contains(t, verbose, `Code: "INT_001"`)
	assert.Contains(t, verbose, "op:save")
	assert.Contains(t, verbose, "Cause: boom")
}

func TestWrap_NilInput(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeInternal, "ignored"))
	assert.Nil(t, Wrapf(nil, CodeInternal, "ignored %d", 1))
	assert.Nil(t, FromError(nil))
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		code Code
	}{
		{"Validation", Validation("bad input"), CodeValidation},
		{"Validationf", Validationf("bad %s", "reps"), CodeValidation},
		{"Unauthorized", Unauthorized("authentication required"), CodeAuthentication},
		{"Forbidden", Forbidden("not yours"), CodeAuthorization},
		{"NotFound", NotFound("gone"), CodeNotFound},
		{"NotFoundf", NotFoundf("workout %s", "abc"), CodeNotFound},
		{"Conflict", Conflict("already exists"), CodeConflict},
		{"Internal", Internal("boom"), CodeInternal},
		{"Internalf", Internalf("boom %d", 2), CodeInternal},
		{"Unavailable", Unavailable("down"), CodeUnavailable},
		{"Timeout", Timeout("too slow"), CodeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestFromError(t *testing.T) {
	orig := New(CodeNotFoundWorkout, "workout not found")
	assert.Same(t, orig, FromError(orig))

	chained := fmt.Errorf("store: %w", orig)
	assert.Same(t, orig, FromError(chained))

	converted := FromError(stderrors.New("surprise"))
	require.NotNil(t, converted)
	assert.Equal(t, CodeInternal, converted.Code)
}

func TestChecks(t *testing.T) {
	authErr := New(CodeAuthenticationExpired, "token expired")
	dbErr := Wrap(stderrors.New("conn reset"), CodeUnavailableDependency, "postgres down")
	plain := stderrors.New("plain")

	assert.Equal(t, CodeAuthenticationExpired, GetCode(authErr))
	assert.Equal(t, Code(""), GetCode(plain))
	assert.Equal(t, Code(""), GetCode(nil))

	assert.True(t, HasCode(authErr, CodeAuthenticationExpired))
	assert.False(t, HasCode(authErr, CodeAuthentication))

	assert.True(t, IsAuthentication(authErr))
	assert.False(t, IsAuthorization(authErr))
	assert.True(t, IsUnavailable(dbErr))
	assert.True(t, IsRetryable(dbErr))
	assert.False(t, IsRetryable(authErr))
	assert.False(t, IsRetryable(plain))

	assert.True(t, IsClientError(authErr))
	assert.False(t, IsServerError(authErr))
	assert.True(t, IsServerError(dbErr))

	wrapped := fmt.Errorf("handler: %w", authErr)
	assert.True(t, IsAuthentication(wrapped))
	e, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeAuthenticationExpired, e.Code)
}
