package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityContext_RoundTrip(t *testing.T) {
	t.Parallel()

	identity, err := NewUserIdentity("user-123", "a@example.com", "A", map[string]any{"sub": "user-123"})
	require.NoError(t, err)

	ctx := ContextWithIdentity(context.Background(), identity)
	got, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "user-123", got.ID())
}

func TestIdentityFromContext_Absent(t *testing.T) {
	t.Parallel()

	got, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestMustIdentityFromContext_PanicsWhenAbsent(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		MustIdentityFromContext(context.Background())
	})
}

func TestTokenContext_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := ContextWithToken(context.Background(), "raw-token")
	got, ok := TokenFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "raw-token", got)

	_, ok = TokenFromContext(context.Background())
	assert.False(t, ok)
}

func TestTraceIDFromContext_NoActiveTrace(t *testing.T) {
	t.Parallel()

	id, ok := TraceIDFromContext(context.Background())
	assert.False(t, ok)
	assert.Empty(t, id)

	id, ok = SpanIDFromContext(context.Background())
	assert.False(t, ok)
	assert.Empty(t, id)
}
