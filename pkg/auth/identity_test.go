package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityType_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, IdentityTypeUser.Valid())
	assert.True(t, IdentityTypeService.Valid())
	assert.True(t, IdentityTypeSystem.Valid())
	assert.False(t, IdentityType("robot").Valid())
	assert.False(t, IdentityType("").Valid())
}

func TestNewUserIdentity(t *testing.T) {
	t.Parallel()

	identity, err := NewUserIdentity("user-1", "a@example.com", "Alex", map[string]any{"sub": "user-1"})
	require.NoError(t, err)

	assert.Equal(t, "user-1", identity.ID())
	assert.Equal(t, IdentityTypeUser, identity.Type())
	assert.Equal(t, "a@example.com", identity.Email())
	assert.Equal(t, "Alex", identity.DisplayName())
}

func TestNewUserIdentity_RequiresID(t *testing.T) {
	t.Parallel()

	_, err := NewUserIdentity("", "a@example.com", "Alex", nil)
	assert.Error(t, err)
}

func TestNewUserIdentity_AllowsEmptyEmail(t *testing.T) {
	t.Parallel()

	identity, err := NewUserIdentity("user-1", "", "", map[string]any{"sub": "user-1"})
	require.NoError(t, err)
	assert.Empty(t, identity.Email())
}

// Claims are copied in and out; neither the caller's map nor the returned
// map can mutate the identity.
func TestUserIdentity_ClaimsImmutable(t *testing.T) {
	t.Parallel()

	source := map[string]any{"sub": "user-1", "role": "member"}
	identity, err := NewUserIdentity("user-1", "", "", source)
	require.NoError(t, err)

	source["role"] = "admin"
	assert.Equal(t, "member", identity.Claims()["role"])

	leaked := identity.Claims()
	leaked["role"] = "admin"
	assert.Equal(t, "member", identity.Claims()["role"])
}

func TestNewServiceIdentity(t *testing.T) {
	t.Parallel()

	identity, err := NewServiceIdentity("svc-1", "workout-sync", map[string]any{"sub": "svc-1"})
	require.NoError(t, err)

	assert.Equal(t, "svc-1", identity.ID())
	assert.Equal(t, IdentityTypeService, identity.Type())
	assert.Equal(t, "workout-sync", identity.ServiceName())
}

func TestNewServiceIdentity_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewServiceIdentity("", "workout-sync", nil)
	assert.Error(t, err)

	_, err = NewServiceIdentity("svc-1", "", nil)
	assert.Error(t, err)
}
