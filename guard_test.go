package authcore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetrina-app/authcore/domain"
	serrors "github.com/vetrina-app/authcore/errors"
)

func contextWithRole(role domain.Role, profileID string) context.Context {
	return domain.ContextWithIdentity(context.Background(), &domain.Identity{
		ID:                "user-1",
		Email:             "user@example.com",
		Role:              role,
		ProviderProfileID: profileID,
	})
}

func TestGuard_Current(t *testing.T) {
	guard := NewGuard()

	identity, ok := guard.Current(context.Background())
	assert.False(t, ok, "anonymous context should yield no identity")
	assert.Nil(t, identity)

	identity, ok = guard.Current(contextWithRole(domain.RoleRegular, ""))
	assert.True(t, ok)
	assert.Equal(t, "user-1", identity.ID)
}

func TestGuard_RequireAuthenticated(t *testing.T) {
	guard := NewGuard()

	_, err := guard.RequireAuthenticated(context.Background())
	require.Error(t, err)
	var authErr *serrors.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, serrors.Unauthenticated, authErr.Code)

	identity, err := guard.RequireAuthenticated(contextWithRole(domain.RoleRegular, ""))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleRegular, identity.Role)
}

// Anonymous callers get the unauthenticated failure even when they would
// also fail the role check: authentication is checked first.
func TestGuard_RequireRole_AnonymousGetsUnauthenticated(t *testing.T) {
	guard := NewGuard()

	_, err := guard.RequireRole(context.Background(), domain.RoleAdministrator)
	require.Error(t, err)
	var authErr *serrors.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, serrors.Unauthenticated, authErr.Code)
	assert.Empty(t, authErr.RequiredRoles)
}

func TestGuard_RequireRole(t *testing.T) {
	guard := NewGuard()

	t.Run("allowed role passes", func(t *testing.T) {
		identity, err := guard.RequireRole(contextWithRole(domain.RoleProvider, "pp-1"),
			domain.RoleProvider, domain.RoleAdministrator)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleProvider, identity.Role)
	})

	t.Run("disallowed role carries required set", func(t *testing.T) {
		_, err := guard.RequireRole(contextWithRole(domain.RoleRegular, ""), domain.RoleAdministrator)
		require.Error(t, err)
		var authErr *serrors.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, serrors.Forbidden, authErr.Code)
		assert.Equal(t, []string{"ADMINISTRATOR"}, authErr.RequiredRoles)
	})
}

func TestGuard_RequireProviderContext(t *testing.T) {
	guard := NewGuard()

	t.Run("provider with profile passes unchanged", func(t *testing.T) {
		identity, err := guard.RequireProviderContext(contextWithRole(domain.RoleProvider, "pp-1"))
		require.NoError(t, err)
		assert.Equal(t, "user-1", identity.ID)
		assert.Equal(t, "pp-1", identity.ProviderProfileID)
	})

	t.Run("provider without profile is mid-onboarding", func(t *testing.T) {
		_, err := guard.RequireProviderContext(contextWithRole(domain.RoleProvider, ""))
		require.Error(t, err)
		var authErr *serrors.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, serrors.ProfileNotFound, authErr.Code)
	})

	t.Run("administrator passes without a profile", func(t *testing.T) {
		_, err := guard.RequireProviderContext(contextWithRole(domain.RoleAdministrator, ""))
		assert.NoError(t, err)
	})

	t.Run("regular account is forbidden", func(t *testing.T) {
		_, err := guard.RequireProviderContext(contextWithRole(domain.RoleRegular, ""))
		var authErr *serrors.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, serrors.Forbidden, authErr.Code)
	})

	t.Run("anonymous is unauthenticated, not forbidden", func(t *testing.T) {
		_, err := guard.RequireProviderContext(context.Background())
		var authErr *serrors.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, serrors.Unauthenticated, authErr.Code)
	})
}

func TestGuard_RequireAdministrator(t *testing.T) {
	guard := NewGuard()

	_, err := guard.RequireAdministrator(contextWithRole(domain.RoleRegular, ""))
	var authErr *serrors.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, serrors.Forbidden, authErr.Code)

	identity, err := guard.RequireAdministrator(contextWithRole(domain.RoleAdministrator, ""))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdministrator, identity.Role)
}
