package authcore

import (
	"context"

	"github.com/vetrina-app/authcore/domain"
	serrors "github.com/vetrina-app/authcore/errors"
)

// Guard gates operations by authenticated identity and role. It only reads
// the identity placed in the request context by the authn middleware; it
// never resolves or persists sessions itself.
//
// Check precedence is fixed: authentication before role before provider
// profile. A caller with no session gets an unauthenticated failure even
// when it would also fail the role check, and callers must not reorder the
// checks because user-facing messages depend on this precedence.
type Guard struct{}

// NewGuard creates a Guard.
func NewGuard() *Guard {
	return &Guard{}
}

// Current returns the identity resolved from the request context, or false
// when the request is anonymous. It never fails; absence of an identity is
// a normal outcome.
func (g *Guard) Current(ctx context.Context) (*domain.Identity, bool) {
	return domain.IdentityFromContext(ctx)
}

// RequireAuthenticated returns the identity or an unauthenticated failure.
// Every privileged operation performs this check first.
func (g *Guard) RequireAuthenticated(ctx context.Context) (*domain.Identity, error) {
	identity, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return nil, serrors.NewUnauthenticated()
	}
	return identity, nil
}

// RequireRole returns the identity when its role is in allowed, propagating
// the unauthenticated failure unchanged for anonymous callers.
func (g *Guard) RequireRole(ctx context.Context, allowed ...domain.Role) (*domain.Identity, error) {
	identity, err := g.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}

	for _, role := range allowed {
		if identity.Role == role {
			return identity, nil
		}
	}

	required := make([]string, 0, len(allowed))
	for _, role := range allowed {
		required = append(required, role.String())
	}
	return nil, serrors.NewForbidden(required...)
}

// RequireProviderContext admits providers and administrators. A
// PROVIDER-role identity with no storefront profile is rejected separately:
// the role was granted but onboarding has not created the profile record
// yet, and provider operations need one.
func (g *Guard) RequireProviderContext(ctx context.Context) (*domain.Identity, error) {
	identity, err := g.RequireRole(ctx, domain.RoleProvider, domain.RoleAdministrator)
	if err != nil {
		return nil, err
	}

	if identity.Role == domain.RoleProvider && !identity.HasProviderProfile() {
		return nil, serrors.NewProviderProfileNotFound()
	}
	return identity, nil
}

// RequireAdministrator is shorthand for RequireRole(ADMINISTRATOR).
func (g *Guard) RequireAdministrator(ctx context.Context) (*domain.Identity, error) {
	return g.RequireRole(ctx, domain.RoleAdministrator)
}
