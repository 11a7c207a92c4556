package domain

import "context"

type identityContextKey struct{}

// ContextWithIdentity returns a child context carrying the authenticated
// identity. The authn middleware calls this once per request.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext retrieves the request identity, if any. Absence is a
// normal outcome (anonymous request), not an error.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}
