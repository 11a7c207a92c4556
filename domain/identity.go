package domain

// Identity is the authenticated principal for a single request. It is
// materialized from a validated session token by the authn middleware and
// never persisted; the durable account lives in User.
type Identity struct {
	ID    string
	Email string
	Role  Role

	// ProviderProfileID is empty for accounts without a storefront profile.
	// A PROVIDER-role identity without one is mid-onboarding.
	ProviderProfileID string
	ProviderApproved  bool
}

// HasProviderProfile reports whether the identity carries a storefront
// profile reference.
func (i *Identity) HasProviderProfile() bool {
	return i.ProviderProfileID != ""
}
