package errors

import (
	"fmt"
	"strings"
)

// AuthError is the serializable failure shape produced by the authorization
// guard. The Code values form a closed set; transport layers map them to
// status codes, user-facing copy keys off Code, never Description.
type AuthError struct {
	Code          string   `json:"error"`
	Description   string   `json:"error_description,omitempty"`
	RequiredRoles []string `json:"required_roles,omitempty"`
}

func (e *AuthError) Error() string {
	if len(e.RequiredRoles) > 0 {
		return fmt.Sprintf("%s: %s (requires %s)", e.Code, e.Description, strings.Join(e.RequiredRoles, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Guard error codes.
const (
	Unauthenticated = "unauthenticated"
	Forbidden       = "forbidden"
	ProfileNotFound = "provider_profile_not_found"
)

// NewUnauthenticated signals a request with no valid session. Callers that
// would also fail a role check still get this error first.
func NewUnauthenticated() *AuthError {
	return &AuthError{
		Code:        Unauthenticated,
		Description: "authentication required",
	}
}

// NewForbidden signals an authenticated identity whose role is not in the
// allowed set. The roles that would have been accepted are carried so the
// response can say what was required.
func NewForbidden(required ...string) *AuthError {
	return &AuthError{
		Code:          Forbidden,
		Description:   "insufficient privileges",
		RequiredRoles: required,
	}
}

// NewProviderProfileNotFound signals a PROVIDER-role identity whose
// storefront profile has not been created yet (mid-onboarding state).
func NewProviderProfileNotFound() *AuthError {
	return &AuthError{
		Code:        ProfileNotFound,
		Description: "provider profile not found for this account",
	}
}
