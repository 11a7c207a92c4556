package domain

// Role is the closed set of account roles in the marketplace.
type Role string

const (
	RoleRegular       Role = "REGULAR"       // customer account
	RoleProvider      Role = "PROVIDER"      // seller with a storefront
	RoleAdministrator Role = "ADMINISTRATOR" // moderation and ops
)

// AllRoles lists every valid role, in no particular order.
var AllRoles = []Role{RoleRegular, RoleProvider, RoleAdministrator}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
