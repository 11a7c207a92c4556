package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	for _, role := range AllRoles {
		assert.True(t, role.Valid(), "role %s", role)
	}
	assert.False(t, Role("SUPERUSER").Valid())
	assert.False(t, Role("regular").Valid(), "role values are case-sensitive")
	assert.False(t, Role("").Valid())
}
