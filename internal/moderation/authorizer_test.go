package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowList(t *testing.T) {
	auth := NewAllowList("admin@example.com", "mod@example.com", "")

	assert.True(t, auth.IsAuthorized("admin@example.com"))
	assert.True(t, auth.IsAuthorized("mod@example.com"))
	assert.False(t, auth.IsAuthorized("user@example.com"))
	assert.False(t, auth.IsAuthorized(""))

	assert.Equal(t, []string{"admin@example.com", "mod@example.com"}, auth.Admins())
}

func TestAllowListDefaults(t *testing.T) {
	auth := NewAllowList()

	for _, admin := range DefaultAdmins {
		assert.True(t, auth.IsAuthorized(admin))
	}
	assert.False(t, auth.IsAuthorized("random@maru.app"))
}
