package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("ada@example.com"))
	assert.False(t, ValidEmail("Ada <ada@example.com>"))
	assert.False(t, ValidEmail("ada"))
	assert.False(t, ValidEmail(""))
}

func TestIdentity(t *testing.T) {
	assert.True(t, Identity{Role: RoleAdmin}.IsAdmin())
	assert.False(t, Identity{Role: RoleUser}.IsAdmin())
	assert.Equal(t, "Ada Lovelace", Identity{FirstName: "Ada", LastName: "Lovelace"}.DisplayName())
	assert.Equal(t, "Ada", Identity{FirstName: "Ada"}.DisplayName())
	assert.False(t, Role("owner").Valid())
}
