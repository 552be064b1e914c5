package randx

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase62(t *testing.T) {
	s, err := Base62(32)
	require.NoError(t, err)
	assert.Len(t, s, 32)
	assert.True(t, IsBase62(s))

	assert.Len(t, ObjectName(), ObjectNameLength)
	assert.NotEqual(t, ObjectName(), ObjectName())
}

func TestIsBase62(t *testing.T) {
	assert.False(t, IsBase62(""))
	assert.False(t, IsBase62("abc-def"))
	assert.True(t, IsBase62("Zz09"))
}

func TestIDs(t *testing.T) {
	_, err := uuid.Parse(ConnectionID())
	assert.NoError(t, err)
	assert.NotEqual(t, MessageID(), MessageID())
}
