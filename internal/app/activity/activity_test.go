package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionType(t *testing.T) {
	for _, s := range []string{"CREATE", "UPDATE", "DELETE", "LOGIN", "LOGOUT", "UPLOAD", "DOWNLOAD", "OTHER"} {
		a, ok := ParseActionType(s)
		assert.True(t, ok, s)
		assert.Equal(t, ActionType(s), a)
	}

	for _, s := range []string{"", "create", "PURGE"} {
		_, ok := ParseActionType(s)
		assert.False(t, ok, s)
	}
}

func TestViewFinalize(t *testing.T) {
	name := "Marie Curie"
	blank := " "

	v := View{Entry: Entry{StudentName: &name}}
	v.Finalize()
	require.NotNil(t, v.EntityFallback)
	assert.Equal(t, "Marie Curie", *v.EntityFallback)

	v = View{Entry: Entry{StudentName: &blank}}
	v.Finalize()
	assert.Equal(t, DeletedStudentLabel, *v.EntityFallback)

	v = View{Entry: Entry{StudentName: &name}, StudentExists: true}
	v.Finalize()
	assert.Nil(t, v.EntityFallback)
}
