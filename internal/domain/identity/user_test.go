package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("hashes the password", func(t *testing.T) {
		u, err := NewUser("Maria Supervisor", "maria", RoleSupervisor, "s3cret")
		require.NoError(t, err)
		assert.NotEqual(t, "s3cret", u.PasswordHash)
		assert.True(t, u.VerifyPassword("s3cret"))
		assert.False(t, u.VerifyPassword("S3CRET"))
		assert.False(t, u.Protected)

		events := u.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeUserCreated, events[0].EventType())
	})

	t.Run("validates fields", func(t *testing.T) {
		_, err := NewUser("", "maria", RoleSupervisor, "123")
		assert.Error(t, err)
		_, err = NewUser("Maria", "m", RoleSupervisor, "123")
		assert.Contains(t, err.Error(), "at least 3 characters")
		_, err = NewUser("Maria", "maria silva", RoleSupervisor, "123")
		assert.Contains(t, err.Error(), "can only contain")
		_, err = NewUser("Maria", "maria", Role("OWNER"), "123")
		assert.Contains(t, err.Error(), "Role must be")
		_, err = NewUser("Maria", "maria", RoleSupervisor, "")
		assert.Contains(t, err.Error(), "Password cannot be empty")
	})
}

func TestUser_SetPassword(t *testing.T) {
	u, err := NewUser("Joao", "joao", RoleConferente, "123")
	require.NoError(t, err)
	u.ClearDomainEvents()
	version := u.Version

	require.NoError(t, u.SetPassword("novaSenha"))
	assert.True(t, u.VerifyPassword("novaSenha"))
	assert.False(t, u.VerifyPassword("123"))
	assert.Equal(t, version+1, u.Version)
	assert.Equal(t, EventTypeUserPasswordReset, u.GetDomainEvents()[0].EventType())
}

func TestUsernameMatches(t *testing.T) {
	u := &User{Username: "DIEGO.SILVA"}
	assert.True(t, u.UsernameMatches("diego.silva"))
	assert.True(t, u.UsernameMatches(" Diego.Silva "))
	assert.False(t, u.UsernameMatches("diego"))
	assert.Equal(t, UsernameKey("DIEGO.SILVA"), UsernameKey("diego.silva"))
}

func TestRole(t *testing.T) {
	assert.True(t, RoleAdmin.CanSupervise())
	assert.True(t, RoleSupervisor.CanSupervise())
	assert.False(t, RoleConferente.CanSupervise())
	assert.False(t, Role("GUEST").IsValid())
}
