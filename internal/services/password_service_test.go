package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	ps := NewPasswordService()

	hash, err := ps.HashPassword("s3cret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", hash)

	assert.NoError(t, ps.VerifyPassword("s3cret-password", hash))
	assert.Error(t, ps.VerifyPassword("wrong-password", hash))
}

func TestHashPasswordRejectsShort(t *testing.T) {
	ps := NewPasswordService()

	_, err := ps.HashPassword("short")
	assert.Error(t, err)
}

func TestValidatePasswordStrength(t *testing.T) {
	ps := NewPasswordService()

	assert.NoError(t, ps.ValidatePasswordStrength("portal123"))
	assert.Error(t, ps.ValidatePasswordStrength("short1"))
	assert.Error(t, ps.ValidatePasswordStrength("lettersonly"))
	assert.Error(t, ps.ValidatePasswordStrength("12345678"))
}
