package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := HashPassword("123456", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "123456", hash)

	assert.True(t, VerifyPassword(hash, "123456"))
	assert.False(t, VerifyPassword(hash, "654321"))
	assert.False(t, VerifyPassword("", "123456"))
}

func TestHashIsSalted(t *testing.T) {
	a, err := HashPassword("123456", bcrypt.MinCost)
	require.NoError(t, err)
	b, err := HashPassword("123456", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashRejectsEmpty(t *testing.T) {
	_, err := HashPassword("", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmptyPassword)
}
