package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"6 characters", "123456", false},
		{"long password", "this-is-a-very-long-password-123!@#", false},
		{"5 characters", "12345", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPasswordTooShort)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHashPassword_ShortAdminSecret(t *testing.T) {
	// bootstrap secrets such as "1234" are hashed without a length rule
	hash, err := HashPassword("1234")
	require.NoError(t, err)
	assert.True(t, CheckPassword("1234", hash))
}

func TestHashPassword_Empty(t *testing.T) {
	hash, err := HashPassword("")
	assert.ErrorIs(t, err, ErrPasswordRequired)
	assert.Empty(t, hash)
}

func TestHashPassword_DifferentHashesForSamePassword(t *testing.T) {
	password := "testpassword123"

	hash1, err := HashPassword(password)
	require.NoError(t, err)

	hash2, err := HashPassword(password)
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)
	assert.True(t, len(hash1) >= 60, "bcrypt hash should be at least 60 chars")
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("Password123")
	require.NoError(t, err)

	assert.True(t, CheckPassword("Password123", hash))
	assert.False(t, CheckPassword("password123", hash))
	assert.False(t, CheckPassword("", hash))
	assert.False(t, CheckPassword("Password123", "invalid-hash"))
	assert.False(t, CheckPassword("Password123", ""))
}
