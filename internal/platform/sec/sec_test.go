// Copyright (c) 2026 CandidHQ. All rights reserved.

package sec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candidhq/intake/internal/platform/sec"
)

/*
TestGeneratePassword verifies length and alphabet membership of generated passwords.
*/
func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		password, err := sec.GeneratePassword()
		require.NoError(t, err)

		assert.Len(t, password, sec.GeneratedPasswordLength)
		for _, char := range password {
			assert.True(t, strings.ContainsRune(sec.PasswordAlphabet, char),
				"character %q outside the declared alphabet", char)
		}
		seen[password] = true
	}

	// 50 independent 12-character draws colliding would indicate a broken RNG.
	assert.Greater(t, len(seen), 45)
}

/*
TestGenerateSuffix verifies the username disambiguator is zero-padded and numeric.
*/
func TestGenerateSuffix(t *testing.T) {
	for i := 0; i < 50; i++ {
		suffix, err := sec.GenerateSuffix(3)
		require.NoError(t, err)

		assert.Len(t, suffix, 3)
		for _, char := range suffix {
			assert.True(t, char >= '0' && char <= '9')
		}
	}
}

/*
TestHashPassword verifies the bcrypt hash round-trip.
*/
func TestHashPassword(t *testing.T) {
	hash, err := sec.HashPassword("s3cret-Pass!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-Pass!", hash)

	assert.True(t, sec.CheckPasswordHash("s3cret-Pass!", hash))
	assert.False(t, sec.CheckPasswordHash("wrong-password", hash))
}

/*
TestGenerateSecureToken verifies token length and uniqueness.
*/
func TestGenerateSecureToken(t *testing.T) {
	first, err := sec.GenerateSecureToken(16)
	require.NoError(t, err)
	second, err := sec.GenerateSecureToken(16)
	require.NoError(t, err)

	assert.Len(t, first, 32) // hex doubles the byte length
	assert.NotEqual(t, first, second)
}

/*
TestServiceToken verifies the sign/verify cycle of internal service credentials.
*/
func TestServiceToken(t *testing.T) {
	verifier := sec.NewServiceTokenVerifier("unit-test-secret", "intake-internal", "intake-api")

	token, err := verifier.SignServiceToken("sessions:cleanup", time.Minute)
	require.NoError(t, err)

	claims, err := verifier.VerifyServiceToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sessions:cleanup", claims.Scope)

	t.Run("rejects_wrong_secret", func(t *testing.T) {
		other := sec.NewServiceTokenVerifier("different-secret", "intake-internal", "intake-api")
		_, err := other.VerifyServiceToken(token)
		assert.Error(t, err)
	})

	t.Run("rejects_expired", func(t *testing.T) {
		expired, err := verifier.SignServiceToken("sessions:cleanup", -time.Minute)
		require.NoError(t, err)
		_, err = verifier.VerifyServiceToken(expired)
		assert.Error(t, err)
	})

	t.Run("rejects_garbage", func(t *testing.T) {
		_, err := verifier.VerifyServiceToken("not-a-token")
		assert.Error(t, err)
	})
}
