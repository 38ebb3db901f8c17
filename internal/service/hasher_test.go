package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	first, err := hasher.Hash("password123")
	require.NoError(t, err)
	second, err := hasher.Hash("password123")
	require.NoError(t, err)

	// Per-call salting: same plaintext, different digests, both verify.
	require.NotEqual(t, first, second)
	require.True(t, hasher.Verify("password123", first))
	require.True(t, hasher.Verify("password123", second))
}

func TestVerifyRejectsWrongPassword(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	digest, err := hasher.Hash("password123")
	require.NoError(t, err)

	require.False(t, hasher.Verify("password124", digest))
}

func TestVerifyMalformedDigestReturnsFalse(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	require.False(t, hasher.Verify("password123", ""))
	require.False(t, hasher.Verify("password123", "not-a-bcrypt-digest"))
}

func TestHasherOutOfRangeCostFallsBack(t *testing.T) {
	hasher := NewPasswordHasher(99)
	require.Equal(t, 12, hasher.cost)
}
