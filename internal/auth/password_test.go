package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	digest, err := hasher.Hash("s3cret-password")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret-password", digest)
	assert.True(t, hasher.Verify("s3cret-password", digest))
	assert.False(t, hasher.Verify("wrong", digest))
}

func TestPasswordHasher_SelfSalting(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	first, err := hasher.Hash("same-password")
	require.NoError(t, err)
	second, err := hasher.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, hasher.Verify("same-password", first))
	assert.True(t, hasher.Verify("same-password", second))
}

func TestPasswordHasher_MalformedDigest(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	tests := []struct {
		name   string
		digest string
	}{
		{name: "Empty digest", digest: ""},
		{name: "Plaintext digest", digest: "s3cret-password"},
		{name: "Truncated bcrypt", digest: "$2a$04$abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, hasher.Verify("s3cret-password", tt.digest))
			})
		})
	}
}

func TestPasswordHasher_Cost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).Cost())
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).Cost())

	hasher := NewPasswordHasher(bcrypt.MinCost + 1)
	digest, err := hasher.Hash("pw")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
}

func TestPasswordHasher_TooLong(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	_, err := hasher.Hash(strings.Repeat("a", 73))
	assert.Error(t, err)
}

func TestPasswordHasher_VerifyAgainstDummy(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	assert.NotPanics(t, func() {
		hasher.VerifyAgainstDummy("anything")
		hasher.VerifyAgainstDummy("anything else")
	})
}
