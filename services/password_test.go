package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testArgon2Params = Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32}

func TestPasswordHasherRoundTrip(t *testing.T) {
	h := NewPasswordHasher(testArgon2Params)

	digest, err := h.Hash("correct horse 1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(digest, "argon2id$1$8192$1$"))
	assert.NotContains(t, digest, "correct horse 1")

	ok, err := h.Verify("correct horse 1", digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("correct horse 2", digest)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasherSaltsEachHash(t *testing.T) {
	h := NewPasswordHasher(testArgon2Params)

	a, err := h.Hash("secret123")
	require.NoError(t, err)
	b, err := h.Hash("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPasswordHasherVerifiesAcrossCostChanges(t *testing.T) {
	old := NewPasswordHasher(testArgon2Params)
	digest, err := old.Hash("secret123")
	require.NoError(t, err)

	current := NewPasswordHasher(Argon2Params{Time: 2, Memory: 16 * 1024, Threads: 2, KeyLen: 32})
	ok, err := current.Verify("secret123", digest)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPasswordHasherVerifiesBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy-pass1"), bcrypt.MinCost)
	require.NoError(t, err)

	h := NewPasswordHasher(testArgon2Params)
	ok, err := h.Verify("legacy-pass1", string(legacy))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong-pass1", string(legacy))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasherRejectsUnknownFormat(t *testing.T) {
	h := NewPasswordHasher(testArgon2Params)

	tests := []string{"", "plaintext", "salt$hash", "argon2id$1$2$3$x"}
	for _, digest := range tests {
		ok, err := h.Verify("whatever1", digest)
		assert.False(t, ok, digest)
		assert.Error(t, err, digest)
	}
}
