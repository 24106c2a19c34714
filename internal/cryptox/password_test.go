package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap parameters keep the tests fast.
var testParams = Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher(testParams)

	encoded, err := h.Hash([]byte("Secret123"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"), encoded)

	ok, err := h.Verify([]byte("Secret123"), encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify([]byte("secret123"), encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_SaltedHashesDiffer(t *testing.T) {
	h := NewPasswordHasher(testParams)

	a, err := h.Hash([]byte("same"))
	require.NoError(t, err)
	b, err := h.Hash([]byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestPasswordHasher_VerifyUsesStoredParams(t *testing.T) {
	encoded, err := NewPasswordHasher(testParams).Hash([]byte("pw"))
	require.NoError(t, err)

	// a hasher configured differently must still verify old hashes.
	other := NewPasswordHasher(Params{MemoryKiB: 2048, Iterations: 2, Parallelism: 2, SaltLen: 8, KeyLen: 16})
	ok, err := other.Verify([]byte("pw"), encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPasswordHasher_VerifyMalformed(t *testing.T) {
	h := NewPasswordHasher(testParams)

	bad := map[string]string{
		"empty":            "",
		"wrong variant":    "$argon2i$v=19$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"wrong version":    "$argon2id$v=18$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"bad params":       "$argon2id$v=19$m=abc,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"bad salt":         "$argon2id$v=19$m=1024,t=1,p=1$???$a2V5",
		"bad key":          "$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$???",
		"missing fields":   "$argon2id$v=19$m=1024,t=1,p=1",
		"zero iterations":  "$argon2id$v=19$m=1024,t=0,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"zero parallelism": "$argon2id$v=19$m=1024,t=1,p=0$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
	}

	for name, encoded := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := h.Verify([]byte("pw"), encoded)
			assert.ErrorIs(t, err, ErrMalformedHash)
		})
	}
}
