package recordnote

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := hashPassword("secret1")
	require.NoError(t, err)
	require.Contains(t, hash, "$")

	require.True(t, verifyPassword(hash, "secret1"))
	require.False(t, verifyPassword(hash, "secret2"))
	require.False(t, verifyPassword("not-a-hash", "secret1"))
	require.False(t, verifyPassword("zz$zz", "secret1"))

	// A fresh salt gives a different hash for the same password.
	other, err := hashPassword("secret1")
	require.NoError(t, err)
	require.NotEqual(t, hash, other)
	require.True(t, verifyPassword(other, "secret1"))
}

func TestGenerateTokenShape(t *testing.T) {
	a, err := generateToken()
	require.NoError(t, err)
	require.Len(t, a, 64)
	require.Equal(t, strings.ToLower(a), a)

	b, err := generateToken()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestGetTokenFromHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	require.Empty(t, getTokenFromHeader(r))

	r.Header.Set("Authorization", "Bearer abc123")
	require.Equal(t, "abc123", getTokenFromHeader(r))

	// A bare token without the prefix is tolerated.
	r.Header.Set("Authorization", "abc123")
	require.Equal(t, "abc123", getTokenFromHeader(r))
}
