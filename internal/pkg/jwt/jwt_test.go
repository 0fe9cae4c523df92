package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("secret-1")
	token, err := GenerateToken("user-1", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", []byte("secret-1"), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, []byte("secret-2"))
	require.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("user-1", []byte("secret-1"), -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, []byte("secret-1"))
	require.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token", []byte("secret-1"))
	require.Error(t, err)
}
