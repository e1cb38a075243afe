package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	keys, err := NewKeys("test-secret")
	require.NoError(t, err)

	token, err := keys.GenerateToken(42, time.Hour)
	require.NoError(t, err)

	claims, err := keys.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	signer, err := NewKeys("secret-a")
	require.NoError(t, err)
	verifier, err := NewKeys("secret-b")
	require.NoError(t, err)

	token, err := signer.GenerateToken(1, time.Hour)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	keys, err := NewKeys("test-secret")
	require.NoError(t, err)

	token, err := keys.GenerateToken(1, -time.Minute)
	require.NoError(t, err)

	_, err = keys.VerifyToken(token)
	assert.Error(t, err)
}

func TestEmptySecretRejected(t *testing.T) {
	_, err := NewKeys("")
	assert.Error(t, err)
}
