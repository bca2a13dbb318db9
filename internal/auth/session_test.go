// internal/auth/session_test.go
package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchTokenRoundTrip(t *testing.T) {
	Init()

	matchID := uuid.New().String()
	token, err := CreateMatchToken(matchID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := VerifyMatchToken(token)
	require.NoError(t, err)
	assert.Equal(t, matchID, got)
}

func TestVerifyMatchTokenRejectsGarbage(t *testing.T) {
	Init()

	_, err := VerifyMatchToken("not-a-token")
	assert.Error(t, err)

	_, err = VerifyMatchToken("")
	assert.Error(t, err)
}

func TestVerifyMatchTokenRejectsForeignKey(t *testing.T) {
	Init()
	token, err := CreateMatchToken(uuid.New().String())
	require.NoError(t, err)

	// New key pair invalidates previously minted tokens.
	Init()
	_, err = VerifyMatchToken(token)
	assert.Error(t, err)
}
