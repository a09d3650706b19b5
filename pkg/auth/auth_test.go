package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() { Cost = bcrypt.MinCost }

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret!"))
}

func TestResetTokenRoundTrip(t *testing.T) {
	tokens := NewResetTokens("key")
	tok, err := tokens.Issue(7, "hash-v1")
	require.NoError(t, err)

	id, err := tokens.Verify(tok, func(uint) (string, error) { return "hash-v1", nil })
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
}

func TestResetTokenRejections(t *testing.T) {
	tokens := NewResetTokens("key")
	tok, err := tokens.Issue(7, "hash-v1")
	require.NoError(t, err)

	t.Run("password changed", func(t *testing.T) {
		_, err := tokens.Verify(tok, func(uint) (string, error) { return "hash-v2", nil })
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("user gone", func(t *testing.T) {
		_, err := tokens.Verify(tok, func(uint) (string, error) { return "", errors.New("not found") })
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("other key", func(t *testing.T) {
		_, err := NewResetTokens("other").Verify(tok, func(uint) (string, error) { return "hash-v1", nil })
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewResetTokens("key")
		late.now = func() time.Time { return time.Now().Add(ResetTTL + time.Minute) }
		_, err := late.Verify(tok, func(uint) (string, error) { return "hash-v1", nil })
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	})
}
