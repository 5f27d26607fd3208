package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/voltride/rental-server-go/internal/errors"
)

func TestTokenService_IssueAndResolve(t *testing.T) {
	clock := newFakeClock()
	tokens := newTestTokens(clock)
	userID := uuid.New()

	t.Run("resolves the user id it was issued for", func(t *testing.T) {
		token, err := tokens.Issue(userID)
		require.NoError(t, err)
		assert.NotEmpty(t, token.Token)
		assert.Equal(t, clock.Now().Add(time.Hour), token.ExpiresAt)

		resolved, err := tokens.Resolve(token.Token)
		require.NoError(t, err)
		assert.Equal(t, userID, resolved)
	})

	t.Run("distinct users resolve to distinct ids", func(t *testing.T) {
		otherID := uuid.New()
		token, err := tokens.Issue(otherID)
		require.NoError(t, err)

		resolved, err := tokens.Resolve(token.Token)
		require.NoError(t, err)
		assert.Equal(t, otherID, resolved)
		assert.NotEqual(t, userID, resolved)
	})
}

func TestTokenService_Resolve_Expired(t *testing.T) {
	clock := newFakeClock()
	tokens := newTestTokens(clock)

	token, err := tokens.Issue(uuid.New())
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)

	_, err = tokens.Resolve(token.Token)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTokenExpired, apperrors.GetCode(err))
}

func TestTokenService_Resolve_Invalid(t *testing.T) {
	clock := newFakeClock()
	tokens := newTestTokens(clock)

	t.Run("empty credential", func(t *testing.T) {
		_, err := tokens.Resolve("")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetCode(err))
	})

	t.Run("malformed credential", func(t *testing.T) {
		_, err := tokens.Resolve("not-a-token")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidToken, apperrors.GetCode(err))
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenService("a-different-secret-entirely", time.Hour, clock)
		token, err := other.Issue(uuid.New())
		require.NoError(t, err)

		_, err = tokens.Resolve(token.Token)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidToken, apperrors.GetCode(err))
	})
}
