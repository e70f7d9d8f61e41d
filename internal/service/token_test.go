package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationTokenManager_IssueAndParse(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	m := NewVerificationTokenManager("secret", 10*time.Minute, clock)

	token, exp, err := m.Issue("a@b.com")
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(10*time.Minute), exp)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.NotEmpty(t, claims.ID)

	other, _, err := m.Issue("a@b.com")
	require.NoError(t, err)
	otherClaims, err := m.Parse(other)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, otherClaims.ID)
}

func TestVerificationTokenManager_Rejects(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := NewVerificationTokenManager("secret", time.Minute, clock)

	token, _, err := m.Issue("a@b.com")
	require.NoError(t, err)

	_, err = NewVerificationTokenManager("another", time.Minute, clock).Parse(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	clock.Advance(2 * time.Minute)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestCacheService_SetIfAbsent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cs := NewCacheService(clock)

	assert.True(t, cs.SetIfAbsent("k", 1, time.Minute))
	assert.False(t, cs.SetIfAbsent("k", 2, time.Minute))

	// просроченная запись не мешает повторной записи
	clock.Advance(2 * time.Minute)
	assert.True(t, cs.SetIfAbsent("k", 3, time.Minute))

	cs.Delete("k")
	assert.True(t, cs.SetIfAbsent("k", 4, time.Minute))
	assert.Equal(t, 0, cs.Cleanup())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, cs.Cleanup())
	assert.True(t, cs.SetIfAbsent("k", 5, time.Minute))
}
