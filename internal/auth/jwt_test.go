package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	j := NewJWTManager("secret", "choiros", 1, 0)

	token, expiresAt, err := j.GenerateToken(42, "anna@example.com", false)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "anna@example.com", claims.Email)
	assert.False(t, claims.IsSuperadmin)
	assert.Equal(t, "42", claims.Subject)
}

func TestValidateExpired(t *testing.T) {
	j := NewJWTManager("secret", "choiros", 1, 0)
	j.nowFunc = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := j.GenerateToken(42, "anna@example.com", false)
	require.NoError(t, err)

	j.nowFunc = time.Now
	_, err = j.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsForeignTokens(t *testing.T) {
	ours := NewJWTManager("secret", "choiros", 1, 0)
	otherSecret := NewJWTManager("other", "choiros", 1, 0)
	otherIssuer := NewJWTManager("secret", "someone-else", 1, 0)

	for name, j := range map[string]*JWTManager{"secret": otherSecret, "issuer": otherIssuer} {
		t.Run(name, func(t *testing.T) {
			token, _, err := j.GenerateToken(42, "anna@example.com", false)
			require.NoError(t, err)
			_, err = ours.ValidateToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err := ours.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
