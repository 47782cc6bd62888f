package jwt_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grimbang/nailart/pkg/jwt"
)

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := jwt.New("")
	assert.ErrorIs(t, err, jwt.ErrMissingSigningKey)

	svc, err := jwt.New("test-secret-key-at-least-32-chars!!")
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGenerateParse(t *testing.T) {
	t.Parallel()

	svc, err := jwt.New("test-secret-key-at-least-32-chars!!")
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		claims := jwt.SessionClaims{
			Subject:   "2f0c6f4a-54d4-4c3f-9a30-4a4f5a2b9a11",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
			IssuedAt:  time.Now().Unix(),
		}

		token, err := svc.Generate(claims)
		require.NoError(t, err)

		var parsed jwt.SessionClaims
		require.NoError(t, svc.Parse(token, &parsed))
		assert.Equal(t, claims.Subject, parsed.Subject)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Generate(jwt.SessionClaims{
			Subject:   "user",
			ExpiresAt: time.Now().Add(-time.Minute).Unix(),
		})
		require.NoError(t, err)

		var parsed jwt.SessionClaims
		assert.ErrorIs(t, svc.Parse(token, &parsed), jwt.ErrExpiredToken)
	})

	t.Run("wrong key rejected", func(t *testing.T) {
		t.Parallel()

		other, err := jwt.New("another-secret-key-with-enough-len!")
		require.NoError(t, err)

		token, err := svc.Generate(jwt.SessionClaims{Subject: "user"})
		require.NoError(t, err)

		var parsed jwt.SessionClaims
		assert.ErrorIs(t, other.Parse(token, &parsed), jwt.ErrInvalidSignature)
	})

	t.Run("tampered payload rejected", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Generate(jwt.SessionClaims{Subject: "user"})
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		parts[1] = parts[1][:len(parts[1])-2] + "xx"
		tampered := strings.Join(parts, ".")

		var parsed jwt.SessionClaims
		assert.Error(t, svc.Parse(tampered, &parsed))
	})

	t.Run("malformed token rejected", func(t *testing.T) {
		t.Parallel()

		var parsed jwt.SessionClaims
		assert.ErrorIs(t, svc.Parse("not-a-jwt", &parsed), jwt.ErrInvalidToken)
	})
}
