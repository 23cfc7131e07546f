package token_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/trails-auth/token"
)

func signed(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	s, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("any-key"))
	require.NoError(t, err)
	return s
}

func TestInspect(t *testing.T) {
	issued := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	raw := signed(t, jwtlib.MapClaims{
		"sub":   "u1",
		"email": "a@b.com",
		"iss":   "trails-api",
		"iat":   issued.Unix(),
		"exp":   issued.Add(time.Hour).Unix(),
	})

	claims, err := token.Inspect(raw)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.Subject)
	require.Equal(t, "a@b.com", claims.Email)
	require.Equal(t, "trails-api", claims.Issuer)
	require.True(t, issued.Equal(*claims.IssuedAt))

	require.False(t, claims.Expired(issued.Add(30*time.Minute)))
	require.Equal(t, 30*time.Minute, claims.Remaining(issued.Add(30*time.Minute)))
	require.True(t, claims.Expired(issued.Add(time.Hour)))
	require.Zero(t, claims.Remaining(issued.Add(2*time.Hour)))
}

func TestInspect_IgnoresSignature(t *testing.T) {
	raw := signed(t, jwtlib.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Hour).Unix()})

	claims, err := token.Inspect(raw)
	require.NoError(t, err)
	require.True(t, claims.Expired(time.Now()))
}

func TestInspect_NoExpiry(t *testing.T) {
	claims, err := token.Inspect(signed(t, jwtlib.MapClaims{"sub": "u1"}))
	require.NoError(t, err)
	require.Nil(t, claims.ExpiresAt)
	require.False(t, claims.Expired(time.Now()))
}

func TestInspect_Opaque(t *testing.T) {
	for _, raw := range []string{"", "T1", "PENDING1", "a.b", "not.a.jwt"} {
		_, err := token.Inspect(raw)
		require.ErrorIs(t, err, token.ErrNotJWT, raw)
	}
}
