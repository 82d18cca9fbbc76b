package oidc

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-key-will-do"))
	require.NoError(t, err)
	return s
}

func TestInsecureVerifierExposesClaims(t *testing.T) {
	v := NewInsecureVerifier()
	raw := signed(t, jwt.MapClaims{
		"sub":          "user-1",
		"exp":          time.Now().Add(time.Hour).Unix(),
		"realm_access": map[string]interface{}{"roles": []string{"content-admin"}},
	})

	tok, err := v.Verify(context.Background(), raw)
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "user-1", claims["sub"])
	realm := claims["realm_access"].(map[string]interface{})
	require.Equal(t, []interface{}{"content-admin"}, realm["roles"])
}

func TestInsecureVerifierRejectsExpiredAndGarbage(t *testing.T) {
	v := NewInsecureVerifier()
	_, err := v.Verify(context.Background(), signed(t, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(-time.Minute).Unix()}))
	require.Error(t, err)

	_, err = v.Verify(context.Background(), "not-a-jwt")
	require.Error(t, err)
}
