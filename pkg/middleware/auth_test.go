package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// fakeToken implements Token
type fakeToken struct {
	data map[string]interface{}
}

func (t *fakeToken) Claims(v interface{}) error {
	if mm, ok := v.(*map[string]interface{}); ok {
		*mm = t.data
		return nil
	}
	return fmt.Errorf("unsupported claims type")
}

// fakeVerifier maps raw tokens to claims.
type fakeVerifier map[string]map[string]interface{}

func (f fakeVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	if claims, ok := f[raw]; ok {
		return &fakeToken{data: claims}, nil
	}
	return nil, fmt.Errorf("invalid token")
}

var verifier = fakeVerifier{
	"editor": {"sub": "user1", "realm_access": map[string]interface{}{"roles": []interface{}{"editor"}}},
	"admin":  {"sub": "user2", "resource_access": map[string]interface{}{"content-admin": map[string]interface{}{"roles": []interface{}{"content-admin"}}}},
}

func serve(t *testing.T, r *gin.Engine, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rw := httptest.NewRecorder()
	r.ServeHTTP(rw, req)
	return rw
}

func TestAuthMiddlewareRejectsMissingOrMalformedHeader(t *testing.T) {
	g := gin.New()
	g.GET("/", AuthMiddleware(verifier), func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusUnauthorized, serve(t, g, "").Code)
	require.Equal(t, http.StatusUnauthorized, serve(t, g, "BadHeader").Code)
	require.Equal(t, http.StatusUnauthorized, serve(t, g, "Bearer ").Code)
	require.Equal(t, http.StatusUnauthorized, serve(t, g, "Bearer nope").Code)
}

func TestAuthMiddlewareStoresClaims(t *testing.T) {
	g := gin.New()
	g.GET("/", AuthMiddleware(verifier), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sub": Subject(c), "claims": Claims(c)})
	})

	rw := serve(t, g, "Bearer editor")
	require.Equal(t, http.StatusOK, rw.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &got))
	require.Equal(t, "user1", got["sub"])
	require.Contains(t, got, "claims")
}

func TestRequireRole(t *testing.T) {
	g := gin.New()
	g.GET("/", AuthMiddleware(verifier), RequireRole("content-admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusForbidden, serve(t, g, "Bearer editor").Code)
	require.Equal(t, http.StatusOK, serve(t, g, "Bearer admin").Code)

	open := gin.New()
	open.GET("/", AuthMiddleware(verifier), RequireRole(""), func(c *gin.Context) { c.Status(http.StatusOK) })
	require.Equal(t, http.StatusOK, serve(t, open, "Bearer editor").Code)

	unauthenticated := gin.New()
	unauthenticated.GET("/", RequireRole("editor"), func(c *gin.Context) { c.Status(http.StatusOK) })
	require.Equal(t, http.StatusUnauthorized, serve(t, unauthenticated, "").Code)
}
