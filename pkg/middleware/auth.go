package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClaimsKey is the gin context key AuthMiddleware stores token claims under.
const ClaimsKey = "claims"

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		raw, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		tok, err := ver.Verify(c.Request.Context(), strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
			return
		}
		var claims map[string]interface{}
		if err := tok.Claims(&claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// Claims returns the claims stored by AuthMiddleware, or nil.
func Claims(c *gin.Context) map[string]interface{} {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	cm, _ := v.(map[string]interface{})
	return cm
}

// Subject returns the sub claim, or "".
func Subject(c *gin.Context) string {
	sub, _ := Claims(c)["sub"].(string)
	return sub
}

// RequireRole rejects requests whose token lacks role, either as a Keycloak
// realm role or as a role of any client in resource_access. It must run after
// AuthMiddleware. An empty role allows every authenticated caller.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		if role != "" && !hasRole(claims, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing role " + role})
			return
		}
		c.Next()
	}
}

func hasRole(claims map[string]interface{}, role string) bool {
	if realm, ok := claims["realm_access"].(map[string]interface{}); ok && containsRole(realm["roles"], role) {
		return true
	}
	clients, _ := claims["resource_access"].(map[string]interface{})
	for _, v := range clients {
		if client, ok := v.(map[string]interface{}); ok && containsRole(client["roles"], role) {
			return true
		}
	}
	return false
}

func containsRole(v interface{}, role string) bool {
	roles, _ := v.([]interface{})
	for _, r := range roles {
		if s, ok := r.(string); ok && s == role {
			return true
		}
	}
	return false
}
