// Package tokens mints bearer tokens for integration environments that run
// the admin API with KEYCLOAK_INSECURE=true.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DevClaims describes the caller a development token stands for.
type DevClaims struct {
	Subject string
	Name    string
	Roles   []string
	Issuer  string
}

// GenerateDevToken signs a Keycloak-shaped access token with HS256. The
// insecure verifier ignores the signature, so any secret works; the roles
// land in realm_access.roles where RequireRole looks for them.
func GenerateDevToken(c DevClaims, secret string, ttl time.Duration, now time.Time) (string, error) {
	if c.Subject == "" {
		return "", errors.New("subject is required")
	}
	if secret == "" {
		return "", errors.New("signing secret is required")
	}
	roles := c.Roles
	if roles == nil {
		roles = []string{}
	}
	claims := jwt.MapClaims{
		"sub":                c.Subject,
		"preferred_username": c.Name,
		"realm_access":       map[string]interface{}{"roles": roles},
		"iat":                now.Unix(),
		"exp":                now.Add(ttl).Unix(),
	}
	if c.Issuer != "" {
		claims["iss"] = c.Issuer
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(secret))
}
