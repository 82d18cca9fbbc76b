// Package oidc provides the bearer-token verifiers used by the admin API.
package oidc

import (
	"context"
	"fmt"

	"github.com/ainews/newsroom/backend/content-services/pkg/middleware"
	"github.com/coreos/go-oidc/v3/oidc"
)

// Verifier checks tokens against an OIDC provider (Keycloak realm).
type Verifier struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers issuer and verifies signatures, expiry and issuer.
// An empty clientID skips the audience check, which Keycloak access tokens
// issued to other clients would otherwise fail.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider %s: %w", issuer, err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: clientID, SkipClientIDCheck: clientID == ""})
	return &Verifier{provider: provider, verifier: verifier}, nil
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}
