package main

import (
	"fmt"
	"time"

	"github.com/ainews/newsroom/backend/content-services/internal/config"
	"github.com/ainews/newsroom/backend/content-services/internal/tokens"
	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenRoles   []string
	tokenTTL     time.Duration
	tokenSecret  string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an admin bearer token for a KEYCLOAK_INSECURE environment",
	Long: `Print a signed JWT carrying the given subject and realm roles. Only a
service started with KEYCLOAK_INSECURE=true accepts it; a real Keycloak
realm rejects the signature.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		claims := tokens.DevClaims{Subject: tokenSubject, Name: tokenSubject, Roles: tokenRoles}
		if len(claims.Roles) == 0 {
			if cfg, err := config.LoadConfig(); err == nil {
				claims.Roles = []string{cfg.Keycloak.AdminRole}
			}
		}
		tok, err := tokens.GenerateDevToken(claims, tokenSecret, tokenTTL, time.Now())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
		return err
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "sub", "contentctl", "Token subject")
	tokenCmd.Flags().StringSliceVar(&tokenRoles, "role", nil, "Realm role, repeatable (default KEYCLOAK_ADMIN_ROLE)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Token lifetime")
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "dev-only", "HS256 signing secret")
	rootCmd.AddCommand(tokenCmd)
}
