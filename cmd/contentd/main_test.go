package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ainews/newsroom/backend/content-services/internal/config"
	"github.com/ainews/newsroom/backend/content-services/internal/oidc"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(cors())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/x", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestNewVerifierSelection(t *testing.T) {
	cfg := &config.Config{}
	require.Nil(t, newVerifier(context.Background(), cfg))

	cfg.Keycloak.Insecure = true
	_, ok := newVerifier(context.Background(), cfg).(*oidc.InsecureVerifier)
	require.True(t, ok)
}
