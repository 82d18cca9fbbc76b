package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ainews/newsroom/backend/content-services/handlers"
	"github.com/ainews/newsroom/backend/content-services/internal/app"
	"github.com/ainews/newsroom/backend/content-services/internal/config"
	"github.com/ainews/newsroom/backend/content-services/internal/oidc"
	"github.com/ainews/newsroom/backend/content-services/pkg/logger"
	"github.com/ainews/newsroom/backend/content-services/pkg/metrics"
	"github.com/ainews/newsroom/backend/content-services/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)
	logger.SetFormat(cfg.Log.Format)
	defer logger.Sync()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to initialise services: %v", err)
	}
	defer a.Close(context.Background())
	if a.Backend == app.BackendMemory {
		logger.Warnf("running on the in-memory store, data is lost on restart")
	}

	r := gin.New()
	r.Use(cors(), gin.Logger(), gin.Recovery())

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterHealth(r, func() (string, error) { return a.Ready(context.Background()) })
	handlers.RegisterSwagger(r)

	verifier := newVerifier(ctx, cfg)
	if verifier == nil {
		logger.Warnf("no token verifier configured, admin API disabled (set KEYCLOAK_URL or KEYCLOAK_INSECURE)")
	} else {
		admin := r.Group("/api/admin")
		admin.Use(middleware.AuthMiddleware(verifier), middleware.RequireRole(cfg.Keycloak.AdminRole))
		if cfg.RateLimit.Enabled {
			if a.Redis != nil {
				admin.Use(middleware.RedisRateLimitMiddleware(a.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, time.Second))
			} else {
				admin.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
			}
		}
		handlers.RegisterAdminRoutes(admin, &handlers.Admin{
			Fields:           a.Fields,
			Migrations:       a.Migrations,
			Locales:          a.Locales,
			Content:          a.Content,
			MasterCollection: cfg.Content.MasterCollection,
		})
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("content service listening on %s (store: %s)", srv.Addr, a.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

// newVerifier returns the OIDC verifier for the Keycloak realm, or the
// signature-less verifier when KEYCLOAK_INSECURE is set. Nil disables the
// admin API.
func newVerifier(ctx context.Context, cfg *config.Config) middleware.Verifier {
	if cfg.Keycloak.Insecure {
		logger.Warnf("KEYCLOAK_INSECURE=true: bearer token signatures are NOT verified")
		return oidc.NewInsecureVerifier()
	}
	if cfg.Keycloak.URL == "" {
		return nil
	}
	v, err := oidc.NewVerifier(ctx, cfg.Keycloak.Issuer(), cfg.Keycloak.ClientID)
	if err != nil {
		logger.Fatalf("oidc: %v", err)
	}
	logger.Infof("verifying tokens issued by %s", cfg.Keycloak.Issuer())
	return v
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
