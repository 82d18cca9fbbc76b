package handlers

import (
	"net/http"

	"github.com/ainews/newsroom/backend/content-services/internal/content/service"
	"github.com/ainews/newsroom/backend/content-services/internal/fieldops"
	"github.com/ainews/newsroom/backend/content-services/internal/locale"
	"github.com/ainews/newsroom/backend/content-services/internal/migration"
	"github.com/gin-gonic/gin"
)

// Admin bundles the services behind the admin API.
type Admin struct {
	Fields           *fieldops.Engine
	Migrations       *migration.Pipeline
	Locales          *locale.Syncer
	Content          *service.Service
	MasterCollection string
}

// RegisterAdminRoutes mounts the admin API on rg. Authentication and rate
// limiting are the caller's middleware.
func RegisterAdminRoutes(rg *gin.RouterGroup, a *Admin) {
	rg.GET("/collections/:collection", a.describeCollection)
	rg.POST("/collections/:collection/field-operations", a.executeFieldOperations)
	rg.PUT("/collections/:collection/documents/:id/fields/:field", a.setFieldValue)
	rg.DELETE("/collections/:collection/documents/:id/fields/:field", a.unsetField)

	rg.POST("/migrations/:collection", a.runMigration)
	rg.POST("/migrations/:collection/stages/:stage", a.runMigrationStage)

	rg.POST("/locales/sync", a.syncLocales)
	rg.GET("/locales/check", a.checkConsistency)
	rg.POST("/locales/backup", a.backupLocales)

	rg.POST("/ids", generateID)
	rg.POST("/ids/batch", generateIDsForBatch)

	rg.POST("/content", a.createContent)
	rg.GET("/content/validate", a.validateContent)
	rg.GET("/content/:semanticId", a.getContent)
}

// RegisterHealth mounts the liveness and readiness endpoints. ready reports the
// backing store in use.
func RegisterHealth(r *gin.Engine, ready func() (string, error)) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		backend, err := ready()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "store": backend, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "store": backend})
	})
}
