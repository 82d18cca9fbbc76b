package handlers

import (
	"fmt"
	"net/http"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
	"github.com/ainews/newsroom/backend/content-services/internal/migration"
	"github.com/gin-gonic/gin"
)

// runMigration answers 200 with the report on success. A halted run still
// returns its report, alongside the error, with status 500.
func (a *Admin) runMigration(c *gin.Context) {
	collection := c.Param("collection")
	if _, err := a.Fields.Collection(collection); err != nil {
		abortWithError(c, err)
		return
	}
	report, err := a.Migrations.Run(c.Request.Context(), collection)
	if err != nil && report == nil {
		abortWithError(c, err)
		return
	}
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "kind": content.ErrorKind(err), "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (a *Admin) runMigrationStage(c *gin.Context) {
	collection := c.Param("collection")
	if _, err := a.Fields.Collection(collection); err != nil {
		abortWithError(c, err)
		return
	}
	stage := migration.Stage(c.Param("stage"))
	res, err := a.Migrations.RunStage(c.Request.Context(), collection, stage)
	if err != nil {
		abortWithError(c, fmt.Errorf("stage %s: %w", stage, err))
		return
	}
	c.JSON(http.StatusOK, res)
}
