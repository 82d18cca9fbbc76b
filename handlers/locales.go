package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// master reads ?master=, defaulting to the configured master collection.
func (a *Admin) master(c *gin.Context) (string, bool) {
	name := c.DefaultQuery("master", a.MasterCollection)
	if _, err := a.Fields.Collection(name); err != nil {
		abortWithError(c, err)
		return "", false
	}
	return name, true
}

func (a *Admin) syncLocales(c *gin.Context) {
	master, ok := a.master(c)
	if !ok {
		return
	}
	res, err := a.Locales.SyncCollection(c.Request.Context(), master)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *Admin) checkConsistency(c *gin.Context) {
	master, ok := a.master(c)
	if !ok {
		return
	}
	found, err := a.Locales.CheckCollection(c.Request.Context(), master)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"master": master, "consistent": len(found) == 0, "inconsistencies": found})
}

func (a *Admin) backupLocales(c *gin.Context) {
	master, ok := a.master(c)
	if !ok {
		return
	}
	names, err := a.Locales.Backup(c.Request.Context(), master)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"master": master, "backups": names})
}
