package handlers

import (
	"net/http"

	"github.com/ainews/newsroom/backend/content-services/internal/fieldops"
	"github.com/gin-gonic/gin"
)

type fieldOperationsRequest struct {
	Operations []fieldops.Request `json:"operations" binding:"required"`
}

func (a *Admin) executeFieldOperations(c *gin.Context) {
	var req fieldOperationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	results, err := a.Fields.Execute(c.Request.Context(), c.Param("collection"), req.Operations)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (a *Admin) describeCollection(c *gin.Context) {
	snap, err := a.Fields.Describe(c.Request.Context(), c.Param("collection"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (a *Admin) setFieldValue(c *gin.Context) {
	var req struct {
		Value any `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := a.Fields.SetValue(c.Request.Context(), c.Param("collection"), c.Param("id"), c.Param("field"), req.Value)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matchedCount": res.MatchedCount, "modifiedCount": res.ModifiedCount})
}

func (a *Admin) unsetField(c *gin.Context) {
	res, err := a.Fields.Unset(c.Request.Context(), c.Param("collection"), c.Param("id"), c.Param("field"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matchedCount": res.MatchedCount, "modifiedCount": res.ModifiedCount})
}
