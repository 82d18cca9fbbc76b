package handlers

import (
	"net/http"

	"github.com/ainews/newsroom/backend/content-services/internal/semid"
	"github.com/ainews/newsroom/backend/content-services/pkg/metrics"
	"github.com/gin-gonic/gin"
)

type generateIDRequest struct {
	Title    string `json:"title" binding:"required"`
	Date     string `json:"date" binding:"required"`
	Sequence int    `json:"sequence"`
	semid.Overrides
}

func generateID(c *gin.Context) {
	var req generateIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Sequence <= 0 {
		req.Sequence = 1
	}
	id := semid.GenerateWith(req.Title, req.Date, req.Sequence, req.Overrides)
	metrics.SemanticIDs.WithLabelValues("api").Inc()
	c.JSON(http.StatusOK, gin.H{"id": id})
}

type batchRequest struct {
	Items     []semid.Item               `json:"items" binding:"required"`
	Overrides map[string]semid.Overrides `json:"overrides,omitempty"`
}

func generateIDsForBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ids := semid.GenerateBatch(req.Items, req.Overrides)
	metrics.SemanticIDs.WithLabelValues("api").Add(float64(len(ids)))
	c.JSON(http.StatusOK, gin.H{"ids": ids})
}
