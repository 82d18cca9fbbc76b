package handlers

import (
	"net/http"
	"time"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
	"github.com/ainews/newsroom/backend/content-services/internal/content/service"
	"github.com/ainews/newsroom/backend/content-services/internal/semid"
	"github.com/gin-gonic/gin"
)

type createContentRequest struct {
	SemanticID  string                    `json:"semanticId"`
	Slug        string                    `json:"slug"`
	Category    string                    `json:"category"`
	Source      string                    `json:"source"`
	Author      string                    `json:"author"`
	PublishedAt time.Time                 `json:"publishedAt"`
	IsBreaking  bool                      `json:"isBreaking"`
	IsImportant bool                      `json:"isImportant"`
	Status      string                    `json:"status"`
	Locales     map[string]content.Locale `json:"locales"`
	Company     string                    `json:"company"`
	Product     string                    `json:"product"`
}

func (a *Admin) createContent(c *gin.Context) {
	var req createContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rec, err := a.Content.Create(c.Request.Context(), service.CreateInput{
		Record: content.Record{
			SemanticID:  req.SemanticID,
			Slug:        req.Slug,
			Category:    req.Category,
			Source:      req.Source,
			Author:      req.Author,
			PublishedAt: req.PublishedAt,
			IsBreaking:  req.IsBreaking,
			IsImportant: req.IsImportant,
			Status:      req.Status,
			Locales:     req.Locales,
		},
		Overrides: semid.Overrides{Organization: req.Company, Product: req.Product},
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (a *Admin) getContent(c *gin.Context) {
	rec, err := a.Content.GetBySemanticID(c.Request.Context(), c.Param("semanticId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// validateContent reports which master records break the canonical shape.
// It always answers 200; the summary says how many are invalid.
func (a *Admin) validateContent(c *gin.Context) {
	sum, err := a.Content.Validate(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
