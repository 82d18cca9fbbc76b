package handlers

import (
	"errors"
	"net/http"

	"github.com/ainews/newsroom/backend/content-services/internal/content"
	"github.com/ainews/newsroom/backend/content-services/internal/migration"
	"github.com/ainews/newsroom/backend/content-services/pkg/logger"
	"github.com/gin-gonic/gin"
)

// statusFor maps error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, content.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, content.ErrNotFound), errors.Is(err, content.ErrFieldNotFound):
		return http.StatusNotFound
	case errors.Is(err, content.ErrDuplicate), errors.Is(err, migration.ErrLocked):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "kind": content.ErrorKind(err)})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "ValidationError"})
}
