package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"appointment-queue-backend/internal/engine"
	"appointment-queue-backend/internal/store"
)

// respondError maps engine and store failures onto HTTP statuses: unknown ids
// are 404, rejected manual assignments 422, lost capacity races 409 and
// everything else 500.
func respondError(c *gin.Context, err error) {
	var assignErr *engine.AssignmentError
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.As(err, &assignErr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error": assignErr.Error(),
			"kind":  assignErr.Kind,
		})
	case errors.Is(err, engine.ErrCapacityConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
