package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quayside/quayside/internal/apperr"
)

// respondError maps service errors onto HTTP status codes. Validation
// errors name the offending field; anything outside the taxonomy is a
// 500 with the wrapped message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, apperr.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
	default:
		if ve, ok := apperr.AsValidation(err); ok {
			c.JSON(http.StatusBadRequest, gin.H{"message": ve.Error(), "field": ve.Field})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	}
}
