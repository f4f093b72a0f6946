// Package controllers binds the HTTP surface to the services layer. Request
// bodies are decoded with gin binding tags; every handler pushes business
// logic down into a service and translates its errors here.
package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ysalem/formbuilder-server/services"
)

// respondErr maps service error kinds onto HTTP responses. Unknown errors
// are logged and answered with a generic 500 so internals never leak.
func respondErr(c *gin.Context, err error) {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": "Validation failed",
			"fields":  ve.Fields,
		})
		return
	}

	var se *services.ServiceError
	if errors.As(err, &se) {
		c.JSON(http.StatusBadRequest, gin.H{"message": se.Msg})
		return
	}

	var ste *services.StorageError
	if errors.As(err, &ste) {
		c.JSON(http.StatusBadRequest, gin.H{"message": ste.Error()})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}
