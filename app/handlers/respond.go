package handlers

import (
	"errors"
	"net/http"

	"fleet-svc/app/domains"
	"fleet-svc/app/dto"

	"github.com/gin-gonic/gin"
)

// respondData sends a success envelope
func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, dto.NewEnvelope(data))
}

// respondError sends a failure envelope
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, dto.NewErrorEnvelope(message))
}

// respondServiceError maps sentinel errors onto status codes. Anything
// unrecognized is an internal fault and is reported generically so
// datastore internals never leak to callers.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domains.ErrValidation):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domains.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domains.ErrConflict):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, domains.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, domains.ErrForbidden):
		respondError(c, http.StatusForbidden, "insufficient privileges")
	default:
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}
