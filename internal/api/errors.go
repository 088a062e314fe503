package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	infraerrors "github.com/Activ8Auto/ProAutoFill/infrastructure/errors"
	"github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
	"github.com/Activ8Auto/ProAutoFill/internal/analytics"
	"github.com/Activ8Auto/ProAutoFill/internal/gateway"
	"github.com/Activ8Auto/ProAutoFill/internal/service"
	"github.com/Activ8Auto/ProAutoFill/internal/state"
)

// respondError maps err to a status. Backend failures other than 401 are
// reported as 502 with the upstream status attached.
func (h *Handler) respondError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrNoProfileSelected),
		errors.Is(err, analytics.ErrUnknownTimeframe):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, state.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	case errors.Is(err, service.ErrAlreadyDefault):
		c.JSON(http.StatusConflict, gin.H{"error": "This value is already the default"})
		return
	case errors.Is(err, gateway.ErrMissingToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgUnauthenticated})
		return
	}

	if httpErr, ok := infraerrors.AsHTTPError(err); ok {
		if httpErr.StatusCode == http.StatusUnauthorized {
			c.JSON(http.StatusUnauthorized, gin.H{"error": msgUnauthenticated})
			return
		}
		h.log.Warn("Backend rejected request",
			logger.String("action", action),
			logger.Int("upstream_status", httpErr.StatusCode),
			logger.String("message", httpErr.Message),
		)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":           "Failed to " + action,
			"upstream_status": httpErr.StatusCode,
			"details":         httpErr.Message,
		})
		return
	}

	h.log.Error("Request failed", logger.String("action", action), logger.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to " + action})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
}
