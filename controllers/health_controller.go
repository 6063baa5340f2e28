package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/inventory-service/models"
)

// StatusReporter reports how the upstream integration is configured.
type StatusReporter interface {
	Status() models.IntegrationStatus
}

// Health returns the liveness handler for /health.
func Health(service string, upstream StatusReporter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		body := gin.H{"status": "healthy", "service": service}
		if upstream != nil {
			body["integration"] = upstream.Status()
		}
		ctx.JSON(http.StatusOK, body)
	}
}
