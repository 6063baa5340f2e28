package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/inventory-service/logger"
	"github.com/yashrajoria/inventory-service/models"
	"github.com/yashrajoria/inventory-service/services"
	"go.uber.org/zap"
)

// InventoryController handles HTTP requests for the unified inventory.
type InventoryController struct {
	inventoryService services.InventoryService
}

// NewInventoryController creates a new InventoryController.
func NewInventoryController(svc services.InventoryService) *InventoryController {
	return &InventoryController{inventoryService: svc}
}

// GetInventory handles GET /inventory
func (ic *InventoryController) GetInventory(ctx *gin.Context) {
	var q models.PageQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query", "details": err.Error()})
		return
	}

	page, svcErr := ic.inventoryService.GetPage(ctx.Request.Context(), q)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"success": false, "error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, page)
}

// UpdateInventory handles POST /inventory
func (ic *InventoryController) UpdateInventory(ctx *gin.Context) {
	var req models.StockUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request", "details": err.Error()})
		return
	}

	result, svcErr := ic.inventoryService.UpdateItem(ctx.Request.Context(), &req)
	if svcErr != nil {
		logger.FromContext(ctx).Warn("inventory update rejected",
			zap.String("sku", req.SKU),
			zap.Int("status", svcErr.StatusCode),
			zap.String("error", svcErr.Message))
		body := gin.H{"success": false, "error": svcErr.Message}
		if result != nil {
			body["data"] = result
		}
		ctx.JSON(svcErr.StatusCode, body)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Updated %d of %d systems", result.Succeeded, len(result.Targets)),
		"data":    result,
	})
}
