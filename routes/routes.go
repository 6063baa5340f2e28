package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/inventory-service/controllers"
)

// RegisterInventoryRoutes sets up the unified inventory routes.
func RegisterInventoryRoutes(r *gin.Engine, ic *controllers.InventoryController) {
	inventory := r.Group("/inventory")
	inventory.GET("", ic.GetInventory)
	inventory.POST("", ic.UpdateInventory)
}

// RegisterSyncRoutes sets up cache inspection and sync routes.
func RegisterSyncRoutes(r *gin.Engine, sc *controllers.SyncController) {
	sync := r.Group("/sync")
	sync.GET("", sc.GetStatus)
	sync.POST("", sc.TriggerSync)
	sync.DELETE("", sc.ClearCache)
	sync.GET("/history", sc.GetHistory)

	// Snapshot transfer
	sync.GET("/export", sc.ExportCache)
	sync.POST("/import", sc.ImportCache)
	sync.POST("/archive", sc.ArchiveCache)
}

// RegisterOrdersRoutes sets up the upstream orders routes.
func RegisterOrdersRoutes(r *gin.Engine, oc *controllers.OrdersController) {
	r.GET("/orders", oc.ListOrders)
}
