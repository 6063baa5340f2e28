package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/inventory-service/models"
	"github.com/yashrajoria/inventory-service/services"
)

// SyncController exposes the cache and sync operations.
type SyncController struct {
	syncService services.SyncService
}

// NewSyncController creates a new SyncController.
func NewSyncController(svc services.SyncService) *SyncController {
	return &SyncController{syncService: svc}
}

// GetStatus handles GET /sync
func (sc *SyncController) GetStatus(ctx *gin.Context) {
	status, svcErr := sc.syncService.Status(ctx.Request.Context())
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"success": false, "error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, status)
}

// TriggerSync handles POST /sync. The body is optional; forceRefresh may
// also be given as a query parameter.
func (sc *SyncController) TriggerSync(ctx *gin.Context) {
	var req models.SyncRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request", "details": err.Error()})
		return
	}
	if v, err := strconv.ParseBool(ctx.Query("forceRefresh")); err == nil && v {
		req.ForceRefresh = true
	}

	result, svcErr := sc.syncService.Sync(ctx.Request.Context(), req.ForceRefresh)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"success": false, "error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetHistory handles GET /sync/history
func (sc *SyncController) GetHistory(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	entries, svcErr := sc.syncService.History(ctx.Request.Context(), limit)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"success": false, "error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": entries, "count": len(entries)})
}

// ClearCache handles DELETE /sync
func (sc *SyncController) ClearCache(ctx *gin.Context) {
	if svcErr := sc.syncService.Clear(ctx.Request.Context()); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"success": false, "error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Cache cleared"})
}

// ExportCache handles GET /sync/export
func (sc *SyncController) ExportCache(ctx *gin.Context) {
	exp, svcErr := sc.syncService.Export(ctx.Request.Context())
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"success": false, "error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, exp)
}

// ImportCache handles POST /sync/import
func (sc *SyncController) ImportCache(ctx *gin.Context) {
	var exp models.CacheExport
	if err := ctx.ShouldBindJSON(&exp); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request", "details": err.Error()})
		return
	}

	meta, svcErr := sc.syncService.Import(ctx.Request.Context(), &exp)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"success": false, "error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Cache imported", "metadata": meta})
}

// ArchiveCache handles POST /sync/archive
func (sc *SyncController) ArchiveCache(ctx *gin.Context) {
	archive, svcErr := sc.syncService.Archive(ctx.Request.Context())
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"success": false, "error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"success": true, "archive": archive})
}
