package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/inventory-service/services"
)

// OrdersController handles GET /orders.
type OrdersController struct {
	ordersService services.OrdersService
}

func NewOrdersController(svc services.OrdersService) *OrdersController {
	return &OrdersController{ordersService: svc}
}

// ListOrders handles GET /orders
func (oc *OrdersController) ListOrders(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)

	orders, svcErr := oc.ordersService.ListOrders(ctx.Request.Context(), page, limit)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"success": false, "error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, orders)
}

// parsePaginationParams extracts page/limit query params. Out of range
// values fall back to the defaults; the service applies the upper bound.
func parsePaginationParams(ctx *gin.Context) (int, int) {
	pageInt, limitInt := 1, services.DefaultOrdersLimit
	if p, err := strconv.Atoi(ctx.DefaultQuery("page", "1")); err == nil && p > 0 {
		pageInt = p
	}
	if l, err := strconv.Atoi(ctx.Query("limit")); err == nil && l > 0 {
		limitInt = l
	}
	return pageInt, limitInt
}
