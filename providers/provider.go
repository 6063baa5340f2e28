package providers

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/yashrajoria/inventory-service/models"
)

// SecondaryProvider is the storefront platform merged alongside the upstream
// feed.
type SecondaryProvider interface {
	// Inventory returns every product as a normalized record tagged with
	// the Secondary source.
	Inventory(ctx context.Context) ([]models.InventoryRecord, error)

	// UpdateVariant writes quantity and/or price for one product variant.
	// Nil fields are left unchanged.
	UpdateVariant(ctx context.Context, productID, variantID string, quantity *int, price *decimal.Decimal) error
}
