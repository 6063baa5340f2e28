package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Record sources.
const (
	SourceUpstream  = "Upstream"
	SourceSecondary = "Secondary"
)

// Product type labels derived from the master/kit classification.
const (
	ProductTypeMaster = "Master Product"
	ProductTypeKit    = "Kit Product"
)

// Data source tags attached to records and response metadata.
const (
	DataSourceReal     = "real"
	DataSourceMock     = "mock"
	DataSourceFallback = "fallback"
	DataSourceCached   = "cached"
)

const (
	DefaultReorderPoint = 10
	DefaultCategory     = "General"
	UnknownVendor       = "Unknown Vendor"
)

func init() {
	// prices and costs go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// InventoryRecord is the normalized shape shared by every source.
// AvailableStock is always CurrentStock - AllocatedStock; use Normalize after
// building a record by hand.
type InventoryRecord struct {
	ID              string          `json:"id"`
	SKU             string          `json:"sku"`
	ProductName     string          `json:"productName"`
	Vendor          string          `json:"vendor"`
	Category        string          `json:"category"`
	CurrentStock    int             `json:"currentStock"`
	AllocatedStock  int             `json:"allocatedStock"`
	AvailableStock  int             `json:"availableStock"`
	Price           decimal.Decimal `json:"price"`
	Cost            decimal.Decimal `json:"cost"`
	ReorderPoint    int             `json:"reorderPoint"`
	IsMasterProduct bool            `json:"isMasterProduct"`
	ProductType     string          `json:"productType"`
	Source          string          `json:"source"`
	DataSource      string          `json:"dataSource,omitempty"`
	LastUpdated     time.Time       `json:"lastUpdated"`
}

// Normalize enforces the record invariants: non-negative stock figures,
// derived available stock, a product type matching the master flag and a
// default reorder point.
func (r *InventoryRecord) Normalize() {
	if r.CurrentStock < 0 {
		r.CurrentStock = 0
	}
	if r.AllocatedStock < 0 {
		r.AllocatedStock = 0
	}
	r.AvailableStock = r.CurrentStock - r.AllocatedStock
	if r.IsMasterProduct {
		r.ProductType = ProductTypeMaster
	} else {
		r.ProductType = ProductTypeKit
	}
	if r.ReorderPoint <= 0 {
		r.ReorderPoint = DefaultReorderPoint
	}
}

// UnmarshalJSON decodes a record and re-derives the computed fields, so a
// stored or supplied availableStock can never disagree with the stock figures.
func (r *InventoryRecord) UnmarshalJSON(data []byte) error {
	type plain InventoryRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = InventoryRecord(p)
	r.Normalize()
	return nil
}

// StockUpdateRequest is the body of POST /inventory.
type StockUpdateRequest struct {
	SKU     string      `json:"sku" binding:"required"`
	Updates StockUpdate `json:"updates"`
}

// StockUpdate carries the fields to write. ProductID and VariantID address
// the record on the secondary platform; without ProductID the secondary
// target is skipped.
type StockUpdate struct {
	CurrentStock   *int             `json:"currentStock,omitempty" binding:"omitempty,gte=0"`
	AllocatedStock *int             `json:"allocatedStock,omitempty" binding:"omitempty,gte=0"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	ProductID      string           `json:"productId,omitempty"`
	VariantID      string           `json:"variantId,omitempty"`
}

// TargetResult is the outcome of writing to one system.
type TargetResult struct {
	System  string `json:"system"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// UpdateResult is returned by the write fan-out.
type UpdateResult struct {
	SKU         string         `json:"sku"`
	Updates     StockUpdate    `json:"updates"`
	Targets     []TargetResult `json:"targets"`
	Succeeded   int            `json:"succeeded"`
	Partial     bool           `json:"partial"`
	LastUpdated time.Time      `json:"lastUpdated"`
}

// IntegrationStatus describes how the upstream connection is configured.
type IntegrationStatus struct {
	Endpoint       string `json:"endpoint"`
	EncryptedLogin string `json:"encryptedLogin"`
	RetailerID     string `json:"retailerId"`
	Mode           string `json:"mode"`
}
