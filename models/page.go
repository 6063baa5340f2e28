package models

import "time"

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

// PageQuery holds the query parameters of GET /inventory.
type PageQuery struct {
	Page    int    `form:"page"`
	Limit   int    `form:"limit"`
	Source  string `form:"source"`
	Refresh bool   `form:"refresh"`
}

// Pagination describes the slice returned in a page.
type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalItems  int  `json:"totalItems"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// PageMeta carries source counts and freshness for a page.
type PageMeta struct {
	SellerCount       int                `json:"sellerCount"`
	SecondaryCount    int                `json:"secondaryCount"`
	LastUpdated       time.Time          `json:"lastUpdated"`
	DataSource        string             `json:"dataSource"`
	CacheUpdated      bool               `json:"cacheUpdated"`
	IntegrationStatus *IntegrationStatus `json:"integrationStatus,omitempty"`
}

// InventoryPage is the body of GET /inventory.
type InventoryPage struct {
	Success    bool              `json:"success"`
	Data       []InventoryRecord `json:"data"`
	Pagination Pagination        `json:"pagination"`
	Meta       PageMeta          `json:"meta"`
}
