package services

import (
	"context"
	"time"

	"github.com/yashrajoria/inventory-service/models"
	"github.com/yashrajoria/inventory-service/sellerdynamics"
)

// UpstreamSource is the SOAP platform as seen by the services.
// *sellerdynamics.Service implements it.
type UpstreamSource interface {
	FetchInventory(ctx context.Context) (*sellerdynamics.FetchResult, error)
	UpdateStockLevel(ctx context.Context, sku string, quantity, allocated int) error
	Orders(ctx context.Context, operation string, page, pageSize int) ([]models.Order, error)
	Status() models.IntegrationStatus
}

// CacheStore is the freshness cache. *cache.Cache implements it.
type CacheStore interface {
	Load() (*models.CacheEnvelope, error)
	Save(data any, meta models.SyncMetadata) (*models.CacheEnvelope, error)
	IsFresh(maxAge time.Duration) bool
	SyncHistory(limit int) ([]models.SyncLogEntry, error)
	Stats() models.CacheStats
	Clear() error
}
