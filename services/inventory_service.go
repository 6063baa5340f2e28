package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/yashrajoria/inventory-service/cache"
	"github.com/yashrajoria/inventory-service/models"
	aws_pkg "github.com/yashrajoria/inventory-service/pkg/aws"
	"github.com/yashrajoria/inventory-service/providers"
	"go.uber.org/zap"
)

const (
	TargetUpstream  = "upstream"
	TargetSecondary = "secondary"
)

// InventoryService serves the unified inventory feed and fans writes out to
// both platforms.
type InventoryService interface {
	GetPage(ctx context.Context, q models.PageQuery) (*models.InventoryPage, *ServiceError)
	UpdateItem(ctx context.Context, req *models.StockUpdateRequest) (*models.UpdateResult, *ServiceError)
}

// InventoryDeps groups the collaborators of the inventory service.
type InventoryDeps struct {
	Upstream  UpstreamSource
	Secondary providers.SecondaryProvider
	Store     CacheStore
	Fallback  func() []models.InventoryRecord
	Metrics   aws_pkg.MetricsRecorder
	MaxAge    time.Duration
	Now       func() time.Time
}

type inventoryServiceImpl struct {
	collector
	store  CacheStore
	maxAge time.Duration
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(deps InventoryDeps, logger *zap.Logger) InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MaxAge <= 0 {
		deps.MaxAge = time.Hour
	}
	return &inventoryServiceImpl{
		collector: collector{
			upstream:  deps.Upstream,
			secondary: deps.Secondary,
			fallback:  deps.Fallback,
			metrics:   deps.Metrics,
			now:       deps.Now,
			logger:    logger,
		},
		store:  deps.Store,
		maxAge: deps.MaxAge,
	}
}

// snapshot is the unified list a page is cut from.
type snapshot struct {
	records      []models.InventoryRecord
	dataSource   string
	lastUpdated  time.Time
	cacheUpdated bool
}

// GetPage always produces a page: upstream outages surface as a mock data
// source, never as an error.
func (s *inventoryServiceImpl) GetPage(ctx context.Context, q models.PageQuery) (*models.InventoryPage, *ServiceError) {
	snap := s.snapshot(ctx, q.Refresh)

	list := snap.records
	if q.Source != "" && !strings.EqualFold(q.Source, "all") {
		list = FilterBySource(list, q.Source)
	} else {
		list = Interleave(list)
	}
	data, pagination := Paginate(list, q.Page, q.Limit)

	sellers, secondary := CountBySource(snap.records)
	status := s.integrationStatus()
	return &models.InventoryPage{
		Success:    true,
		Data:       data,
		Pagination: pagination,
		Meta: models.PageMeta{
			SellerCount:       sellers,
			SecondaryCount:    secondary,
			LastUpdated:       snap.lastUpdated,
			DataSource:        snap.dataSource,
			CacheUpdated:      snap.cacheUpdated,
			IntegrationStatus: status,
		},
	}, nil
}

func (s *inventoryServiceImpl) integrationStatus() *models.IntegrationStatus {
	if s.upstream == nil {
		return nil
	}
	st := s.upstream.Status()
	return &st
}

func (s *inventoryServiceImpl) snapshot(ctx context.Context, refresh bool) snapshot {
	if !refresh {
		if snap, ok := s.cached(); ok {
			s.count(ctx, aws_pkg.MetricCacheHits)
			return snap
		}
	}
	s.count(ctx, aws_pkg.MetricCacheMisses)

	col := s.collect(ctx)
	snap := snapshot{
		records:     col.records,
		dataSource:  col.dataSource,
		lastUpdated: s.now().UTC(),
	}
	if s.store == nil {
		return snap
	}
	env, err := s.store.Save(col.records, col.metadata())
	if err != nil {
		s.logger.Error("failed to persist unified inventory", zap.Error(err))
		return snap
	}
	snap.cacheUpdated = true
	snap.lastUpdated = env.Metadata.LastUpdated
	return snap
}

// cached returns the cached list when it is fresh and decodes.
func (s *inventoryServiceImpl) cached() (snapshot, bool) {
	if s.store == nil || !s.store.IsFresh(s.maxAge) {
		return snapshot{}, false
	}
	env, err := s.store.Load()
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.logger.Warn("cache unreadable, treating as miss", zap.Error(err))
		}
		return snapshot{}, false
	}
	records, err := env.Records()
	if err != nil {
		s.logger.Warn("cached payload is not an inventory list, treating as miss", zap.Error(err))
		return snapshot{}, false
	}
	return snapshot{
		records:     records,
		dataSource:  models.DataSourceCached,
		lastUpdated: env.Metadata.LastUpdated,
	}, true
}

// UpdateItem writes the update to every applicable target in turn. The
// upstream target applies when a stock figure is given; the secondary
// target when a product id is given. Missing stock figures are taken from
// the cached record for the SKU.
func (s *inventoryServiceImpl) UpdateItem(ctx context.Context, req *models.StockUpdateRequest) (*models.UpdateResult, *ServiceError) {
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		return nil, badRequest("SKU is required")
	}
	u := req.Updates
	wantsUpstream := u.CurrentStock != nil || u.AllocatedStock != nil
	wantsSecondary := u.ProductID != ""
	if !wantsUpstream && !wantsSecondary {
		return nil, badRequest("No applicable updates: supply currentStock/allocatedStock or a productId")
	}

	ctx = context.WithoutCancel(ctx)
	result := &models.UpdateResult{SKU: sku, Updates: u, Targets: []models.TargetResult{}}

	if wantsUpstream {
		result.Targets = append(result.Targets, s.updateUpstream(ctx, sku, u))
	}
	if wantsSecondary {
		result.Targets = append(result.Targets, s.updateSecondary(ctx, u))
	}

	for _, t := range result.Targets {
		if t.Success {
			result.Succeeded++
		}
	}
	result.Partial = result.Succeeded > 0 && result.Succeeded < len(result.Targets)
	result.LastUpdated = s.now().UTC()

	s.logger.Info("inventory update fanned out",
		zap.String("sku", sku),
		zap.Int("targets", len(result.Targets)),
		zap.Int("succeeded", result.Succeeded))

	if result.Succeeded == 0 {
		return result, &ServiceError{StatusCode: http.StatusBadGateway, Message: "Update failed on every target"}
	}
	return result, nil
}

func (s *inventoryServiceImpl) updateUpstream(ctx context.Context, sku string, u models.StockUpdate) models.TargetResult {
	res := models.TargetResult{System: TargetUpstream}
	if s.upstream == nil {
		res.Error = errUpstreamMissing.Error()
		return res
	}

	current, allocated := s.currentFigures(sku)
	if u.CurrentStock != nil {
		current = *u.CurrentStock
	}
	if u.AllocatedStock != nil {
		allocated = *u.AllocatedStock
	}

	if err := s.upstream.UpdateStockLevel(ctx, sku, current, allocated); err != nil {
		s.logger.Warn("upstream stock update failed", zap.String("sku", sku), zap.Error(err))
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}

func (s *inventoryServiceImpl) updateSecondary(ctx context.Context, u models.StockUpdate) models.TargetResult {
	res := models.TargetResult{System: TargetSecondary}
	if s.secondary == nil {
		res.Error = "secondary platform not configured"
		return res
	}
	if err := s.secondary.UpdateVariant(ctx, u.ProductID, u.VariantID, u.CurrentStock, u.Price); err != nil {
		s.logger.Warn("secondary update failed", zap.String("product_id", u.ProductID), zap.Error(err))
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}

// currentFigures looks sku up in the cached snapshot, regardless of age.
func (s *inventoryServiceImpl) currentFigures(sku string) (current, allocated int) {
	if s.store == nil {
		return 0, 0
	}
	env, err := s.store.Load()
	if err != nil {
		return 0, 0
	}
	records, err := env.Records()
	if err != nil {
		return 0, 0
	}
	for _, r := range records {
		if r.SKU == sku && r.Source == models.SourceUpstream {
			return r.CurrentStock, r.AllocatedStock
		}
	}
	return 0, 0
}
