package services

import (
	"context"
	"errors"
	"time"

	"github.com/yashrajoria/inventory-service/models"
	aws_pkg "github.com/yashrajoria/inventory-service/pkg/aws"
	"github.com/yashrajoria/inventory-service/providers"
	"github.com/yashrajoria/inventory-service/sellerdynamics"
	"go.uber.org/zap"
)

const metricsTimeout = 5 * time.Second

// collection is one unified fetch of both sources.
type collection struct {
	records        []models.InventoryRecord
	dataSource     string
	sellerCount    int
	secondaryCount int
	partial        bool
	// upstreamErr is set when the upstream could not be fetched at all and
	// placeholder data was used instead.
	upstreamErr error
	duration    time.Duration
}

func (c *collection) metadata() models.SyncMetadata {
	return models.SyncMetadata{
		Type:             "inventory",
		DataSource:       c.dataSource,
		SellerCount:      c.sellerCount,
		SecondaryCount:   c.secondaryCount,
		RecordsProcessed: len(c.records),
	}
}

// collector fetches the upstream feed and the secondary feed and merges
// them. Shared by the inventory and sync services.
type collector struct {
	upstream  UpstreamSource
	secondary providers.SecondaryProvider
	fallback  func() []models.InventoryRecord
	metrics   aws_pkg.MetricsRecorder
	now       func() time.Time
	logger    *zap.Logger
}

// collect runs the fetches detached from ctx's cancellation so a client
// disconnect does not abandon a sync half way through.
func (c *collector) collect(ctx context.Context) *collection {
	ctx = context.WithoutCancel(ctx)
	start := c.now()
	out := &collection{dataSource: models.DataSourceReal}

	upstream, err := c.fetchUpstream(ctx)
	if err != nil {
		out.upstreamErr = err
		out.dataSource = models.DataSourceMock
		c.count(ctx, aws_pkg.MetricUpstreamFallbacks)
	}
	if upstream != nil {
		out.records = append(out.records, upstream.Records...)
		out.partial = upstream.Partial
		if upstream.DataSource != "" {
			out.dataSource = upstream.DataSource
		}
	}
	if out.upstreamErr != nil && upstream == nil && c.fallback != nil {
		out.records = append(out.records, c.fallback()...)
	}

	if c.secondary != nil {
		records, err := c.secondary.Inventory(ctx)
		if err != nil {
			c.logger.Warn("secondary inventory fetch failed, continuing without it", zap.Error(err))
		} else {
			out.records = append(out.records, records...)
		}
	}

	out.sellerCount, out.secondaryCount = CountBySource(out.records)
	out.duration = c.now().Sub(start)

	c.count(ctx, aws_pkg.MetricUpstreamSyncs)
	c.latency(ctx, aws_pkg.MetricUpstreamSyncLatency, out.duration)
	c.logger.Info("inventory collected",
		zap.String("data_source", out.dataSource),
		zap.Int("upstream", out.sellerCount),
		zap.Int("secondary", out.secondaryCount),
		zap.Bool("partial", out.partial),
		zap.Duration("duration", out.duration))
	return out
}

func (c *collector) fetchUpstream(ctx context.Context) (*sellerdynamics.FetchResult, error) {
	if c.upstream == nil {
		return nil, errUpstreamMissing
	}
	res, err := c.upstream.FetchInventory(ctx)
	if err != nil {
		c.logger.Error("upstream inventory fetch failed, using placeholder data", zap.Error(err))
		return res, err
	}
	return res, nil
}

var errUpstreamMissing = errors.New("upstream source not configured")

// count and latency send metrics in the background.
func (c *collector) count(ctx context.Context, name string) {
	if c.metrics == nil || !c.metrics.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsTimeout)
		defer cancel()
		if err := c.metrics.RecordCount(ctx, name, nil); err != nil {
			c.logger.Debug("metric not recorded", zap.String("metric", name), zap.Error(err))
		}
	}()
}

func (c *collector) latency(ctx context.Context, name string, d time.Duration) {
	if c.metrics == nil || !c.metrics.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsTimeout)
		defer cancel()
		if err := c.metrics.RecordLatency(ctx, name, d, nil); err != nil {
			c.logger.Debug("metric not recorded", zap.String("metric", name), zap.Error(err))
		}
	}()
}
