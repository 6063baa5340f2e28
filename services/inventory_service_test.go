package services_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/inventory-service/cache"
	"github.com/yashrajoria/inventory-service/fixtures"
	"github.com/yashrajoria/inventory-service/models"
	"github.com/yashrajoria/inventory-service/sellerdynamics"
	"github.com/yashrajoria/inventory-service/services"
)

func newInventoryService(t *testing.T, up *fakeUpstream, sec *fakeSecondary, clk *clock, store services.CacheStore) services.InventoryService {
	t.Helper()
	deps := services.InventoryDeps{
		Upstream: up,
		Store:    store,
		Fallback: fixtures.Placeholder,
		MaxAge:   time.Hour,
		Now:      clk.Now,
	}
	if sec != nil {
		deps.Secondary = sec
	}
	return services.NewInventoryService(deps, nil)
}

func TestGetPage_MissThenHit(t *testing.T) {
	clk := newClock()
	up := upstreamWith(12, clk.Now())
	sec := &fakeSecondary{records: fixtures.Generate(3, models.SourceSecondary, clk.Now())}
	svc := newInventoryService(t, up, sec, clk, newStore(t, clk))

	first, svcErr := svc.GetPage(context.Background(), models.PageQuery{Page: 1, Limit: 10})
	require.Nil(t, svcErr)
	assert.True(t, first.Success)
	assert.Equal(t, models.DataSourceReal, first.Meta.DataSource)
	assert.True(t, first.Meta.CacheUpdated)
	assert.Equal(t, 12, first.Meta.SellerCount)
	assert.Equal(t, 3, first.Meta.SecondaryCount)
	assert.Equal(t, 15, first.Pagination.TotalItems)
	assert.Equal(t, 2, first.Pagination.TotalPages)
	assert.Equal(t, "UUUUSUUUUS", sources(first.Data))
	require.NotNil(t, first.Meta.IntegrationStatus)

	clk.Advance(30 * time.Minute)
	second, svcErr := svc.GetPage(context.Background(), models.PageQuery{Page: 2, Limit: 10})
	require.Nil(t, svcErr)
	assert.Equal(t, models.DataSourceCached, second.Meta.DataSource)
	assert.False(t, second.Meta.CacheUpdated)
	assert.Len(t, second.Data, 5)
	assert.Equal(t, 1, up.fetchCount())
}

func TestGetPage_RefreshBypassesCache(t *testing.T) {
	clk := newClock()
	up := upstreamWith(4, clk.Now())
	svc := newInventoryService(t, up, nil, clk, newStore(t, clk))

	_, _ = svc.GetPage(context.Background(), models.PageQuery{})
	page, svcErr := svc.GetPage(context.Background(), models.PageQuery{Refresh: true})
	require.Nil(t, svcErr)
	assert.Equal(t, models.DataSourceReal, page.Meta.DataSource)
	assert.Equal(t, 2, up.fetchCount())
}

func TestGetPage_StaleCacheRefetches(t *testing.T) {
	clk := newClock()
	up := upstreamWith(4, clk.Now())
	svc := newInventoryService(t, up, nil, clk, newStore(t, clk))

	_, _ = svc.GetPage(context.Background(), models.PageQuery{})
	clk.Advance(61 * time.Minute)
	page, _ := svc.GetPage(context.Background(), models.PageQuery{})

	assert.Equal(t, models.DataSourceReal, page.Meta.DataSource)
	assert.Equal(t, 2, up.fetchCount())
}

func TestGetPage_UpstreamDownServesPlaceholder(t *testing.T) {
	clk := newClock()
	up := &fakeUpstream{err: sellerdynamics.ErrFirstPageFailed}
	sec := &fakeSecondary{records: fixtures.Generate(2, models.SourceSecondary, clk.Now())}
	svc := newInventoryService(t, up, sec, clk, newStore(t, clk))

	page, svcErr := svc.GetPage(context.Background(), models.PageQuery{})
	require.Nil(t, svcErr)
	assert.Equal(t, models.DataSourceMock, page.Meta.DataSource)
	assert.Equal(t, len(fixtures.Placeholder()), page.Meta.SellerCount)
	assert.Equal(t, 2, page.Meta.SecondaryCount)
}

func TestGetPage_UsesFetcherFallbackResult(t *testing.T) {
	clk := newClock()
	up := &fakeUpstream{
		err: sellerdynamics.ErrFirstPageFailed,
		result: &sellerdynamics.FetchResult{
			Records:    fixtures.Generate(2, models.SourceUpstream, clk.Now()),
			DataSource: models.DataSourceMock,
		},
	}
	svc := newInventoryService(t, up, nil, clk, newStore(t, clk))

	page, _ := svc.GetPage(context.Background(), models.PageQuery{})
	assert.Equal(t, models.DataSourceMock, page.Meta.DataSource)
	assert.Equal(t, 2, page.Pagination.TotalItems)
}

func TestGetPage_SecondaryFailureDoesNotBlock(t *testing.T) {
	clk := newClock()
	up := upstreamWith(5, clk.Now())
	sec := &fakeSecondary{err: errors.New("storefront down")}
	svc := newInventoryService(t, up, sec, clk, newStore(t, clk))

	page, svcErr := svc.GetPage(context.Background(), models.PageQuery{})
	require.Nil(t, svcErr)
	assert.Equal(t, models.DataSourceReal, page.Meta.DataSource)
	assert.Equal(t, 5, page.Pagination.TotalItems)
	assert.Equal(t, 0, page.Meta.SecondaryCount)
}

func TestGetPage_SourceFilter(t *testing.T) {
	clk := newClock()
	up := upstreamWith(7, clk.Now())
	sec := &fakeSecondary{records: fixtures.Generate(3, models.SourceSecondary, clk.Now())}
	svc := newInventoryService(t, up, sec, clk, newStore(t, clk))

	page, _ := svc.GetPage(context.Background(), models.PageQuery{Source: "Secondary", Limit: 2})
	assert.Equal(t, 3, page.Pagination.TotalItems)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Equal(t, "SS", sources(page.Data))

	page, _ = svc.GetPage(context.Background(), models.PageQuery{Source: "all", Limit: 100})
	assert.Equal(t, 10, page.Pagination.TotalItems)
	assert.Equal(t, 7, page.Meta.SellerCount)
}

func TestGetPage_CacheWriteFailureStillServes(t *testing.T) {
	clk := newClock()
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	store := cache.New(cache.NewFileBackend(blocker), nil, cache.WithClock(clk.Now))

	svc := newInventoryService(t, upstreamWith(3, clk.Now()), nil, clk, store)
	page, svcErr := svc.GetPage(context.Background(), models.PageQuery{})

	require.Nil(t, svcErr)
	assert.False(t, page.Meta.CacheUpdated)
	assert.Equal(t, 3, page.Pagination.TotalItems)
	assert.Equal(t, clk.Now(), page.Meta.LastUpdated)
}

func TestUpdateItem_BothTargets(t *testing.T) {
	clk := newClock()
	up := upstreamWith(1, clk.Now())
	sec := &fakeSecondary{}
	svc := newInventoryService(t, up, sec, clk, newStore(t, clk))

	price := decimal.RequireFromString("4.20")
	res, svcErr := svc.UpdateItem(context.Background(), &models.StockUpdateRequest{
		SKU: "BG-NAB12",
		Updates: models.StockUpdate{
			CurrentStock:   intPtr(40),
			AllocatedStock: intPtr(3),
			Price:          &price,
			ProductID:      "1001",
			VariantID:      "5001",
		},
	})
	require.Nil(t, svcErr)
	assert.Equal(t, 2, res.Succeeded)
	assert.False(t, res.Partial)
	require.Len(t, res.Targets, 2)
	assert.Equal(t, services.TargetUpstream, res.Targets[0].System)
	assert.Equal(t, services.TargetSecondary, res.Targets[1].System)

	require.Len(t, up.updates, 1)
	assert.Equal(t, stockCall{"BG-NAB12", 40, 3}, up.updates[0])
	require.Len(t, sec.updates, 1)
	assert.Equal(t, "1001", sec.updates[0].productID)
	assert.Equal(t, 40, *sec.updates[0].quantity)
}

func TestUpdateItem_PartialSuccess(t *testing.T) {
	clk := newClock()
	up := upstreamWith(1, clk.Now())
	up.updateErr = errors.New("upstream rejected")
	sec := &fakeSecondary{}
	svc := newInventoryService(t, up, sec, clk, newStore(t, clk))

	res, svcErr := svc.UpdateItem(context.Background(), &models.StockUpdateRequest{
		SKU:     "SKU-1",
		Updates: models.StockUpdate{CurrentStock: intPtr(5), ProductID: "9"},
	})
	require.Nil(t, svcErr)
	assert.True(t, res.Partial)
	assert.Equal(t, 1, res.Succeeded)
	assert.False(t, res.Targets[0].Success)
	assert.Equal(t, "upstream rejected", res.Targets[0].Error)
}

func TestUpdateItem_AllTargetsFail(t *testing.T) {
	clk := newClock()
	up := upstreamWith(1, clk.Now())
	up.updateErr = errors.New("down")
	svc := newInventoryService(t, up, nil, clk, newStore(t, clk))

	res, svcErr := svc.UpdateItem(context.Background(), &models.StockUpdateRequest{
		SKU:     "SKU-1",
		Updates: models.StockUpdate{CurrentStock: intPtr(5), ProductID: "9"},
	})
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusBadGateway, svcErr.StatusCode)
	require.NotNil(t, res)
	assert.Equal(t, 0, res.Succeeded)
	assert.Equal(t, "secondary platform not configured", res.Targets[1].Error)
}

func TestUpdateItem_NoApplicableUpdates(t *testing.T) {
	clk := newClock()
	svc := newInventoryService(t, upstreamWith(1, clk.Now()), nil, clk, newStore(t, clk))

	_, svcErr := svc.UpdateItem(context.Background(), &models.StockUpdateRequest{SKU: "SKU-1"})
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)
}

func TestUpdateItem_FillsMissingFiguresFromCache(t *testing.T) {
	clk := newClock()
	up := upstreamWith(3, clk.Now())
	store := newStore(t, clk)
	svc := newInventoryService(t, up, nil, clk, store)

	page, _ := svc.GetPage(context.Background(), models.PageQuery{})
	target := page.Data[1]

	_, svcErr := svc.UpdateItem(context.Background(), &models.StockUpdateRequest{
		SKU:     target.SKU,
		Updates: models.StockUpdate{CurrentStock: intPtr(99)},
	})
	require.Nil(t, svcErr)
	require.Len(t, up.updates, 1)
	assert.Equal(t, stockCall{target.SKU, 99, target.AllocatedStock}, up.updates[0])
}
