package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yashrajoria/inventory-service/cache"
	"github.com/yashrajoria/inventory-service/fixtures"
	"github.com/yashrajoria/inventory-service/models"
	"github.com/yashrajoria/inventory-service/sellerdynamics"
)

// ---- clock ----

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// ---- upstream mock ----

type stockCall struct {
	sku                 string
	quantity, allocated int
}

type fakeUpstream struct {
	mu        sync.Mutex
	result    *sellerdynamics.FetchResult
	err       error
	fetches   int
	updateErr error
	updates   []stockCall
	orders    map[string][]models.Order
	orderErrs map[string]error
	orderOps  []string
}

func (f *fakeUpstream) FetchInventory(ctx context.Context) (*sellerdynamics.FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.result, f.err
}

func (f *fakeUpstream) UpdateStockLevel(ctx context.Context, sku string, quantity, allocated int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, stockCall{sku, quantity, allocated})
	return f.updateErr
}

func (f *fakeUpstream) Orders(ctx context.Context, operation string, page, pageSize int) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderOps = append(f.orderOps, operation)
	if err := f.orderErrs[operation]; err != nil {
		return nil, err
	}
	return f.orders[operation], nil
}

func (f *fakeUpstream) Status() models.IntegrationStatus {
	return models.IntegrationStatus{Mode: "Live Mode"}
}

func (f *fakeUpstream) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func upstreamWith(n int, now time.Time) *fakeUpstream {
	return &fakeUpstream{result: &sellerdynamics.FetchResult{
		Records:    fixtures.Generate(n, models.SourceUpstream, now),
		Pages:      1,
		DataSource: models.DataSourceReal,
	}}
}

// ---- secondary mock ----

type variantCall struct {
	productID, variantID string
	quantity             *int
	price                *decimal.Decimal
}

type fakeSecondary struct {
	records   []models.InventoryRecord
	err       error
	updateErr error
	updates   []variantCall
}

func (f *fakeSecondary) Inventory(ctx context.Context) ([]models.InventoryRecord, error) {
	return f.records, f.err
}

func (f *fakeSecondary) UpdateVariant(ctx context.Context, productID, variantID string, quantity *int, price *decimal.Decimal) error {
	f.updates = append(f.updates, variantCall{productID, variantID, quantity, price})
	return f.updateErr
}

// ---- cache ----

func newStore(t *testing.T, clk *clock) *cache.Cache {
	t.Helper()
	return cache.New(cache.NewFileBackend(t.TempDir()), nil, cache.WithClock(clk.Now))
}

func intPtr(v int) *int { return &v }
