package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/inventory-service/cache"
	"github.com/yashrajoria/inventory-service/fixtures"
	"github.com/yashrajoria/inventory-service/models"
	"github.com/yashrajoria/inventory-service/sellerdynamics"
	"github.com/yashrajoria/inventory-service/services"
)

type published struct {
	topic, eventType string
	body             []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(ctx context.Context, topicArn, eventType string, message []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topicArn, eventType, message})
	return p.err
}

type putCall struct {
	bucket, key, contentType string
	body                     []byte
}

type fakePutter struct {
	calls []putCall
	err   error
}

func (p *fakePutter) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	p.calls = append(p.calls, putCall{bucket, key, contentType, body})
	return p.err
}

type syncFixture struct {
	svc   services.SyncService
	up    *fakeUpstream
	store *cache.Cache
	clk   *clock
	pub   *fakePublisher
	put   *fakePutter
}

func newSyncFixture(t *testing.T, up *fakeUpstream, archive bool) *syncFixture {
	t.Helper()
	clk := newClock()
	f := &syncFixture{up: up, clk: clk, store: newStore(t, clk), pub: &fakePublisher{}, put: &fakePutter{}}
	deps := services.SyncDeps{
		Upstream:  up,
		Store:     f.store,
		Fallback:  fixtures.Placeholder,
		Publisher: f.pub,
		TopicArn:  "arn:aws:sns:eu-west-2:000000000000:inventory-events",
		MaxAge:    time.Hour,
		Now:       clk.Now,
	}
	if archive {
		deps.Archiver = f.put
		deps.ArchiveBucket = "inventory-archive"
	}
	f.svc = services.NewSyncService(deps, nil)
	return f
}

func TestSync_FetchesPersistsAndPublishes(t *testing.T) {
	f := newSyncFixture(t, upstreamWith(6, time.Now()), false)

	res, svcErr := f.svc.Sync(context.Background(), false)
	require.Nil(t, svcErr)
	assert.True(t, res.Success)
	assert.Equal(t, models.DataSourceReal, res.Meta.DataSource)
	assert.True(t, res.Meta.Cached)
	assert.False(t, res.Meta.CacheHit)
	assert.Equal(t, 6, res.Meta.SellerCount)
	assert.Equal(t, models.CacheVersion, res.Meta.Version)

	var records []models.InventoryRecord
	require.NoError(t, json.Unmarshal(res.Data, &records))
	assert.Len(t, records, 6)

	require.Len(t, f.pub.msgs, 1)
	assert.Equal(t, models.EventInventorySynced, f.pub.msgs[0].eventType)
	var event models.SyncEvent
	require.NoError(t, json.Unmarshal(f.pub.msgs[0].body, &event))
	assert.Equal(t, models.EventInventorySynced, event.Event)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, 6, event.SellerCount)
}

func TestSync_FreshCacheIsReturned(t *testing.T) {
	f := newSyncFixture(t, upstreamWith(3, time.Now()), false)
	_, _ = f.svc.Sync(context.Background(), false)

	f.clk.Advance(10 * time.Minute)
	res, svcErr := f.svc.Sync(context.Background(), false)
	require.Nil(t, svcErr)
	assert.Equal(t, models.DataSourceCached, res.Meta.DataSource)
	assert.True(t, res.Meta.CacheHit)
	assert.Equal(t, 1, f.up.fetchCount())

	res, _ = f.svc.Sync(context.Background(), true)
	assert.Equal(t, models.DataSourceReal, res.Meta.DataSource)
	assert.Equal(t, 2, f.up.fetchCount())
}

func TestSync_UpstreamFailureKeepsPreviousSnapshot(t *testing.T) {
	f := newSyncFixture(t, upstreamWith(3, time.Now()), false)
	first, _ := f.svc.Sync(context.Background(), false)

	f.up.result = nil
	f.up.err = sellerdynamics.ErrFirstPageFailed
	f.clk.Advance(2 * time.Hour)

	res, svcErr := f.svc.Sync(context.Background(), false)
	require.Nil(t, svcErr)
	assert.Equal(t, models.DataSourceFallback, res.Meta.DataSource)
	assert.True(t, res.Meta.CacheHit)
	assert.Equal(t, "Sync failed, using cached data", res.Meta.Error)
	assert.JSONEq(t, string(first.Data), string(res.Data))

	env, err := f.store.Load()
	require.NoError(t, err)
	assert.Equal(t, models.DataSourceReal, env.Metadata.DataSource)
	history, _ := f.store.SyncHistory(10)
	assert.Len(t, history, 1)
	assert.Len(t, f.pub.msgs, 1)
}

func TestSync_UpstreamFailureWithoutCacheUsesPlaceholder(t *testing.T) {
	f := newSyncFixture(t, &fakeUpstream{err: sellerdynamics.ErrNotConfigured}, false)

	res, svcErr := f.svc.Sync(context.Background(), false)
	require.Nil(t, svcErr)
	assert.Equal(t, models.DataSourceMock, res.Meta.DataSource)
	assert.True(t, strings.HasPrefix(res.Meta.Note, "Upstream unavailable"))
	assert.True(t, res.Meta.Cached)
	assert.Equal(t, len(fixtures.Placeholder()), res.Meta.RecordsProcessed)
}

func TestSync_PublishFailureIsNotFatal(t *testing.T) {
	f := newSyncFixture(t, upstreamWith(2, time.Now()), false)
	f.pub.err = errors.New("sns down")

	res, svcErr := f.svc.Sync(context.Background(), true)
	require.Nil(t, svcErr)
	assert.True(t, res.Meta.Cached)
}

func TestStatus(t *testing.T) {
	f := newSyncFixture(t, upstreamWith(2, time.Now()), false)

	st, _ := f.svc.Status(context.Background())
	assert.False(t, st.Stats.Exists)
	assert.Nil(t, st.Cache)

	_, _ = f.svc.Sync(context.Background(), false)
	st, _ = f.svc.Status(context.Background())
	assert.True(t, st.Stats.Exists)
	assert.Equal(t, 2, st.Stats.RecordCount)
	require.NotNil(t, st.Cache)
}

func TestHistory_LimitsAndDefaults(t *testing.T) {
	f := newSyncFixture(t, upstreamWith(1, time.Now()), false)
	for i := 0; i < 12; i++ {
		_, _ = f.svc.Sync(context.Background(), true)
		f.clk.Advance(time.Second)
	}

	entries, svcErr := f.svc.History(context.Background(), 0)
	require.Nil(t, svcErr)
	assert.Len(t, entries, cache.DefaultHistoryLimit)

	entries, _ = f.svc.History(context.Background(), 3)
	assert.Len(t, entries, 3)
	assert.True(t, entries[0].Timestamp.After(entries[1].Timestamp))

	entries, _ = f.svc.History(context.Background(), 5000)
	assert.Len(t, entries, 12)
}

func TestClear(t *testing.T) {
	f := newSyncFixture(t, upstreamWith(1, time.Now()), false)
	_, _ = f.svc.Sync(context.Background(), false)

	require.Nil(t, f.svc.Clear(context.Background()))
	_, svcErr := f.svc.Export(context.Background())
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusNotFound, svcErr.StatusCode)
}

func TestExportImport(t *testing.T) {
	f := newSyncFixture(t, upstreamWith(4, time.Now()), false)
	_, _ = f.svc.Sync(context.Background(), false)

	exp, svcErr := f.svc.Export(context.Background())
	require.Nil(t, svcErr)
	assert.Equal(t, models.CacheVersion, exp.ExportVersion)
	assert.Equal(t, f.clk.Now(), exp.ExportedAt)

	require.Nil(t, f.svc.Clear(context.Background()))
	f.clk.Advance(time.Minute)

	meta, svcErr := f.svc.Import(context.Background(), exp)
	require.Nil(t, svcErr)
	assert.True(t, meta.Imported)
	require.NotNil(t, meta.ImportedAt)
	assert.Equal(t, f.clk.Now(), *meta.ImportedAt)
	assert.Equal(t, 4, meta.RecordsProcessed)

	env, err := f.store.Load()
	require.NoError(t, err)
	assert.True(t, env.Metadata.Imported)
	assert.JSONEq(t, string(exp.Data), string(env.Data))
}

func TestImport_RejectsEmptyOrInvalidData(t *testing.T) {
	f := newSyncFixture(t, upstreamWith(1, time.Now()), false)

	_, svcErr := f.svc.Import(context.Background(), &models.CacheExport{})
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)

	_, svcErr = f.svc.Import(context.Background(), &models.CacheExport{Data: json.RawMessage(`{broken`)})
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)
}

func TestArchive_NotConfigured(t *testing.T) {
	f := newSyncFixture(t, upstreamWith(1, time.Now()), false)

	_, svcErr := f.svc.Archive(context.Background())
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusServiceUnavailable, svcErr.StatusCode)
}

func TestArchive_UploadsSnapshot(t *testing.T) {
	f := newSyncFixture(t, upstreamWith(2, time.Now()), true)

	_, svcErr := f.svc.Archive(context.Background())
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusNotFound, svcErr.StatusCode)

	_, _ = f.svc.Sync(context.Background(), false)
	res, svcErr := f.svc.Archive(context.Background())
	require.Nil(t, svcErr)
	assert.Equal(t, "inventory-archive", res.Bucket)
	assert.Equal(t, "inventory-cache/2025-06-01T12:00:00Z.json", res.Key)

	require.Len(t, f.put.calls, 1)
	call := f.put.calls[0]
	assert.Equal(t, "application/json", call.contentType)
	assert.Equal(t, res.Bytes, len(call.body))

	var env models.CacheEnvelope
	require.NoError(t, json.Unmarshal(call.body, &env))
	assert.Equal(t, models.DataSourceReal, env.Metadata.DataSource)
}

func TestArchive_UploadFailure(t *testing.T) {
	f := newSyncFixture(t, upstreamWith(2, time.Now()), true)
	f.put.err = errors.New("access denied")
	_, _ = f.svc.Sync(context.Background(), false)

	_, svcErr := f.svc.Archive(context.Background())
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusBadGateway, svcErr.StatusCode)
}
