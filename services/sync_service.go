package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/inventory-service/cache"
	"github.com/yashrajoria/inventory-service/models"
	aws_pkg "github.com/yashrajoria/inventory-service/pkg/aws"
	"github.com/yashrajoria/inventory-service/providers"
	"go.uber.org/zap"
)

const (
	archivePrefix   = "inventory-cache/"
	maxHistoryLimit = cache.DefaultLogLimit
)

// SyncService inspects and drives the cached inventory snapshot.
type SyncService interface {
	Status(ctx context.Context) (*models.SyncStatus, *ServiceError)
	Sync(ctx context.Context, force bool) (*models.SyncResult, *ServiceError)
	History(ctx context.Context, limit int) ([]models.SyncLogEntry, *ServiceError)
	Clear(ctx context.Context) *ServiceError
	Export(ctx context.Context) (*models.CacheExport, *ServiceError)
	Import(ctx context.Context, exp *models.CacheExport) (*models.SyncMetadata, *ServiceError)
	Archive(ctx context.Context) (*models.ArchiveResult, *ServiceError)
}

// SyncDeps groups the collaborators of the sync service. SNS and S3 are
// optional.
type SyncDeps struct {
	Upstream      UpstreamSource
	Secondary     providers.SecondaryProvider
	Store         CacheStore
	Fallback      func() []models.InventoryRecord
	Metrics       aws_pkg.MetricsRecorder
	Publisher     aws_pkg.SNSPublisher
	TopicArn      string
	Archiver      aws_pkg.ObjectPutter
	ArchiveBucket string
	MaxAge        time.Duration
	Now           func() time.Time
}

type syncServiceImpl struct {
	collector
	store         CacheStore
	maxAge        time.Duration
	publisher     aws_pkg.SNSPublisher
	topicArn      string
	archiver      aws_pkg.ObjectPutter
	archiveBucket string
}

// NewSyncService creates a new SyncService.
func NewSyncService(deps SyncDeps, logger *zap.Logger) SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MaxAge <= 0 {
		deps.MaxAge = time.Hour
	}
	return &syncServiceImpl{
		collector: collector{
			upstream:  deps.Upstream,
			secondary: deps.Secondary,
			fallback:  deps.Fallback,
			metrics:   deps.Metrics,
			now:       deps.Now,
			logger:    logger,
		},
		store:         deps.Store,
		maxAge:        deps.MaxAge,
		publisher:     deps.Publisher,
		topicArn:      deps.TopicArn,
		archiver:      deps.Archiver,
		archiveBucket: deps.ArchiveBucket,
	}
}

func (s *syncServiceImpl) Status(ctx context.Context) (*models.SyncStatus, *ServiceError) {
	status := &models.SyncStatus{Success: true, Stats: s.store.Stats()}
	env, err := s.store.Load()
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		s.logger.Warn("cache unreadable", zap.Error(err))
	}
	if err == nil {
		status.Cache = env
	}
	return status, nil
}

// Sync returns the cached snapshot when it is fresh and force is false.
// Otherwise it collects both sources. When the upstream fails and a
// previous snapshot exists, that snapshot is returned tagged as fallback and
// left in place.
func (s *syncServiceImpl) Sync(ctx context.Context, force bool) (*models.SyncResult, *ServiceError) {
	if !force && s.store.IsFresh(s.maxAge) {
		if env, err := s.store.Load(); err == nil {
			s.count(ctx, aws_pkg.MetricCacheHits)
			meta := env.Metadata
			meta.DataSource = models.DataSourceCached
			return &models.SyncResult{
				Success: true,
				Data:    env.Data,
				Meta:    models.SyncMeta{SyncMetadata: meta, CacheHit: true},
			}, nil
		}
	}
	s.count(ctx, aws_pkg.MetricCacheMisses)

	col := s.collect(ctx)

	if col.upstreamErr != nil {
		if prev, err := s.store.Load(); err == nil {
			s.logger.Warn("sync failed, serving previous snapshot", zap.Error(col.upstreamErr))
			meta := prev.Metadata
			meta.DataSource = models.DataSourceFallback
			return &models.SyncResult{
				Success: true,
				Data:    prev.Data,
				Meta: models.SyncMeta{
					SyncMetadata: meta,
					CacheHit:     true,
					Error:        "Sync failed, using cached data",
					Details:      col.upstreamErr.Error(),
				},
			}, nil
		}
	}

	data, err := json.Marshal(col.records)
	if err != nil {
		return nil, internal("Failed to encode inventory")
	}

	meta := col.metadata()
	if col.upstreamErr != nil {
		meta.Note = "Upstream unavailable: " + col.upstreamErr.Error()
	}
	result := &models.SyncResult{
		Success: true,
		Data:    data,
		Meta: models.SyncMeta{
			SyncMetadata:   meta,
			SyncDurationMs: col.duration.Milliseconds(),
		},
	}
	result.Meta.LastUpdated = s.now().UTC()

	env, err := s.store.Save(json.RawMessage(data), meta)
	if err != nil {
		s.logger.Error("failed to persist sync", zap.Error(err))
		return result, nil
	}
	result.Meta.Cached = true
	result.Meta.LastUpdated = env.Metadata.LastUpdated
	result.Meta.Version = env.Metadata.Version

	s.publishSynced(ctx, env.Metadata)
	return result, nil
}

// publishSynced announces a persisted sync (non-fatal on error).
func (s *syncServiceImpl) publishSynced(ctx context.Context, meta models.SyncMetadata) {
	if s.publisher == nil || s.topicArn == "" {
		s.logger.Debug("SNS not configured, skipping sync event")
		return
	}
	b, err := json.Marshal(models.SyncEvent{
		ID:             uuid.NewString(),
		Event:          models.EventInventorySynced,
		DataSource:     meta.DataSource,
		SellerCount:    meta.SellerCount,
		SecondaryCount: meta.SecondaryCount,
		LastUpdated:    meta.LastUpdated,
	})
	if err != nil {
		s.logger.Error("Failed to marshal sync event", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), s.topicArn, models.EventInventorySynced, b); err != nil {
		s.logger.Error("Failed to publish sync event", zap.Error(err))
		return
	}
	s.logger.Info("Published sync event", zap.String("topic", s.topicArn))
}

func (s *syncServiceImpl) History(ctx context.Context, limit int) ([]models.SyncLogEntry, *ServiceError) {
	if limit <= 0 {
		limit = cache.DefaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	entries, err := s.store.SyncHistory(limit)
	if err != nil {
		s.logger.Error("failed to read sync log", zap.Error(err))
		return nil, internal("Failed to read sync history")
	}
	return entries, nil
}

func (s *syncServiceImpl) Clear(ctx context.Context) *ServiceError {
	if err := s.store.Clear(); err != nil {
		s.logger.Error("failed to clear cache", zap.Error(err))
		return internal("Failed to clear cache")
	}
	return nil
}

func (s *syncServiceImpl) Export(ctx context.Context) (*models.CacheExport, *ServiceError) {
	env, svcErr := s.loadForRead()
	if svcErr != nil {
		return nil, svcErr
	}
	return &models.CacheExport{
		Data:          env.Data,
		Metadata:      env.Metadata,
		ExportedAt:    s.now().UTC(),
		ExportVersion: models.CacheVersion,
	}, nil
}

// Import stores an exported snapshot as the current one.
func (s *syncServiceImpl) Import(ctx context.Context, exp *models.CacheExport) (*models.SyncMetadata, *ServiceError) {
	if len(exp.Data) == 0 || string(exp.Data) == "null" {
		return nil, badRequest("Import data is required")
	}
	if !json.Valid(exp.Data) {
		return nil, badRequest("Import data is not valid JSON")
	}

	meta := exp.Metadata
	meta.Imported = true
	importedAt := s.now().UTC()
	meta.ImportedAt = &importedAt
	probe := models.CacheEnvelope{Data: exp.Data}
	if records, err := probe.Records(); err == nil {
		meta.SellerCount, meta.SecondaryCount = CountBySource(records)
		meta.RecordsProcessed = len(records)
	}

	env, err := s.store.Save(exp.Data, meta)
	if err != nil {
		s.logger.Error("failed to import cache", zap.Error(err))
		return nil, internal("Failed to import cache")
	}
	s.logger.Info("cache imported", zap.Int("records", meta.RecordsProcessed))
	return &env.Metadata, nil
}

// Archive uploads the current snapshot to S3.
func (s *syncServiceImpl) Archive(ctx context.Context) (*models.ArchiveResult, *ServiceError) {
	if s.archiver == nil || s.archiveBucket == "" {
		return nil, &ServiceError{StatusCode: http.StatusServiceUnavailable, Message: "Cache archive is not configured"}
	}
	env, svcErr := s.loadForRead()
	if svcErr != nil {
		return nil, svcErr
	}
	body, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, internal("Failed to encode cache")
	}

	key := archivePrefix + s.now().UTC().Format(time.RFC3339) + ".json"
	if err := s.archiver.PutObject(ctx, s.archiveBucket, key, body, "application/json"); err != nil {
		s.logger.Error("cache archive upload failed", zap.String("key", key), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusBadGateway, Message: "Failed to upload cache archive"}
	}
	s.logger.Info("cache archived", zap.String("bucket", s.archiveBucket), zap.String("key", key))
	return &models.ArchiveResult{Bucket: s.archiveBucket, Key: key, Bytes: len(body)}, nil
}

func (s *syncServiceImpl) loadForRead() (*models.CacheEnvelope, *ServiceError) {
	env, err := s.store.Load()
	if errors.Is(err, cache.ErrNotFound) {
		return nil, notFound("No cached data")
	}
	if err != nil {
		s.logger.Error("cache unreadable", zap.Error(err))
		return nil, internal("Failed to read cache")
	}
	return env, nil
}
