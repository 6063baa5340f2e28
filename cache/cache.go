package cache

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/yashrajoria/inventory-service/models"
	"go.uber.org/zap"
)

const (
	KeySnapshot = "cache"
	KeySyncLog  = "sync-log"

	DefaultLogLimit     = 100
	DefaultHistoryLimit = 10
)

// Cache is a single-slot snapshot store with freshness checks and a
// most-recent-first sync log capped at a fixed number of entries.
type Cache struct {
	backend  Backend
	logLimit int
	now      func() time.Time
	logger   *zap.Logger
	mu       sync.Mutex
}

type Option func(*Cache)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogLimit caps the sync log at n entries.
func WithLogLimit(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.logLimit = n
		}
	}
}

func New(backend Backend, logger *zap.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		backend:  backend,
		logLimit: DefaultLogLimit,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Save replaces the snapshot with data, stamping meta with the current time
// and cache version, then appends meta to the sync log. A log failure is
// logged and does not fail the save.
func (c *Cache) Save(data any, meta models.SyncMetadata) (*models.CacheEnvelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, &CacheError{Op: "encode", Key: KeySnapshot, Err: err}
	}
	meta.LastUpdated = c.now().UTC()
	meta.Version = models.CacheVersion
	env := &models.CacheEnvelope{Data: raw, Metadata: meta}

	doc, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, &CacheError{Op: "encode", Key: KeySnapshot, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.backend.Write(KeySnapshot, doc); err != nil {
		c.logger.Error("failed to write cache", zap.Error(err))
		return nil, &CacheError{Op: "write", Key: KeySnapshot, Err: err}
	}
	if err := c.appendLocked(meta); err != nil {
		c.logger.Warn("failed to append sync log", zap.Error(err))
	}

	c.logger.Info("cache saved",
		zap.String("data_source", meta.DataSource),
		zap.Int("records", meta.RecordsProcessed))
	return env, nil
}

// Load returns the current snapshot. It returns ErrNotFound when no snapshot
// exists and a *CacheError when the stored document cannot be read.
func (c *Cache) Load() (*models.CacheEnvelope, error) {
	doc, err := c.backend.Read(KeySnapshot)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &CacheError{Op: "read", Key: KeySnapshot, Err: err}
	}

	var env models.CacheEnvelope
	if err := json.Unmarshal(doc, &env); err != nil {
		return nil, &CacheError{Op: "decode", Key: KeySnapshot, Err: err}
	}
	return &env, nil
}

// IsFresh reports whether a snapshot exists and is younger than maxAge.
func (c *Cache) IsFresh(maxAge time.Duration) bool {
	env, err := c.Load()
	if err != nil {
		return false
	}
	return c.now().Sub(env.Metadata.LastUpdated) < maxAge
}

// AppendSyncLog records meta at the head of the sync log.
func (c *Cache) AppendSyncLog(meta models.SyncMetadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.appendLocked(meta)
}

func (c *Cache) appendLocked(meta models.SyncMetadata) error {
	entries, err := c.readLog()
	if err != nil {
		// a corrupt log is replaced rather than blocking new entries
		c.logger.Warn("discarding unreadable sync log", zap.Error(err))
		entries = nil
	}

	entry := models.SyncLogEntry{Timestamp: c.now().UTC(), SyncMetadata: meta}
	entries = append([]models.SyncLogEntry{entry}, entries...)
	if len(entries) > c.logLimit {
		entries = entries[:c.logLimit]
	}

	doc, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return &CacheError{Op: "encode", Key: KeySyncLog, Err: err}
	}
	if err := c.backend.Write(KeySyncLog, doc); err != nil {
		return &CacheError{Op: "write", Key: KeySyncLog, Err: err}
	}
	return nil
}

func (c *Cache) readLog() ([]models.SyncLogEntry, error) {
	doc, err := c.backend.Read(KeySyncLog)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &CacheError{Op: "read", Key: KeySyncLog, Err: err}
	}
	var entries []models.SyncLogEntry
	if err := json.Unmarshal(doc, &entries); err != nil {
		return nil, &CacheError{Op: "decode", Key: KeySyncLog, Err: err}
	}
	return entries, nil
}

// SyncHistory returns up to limit log entries, most recent first.
func (c *Cache) SyncHistory(limit int) ([]models.SyncLogEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	entries, err := c.readLog()
	if err != nil {
		return nil, err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []models.SyncLogEntry{}
	}
	return entries, nil
}

// Stats summarizes the snapshot. A missing or unreadable snapshot reports
// Exists=false.
func (c *Cache) Stats() models.CacheStats {
	env, err := c.Load()
	if err != nil {
		return models.CacheStats{}
	}
	updated := env.Metadata.LastUpdated
	return models.CacheStats{
		Exists:      true,
		LastUpdated: &updated,
		RecordCount: countRecords(env.Data),
		DataSource:  env.Metadata.DataSource,
		Version:     env.Metadata.Version,
	}
}

// Clear removes the snapshot. The sync log is kept.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.backend.Delete(KeySnapshot); err != nil {
		return &CacheError{Op: "delete", Key: KeySnapshot, Err: err}
	}
	c.logger.Info("cache cleared")
	return nil
}

// countRecords counts list entries in data: a top-level list, or every list
// value of a top-level object.
func countRecords(data json.RawMessage) int {
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err == nil {
		return len(list)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return 0
	}
	total := 0
	for _, v := range obj {
		if err := json.Unmarshal(v, &list); err == nil {
			total += len(list)
		}
	}
	return total
}
