package models

import (
	"encoding/json"
	"time"
)

// CacheVersion is stamped on every saved envelope.
const CacheVersion = "1.0"

// SyncMetadata describes one cached payload.
type SyncMetadata struct {
	Type             string     `json:"type,omitempty"`
	DataSource       string     `json:"dataSource"`
	SellerCount      int        `json:"sellerCount"`
	SecondaryCount   int        `json:"secondaryCount"`
	RecordsProcessed int        `json:"recordsProcessed"`
	Note             string     `json:"note,omitempty"`
	Imported         bool       `json:"imported,omitempty"`
	ImportedAt       *time.Time `json:"importedAt,omitempty"`
	LastUpdated      time.Time  `json:"lastUpdated"`
	Version          string     `json:"version,omitempty"`
}

// SyncLogEntry is one line of the sync log.
type SyncLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	SyncMetadata
}

// CacheEnvelope is the persisted cache slot. Data is kept raw so the cache
// does not need to know the payload shape.
type CacheEnvelope struct {
	Data     json.RawMessage `json:"data"`
	Metadata SyncMetadata    `json:"metadata"`
}

// Records decodes Data as a list of inventory records.
func (e *CacheEnvelope) Records() ([]InventoryRecord, error) {
	var records []InventoryRecord
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return records, nil
	}
	if err := json.Unmarshal(e.Data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CacheStats summarizes the cache slot.
type CacheStats struct {
	Exists      bool       `json:"exists"`
	LastUpdated *time.Time `json:"lastUpdated"`
	RecordCount int        `json:"recordCount"`
	DataSource  string     `json:"dataSource,omitempty"`
	Version     string     `json:"version,omitempty"`
}

// CacheExport is what GET /sync/export returns and POST /sync/import accepts.
type CacheExport struct {
	Data          json.RawMessage `json:"data" binding:"required"`
	Metadata      SyncMetadata    `json:"metadata"`
	ExportedAt    time.Time       `json:"exportedAt"`
	ExportVersion string          `json:"exportVersion"`
}

// SyncMeta is the meta block of a POST /sync response.
type SyncMeta struct {
	SyncMetadata
	CacheHit       bool   `json:"cacheHit"`
	Cached         bool   `json:"cached"`
	SyncDurationMs int64  `json:"syncDuration,omitempty"`
	Error          string `json:"error,omitempty"`
	Details        string `json:"details,omitempty"`
}

// SyncResult is the body of POST /sync.
type SyncResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    SyncMeta        `json:"meta"`
}

// SyncStatus is the body of GET /sync.
type SyncStatus struct {
	Success bool           `json:"success"`
	Stats   CacheStats     `json:"stats"`
	Cache   *CacheEnvelope `json:"cache"`
}

// SyncRequest is the body of POST /sync.
type SyncRequest struct {
	ForceRefresh bool `json:"forceRefresh"`
}

// ArchiveResult describes an uploaded cache archive.
type ArchiveResult struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Bytes  int    `json:"bytes"`
}

// SyncEvent is published after a sync has been persisted.
type SyncEvent struct {
	ID             string    `json:"id"`
	Event          string    `json:"event"`
	DataSource     string    `json:"dataSource"`
	SellerCount    int       `json:"sellerCount"`
	SecondaryCount int       `json:"secondaryCount"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

const EventInventorySynced = "inventory.synced"
