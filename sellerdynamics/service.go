package sellerdynamics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yashrajoria/inventory-service/models"
	"go.uber.org/zap"
)

// Caller sends an envelope and returns the raw response. *Client
// implements it.
type Caller interface {
	Call(ctx context.Context, operation, envelope, preferredAction string) ([]byte, error)
}

// Service exposes the upstream operations the inventory pipeline uses.
type Service struct {
	cfg      Config
	caller   Caller
	builder  *EnvelopeBuilder
	fallback func() []models.InventoryRecord
	now      func() time.Time
	logger   *zap.Logger
}

type ServiceOption func(*Service)

// WithCaller replaces the HTTP client.
func WithCaller(c Caller) ServiceOption {
	return func(s *Service) { s.caller = c }
}

// WithFallbackData sets the dataset used when the first stock page fails.
func WithFallbackData(fn func() []models.InventoryRecord) ServiceOption {
	return func(s *Service) { s.fallback = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(cfg Config, logger *zap.Logger, opts ...ServiceOption) *Service {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		cfg:     cfg,
		builder: NewEnvelopeBuilder(cfg),
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.caller == nil {
		s.caller = NewClient(cfg, logger)
	}
	return s
}

// Status reports which connection settings are present.
func (s *Service) Status() models.IntegrationStatus {
	mode := "Mock Mode"
	if s.cfg.Configured() {
		mode = "Live Mode"
	}
	return models.IntegrationStatus{
		Endpoint:       configuredLabel(s.cfg.Endpoint),
		EncryptedLogin: configuredLabel(s.cfg.EncryptedLogin),
		RetailerID:     configuredLabel(s.cfg.RetailerID),
		Mode:           mode,
	}
}

// Invoke builds, sends and parses one operation. Business errors come back
// as *ProtocolError.
func (s *Service) Invoke(ctx context.Context, operation string, params Params) (*Result, error) {
	if !s.cfg.Configured() {
		return nil, ErrNotConfigured
	}
	envelope := s.builder.Build(operation, params)
	preferred := `"` + s.cfg.Namespace + operation + `"`

	start := s.now()
	body, err := s.caller.Call(ctx, operation, envelope, preferred)
	if err != nil {
		return nil, err
	}
	result, err := ParseResult(body, operation)
	if err != nil {
		s.logger.Warn("could not parse upstream response",
			zap.String("operation", operation),
			zap.Error(err))
		return nil, err
	}
	if err := result.Err(); err != nil {
		s.logger.Warn("upstream returned a business error",
			zap.String("operation", operation),
			zap.String("message", result.ErrorMessage))
		return nil, err
	}
	s.logger.Debug("upstream operation complete",
		zap.String("operation", operation),
		zap.Duration("duration", s.now().Sub(start)))
	return result, nil
}

// StockLevelsPage fetches and normalizes one page of stock levels. A
// business error from the upstream is an empty page, which ends pagination
// without a fallback.
func (s *Service) StockLevelsPage(ctx context.Context, page, pageSize int) ([]models.InventoryRecord, error) {
	result, err := s.Invoke(ctx, OpGetStockLevels, Params{"pageNumber": page, "pageSize": pageSize})
	var pe *ProtocolError
	if errors.As(err, &pe) {
		s.logger.Warn("stock levels rejected, treating page as empty",
			zap.Int("page", page),
			zap.String("message", pe.Message))
		return []models.InventoryRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	levels := result.StockLevels()
	offset := (page - 1) * pageSize
	records := make([]models.InventoryRecord, 0, len(levels))
	for i, level := range levels {
		records = append(records, level.Record(offset+i, now))
	}
	return records, nil
}

// FetchInventory pages through every stock level. See Fetcher.FetchAll for
// the failure semantics.
func (s *Service) FetchInventory(ctx context.Context) (*FetchResult, error) {
	opts := []FetcherOption{WithPageDelay(s.cfg.PageDelay)}
	if s.fallback != nil {
		opts = append(opts, WithFallback(s.fallback))
	}
	f := NewFetcher(s.StockLevelsPage, s.cfg.MaxPages, s.cfg.PageSize, s.logger, opts...)
	return f.FetchAll(ctx)
}

// Orders fetches one page of orders from an order-listing operation.
func (s *Service) Orders(ctx context.Context, operation string, page, pageSize int) ([]models.Order, error) {
	if !orderOperations[operation] {
		return nil, fmt.Errorf("%s is not an order operation", operation)
	}
	result, err := s.Invoke(ctx, operation, Params{"pageNumber": page, "pageSize": pageSize})
	if err != nil {
		return nil, err
	}
	return result.Orders(s.now()), nil
}

// UpdateStockLevel writes the stock figures for sku.
func (s *Service) UpdateStockLevel(ctx context.Context, sku string, quantity, allocated int) error {
	_, err := s.Invoke(ctx, OpUpdateStockLevel, Params{
		"sku":               sku,
		"quantity":          quantity,
		"allocatedQuantity": allocated,
	})
	return err
}
