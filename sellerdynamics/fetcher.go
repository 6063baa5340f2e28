package sellerdynamics

import (
	"context"
	"fmt"
	"time"

	"github.com/yashrajoria/inventory-service/models"
	"go.uber.org/zap"
)

// PageFunc fetches one page of records. page starts at 1.
type PageFunc func(ctx context.Context, page, pageSize int) ([]models.InventoryRecord, error)

// FetchResult is the outcome of a paginated fetch.
type FetchResult struct {
	Records    []models.InventoryRecord
	Pages      int
	DataSource string
	// Partial is set when a failure after the first page ended the fetch;
	// Err holds that failure.
	Partial bool
	Err     error
}

// Fetcher pages through a listing until a short or empty page, a failure or
// the page limit.
type Fetcher struct {
	fetchPage PageFunc
	maxPages  int
	pageSize  int
	delay     time.Duration
	fallback  func() []models.InventoryRecord
	logger    *zap.Logger
}

type FetcherOption func(*Fetcher)

// WithPageDelay sets the pause between consecutive page requests.
func WithPageDelay(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.delay = d }
}

// WithFallback sets the dataset returned when the first page fails.
func WithFallback(fn func() []models.InventoryRecord) FetcherOption {
	return func(f *Fetcher) { f.fallback = fn }
}

func NewFetcher(fetchPage PageFunc, maxPages, pageSize int, logger *zap.Logger, opts ...FetcherOption) *Fetcher {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Fetcher{
		fetchPage: fetchPage,
		maxPages:  maxPages,
		pageSize:  pageSize,
		delay:     DefaultPageDelay,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAll collects every page. A first-page failure returns an error
// wrapping ErrFirstPageFailed; when a fallback is configured the result is
// also returned, carrying the fallback records tagged as mock data. Later
// failures end the fetch with the records gathered so far and no error.
func (f *Fetcher) FetchAll(ctx context.Context) (*FetchResult, error) {
	result := &FetchResult{DataSource: models.DataSourceReal}

	for page := 1; page <= f.maxPages; page++ {
		records, err := f.fetchPage(ctx, page, f.pageSize)
		if err != nil {
			if page == 1 {
				err = fmt.Errorf("%w: %w", ErrFirstPageFailed, err)
				f.logger.Error("first page fetch failed", zap.Error(err))
				if f.fallback == nil {
					return nil, err
				}
				return &FetchResult{
					Records:    f.fallback(),
					DataSource: models.DataSourceMock,
					Err:        err,
				}, err
			}
			f.logger.Warn("page fetch failed, returning partial result",
				zap.Int("page", page),
				zap.Int("records", len(result.Records)),
				zap.Error(err))
			result.Partial = true
			result.Err = err
			break
		}

		if len(records) == 0 {
			f.logger.Debug("empty page, stopping", zap.Int("page", page))
			break
		}
		result.Records = append(result.Records, records...)
		result.Pages++
		f.logger.Debug("page fetched",
			zap.Int("page", page),
			zap.Int("records", len(records)),
			zap.Int("total", len(result.Records)))

		if len(records) < f.pageSize || page == f.maxPages {
			break
		}
		if err := sleep(ctx, f.delay); err != nil {
			result.Partial = true
			result.Err = err
			break
		}
	}

	f.logger.Info("paginated fetch complete",
		zap.Int("pages", result.Pages),
		zap.Int("records", len(result.Records)),
		zap.Bool("partial", result.Partial))
	return result, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
