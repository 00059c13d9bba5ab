package prices

import (
	"context"
	"time"

	"github.com/google/uuid"

	"market-price-api/src/finta"
	"market-price-api/src/models"
	"market-price-api/src/pricecache"
)

// BarStore is the durable-store surface the price engine needs.
type BarStore interface {
	FindAssetBySymbolProvider(ctx context.Context, symbol, provider string) (*models.Asset, bool, error)
	CreateAssetIfMissing(ctx context.Context, symbol, provider string) (*models.Asset, error)
	TouchAssetSync(ctx context.Context, asset *models.Asset) error
	UpsertBar(ctx context.Context, bar *models.AssetPrice) error
	LatestBar(ctx context.Context, assetID uuid.UUID, interval string) (*models.AssetPrice, bool, error)
	BarsInRange(ctx context.Context, assetID uuid.UUID, interval string, start, end time.Time, limit int) ([]models.AssetPrice, error)
	BarExists(ctx context.Context, assetID uuid.UUID, interval string, timestamp time.Time) (bool, error)
}

// BarFetcher is the point-in-time side of the upstream market data client.
type BarFetcher interface {
	FetchBarsCountBack(ctx context.Context, instrumentID, provider string, interval int, periodicity string, barsCount int) (*finta.BarsResponse, error)
	FetchBarsDateRange(ctx context.Context, instrumentID, provider string, interval int, periodicity string, startDate, endDate time.Time) (*finta.BarsResponse, error)
}

// DefaultFillRatio is the completeness threshold for historical ranges: a
// stored range holding fewer bars than this share of the elapsed minutes
// triggers an upstream backfill. The minute-based expectation over-estimates
// for coarse intervals, which only means extra refill attempts, never wrong
// results.
const DefaultFillRatio = 0.8

// Service owns the read and write paths for prices: the freshness cascade
// for current prices, range reconciliation for historical ones, and the
// shared upsert path used by explicit saves and streamed ticks.
type Service struct {
	store     BarStore
	cache     pricecache.Cache
	fetcher   BarFetcher
	fillRatio float64
	now       func() time.Time
}

func NewService(store BarStore, cache pricecache.Cache, fetcher BarFetcher) *Service {
	return &Service{
		store:     store,
		cache:     cache,
		fetcher:   fetcher,
		fillRatio: DefaultFillRatio,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithFillRatio overrides the range completeness threshold.
func (s *Service) WithFillRatio(ratio float64) *Service {
	if ratio > 0 {
		s.fillRatio = ratio
	}
	return s
}

// WithClock fixes the service's notion of now. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}
