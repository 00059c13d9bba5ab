package prices

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"market-price-api/src/models"
	"market-price-api/src/pricecache"
)

// SavePriceRequest carries one bar write, whether it arrived over REST or as
// a streamed tick.
type SavePriceRequest struct {
	Symbol    string
	Provider  string
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	Interval  string
	Timestamp time.Time
}

// SavePrice is the single write path: resolve or create the asset, upsert
// the bar by (asset, interval, timestamp), and drop the current-price cache
// entry for the tuple. Range-keyed cache entries are left to expire on their
// own TTL; pattern deletion across the cache backend is intentionally not
// attempted.
func (s *Service) SavePrice(ctx context.Context, req SavePriceRequest) (uuid.UUID, error) {
	asset, err := s.store.CreateAssetIfMissing(ctx, req.Symbol, req.Provider)
	if err != nil {
		return uuid.Nil, fmt.Errorf("SavePrice: %w", err)
	}

	bar := &models.AssetPrice{
		AssetID:   asset.ID,
		Open:      req.Open,
		High:      req.High,
		Low:       req.Low,
		Close:     req.Close,
		Volume:    req.Volume,
		Interval:  req.Interval,
		Provider:  req.Provider,
		Timestamp: req.Timestamp,
	}

	if err := s.store.UpsertBar(ctx, bar); err != nil {
		return uuid.Nil, fmt.Errorf("SavePrice: %w", err)
	}

	if err := s.store.TouchAssetSync(ctx, asset); err != nil {
		log.Warnf("SavePrice: failed to touch asset sync time for %s: %v", req.Symbol, err)
	}

	s.cache.Remove(ctx, pricecache.CurrentPriceKey(req.Symbol, req.Provider, req.Interval))

	return bar.ID, nil
}
