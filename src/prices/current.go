package prices

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"market-price-api/src/models"
	"market-price-api/src/pricecache"
)

// GetCurrentPrice returns the latest bar for (symbol, provider, interval),
// refreshing from upstream when the stored bar is older than the interval's
// staleness window. A nil result with nil error means the asset is unknown
// or no data is obtainable anywhere. Upstream failure never fails the read
// while a stored bar exists.
func (s *Service) GetCurrentPrice(ctx context.Context, symbol, provider, interval string) (*models.PriceDTO, error) {
	cacheKey := pricecache.CurrentPriceKey(symbol, provider, interval)

	var cached models.PriceDTO
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	asset, found, err := s.store.FindAssetBySymbolProvider(ctx, symbol, provider)
	if err != nil {
		return nil, fmt.Errorf("GetCurrentPrice: %w", err)
	}

	// Unknown assets never trigger an upstream fetch.
	if !found {
		return nil, nil
	}

	latest, haveLatest, err := s.store.LatestBar(ctx, asset.ID, interval)
	if err != nil {
		return nil, fmt.Errorf("GetCurrentPrice: %w", err)
	}

	stale := !haveLatest || s.now().Sub(latest.Timestamp) > models.IntervalMaxAge(interval)

	if stale {
		if fresh := s.fetchLatestBar(ctx, asset, provider, interval); fresh != nil {
			latest = fresh
			haveLatest = true
		}
	}

	if !haveLatest {
		return nil, nil
	}

	result := latest.ToDTO(asset.Symbol)
	s.cache.Set(ctx, cacheKey, result, pricecache.CurrentPriceTTL)

	return result, nil
}

// fetchLatestBar pulls a single count-back bar from upstream and persists
// it. Failures are logged and reported as nil so the caller falls back to
// whatever the store already holds.
func (s *Service) fetchLatestBar(ctx context.Context, asset *models.Asset, provider, interval string) *models.AssetPrice {
	resp, err := s.fetcher.FetchBarsCountBack(ctx, asset.Symbol, provider, models.IntervalMinutes(interval), interval, 1)
	if err != nil {
		log.Warnf("fetchLatestBar: upstream fetch failed for %s: %v", asset.Symbol, err)
		return nil
	}

	if resp == nil || len(resp.Bars) == 0 {
		log.Debugf("fetchLatestBar: upstream returned no bars for %s", asset.Symbol)
		return nil
	}

	upstream := resp.Bars[0]
	bar := &models.AssetPrice{
		AssetID:   asset.ID,
		Open:      upstream.Open,
		High:      upstream.High,
		Low:       upstream.Low,
		Close:     upstream.Close,
		Volume:    upstream.Volume,
		Interval:  interval,
		Provider:  provider,
		Timestamp: upstream.Timestamp,
	}

	if err := s.store.UpsertBar(ctx, bar); err != nil {
		log.Errorf("fetchLatestBar: failed to persist bar for %s: %v", asset.Symbol, err)
		return nil
	}

	return bar
}
