package prices

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"market-price-api/src/models"
	"market-price-api/src/pricecache"
)

// GetHistoricalPrices returns bars for the window, newest first. When the
// store looks incomplete for the window the missing bars are backfilled from
// upstream and the range is re-read from the store, which stays
// authoritative over any in-memory merge. An unknown asset yields an empty
// list. limit caps only the store query, never the upstream fetch.
func (s *Service) GetHistoricalPrices(ctx context.Context, symbol, provider, interval string, start, end time.Time, limit int) ([]models.PriceDTO, error) {
	if end.IsZero() {
		end = s.now()
	}

	cacheKey := pricecache.HistoricalKey(symbol, provider, interval, start, end, limit)

	var cached []models.PriceDTO
	if s.cache.Get(ctx, cacheKey, &cached) {
		return cached, nil
	}

	asset, found, err := s.store.FindAssetBySymbolProvider(ctx, symbol, provider)
	if err != nil {
		return nil, fmt.Errorf("GetHistoricalPrices: %w", err)
	}

	if !found {
		return []models.PriceDTO{}, nil
	}

	stored, err := s.store.BarsInRange(ctx, asset.ID, interval, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("GetHistoricalPrices: %w", err)
	}

	if s.rangeIncomplete(stored, start, end) {
		if s.backfillRange(ctx, asset, provider, interval, start, end) {
			stored, err = s.store.BarsInRange(ctx, asset.ID, interval, start, end, limit)
			if err != nil {
				return nil, fmt.Errorf("GetHistoricalPrices: re-read after backfill: %w", err)
			}
		}
	}

	result := make([]models.PriceDTO, 0, len(stored))
	for i := range stored {
		result = append(result, *stored[i].ToDTO(asset.Symbol))
	}

	s.cache.Set(ctx, cacheKey, result, pricecache.HistoricalTTL)

	return result, nil
}

// rangeIncomplete applies the fill-ratio heuristic: expected bar count is
// approximated by the window's elapsed minutes. Coarse, but it only decides
// whether to attempt a refill.
func (s *Service) rangeIncomplete(stored []models.AssetPrice, start, end time.Time) bool {
	if len(stored) == 0 {
		return true
	}

	expected := end.Sub(start).Minutes()

	return float64(len(stored)) < expected*s.fillRatio
}

// backfillRange fetches the window from upstream and persists the bars the
// store is missing. Reports whether any fetch result was obtained; upstream
// failure only logs, the caller keeps serving the stored bars.
func (s *Service) backfillRange(ctx context.Context, asset *models.Asset, provider, interval string, start, end time.Time) bool {
	resp, err := s.fetcher.FetchBarsDateRange(ctx, asset.Symbol, provider, models.IntervalMinutes(interval), interval, start, end)
	if err != nil {
		log.Warnf("backfillRange: upstream fetch failed for %s: %v", asset.Symbol, err)
		return false
	}

	if resp == nil || len(resp.Bars) == 0 {
		return false
	}

	inserted := 0
	for _, upstream := range resp.Bars {
		exists, err := s.store.BarExists(ctx, asset.ID, interval, upstream.Timestamp)
		if err != nil {
			log.Errorf("backfillRange: existence check failed for %s@%s: %v", asset.Symbol, upstream.Timestamp, err)
			continue
		}

		// Skipping known rows avoids redundant writes; the decisive
		// de-duplication is still the store's upsert-by-tuple.
		if exists {
			continue
		}

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
			log.Errorf("backfillRange: failed to persist bar for %s@%s: %v", asset.Symbol, upstream.Timestamp, err)
			continue
		}

		inserted++
	}

	log.Infof("backfillRange: %s %s: %d upstream bars, %d persisted", asset.Symbol, interval, len(resp.Bars), inserted)

	return true
}
