package prices

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-price-api/src/pricecache"
)

func saveReq(close float64, ts time.Time) SavePriceRequest {
	return SavePriceRequest{
		Symbol:    "EUR/USD",
		Provider:  "oanda",
		Open:      decimal.NewFromFloat(close - 0.001),
		High:      decimal.NewFromFloat(close + 0.001),
		Low:       decimal.NewFromFloat(close - 0.002),
		Close:     decimal.NewFromFloat(close),
		Volume:    decimal.NewFromInt(250),
		Interval:  "1m",
		Timestamp: ts,
	}
}

func TestSavePrice(t *testing.T) {
	ctx := context.Background()
	ts := fixedNow().Add(-time.Minute)

	t.Run("creates the asset on first write", func(t *testing.T) {
		store := newFakeStore()
		svc := NewService(store, pricecache.NewMemory(), &fakeFetcher{}).WithClock(fixedNow)

		id, err := svc.SavePrice(ctx, saveReq(1.0850, ts))
		require.NoError(t, err)
		assert.NotEqual(t, id.String(), "00000000-0000-0000-0000-000000000000")

		asset, found, err := store.FindAssetBySymbolProvider(ctx, "EUR/USD", "oanda")
		require.NoError(t, err)
		require.True(t, found)

		assert.Equal(t, "unknown", asset.Kind)
		assert.True(t, asset.IsActive)
		assert.NotNil(t, asset.LastSyncAt)
	})

	t.Run("writing the same tuple twice keeps one row with the second values", func(t *testing.T) {
		store := newFakeStore()
		svc := NewService(store, pricecache.NewMemory(), &fakeFetcher{}).WithClock(fixedNow)

		first, err := svc.SavePrice(ctx, saveReq(1.0850, ts))
		require.NoError(t, err)

		second, err := svc.SavePrice(ctx, saveReq(1.0999, ts))
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Len(t, store.bars, 1)

		asset, _, err := store.FindAssetBySymbolProvider(ctx, "EUR/USD", "oanda")
		require.NoError(t, err)

		latest, found, err := store.LatestBar(ctx, asset.ID, "1m")
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, latest.Close.Equal(decimal.NewFromFloat(1.0999)))
	})

	t.Run("invalidates the current-price cache entry", func(t *testing.T) {
		store := newFakeStore()
		cache := pricecache.NewMemory()
		svc := NewService(store, cache, &fakeFetcher{}).WithClock(fixedNow)

		// Prime the cache through a read.
		asset := store.addAsset("GBP/USD", "oanda")
		store.addBar(storedBar(asset, "1m", fixedNow().Add(-time.Minute), 1.2700))

		_, err := svc.GetCurrentPrice(ctx, "GBP/USD", "oanda", "1m")
		require.NoError(t, err)

		req := saveReq(1.2750, fixedNow())
		req.Symbol = "GBP/USD"
		_, err = svc.SavePrice(ctx, req)
		require.NoError(t, err)

		// The next read must come from the store and see the new bar.
		dto, err := svc.GetCurrentPrice(ctx, "GBP/USD", "oanda", "1m")
		require.NoError(t, err)
		require.NotNil(t, dto)
		assert.True(t, dto.Close.Equal(decimal.NewFromFloat(1.2750)))
	})
}
