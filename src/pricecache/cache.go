package pricecache

import (
	"context"
	"fmt"
	"time"
)

// Cache is a look-aside accelerator in front of the price store. It is not
// authoritative: every failure mode (serialization, backend outage, corrupt
// payload) degrades to a miss or a no-op so callers never see an error.
type Cache interface {
	// Get unmarshals the cached value for key into dest and reports a hit.
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Remove(ctx context.Context, key string)
}

const (
	// CurrentPriceTTL bounds how long a "current price" view is served
	// without consulting the store, regardless of interval.
	CurrentPriceTTL = 1 * time.Minute

	// HistoricalTTL bounds staleness of range results. Range keys are not
	// invalidated on write, so this is the whole staleness guarantee.
	HistoricalTTL = 10 * time.Minute
)

func CurrentPriceKey(symbol, provider, interval string) string {
	return fmt.Sprintf("current_price:%s:%s:%s", symbol, provider, interval)
}

func HistoricalKey(symbol, provider, interval string, start, end time.Time, limit int) string {
	return fmt.Sprintf("historical_prices:%s:%s:%s:%s:%s:%d",
		symbol, provider, interval, start.Format("20060102"), end.Format("20060102"), limit)
}
