package prices

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"market-price-api/src/finta"
	"market-price-api/src/models"
)

type barKey struct {
	assetID  uuid.UUID
	interval string
	ts       int64
}

// fakeStore is an in-memory BarStore with call counters, in the spirit of
// the hand-written test doubles used elsewhere in the codebase.
type fakeStore struct {
	assets map[string]*models.Asset
	bars   map[barKey]models.AssetPrice

	upsertCalls int
	latestCalls int
	rangeCalls  int
	findErr     error
	upsertErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		assets: make(map[string]*models.Asset),
		bars:   make(map[barKey]models.AssetPrice),
	}
}

func (f *fakeStore) addAsset(symbol, provider string) *models.Asset {
	asset := models.NewAsset(symbol, provider, "forex")
	f.assets[symbol+"|"+provider] = asset
	return asset
}

func (f *fakeStore) addBar(bar models.AssetPrice) {
	if bar.ID == uuid.Nil {
		bar.ID = uuid.New()
	}
	f.bars[barKey{bar.AssetID, bar.Interval, bar.Timestamp.UnixNano()}] = bar
}

func (f *fakeStore) FindAssetBySymbolProvider(ctx context.Context, symbol, provider string) (*models.Asset, bool, error) {
	if f.findErr != nil {
		return nil, false, f.findErr
	}

	asset, found := f.assets[symbol+"|"+provider]
	return asset, found, nil
}

func (f *fakeStore) CreateAssetIfMissing(ctx context.Context, symbol, provider string) (*models.Asset, error) {
	if asset, found := f.assets[symbol+"|"+provider]; found {
		return asset, nil
	}

	asset := models.NewAsset(symbol, provider, "unknown")
	f.assets[symbol+"|"+provider] = asset
	return asset, nil
}

func (f *fakeStore) TouchAssetSync(ctx context.Context, asset *models.Asset) error {
	now := time.Now().UTC()
	asset.LastSyncAt = &now
	return nil
}

func (f *fakeStore) UpsertBar(ctx context.Context, bar *models.AssetPrice) error {
	f.upsertCalls++

	if f.upsertErr != nil {
		return f.upsertErr
	}

	key := barKey{bar.AssetID, bar.Interval, bar.Timestamp.UnixNano()}
	if existing, found := f.bars[key]; found {
		bar.ID = existing.ID
	} else if bar.ID == uuid.Nil {
		bar.ID = uuid.New()
	}

	f.bars[key] = *bar
	return nil
}

func (f *fakeStore) LatestBar(ctx context.Context, assetID uuid.UUID, interval string) (*models.AssetPrice, bool, error) {
	f.latestCalls++

	var latest *models.AssetPrice
	for key, bar := range f.bars {
		if key.assetID != assetID || key.interval != interval {
			continue
		}

		b := bar
		if latest == nil || b.Timestamp.After(latest.Timestamp) {
			latest = &b
		}
	}

	if latest == nil {
		return nil, false, nil
	}

	return latest, true, nil
}

func (f *fakeStore) BarsInRange(ctx context.Context, assetID uuid.UUID, interval string, start, end time.Time, limit int) ([]models.AssetPrice, error) {
	f.rangeCalls++

	var bars []models.AssetPrice
	for key, bar := range f.bars {
		if key.assetID != assetID || key.interval != interval {
			continue
		}

		if bar.Timestamp.Before(start) || bar.Timestamp.After(end) {
			continue
		}

		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.After(bars[j].Timestamp)
	})

	if limit > 0 && len(bars) > limit {
		bars = bars[:limit]
	}

	return bars, nil
}

func (f *fakeStore) BarExists(ctx context.Context, assetID uuid.UUID, interval string, timestamp time.Time) (bool, error) {
	_, found := f.bars[barKey{assetID, interval, timestamp.UnixNano()}]
	return found, nil
}

// fakeFetcher scripts upstream responses and counts calls.
type fakeFetcher struct {
	countBackResp  *finta.BarsResponse
	countBackErr   error
	countBackCalls int

	rangeResp  *finta.BarsResponse
	rangeErr   error
	rangeCalls int
}

func (f *fakeFetcher) FetchBarsCountBack(ctx context.Context, instrumentID, provider string, interval int, periodicity string, barsCount int) (*finta.BarsResponse, error) {
	f.countBackCalls++

	if f.countBackErr != nil {
		return nil, f.countBackErr
	}

	return f.countBackResp, nil
}

func (f *fakeFetcher) FetchBarsDateRange(ctx context.Context, instrumentID, provider string, interval int, periodicity string, startDate, endDate time.Time) (*finta.BarsResponse, error) {
	f.rangeCalls++

	if f.rangeErr != nil {
		return nil, f.rangeErr
	}

	return f.rangeResp, nil
}

// missCache simulates a cache outage: every read is a miss, writes vanish.
type missCache struct{}

func (missCache) Get(ctx context.Context, key string, dest interface{}) bool        { return false }
func (missCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {}
func (missCache) Remove(ctx context.Context, key string)                            {}
