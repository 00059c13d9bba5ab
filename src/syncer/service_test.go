package syncer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-price-api/src/finta"
	"market-price-api/src/models"
)

func testNow() time.Time {
	return time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
}

type fakeCatalog struct {
	assets   map[string]*models.Asset
	syncLogs []*models.SyncLog

	activeErr error
	upsertErr error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{assets: make(map[string]*models.Asset)}
}

func (f *fakeCatalog) UpsertAsset(ctx context.Context, asset *models.Asset) (bool, error) {
	if f.upsertErr != nil {
		return false, f.upsertErr
	}

	key := asset.Symbol + "|" + asset.Provider
	if existing, found := f.assets[key]; found {
		existing.Name = asset.Name
		existing.Kind = asset.Kind
		existing.Exchange = asset.Exchange
		return false, nil
	}

	f.assets[key] = asset
	return true, nil
}

func (f *fakeCatalog) ActiveAssets(ctx context.Context) ([]models.Asset, error) {
	if f.activeErr != nil {
		return nil, f.activeErr
	}

	var out []models.Asset
	for _, asset := range f.assets {
		if asset.IsActive {
			out = append(out, *asset)
		}
	}
	return out, nil
}

func (f *fakeCatalog) SaveSyncLog(ctx context.Context, syncLog *models.SyncLog) error {
	f.syncLogs = append(f.syncLogs, syncLog)
	return nil
}

func (f *fakeCatalog) logsFor(operation string) []*models.SyncLog {
	var out []*models.SyncLog
	for _, l := range f.syncLogs {
		if l.Operation == operation {
			out = append(out, l)
		}
	}
	return out
}

type fakeInstruments struct {
	pages [][]finta.Instrument
	calls int
	err   error
}

func (f *fakeInstruments) FetchInstruments(ctx context.Context, provider, kind string, page, size int) (*finta.InstrumentsResponse, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	if page > len(f.pages) {
		return &finta.InstrumentsResponse{Page: page, Size: size}, nil
	}

	return &finta.InstrumentsResponse{
		Instruments: f.pages[page-1],
		Page:        page,
		Size:        size,
	}, nil
}

type fakeHistorical struct {
	counts  map[string]int
	failFor map[string]error
	calls   []string
}

func (f *fakeHistorical) GetHistoricalPrices(ctx context.Context, symbol, provider, interval string, start, end time.Time, limit int) ([]models.PriceDTO, error) {
	f.calls = append(f.calls, symbol)

	if err, found := f.failFor[symbol]; found {
		return nil, err
	}

	count := f.counts[symbol]
	return make([]models.PriceDTO, count), nil
}

func instruments(symbols ...string) []finta.Instrument {
	out := make([]finta.Instrument, 0, len(symbols))
	for _, symbol := range symbols {
		out = append(out, finta.Instrument{
			Symbol:   symbol,
			Name:     symbol,
			Provider: "oanda",
			Kind:     "forex",
			IsActive: true,
		})
	}
	return out
}

func fullPage(prefix string) []finta.Instrument {
	out := make([]finta.Instrument, 0, instrumentPageSize)
	for i := 0; i < instrumentPageSize; i++ {
		out = append(out, finta.Instrument{
			Symbol:   fmt.Sprintf("%s%03d", prefix, i),
			Provider: "oanda",
			Kind:     "forex",
		})
	}
	return out
}

func TestSyncInstruments(t *testing.T) {
	ctx := context.Background()

	t.Run("pages until a short page and counts new assets", func(t *testing.T) {
		catalog := newFakeCatalog()
		fetcher := &fakeInstruments{pages: [][]finta.Instrument{
			fullPage("A"),
			instruments("EUR/USD", "GBP/USD"),
		}}

		svc := NewService(catalog, fetcher, &fakeHistorical{}).WithClock(testNow)

		created, err := svc.SyncInstruments(ctx, "oanda", "forex")
		require.NoError(t, err)

		assert.Equal(t, instrumentPageSize+2, created)
		assert.Equal(t, 2, fetcher.calls)

		logs := catalog.logsFor("SyncInstruments")
		require.Len(t, logs, 1)
		assert.True(t, logs[0].IsSuccess)
		assert.Equal(t, instrumentPageSize+2, logs[0].RecordsProcessed)
		assert.NotNil(t, logs[0].CompletedAt)
	})

	t.Run("existing assets are updated, not recounted", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.assets["EUR/USD|oanda"] = models.NewAsset("EUR/USD", "oanda", "unknown")

		fetcher := &fakeInstruments{pages: [][]finta.Instrument{
			instruments("EUR/USD", "GBP/USD"),
		}}

		svc := NewService(catalog, fetcher, &fakeHistorical{}).WithClock(testNow)

		created, err := svc.SyncInstruments(ctx, "oanda", "")
		require.NoError(t, err)

		assert.Equal(t, 1, created)
		assert.Equal(t, "forex", catalog.assets["EUR/USD|oanda"].Kind)
	})

	t.Run("page fetch failure is recorded and returned", func(t *testing.T) {
		catalog := newFakeCatalog()
		fetcher := &fakeInstruments{err: fmt.Errorf("upstream unreachable")}

		svc := NewService(catalog, fetcher, &fakeHistorical{}).WithClock(testNow)

		_, err := svc.SyncInstruments(ctx, "", "")
		require.Error(t, err)

		logs := catalog.logsFor("SyncInstruments")
		require.Len(t, logs, 1)
		assert.False(t, logs[0].IsSuccess)
		require.NotNil(t, logs[0].ErrorMessage)
		assert.Contains(t, *logs[0].ErrorMessage, "upstream unreachable")
	})
}

func TestSyncPricesForSymbol(t *testing.T) {
	ctx := context.Background()

	t.Run("records the bar count on success", func(t *testing.T) {
		catalog := newFakeCatalog()
		historical := &fakeHistorical{counts: map[string]int{"EUR/USD": 42}}

		svc := NewService(catalog, &fakeInstruments{}, historical).WithClock(testNow)

		require.NoError(t, svc.SyncPricesForSymbol(ctx, "EUR/USD", "oanda", "1m"))

		logs := catalog.logsFor("SyncPrices")
		require.Len(t, logs, 1)
		assert.True(t, logs[0].IsSuccess)
		assert.Equal(t, 42, logs[0].RecordsProcessed)
		require.NotNil(t, logs[0].Symbol)
		assert.Equal(t, "EUR/USD", *logs[0].Symbol)
	})

	t.Run("propagates reconciler failure after recording it", func(t *testing.T) {
		catalog := newFakeCatalog()
		historical := &fakeHistorical{failFor: map[string]error{"EUR/USD": fmt.Errorf("db down")}}

		svc := NewService(catalog, &fakeInstruments{}, historical).WithClock(testNow)

		err := svc.SyncPricesForSymbol(ctx, "EUR/USD", "oanda", "")
		require.Error(t, err)

		logs := catalog.logsFor("SyncPrices")
		require.Len(t, logs, 1)
		assert.False(t, logs[0].IsSuccess)
	})
}

func TestSyncAllActiveAssets(t *testing.T) {
	ctx := context.Background()

	t.Run("one asset failing does not stop the rest", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.assets["EUR/USD|oanda"] = models.NewAsset("EUR/USD", "oanda", "forex")
		catalog.assets["GBP/USD|oanda"] = models.NewAsset("GBP/USD", "oanda", "forex")
		catalog.assets["USD/JPY|oanda"] = models.NewAsset("USD/JPY", "oanda", "forex")

		historical := &fakeHistorical{
			counts:  map[string]int{"EUR/USD": 10, "USD/JPY": 7},
			failFor: map[string]error{"GBP/USD": fmt.Errorf("upstream unreachable")},
		}

		svc := NewService(catalog, &fakeInstruments{}, historical).WithClock(testNow)

		require.NoError(t, svc.SyncAllActiveAssets(ctx))

		assert.Len(t, historical.calls, 3)

		logs := catalog.logsFor("SyncAllActiveAssets")
		require.Len(t, logs, 1)
		assert.True(t, logs[0].IsSuccess)
		assert.Equal(t, 2, logs[0].RecordsProcessed)
	})

	t.Run("inactive assets are skipped", func(t *testing.T) {
		catalog := newFakeCatalog()
		active := models.NewAsset("EUR/USD", "oanda", "forex")
		inactive := models.NewAsset("OLD/PAIR", "oanda", "forex")
		inactive.IsActive = false
		catalog.assets["EUR/USD|oanda"] = active
		catalog.assets["OLD/PAIR|oanda"] = inactive

		historical := &fakeHistorical{counts: map[string]int{"EUR/USD": 5}}

		svc := NewService(catalog, &fakeInstruments{}, historical).WithClock(testNow)

		require.NoError(t, svc.SyncAllActiveAssets(ctx))

		assert.Equal(t, []string{"EUR/USD"}, historical.calls)
	})

	t.Run("catalog listing failure aborts the run", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.activeErr = fmt.Errorf("db down")

		svc := NewService(catalog, &fakeInstruments{}, &fakeHistorical{}).WithClock(testNow)

		err := svc.SyncAllActiveAssets(ctx)
		require.Error(t, err)

		logs := catalog.logsFor("SyncAllActiveAssets")
		require.Len(t, logs, 1)
		assert.False(t, logs[0].IsSuccess)
	})
}
