package syncer

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"market-price-api/src/finta"
	"market-price-api/src/models"
)

// CatalogStore is the asset-catalog and audit surface of the price store.
type CatalogStore interface {
	UpsertAsset(ctx context.Context, asset *models.Asset) (created bool, err error)
	ActiveAssets(ctx context.Context) ([]models.Asset, error)
	SaveSyncLog(ctx context.Context, syncLog *models.SyncLog) error
}

// InstrumentFetcher pages through the upstream instrument catalog.
type InstrumentFetcher interface {
	FetchInstruments(ctx context.Context, provider, kind string, page, size int) (*finta.InstrumentsResponse, error)
}

// HistoricalReader is the range-reconciling read path prices are synced
// through.
type HistoricalReader interface {
	GetHistoricalPrices(ctx context.Context, symbol, provider, interval string, start, end time.Time, limit int) ([]models.PriceDTO, error)
}

const (
	instrumentPageSize = 100

	// priceSyncWindow is the trailing window reconciled per symbol.
	priceSyncWindow = 24 * time.Hour
)

// Service drives batch synchronization against the upstream catalog and the
// range reconciler. Unlike the read paths it does not swallow failures:
// callers decide retry policy. Every run leaves exactly one SyncLog.
type Service struct {
	store       CatalogStore
	instruments InstrumentFetcher
	prices      HistoricalReader
	now         func() time.Time
}

func NewService(store CatalogStore, instruments InstrumentFetcher, prices HistoricalReader) *Service {
	return &Service{
		store:       store,
		instruments: instruments,
		prices:      prices,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock fixes the service's notion of now. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// SyncInstruments walks the upstream catalog page by page until a short
// page, creating missing assets and refreshing metadata on known ones.
// Returns the number of newly created assets.
func (s *Service) SyncInstruments(ctx context.Context, provider, kind string) (int, error) {
	syncLog := models.NewSyncLog("SyncInstruments")
	if provider != "" {
		syncLog.Provider = &provider
	}
	if kind != "" {
		syncLog.Kind = &kind
	}

	log.Infof("starting instruments synchronization for provider=%q kind=%q", provider, kind)

	created, err := s.syncInstrumentPages(ctx, provider, kind)

	syncLog.Finalize(created, err)
	s.persistSyncLog(ctx, syncLog)

	if err != nil {
		return created, fmt.Errorf("SyncInstruments: %w", err)
	}

	log.Infof("instruments synchronization completed, %d new assets", created)

	return created, nil
}

func (s *Service) syncInstrumentPages(ctx context.Context, provider, kind string) (int, error) {
	created := 0

	for page := 1; ; page++ {
		resp, err := s.instruments.FetchInstruments(ctx, provider, kind, page, instrumentPageSize)
		if err != nil {
			return created, fmt.Errorf("page %d: %w", page, err)
		}

		if resp == nil || len(resp.Instruments) == 0 {
			return created, nil
		}

		for _, instrument := range resp.Instruments {
			asset := instrumentToAsset(instrument)

			wasCreated, err := s.store.UpsertAsset(ctx, asset)
			if err != nil {
				return created, fmt.Errorf("page %d: upsert %s: %w", page, instrument.Symbol, err)
			}

			if wasCreated {
				created++
			}
		}

		// A short page signals end of data.
		if len(resp.Instruments) < instrumentPageSize {
			return created, nil
		}
	}
}

func instrumentToAsset(instrument finta.Instrument) *models.Asset {
	asset := models.NewAsset(instrument.Symbol, instrument.Provider, instrument.Kind)
	asset.Exchange = instrument.Exchange

	if instrument.Name != "" {
		name := instrument.Name
		asset.Name = &name
	}

	return asset
}

// SyncPricesForSymbol reconciles the trailing 24 hours for one symbol.
// Failure is recorded and propagated; the caller owns retry policy.
func (s *Service) SyncPricesForSymbol(ctx context.Context, symbol, provider, interval string) error {
	if interval == "" {
		interval = models.DefaultInterval
	}

	syncLog := models.NewSyncLog("SyncPrices")
	syncLog.Symbol = &symbol
	syncLog.Provider = &provider

	log.Infof("starting price synchronization for %s/%s interval %s", symbol, provider, interval)

	end := s.now()
	start := end.Add(-priceSyncWindow)

	bars, err := s.prices.GetHistoricalPrices(ctx, symbol, provider, interval, start, end, 0)

	syncLog.Finalize(len(bars), err)
	s.persistSyncLog(ctx, syncLog)

	if err != nil {
		return fmt.Errorf("SyncPricesForSymbol: %s: %w", symbol, err)
	}

	log.Infof("price synchronization completed for %s, retrieved %d bars", symbol, len(bars))

	return nil
}

// SyncAllActiveAssets reconciles every active asset. One asset's failure is
// logged and skipped; only failing to list the catalog aborts the run.
func (s *Service) SyncAllActiveAssets(ctx context.Context) error {
	syncLog := models.NewSyncLog("SyncAllActiveAssets")

	log.Info("starting synchronization for all active assets")

	assets, err := s.store.ActiveAssets(ctx)
	if err != nil {
		syncLog.Finalize(0, err)
		s.persistSyncLog(ctx, syncLog)
		return fmt.Errorf("SyncAllActiveAssets: %w", err)
	}

	synced := 0
	for _, asset := range assets {
		if err := s.SyncPricesForSymbol(ctx, asset.Symbol, asset.Provider, models.DefaultInterval); err != nil {
			log.Errorf("SyncAllActiveAssets: error syncing prices for %s: %v", asset.Symbol, err)
			continue
		}

		synced++
	}

	syncLog.Finalize(synced, nil)
	s.persistSyncLog(ctx, syncLog)

	log.Infof("synchronization completed for %d of %d assets", synced, len(assets))

	return nil
}

func (s *Service) persistSyncLog(ctx context.Context, syncLog *models.SyncLog) {
	if err := s.store.SaveSyncLog(ctx, syncLog); err != nil {
		log.Errorf("persistSyncLog: failed to save sync log for %s: %v", syncLog.Operation, err)
	}
}
