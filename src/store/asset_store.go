package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"market-price-api/src/models"
)

// FindAssetBySymbolProvider looks an asset up by its external identity, or
// reports found=false.
func (s *PriceStore) FindAssetBySymbolProvider(ctx context.Context, symbol, provider string) (*models.Asset, bool, error) {
	var asset models.Asset

	err := s.db.WithContext(ctx).
		Where("symbol = ? AND provider = ?", symbol, provider).
		First(&asset).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("FindAssetBySymbolProvider: %w", err)
	}

	return &asset, true, nil
}

// CreateAssetIfMissing returns the existing asset for (symbol, provider) or
// creates one with defaults. New assets start active with kind "unknown",
// refined later by catalog sync.
func (s *PriceStore) CreateAssetIfMissing(ctx context.Context, symbol, provider string) (*models.Asset, error) {
	asset, found, err := s.FindAssetBySymbolProvider(ctx, symbol, provider)
	if err != nil {
		return nil, fmt.Errorf("CreateAssetIfMissing: %w", err)
	}

	if found {
		return asset, nil
	}

	asset = models.NewAsset(symbol, provider, "unknown")
	if err := s.db.WithContext(ctx).Create(asset).Error; err != nil {
		// A concurrent writer may have created the row between the lookup
		// and the insert; re-read before giving up.
		if existing, foundNow, readErr := s.FindAssetBySymbolProvider(ctx, symbol, provider); readErr == nil && foundNow {
			return existing, nil
		}
		return nil, fmt.Errorf("CreateAssetIfMissing: %w", err)
	}

	return asset, nil
}

// UpsertAsset creates the asset, or refreshes the metadata fields of the
// existing row. The id and active flag of an existing asset are preserved.
func (s *PriceStore) UpsertAsset(ctx context.Context, asset *models.Asset) (created bool, err error) {
	existing, found, err := s.FindAssetBySymbolProvider(ctx, asset.Symbol, asset.Provider)
	if err != nil {
		return false, fmt.Errorf("UpsertAsset: %w", err)
	}

	now := time.Now().UTC()

	if !found {
		asset.CreatedAt = now
		asset.LastSyncAt = &now
		if err := s.db.WithContext(ctx).Create(asset).Error; err != nil {
			return false, fmt.Errorf("UpsertAsset: %w", err)
		}
		return true, nil
	}

	updates := map[string]interface{}{
		"name":         asset.Name,
		"kind":         asset.Kind,
		"exchange":     asset.Exchange,
		"last_sync_at": now,
	}

	if err := s.db.WithContext(ctx).Model(existing).Updates(updates).Error; err != nil {
		return false, fmt.Errorf("UpsertAsset: %w", err)
	}

	return false, nil
}

// ActiveAssets returns every asset still flagged active.
func (s *PriceStore) ActiveAssets(ctx context.Context) ([]models.Asset, error) {
	var assets []models.Asset

	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("ActiveAssets: %w", err)
	}

	return assets, nil
}

// TouchAssetSync stamps the asset's last price-write time.
func (s *PriceStore) TouchAssetSync(ctx context.Context, asset *models.Asset) error {
	now := time.Now().UTC()

	if err := s.db.WithContext(ctx).Model(asset).Update("last_sync_at", now).Error; err != nil {
		return fmt.Errorf("TouchAssetSync: %w", err)
	}

	return nil
}
