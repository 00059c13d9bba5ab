package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"market-price-api/src/models"
)

// PriceStore is the durable side of the price engine: assets, bars and sync
// logs in postgres. Bar writes are idempotent on (asset_id, interval,
// timestamp); concurrent writers to the same tuple race benignly, the
// database's conflict resolution picks a complete row from one of them.
type PriceStore struct {
	db *gorm.DB
}

func NewPriceStore(db *gorm.DB) *PriceStore {
	return &PriceStore{db: db}
}

// UpsertBar inserts the bar, or overwrites the OHLCV and provider fields of
// the existing row for the same (asset, interval, timestamp) tuple.
func (s *PriceStore) UpsertBar(ctx context.Context, bar *models.AssetPrice) error {
	if bar.ID == uuid.Nil {
		bar.ID = uuid.New()
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "asset_id"},
			{Name: "interval"},
			{Name: "timestamp"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume", "provider"}),
	}).Create(bar).Error

	if err != nil {
		return fmt.Errorf("UpsertBar: %w", err)
	}

	return nil
}

// LatestBar returns the most recent bar for the pair, or found=false.
func (s *PriceStore) LatestBar(ctx context.Context, assetID uuid.UUID, interval string) (*models.AssetPrice, bool, error) {
	var bar models.AssetPrice

	err := s.db.WithContext(ctx).
		Where("asset_id = ? AND interval = ?", assetID, interval).
		Order("timestamp DESC").
		First(&bar).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("LatestBar: %w", err)
	}

	return &bar, true, nil
}

// BarsInRange returns bars with start <= timestamp <= end, newest first.
// A positive limit caps the result; zero means unbounded.
func (s *PriceStore) BarsInRange(ctx context.Context, assetID uuid.UUID, interval string, start, end time.Time, limit int) ([]models.AssetPrice, error) {
	query := s.db.WithContext(ctx).
		Where("asset_id = ? AND interval = ? AND timestamp >= ? AND timestamp <= ?", assetID, interval, start, end).
		Order("timestamp DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	var bars []models.AssetPrice
	if err := query.Find(&bars).Error; err != nil {
		return nil, fmt.Errorf("BarsInRange: %w", err)
	}

	return bars, nil
}

// BarExists reports whether a row already exists for the exact tuple.
func (s *PriceStore) BarExists(ctx context.Context, assetID uuid.UUID, interval string, timestamp time.Time) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).Model(&models.AssetPrice{}).
		Where("asset_id = ? AND interval = ? AND timestamp = ?", assetID, interval, timestamp).
		Count(&count).Error

	if err != nil {
		return false, fmt.Errorf("BarExists: %w", err)
	}

	return count > 0, nil
}
