package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetPrice is one OHLCV bar. The (asset_id, interval, timestamp) tuple is
// unique; a second write for the same tuple overwrites the first.
type AssetPrice struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	AssetID   uuid.UUID       `gorm:"column:asset_id;type:uuid;not null;uniqueIndex:idx_price_asset_interval_ts;index:idx_price_asset_ts" json:"assetId"`
	Asset     *Asset          `gorm:"foreignKey:AssetID" json:"-"`
	Open      decimal.Decimal `gorm:"column:open;type:numeric(18,6);not null" json:"open"`
	High      decimal.Decimal `gorm:"column:high;type:numeric(18,6);not null" json:"high"`
	Low       decimal.Decimal `gorm:"column:low;type:numeric(18,6);not null" json:"low"`
	Close     decimal.Decimal `gorm:"column:close;type:numeric(18,6);not null" json:"close"`
	Volume    decimal.Decimal `gorm:"column:volume;type:numeric(18,6);not null" json:"volume"`
	Interval  string          `gorm:"column:interval;type:varchar(10);not null;uniqueIndex:idx_price_asset_interval_ts" json:"interval"`
	Provider  string          `gorm:"column:provider;type:varchar(50);not null" json:"provider"`
	Timestamp time.Time       `gorm:"column:timestamp;type:timestamptz;not null;uniqueIndex:idx_price_asset_interval_ts;index:idx_price_asset_ts;index:idx_price_ts" json:"timestamp"`
}

// PriceDTO is the wire shape served to clients and stored in the cache.
type PriceDTO struct {
	ID        uuid.UUID       `json:"id"`
	AssetID   uuid.UUID       `json:"assetId"`
	Symbol    string          `json:"symbol"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	Interval  string          `json:"interval"`
	Provider  string          `json:"provider"`
	Timestamp time.Time       `json:"timestamp"`
}

func (p *AssetPrice) ToDTO(symbol string) *PriceDTO {
	return &PriceDTO{
		ID:        p.ID,
		AssetID:   p.AssetID,
		Symbol:    symbol,
		Open:      p.Open,
		High:      p.High,
		Low:       p.Low,
		Close:     p.Close,
		Volume:    p.Volume,
		Interval:  p.Interval,
		Provider:  p.Provider,
		Timestamp: p.Timestamp,
	}
}
