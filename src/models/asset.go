package models

import (
	"time"

	"github.com/google/uuid"
)

// Asset is one tradable instrument as known to a single provider. The
// (symbol, provider) pair is the external identity; Id is ours.
type Asset struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Symbol     string     `gorm:"column:symbol;type:varchar(20);not null;uniqueIndex:idx_asset_symbol_provider" json:"symbol"`
	Name       *string    `gorm:"column:name;type:varchar(100)" json:"name,omitempty"`
	Provider   string     `gorm:"column:provider;type:varchar(50);not null;uniqueIndex:idx_asset_symbol_provider" json:"provider"`
	Kind       string     `gorm:"column:kind;type:varchar(20);not null" json:"kind"`
	Exchange   *string    `gorm:"column:exchange;type:varchar(50)" json:"exchange,omitempty"`
	IsActive   bool       `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedAt  time.Time  `gorm:"column:created_at;type:timestamptz;not null" json:"createdAt"`
	LastSyncAt *time.Time `gorm:"column:last_sync_at;type:timestamptz" json:"lastSyncAt,omitempty"`
}

func NewAsset(symbol, provider, kind string) *Asset {
	now := time.Now().UTC()
	return &Asset{
		ID:         uuid.New(),
		Symbol:     symbol,
		Provider:   provider,
		Kind:       kind,
		IsActive:   true,
		CreatedAt:  now,
		LastSyncAt: &now,
	}
}
