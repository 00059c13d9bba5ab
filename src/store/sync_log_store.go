package store

import (
	"context"
	"fmt"

	"market-price-api/src/models"
)

// SaveSyncLog persists a sync run record. Called once per run after
// Finalize, on success and failure alike.
func (s *PriceStore) SaveSyncLog(ctx context.Context, syncLog *models.SyncLog) error {
	if err := s.db.WithContext(ctx).Save(syncLog).Error; err != nil {
		return fmt.Errorf("SaveSyncLog: %w", err)
	}

	return nil
}
