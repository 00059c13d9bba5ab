package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncLog records one sync run, started before the work and finalized after
// it, whether the run succeeded or not.
type SyncLog struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Operation        string     `gorm:"column:operation;type:varchar(50);not null;index:idx_synclog_op_started" json:"operation"`
	StartedAt        time.Time  `gorm:"column:started_at;type:timestamptz;not null;index:idx_synclog_op_started" json:"startedAt"`
	CompletedAt      *time.Time `gorm:"column:completed_at;type:timestamptz" json:"completedAt,omitempty"`
	IsSuccess        bool       `gorm:"column:is_success;not null;index:idx_synclog_success" json:"isSuccess"`
	RecordsProcessed int        `gorm:"column:records_processed;not null" json:"recordsProcessed"`
	ErrorMessage     *string    `gorm:"column:error_message;type:varchar(1000)" json:"errorMessage,omitempty"`
	Provider         *string    `gorm:"column:provider;type:varchar(50)" json:"provider,omitempty"`
	Kind             *string    `gorm:"column:kind;type:varchar(20)" json:"kind,omitempty"`
	AssetID          *uuid.UUID `gorm:"column:asset_id;type:uuid" json:"assetId,omitempty"`
	Symbol           *string    `gorm:"column:symbol;type:varchar(20)" json:"symbol,omitempty"`
}

func NewSyncLog(operation string) *SyncLog {
	return &SyncLog{
		ID:        uuid.New(),
		Operation: operation,
		StartedAt: time.Now().UTC(),
	}
}

// Finalize stamps the completion time and outcome. A nil err marks success.
func (s *SyncLog) Finalize(recordsProcessed int, err error) {
	now := time.Now().UTC()
	s.CompletedAt = &now
	s.RecordsProcessed = recordsProcessed

	if err != nil {
		msg := err.Error()
		if len(msg) > 1000 {
			msg = msg[:1000]
		}
		s.IsSuccess = false
		s.ErrorMessage = &msg
		return
	}

	s.IsSuccess = true
}
