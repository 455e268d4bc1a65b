package domain

import "time"

// Run statuses recorded in the sync log.
const (
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// SyncLog is the append-only record of sync runs. Rows are never mutated.
type SyncLog struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"user_id" gorm:"index;not null"`
	Status        string    `json:"status"`
	EntriesSynced int       `json:"entries_synced"`
	DurationMs    int64     `json:"duration_ms"`
	SyncedAt      time.Time `json:"synced_at"`
	CreatedAt     time.Time `json:"created_at"`
}
