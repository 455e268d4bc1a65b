package repository

import "healthsync-backend/internal/sync/domain"

// SyncLogRepository defines the append-only run log operations. Rows are
// inserted once and never updated.
type SyncLogRepository interface {
	Append(entry *domain.SyncLog) error
	// Latest returns the most recent run for a user, or nil when the user
	// has never synced.
	Latest(userID string) (*domain.SyncLog, error)
}
