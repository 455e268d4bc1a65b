package repository

import "healthsync-backend/internal/sync/domain"

// SleepRepository defines the persistence operations for sleep entries.
type SleepRepository interface {
	// UpsertBatch inserts entries, replacing any existing row sharing
	// (user_id, calendar_date).
	UpsertBatch(entries []domain.SleepEntry) error
	// ListSince returns a user's entries with calendar_date >= cutoff,
	// oldest first. An empty cutoff returns everything.
	ListSince(userID, cutoff string) ([]domain.SleepEntry, error)
}
