package repository

import "healthsync-backend/internal/sync/domain"

// WeightRepository defines the persistence operations the sync pipeline and
// read API need for weight entries.
type WeightRepository interface {
	// UpsertBatch inserts entries, replacing any existing row sharing
	// (user_id, measured_at) so reruns converge instead of duplicating.
	UpsertBatch(entries []domain.WeightEntry) error
	// ListSince returns a user's entries with measured_at >= cutoff,
	// oldest first. An empty cutoff returns everything.
	ListSince(userID, cutoff string) ([]domain.WeightEntry, error)
}
