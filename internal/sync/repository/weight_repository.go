package repository

import (
	"time"

	"healthsync-backend/internal/sync/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// weightRepository implements WeightRepository interface
type weightRepository struct {
	db *gorm.DB
}

// NewWeightRepository creates a new instance of weightRepository
func NewWeightRepository(db *gorm.DB) WeightRepository {
	return &weightRepository{
		db: db,
	}
}

// UpsertBatch performs INSERT ... ON CONFLICT (user_id, measured_at) DO UPDATE
// for every entry, keeping at most one row per user and date.
func (r *weightRepository) UpsertBatch(entries []domain.WeightEntry) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now()
	for i := range entries {
		entries[i].ID = uuid.New().String()
		entries[i].CreatedAt = now
		entries[i].UpdatedAt = now
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "measured_at"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"weight", "bmi", "body_fat", "muscle_mass", "bone_mass",
			"body_water", "source", "raw_data", "updated_at",
		}),
	}).Create(&entries).Error
}

func (r *weightRepository) ListSince(userID, cutoff string) ([]domain.WeightEntry, error) {
	var entries []domain.WeightEntry
	query := r.db.Where("user_id = ?", userID)
	if cutoff != "" {
		query = query.Where("measured_at >= ?", cutoff)
	}
	err := query.Order("measured_at asc").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
