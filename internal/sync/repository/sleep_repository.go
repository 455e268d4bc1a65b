package repository

import (
	"time"

	"healthsync-backend/internal/sync/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sleepRepository implements SleepRepository interface
type sleepRepository struct {
	db *gorm.DB
}

// NewSleepRepository creates a new instance of sleepRepository
func NewSleepRepository(db *gorm.DB) SleepRepository {
	return &sleepRepository{
		db: db,
	}
}

func (r *sleepRepository) UpsertBatch(entries []domain.SleepEntry) error {
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
		Columns: []clause.Column{{Name: "user_id"}, {Name: "calendar_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sleep_start", "sleep_end", "duration_seconds",
			"deep_sleep_seconds", "light_sleep_seconds", "rem_sleep_seconds", "awake_seconds",
			"sleep_score", "quality_score", "duration_score", "recovery_score", "restfulness_score",
			"sleep_need_seconds", "sleep_debt_seconds", "body_battery_change",
			"avg_spo2", "avg_respiration", "avg_heart_rate", "lowest_heart_rate", "avg_stress",
			"source", "raw_data", "updated_at",
		}),
	}).Create(&entries).Error
}

func (r *sleepRepository) ListSince(userID, cutoff string) ([]domain.SleepEntry, error) {
	var entries []domain.SleepEntry
	query := r.db.Where("user_id = ?", userID)
	if cutoff != "" {
		query = query.Where("calendar_date >= ?", cutoff)
	}
	err := query.Order("calendar_date asc").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
