package repository

import (
	"errors"
	"time"

	"healthsync-backend/internal/sync/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// syncLogRepository implements SyncLogRepository interface
type syncLogRepository struct {
	db *gorm.DB
}

// NewSyncLogRepository creates a new instance of syncLogRepository
func NewSyncLogRepository(db *gorm.DB) SyncLogRepository {
	return &syncLogRepository{
		db: db,
	}
}

func (r *syncLogRepository) Append(entry *domain.SyncLog) error {
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now()
	if entry.SyncedAt.IsZero() {
		entry.SyncedAt = entry.CreatedAt
	}
	return r.db.Create(entry).Error
}

func (r *syncLogRepository) Latest(userID string) (*domain.SyncLog, error) {
	var entry domain.SyncLog
	err := r.db.Where("user_id = ?", userID).Order("synced_at desc").First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}
