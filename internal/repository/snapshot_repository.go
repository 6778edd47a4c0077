package repository

import (
	"time"

	"github.com/sitrack/sitrack-gin/internal/model"
	"gorm.io/gorm"
)

// SnapshotRepository is the durable key-value slot the session store
// persists into: one named key, one JSON blob.
type SnapshotRepository interface {
	Write(key string, data []byte) error
	Read(key string) ([]byte, error)
}

type snapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository creates a gorm-backed snapshot slot.
func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) Write(key string, data []byte) error {
	snapshot := model.Snapshot{
		Key:       key,
		Data:      data,
		UpdatedAt: time.Now(),
	}
	return r.db.Save(&snapshot).Error
}

func (r *snapshotRepository) Read(key string) ([]byte, error) {
	var snapshot model.Snapshot
	if err := r.db.Where("key = ?", key).First(&snapshot).Error; err != nil {
		return nil, err
	}
	return snapshot.Data, nil
}
