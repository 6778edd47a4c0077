package model

import "time"

// SnapshotKey is the single slot the session store persists into.
const SnapshotKey = "sitrack_app_state"

// Snapshot is a named JSON blob holding a restricted copy of the session
// state (table: app_snapshots). One row per key.
type Snapshot struct {
	Key       string    `gorm:"primaryKey;type:varchar(64)"`
	Data      []byte    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName pins the table to the app_snapshots schema.
func (Snapshot) TableName() string {
	return "app_snapshots"
}
