package model

import (
	"errors"
	"time"
)

// WorkflowEntry is one line of a report's append-only audit trail
// (table: workflow_history).
type WorkflowEntry struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ReportID  string    `gorm:"type:varchar(64);not null;index" json:"reportId"`
	Action    string    `gorm:"type:text;not null" json:"action"`
	User      string    `gorm:"column:user_name;type:varchar(255)" json:"user"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	Status    string    `gorm:"type:varchar(32)" json:"status"`
}

// TableName pins the table to the workflow_history schema.
func (WorkflowEntry) TableName() string {
	return "workflow_history"
}

// Validate checks the structural invariants of the entry.
func (w *WorkflowEntry) Validate() error {
	if w.ID == "" {
		return errors.New("workflow entry ID is required")
	}
	if w.ReportID == "" {
		return errors.New("workflow entry report ID is required")
	}
	if w.Action == "" {
		return errors.New("workflow entry action is required")
	}
	return nil
}
