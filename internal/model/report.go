package model

import (
	"errors"
	"time"
)

// Report is one tracked letter and its workflow (table: reports).
//
// Progress, Status and CurrentHolder are derived from the assignments;
// they are stored for query convenience but recomputed on every read
// path, since remotely synced rows can carry stale derived fields.
type Report struct {
	ID                   string           `gorm:"primaryKey;type:varchar(64)" json:"id"`
	NoSurat              string           `gorm:"column:no_surat;type:varchar(128);index" json:"noSurat"`
	Hal                  string           `gorm:"type:varchar(255)" json:"hal"`
	Status               ReportStatus     `gorm:"type:varchar(32);index" json:"status"`
	Layanan              string           `gorm:"type:varchar(255)" json:"layanan"`
	Dari                 string           `gorm:"type:varchar(255)" json:"dari"`
	TanggalSurat         string           `gorm:"type:varchar(32)" json:"tanggalSurat"`
	TanggalAgenda        string           `gorm:"type:varchar(32)" json:"tanggalAgenda"`
	OriginalFiles        []FileAttachment `gorm:"foreignKey:ReportID" json:"originalFiles"`
	Assignments          []TaskAssignment `gorm:"foreignKey:ReportID" json:"assignments"`
	AssignedStaff        StringList       `gorm:"type:text" json:"assignedStaff"`
	AssignedCoordinators StringList       `gorm:"type:text" json:"assignedCoordinators"`
	CurrentHolder        string           `gorm:"type:varchar(255)" json:"currentHolder"`
	Progress             int              `json:"progress"`
	Workflow             []WorkflowEntry  `gorm:"foreignKey:ReportID" json:"workflow"`
	CreatedAt            time.Time        `json:"createdAt"`
	UpdatedAt            time.Time        `gorm:"index" json:"updatedAt"`
}

// TableName pins the table to the reports schema.
func (Report) TableName() string {
	return "reports"
}

// Validate checks the structural invariants of the report.
func (r *Report) Validate() error {
	if r.ID == "" {
		return errors.New("report ID is required")
	}
	if r.NoSurat == "" {
		return errors.New("letter number (noSurat) is required")
	}
	if r.Hal == "" {
		return errors.New("subject (hal) is required")
	}
	return nil
}

// FindAssignment returns the assignment with the given id, or nil.
func (r *Report) FindAssignment(id string) *TaskAssignment {
	for i := range r.Assignments {
		if r.Assignments[i].ID == id {
			return &r.Assignments[i]
		}
	}
	return nil
}
