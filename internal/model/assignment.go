package model

import (
	"errors"
	"time"
)

// TaskAssignment is one unit of delegated work inside a report
// (table: task_assignments). Its status feeds the report's derived
// status: only "completed" counts, regardless of the to-do list.
type TaskAssignment struct {
	ID                  string           `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ReportID            string           `gorm:"type:varchar(64);not null;index" json:"reportId"`
	StaffName           string           `gorm:"type:varchar(255);not null" json:"staffName"`
	TodoList            StringList       `gorm:"type:text" json:"todoList"`
	CompletedTasks      StringList       `gorm:"type:text" json:"completedTasks"`
	Progress            int              `json:"progress"`
	Status              AssignmentStatus `gorm:"type:varchar(32);not null;index" json:"status"`
	Notes               string           `gorm:"type:text" json:"notes,omitempty"`
	RevisionNotes       string           `gorm:"type:text" json:"revisionNotes,omitempty"`
	RevisionRequestedAt *time.Time       `json:"revisionRequestedAt,omitempty"`
	AssignedAt          time.Time        `gorm:"not null" json:"assignedAt"`
}

// TableName pins the table to the task_assignments schema.
func (TaskAssignment) TableName() string {
	return "task_assignments"
}

// Validate checks the structural invariants of the assignment.
func (a *TaskAssignment) Validate() error {
	if a.ID == "" {
		return errors.New("assignment ID is required")
	}
	if a.ReportID == "" {
		return errors.New("assignment report ID is required")
	}
	if a.StaffName == "" {
		return errors.New("assignment staff name is required")
	}
	return nil
}

// TodoProgress is the to-do completion percentage shown per assignment.
// It never feeds the report-level derivation.
func (a *TaskAssignment) TodoProgress() int {
	if len(a.TodoList) == 0 {
		return 0
	}
	done := 0
	for _, item := range a.TodoList {
		for _, completed := range a.CompletedTasks {
			if item == completed {
				done++
				break
			}
		}
	}
	return int(float64(done)/float64(len(a.TodoList))*100 + 0.5)
}
