package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Role enumerates the four application roles.
type Role string

const (
	RoleAdmin       Role = "Admin"
	RoleTU          Role = "TU"
	RoleKoordinator Role = "Koordinator"
	RoleStaff       Role = "Staff"
)

// Valid reports whether the role is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTU, RoleKoordinator, RoleStaff:
		return true
	}
	return false
}

// ReportStatus is derived from the report's assignments, never set directly.
type ReportStatus string

const (
	StatusDalamProses ReportStatus = "Dalam Proses"
	StatusSelesai     ReportStatus = "Selesai"
)

// AssignmentStatus tracks one staff assignment within a report.
type AssignmentStatus string

const (
	AssignmentPending           AssignmentStatus = "pending"
	AssignmentInProgress        AssignmentStatus = "in-progress"
	AssignmentCompleted         AssignmentStatus = "completed"
	AssignmentRevisionRequested AssignmentStatus = "revision-requested"
)

// StringList stores a string slice as a JSON text column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}

	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	return json.Unmarshal(data, l)
}
