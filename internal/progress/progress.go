// Package progress derives a report's completion percentage and status
// label from its task assignments. Both functions are pure and total:
// a nil or empty assignment list is a defined input, not an error.
package progress

import (
	"math"

	"github.com/sitrack/sitrack-gin/internal/model"
)

// Calculate returns the completion percentage in [0, 100]. Only
// assignments whose status is "completed" count; partial to-do
// completion inside an assignment does not move the report.
func Calculate(assignments []model.TaskAssignment) int {
	if len(assignments) == 0 {
		return 0
	}
	completed := 0
	for _, a := range assignments {
		if a.Status == model.AssignmentCompleted {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(len(assignments)) * 100))
}

// Status returns "Selesai" iff the list is non-empty and every
// assignment is completed, otherwise "Dalam Proses".
func Status(assignments []model.TaskAssignment) model.ReportStatus {
	if len(assignments) == 0 {
		return model.StatusDalamProses
	}
	for _, a := range assignments {
		if a.Status != model.AssignmentCompleted {
			return model.StatusDalamProses
		}
	}
	return model.StatusSelesai
}

// Derive refreshes the report's progress and status in place. It is
// reapplied on every read path because remotely synced rows can carry
// stale derived values.
func Derive(r *model.Report) {
	r.Progress = Calculate(r.Assignments)
	r.Status = Status(r.Assignments)
}

// CurrentLocation names where the letter sits right now for the
// public tracking view. The stops are fixed and keyed off the derived
// percentage, matching the processing stations a letter moves through.
func CurrentLocation(r *model.Report) string {
	p := Calculate(r.Assignments)
	switch {
	case p >= 100:
		return "Selesai - Siap Diambil"
	case p >= 75:
		return "Unit Pelayanan"
	case p >= 50:
		return "Staff Pelaksana"
	case p >= 25:
		return "Koordinator"
	default:
		return "Tata Usaha"
	}
}
