package service

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sitrack/sitrack-gin/internal/model"
	"github.com/sitrack/sitrack-gin/internal/progress"
	"github.com/sitrack/sitrack-gin/internal/repository"
	"gorm.io/gorm"
)

// dateID renders dates the way the public page shows them.
const dateID = "02/01/2006"

// TimelineStep is one station in the public tracking timeline.
type TimelineStep struct {
	Step        string `json:"step"`
	Status      string `json:"status"` // completed | in-progress | pending
	Date        string `json:"date,omitempty"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Notes       string `json:"notes,omitempty"`
}

// TrackingResult is the public view of a letter: no holder names, no
// assignment internals beyond the coordinator notes.
type TrackingResult struct {
	ID                  string         `json:"id"`
	NoSurat             string         `json:"noSurat"`
	Hal                 string         `json:"hal"`
	Layanan             string         `json:"layanan,omitempty"`
	Status              string         `json:"status"`
	Progress            int            `json:"progress"`
	CurrentLocation     string         `json:"currentLocation"`
	EstimatedCompletion string         `json:"estimatedCompletion"`
	LastUpdate          string         `json:"lastUpdate"`
	Timeline            []TimelineStep `json:"timeline"`
}

// TrackingService serves the public, unauthenticated letter lookup.
type TrackingService struct {
	reports repository.ReportRepository
	now     func() time.Time
}

func NewTrackingService(reports repository.ReportRepository) *TrackingService {
	return &TrackingService{reports: reports, now: time.Now}
}

// Track finds a letter by partial, case-insensitive match over the
// letter number, subject or id, and builds its public timeline.
func (s *TrackingService) Track(term string) (*TrackingResult, error) {
	if strings.TrimSpace(term) == "" {
		return nil, ErrReportNotFound
	}

	report, err := s.reports.Search(term)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("search report: %w", err)
	}
	progress.Derive(report)

	now := s.now()
	return &TrackingResult{
		ID:                  report.ID,
		NoSurat:             report.NoSurat,
		Hal:                 report.Hal,
		Layanan:             report.Layanan,
		Status:              string(report.Status),
		Progress:            report.Progress,
		CurrentLocation:     progress.CurrentLocation(report),
		EstimatedCompletion: s.estimatedCompletion(report, now),
		LastUpdate:          now.Format("02/01/2006 15.04.05"),
		Timeline:            s.timeline(report, now),
	}, nil
}

// timeline maps the derived percentage onto the five fixed stations a
// letter passes through.
func (s *TrackingService) timeline(report *model.Report, now time.Time) []TimelineStep {
	var notes []string
	for _, a := range report.Assignments {
		if a.Notes != "" {
			notes = append(notes, a.Notes)
		}
	}

	stepStatus := func(doneAt, startedAt int) string {
		switch {
		case report.Progress >= doneAt:
			return "completed"
		case report.Progress >= startedAt:
			return "in-progress"
		default:
			return "pending"
		}
	}
	stepDate := func(doneAt, daysAgo int) string {
		if report.Progress >= doneAt {
			return now.AddDate(0, 0, -daysAgo).Format(dateID)
		}
		return ""
	}

	return []TimelineStep{
		{
			Step:        "Surat Diterima",
			Status:      "completed",
			Date:        now.AddDate(0, 0, -7).Format(dateID),
			Location:    "Tata Usaha",
			Description: "Surat masuk dan didaftarkan dalam sistem",
		},
		{
			Step:        "Verifikasi Dokumen",
			Status:      stepStatus(25, 0),
			Date:        stepDate(25, 5),
			Location:    "Koordinator",
			Description: "Pemeriksaan kelengkapan dan validitas dokumen",
		},
		{
			Step:        "Penugasan Staff",
			Status:      stepStatus(50, 25),
			Date:        stepDate(50, 3),
			Location:    "Staff Pelaksana",
			Description: "Surat ditugaskan kepada staff untuk diproses",
			Notes:       strings.Join(notes, "; "),
		},
		{
			Step:        "Proses Pelayanan",
			Status:      stepStatus(75, 50),
			Date:        stepDate(75, 1),
			Location:    "Unit Pelayanan",
			Description: "Pelaksanaan layanan sesuai jenis permohonan",
		},
		{
			Step:        "Selesai",
			Status:      stepStatus(100, 100),
			Date:        stepDate(100, 0),
			Location:    "Selesai",
			Description: "Surat telah selesai diproses dan siap diambil",
		},
	}
}

// estimatedCompletion projects roughly 20 percentage points of
// movement per working day.
func (s *TrackingService) estimatedCompletion(report *model.Report, now time.Time) string {
	if report.Progress >= 100 {
		return "Sudah Selesai"
	}
	daysRemaining := int(math.Ceil(float64(100-report.Progress) / 20))
	return now.AddDate(0, 0, daysRemaining).Format(dateID)
}
