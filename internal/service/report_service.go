package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sitrack/sitrack-gin/internal/metrics"
	"github.com/sitrack/sitrack-gin/internal/model"
	"github.com/sitrack/sitrack-gin/internal/notify"
	"github.com/sitrack/sitrack-gin/internal/progress"
	"github.com/sitrack/sitrack-gin/internal/realtime"
	"github.com/sitrack/sitrack-gin/internal/repository"
	"github.com/sitrack/sitrack-gin/internal/store"
	"github.com/sitrack/sitrack-gin/internal/utils"
	"github.com/sitrack/sitrack-gin/internal/websocket"
	"gorm.io/gorm"
)

var (
	// ErrReportNotFound is returned when an operation targets an
	// unknown report.
	ErrReportNotFound = errors.New("report not found")
	// ErrAssignmentNotFound is returned when an operation targets an
	// unknown assignment within a report.
	ErrAssignmentNotFound = errors.New("assignment not found")
)

// CreateReportRequest registers a new incoming letter.
type CreateReportRequest struct {
	NoSurat       string `json:"noSurat" binding:"required"`
	Hal           string `json:"hal" binding:"required"`
	Layanan       string `json:"layanan"`
	Dari          string `json:"dari"`
	TanggalSurat  string `json:"tanggalSurat"`
	TanggalAgenda string `json:"tanggalAgenda"`
	Koordinator   string `json:"koordinator"`
}

// UpdateReportRequest carries editable letter metadata.
type UpdateReportRequest struct {
	NoSurat       string `json:"noSurat"`
	Hal           string `json:"hal"`
	Layanan       string `json:"layanan"`
	Dari          string `json:"dari"`
	TanggalSurat  string `json:"tanggalSurat"`
	TanggalAgenda string `json:"tanggalAgenda"`
}

// AssignStaffRequest delegates work to one staff member.
type AssignStaffRequest struct {
	StaffName string   `json:"staffName" binding:"required"`
	TodoList  []string `json:"todoList" binding:"required"`
	Notes     string   `json:"notes"`
}

// UpdateAssignmentRequest reports to-do completion by staff.
type UpdateAssignmentRequest struct {
	CompletedTasks []string `json:"completedTasks"`
	Notes          string   `json:"notes"`
	Completed      bool     `json:"completed"`
}

// RevisionRequest asks a staff member to redo their work.
type RevisionRequest struct {
	StaffName     string `json:"staffName" binding:"required"`
	RevisionNotes string `json:"revisionNotes" binding:"required"`
}

// ReportService owns the letter lifecycle: registration, delegation,
// completion and revision. Every mutation appends to the workflow
// history, re-derives the report, updates the session store and
// broadcasts a change event to connected dashboards.
type ReportService struct {
	reports  repository.ReportRepository
	store    *store.Store
	hub      *websocket.Hub
	notifier *notify.Notifier
	now      func() time.Time
}

func NewReportService(reports repository.ReportRepository, st *store.Store, hub *websocket.Hub, notifier *notify.Notifier) *ReportService {
	return &ReportService{
		reports:  reports,
		store:    st,
		hub:      hub,
		notifier: notifier,
		now:      time.Now,
	}
}

// List returns all reports with derived fields refreshed, optionally
// narrowed by filter.
func (s *ReportService) List(filter *repository.ReportFilter) ([]*model.Report, error) {
	var (
		reports []*model.Report
		err     error
	)
	if filter == nil {
		reports, err = s.reports.FindAll()
	} else {
		reports, err = s.reports.FindByFilter(filter)
	}
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	for _, r := range reports {
		progress.Derive(r)
	}
	return reports, nil
}

// Get returns one report with derived fields refreshed.
func (s *ReportService) Get(id string) (*model.Report, error) {
	report, err := s.reports.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("find report: %w", err)
	}
	progress.Derive(report)
	return report, nil
}

// Create registers a letter. The report starts with no assignments,
// so it derives to 0% and "Dalam Proses".
func (s *ReportService) Create(req CreateReportRequest, actor string) (*model.Report, error) {
	now := s.now()

	report := &model.Report{
		ID:            fmt.Sprintf("RPT%d", now.UnixMilli()),
		NoSurat:       utils.SanitizeText(req.NoSurat),
		Hal:           utils.SanitizeText(req.Hal),
		Layanan:       utils.SanitizeText(req.Layanan),
		Dari:          utils.SanitizeText(req.Dari),
		TanggalSurat:  req.TanggalSurat,
		TanggalAgenda: req.TanggalAgenda,
		CurrentHolder: "Tata Usaha",
	}
	report.Workflow = append(report.Workflow, model.WorkflowEntry{
		ID:        uuid.New().String(),
		ReportID:  report.ID,
		Action:    "Dibuat oleh TU Staff",
		User:      actor,
		Timestamp: now,
		Status:    "completed",
	})
	if req.Koordinator != "" {
		report.AssignedCoordinators = model.StringList{req.Koordinator}
		report.CurrentHolder = req.Koordinator
		report.Workflow = append(report.Workflow, model.WorkflowEntry{
			ID:        uuid.New().String(),
			ReportID:  report.ID,
			Action:    "Diteruskan ke Koordinator",
			User:      actor,
			Timestamp: now,
			Status:    "completed",
		})
	}
	progress.Derive(report)

	if err := report.Validate(); err != nil {
		return nil, err
	}
	if err := s.reports.Save(report); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	s.store.Dispatch(store.AddReport{Report: *report})
	s.publish(realtime.TableReports, "INSERT", report)
	metrics.RecordReportCreated()
	s.notifier.ReportCreated()

	return report, nil
}

// Update edits letter metadata. Derived fields are recomputed even
// though metadata edits cannot move them, keeping every write path
// uniform.
func (s *ReportService) Update(id string, req UpdateReportRequest) (*model.Report, error) {
	report, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if req.NoSurat != "" {
		report.NoSurat = utils.SanitizeText(req.NoSurat)
	}
	if req.Hal != "" {
		report.Hal = utils.SanitizeText(req.Hal)
	}
	if req.Layanan != "" {
		report.Layanan = utils.SanitizeText(req.Layanan)
	}
	if req.Dari != "" {
		report.Dari = utils.SanitizeText(req.Dari)
	}
	if req.TanggalSurat != "" {
		report.TanggalSurat = req.TanggalSurat
	}
	if req.TanggalAgenda != "" {
		report.TanggalAgenda = req.TanggalAgenda
	}
	progress.Derive(report)

	if err := s.reports.Save(report); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	s.store.Dispatch(store.UpdateReport{Report: *report})
	s.publish(realtime.TableReports, "UPDATE", report)

	return report, nil
}

// Delete removes a report and everything it owns.
func (s *ReportService) Delete(id string) error {
	report, err := s.Get(id)
	if err != nil {
		return err
	}

	if err := s.reports.Delete(id); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}

	s.store.Dispatch(store.DeleteReport{ID: id})
	s.publish(realtime.TableReports, "DELETE", report)

	return nil
}

// AssignStaff delegates the letter to a staff member with a to-do
// list. Re-assigning the same staff replaces their assignment.
func (s *ReportService) AssignStaff(reportID string, req AssignStaffRequest, actor string) (*model.Report, error) {
	report, err := s.Get(reportID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	assignment := model.TaskAssignment{
		ID:         uuid.New().String(),
		ReportID:   report.ID,
		StaffName:  req.StaffName,
		TodoList:   model.StringList(req.TodoList),
		Status:     model.AssignmentInProgress,
		Notes:      utils.SanitizeText(req.Notes),
		AssignedAt: now,
	}

	replaced := false
	for i := range report.Assignments {
		if report.Assignments[i].StaffName == req.StaffName {
			assignment.ID = report.Assignments[i].ID
			report.Assignments[i] = assignment
			replaced = true
			break
		}
	}
	if !replaced {
		report.Assignments = append(report.Assignments, assignment)
		report.AssignedStaff = append(report.AssignedStaff, req.StaffName)
	}

	report.CurrentHolder = req.StaffName
	report.Workflow = append(report.Workflow, model.WorkflowEntry{
		ID:        uuid.New().String(),
		ReportID:  report.ID,
		Action:    "Staff ditugaskan: " + req.StaffName,
		User:      actor,
		Timestamp: now,
		Status:    "completed",
	})
	progress.Derive(report)

	if err := s.reports.Save(report); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	s.store.Dispatch(store.UpdateReport{Report: *report})
	s.publish(realtime.TableAssignments, "INSERT", assignment)
	s.notifier.TaskAssigned(req.StaffName)

	return report, nil
}

// UpdateAssignment records to-do completion by the assigned staff.
// Completed tasks not present in the to-do list are dropped. Marking
// the assignment completed is what moves the report-level derivation.
func (s *ReportService) UpdateAssignment(reportID, assignmentID string, req UpdateAssignmentRequest) (*model.Report, error) {
	report, err := s.Get(reportID)
	if err != nil {
		return nil, err
	}

	assignment := report.FindAssignment(assignmentID)
	if assignment == nil {
		return nil, ErrAssignmentNotFound
	}

	if req.CompletedTasks != nil {
		assignment.CompletedTasks = intersect(assignment.TodoList, req.CompletedTasks)
	}
	if req.Notes != "" {
		assignment.Notes = utils.SanitizeText(req.Notes)
	}
	if req.Completed {
		assignment.Status = model.AssignmentCompleted
	} else if assignment.Status != model.AssignmentRevisionRequested {
		assignment.Status = model.AssignmentInProgress
	}
	assignment.Progress = assignment.TodoProgress()

	now := s.now()
	if req.Completed {
		report.Workflow = append(report.Workflow, model.WorkflowEntry{
			ID:        uuid.New().String(),
			ReportID:  report.ID,
			Action:    "Tugas diselesaikan: " + assignment.StaffName,
			User:      assignment.StaffName,
			Timestamp: now,
			Status:    "completed",
		})
	}
	progress.Derive(report)
	if report.Status == model.StatusSelesai {
		report.CurrentHolder = "Tata Usaha"
	}

	if err := s.reports.Save(report); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	s.store.Dispatch(store.UpdateReport{Report: *report})
	s.publish(realtime.TableAssignments, "UPDATE", assignment)
	if req.Completed {
		s.notifier.TaskCompleted()
	}

	return report, nil
}

// RequestRevision flags a staff member's work for rework and appends
// the audit entry. The assignment drops out of "completed", which
// pulls the report back to "Dalam Proses".
func (s *ReportService) RequestRevision(reportID string, req RevisionRequest, actor string) (*model.Report, error) {
	report, err := s.Get(reportID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	notes := utils.SanitizeText(req.RevisionNotes)
	found := false
	for i := range report.Assignments {
		if report.Assignments[i].StaffName == req.StaffName {
			report.Assignments[i].Status = model.AssignmentRevisionRequested
			report.Assignments[i].RevisionNotes = notes
			at := now
			report.Assignments[i].RevisionRequestedAt = &at
			found = true
			break
		}
	}
	if !found {
		return nil, ErrAssignmentNotFound
	}

	if actor == "" {
		actor = "Koordinator"
	}
	report.Workflow = append(report.Workflow, model.WorkflowEntry{
		ID:        uuid.New().String(),
		ReportID:  report.ID,
		Action:    "Revisi diminta untuk " + req.StaffName,
		User:      actor,
		Timestamp: now,
		Status:    "completed",
	})
	progress.Derive(report)
	report.CurrentHolder = req.StaffName

	if err := s.reports.Save(report); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	s.store.Dispatch(store.RequestRevision{
		ReportID:      reportID,
		StaffName:     req.StaffName,
		RevisionNotes: notes,
	})
	s.publish(realtime.TableWorkflow, "INSERT", report.Workflow[len(report.Workflow)-1])
	s.notifier.RevisionRequested()

	return report, nil
}

// AttachFile records an uploaded file against the report.
func (s *ReportService) AttachFile(reportID string, attachment model.FileAttachment) error {
	report, err := s.Get(reportID)
	if err != nil {
		return err
	}

	if err := s.reports.SaveAttachment(&attachment); err != nil {
		return fmt.Errorf("save attachment: %w", err)
	}

	report.OriginalFiles = append(report.OriginalFiles, attachment)
	s.store.Dispatch(store.UpdateReport{Report: *report})
	s.publish(realtime.TableReports, "UPDATE", report)

	return nil
}

// RefreshStatusMetrics pushes the reports-by-status gauge. Called
// periodically by the server loop.
func (s *ReportService) RefreshStatusMetrics() {
	reports, err := s.reports.FindAll()
	if err != nil {
		return
	}
	counts := map[string]int{
		string(model.StatusDalamProses): 0,
		string(model.StatusSelesai):     0,
	}
	for _, r := range reports {
		progress.Derive(r)
		counts[string(r.Status)]++
	}
	for status, count := range counts {
		metrics.SetReportsByStatus(status, float64(count))
	}
}

func (s *ReportService) publish(table, eventType string, payload interface{}) {
	if s.hub != nil {
		s.hub.PublishChange(table, eventType, payload)
	}
}

// intersect keeps the completed items that are actually on the to-do
// list, preserving to-do order.
func intersect(todo model.StringList, completed []string) model.StringList {
	set := make(map[string]bool, len(completed))
	for _, c := range completed {
		set[strings.TrimSpace(c)] = true
	}
	var out model.StringList
	for _, item := range todo {
		if set[item] {
			out = append(out, item)
		}
	}
	return out
}
