package store

import (
	"time"

	"github.com/sitrack/sitrack-gin/internal/model"
)

// State is the full session state. Reducers never mutate it in place;
// every dispatch produces a fresh value.
type State struct {
	CurrentUser     *model.User    `json:"currentUser"`
	Users           []model.User   `json:"users"`
	Reports         []model.Report `json:"reports"`
	IsAuthenticated bool           `json:"isAuthenticated"`
	IsConnected     bool           `json:"isConnected"`
	LastSyncTime    *time.Time     `json:"lastSyncTime"`
}

// persistedState is the restricted snapshot written to the durable
// slot. Connection and sync fields are transient and excluded.
type persistedState struct {
	Users           []model.User   `json:"users"`
	Reports         []model.Report `json:"reports"`
	CurrentUser     *model.User    `json:"currentUser"`
	IsAuthenticated bool           `json:"isAuthenticated"`
}

// Clone deep-copies the state so callers can never alias the store's
// internal slices.
func (s State) Clone() State {
	out := s

	if s.CurrentUser != nil {
		u := *s.CurrentUser
		out.CurrentUser = &u
	}
	if s.LastSyncTime != nil {
		t := *s.LastSyncTime
		out.LastSyncTime = &t
	}

	out.Users = append([]model.User(nil), s.Users...)
	out.Reports = make([]model.Report, len(s.Reports))
	for i := range s.Reports {
		out.Reports[i] = cloneReport(s.Reports[i])
	}

	return out
}

func cloneReport(r model.Report) model.Report {
	out := r
	out.OriginalFiles = append([]model.FileAttachment(nil), r.OriginalFiles...)
	out.Workflow = append([]model.WorkflowEntry(nil), r.Workflow...)
	out.AssignedStaff = append(model.StringList(nil), r.AssignedStaff...)
	out.AssignedCoordinators = append(model.StringList(nil), r.AssignedCoordinators...)

	out.Assignments = make([]model.TaskAssignment, len(r.Assignments))
	for i, a := range r.Assignments {
		a.TodoList = append(model.StringList(nil), a.TodoList...)
		a.CompletedTasks = append(model.StringList(nil), a.CompletedTasks...)
		out.Assignments[i] = a
	}

	return out
}

// Seed is the hardcoded initial state used when the durable slot is
// absent or unreadable: the built-in admin account and one example
// letter so a fresh install is not empty.
func Seed() State {
	assignedAt, _ := time.Parse(time.RFC3339, "2025-01-16T09:00:00Z")

	return State{
		Users: []model.User{
			{ID: "admin1", Name: "Administrator", Password: "admin123", Role: model.RoleAdmin},
		},
		Reports: []model.Report{
			{
				ID:            "RPT001",
				NoSurat:       "001/SDM/2025",
				Hal:           "Perpanjangan Kontrak PPPK",
				Status:        model.StatusDalamProses,
				Layanan:       "Layanan Perpanjangan Hubungan Kerja PPPK",
				Dari:          "Bagian Kepegawaian",
				TanggalSurat:  "2025-01-15",
				TanggalAgenda: "2025-01-16",
				OriginalFiles: []model.FileAttachment{},
				Assignments: []model.TaskAssignment{
					{
						ID:             "ASG001",
						ReportID:       "RPT001",
						StaffName:      "Roza Erlinda",
						TodoList:       model.StringList{"Jadwalkan/Agendakan", "Bahas dengan saya", "Untuk ditindaklanjuti"},
						CompletedTasks: model.StringList{"Jadwalkan/Agendakan"},
						Progress:       33,
						Status:         model.AssignmentInProgress,
						Notes:          "Verifikasi dokumen SK PPPK dan perjanjian kerja",
						AssignedAt:     assignedAt,
					},
				},
				AssignedStaff:        model.StringList{"Roza Erlinda"},
				AssignedCoordinators: model.StringList{"Suwarti, S.H"},
				CurrentHolder:        "Suwarti, S.H",
				Progress:             0,
				Workflow: []model.WorkflowEntry{
					{ID: "w1", ReportID: "RPT001", Action: "Dibuat oleh TU Staff", User: "TU Staff", Timestamp: mustParse("2025-01-16T08:00:00Z"), Status: "completed"},
					{ID: "w2", ReportID: "RPT001", Action: "Diteruskan ke Koordinator", User: "TU Staff", Timestamp: mustParse("2025-01-16T08:30:00Z"), Status: "completed"},
					{ID: "w3", ReportID: "RPT001", Action: "Staff ditugaskan: Roza Erlinda", User: "Suwarti, S.H", Timestamp: mustParse("2025-01-16T09:00:00Z"), Status: "completed"},
				},
			},
		},
	}
}

func mustParse(value string) time.Time {
	t, _ := time.Parse(time.RFC3339, value)
	return t
}
