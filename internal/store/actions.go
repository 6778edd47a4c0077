package store

import "github.com/sitrack/sitrack-gin/internal/model"

// Action is the closed set of state transitions. Each kind carries
// exactly the fields it needs; there is no untyped payload.
type Action interface {
	actionName() string
}

// Login sets the current user and marks the session authenticated.
type Login struct {
	User model.User
}

// Logout clears the current user.
type Logout struct{}

// AddUser upserts a user by id: an existing user with the same id is
// replaced, never duplicated.
type AddUser struct {
	User model.User
}

// UpdateUser replaces the user with the matching id.
type UpdateUser struct {
	User model.User
}

// DeleteUser removes the user with the given id.
type DeleteUser struct {
	ID string
}

// AddReport appends a new report.
type AddReport struct {
	Report model.Report
}

// UpdateReport replaces the report with the matching id and refreshes
// its derived fields.
type UpdateReport struct {
	Report model.Report
}

// DeleteReport removes the report with the given id.
type DeleteReport struct {
	ID string
}

// RequestRevision marks the named staff member's assignment as
// revision-requested and appends a workflow entry.
type RequestRevision struct {
	ReportID      string
	StaffName     string
	RevisionNotes string
}

// SetConnectionStatus records the realtime bridge connectivity.
type SetConnectionStatus struct {
	Connected bool
}

// UpdateSyncTime stamps the last sync time with the current moment.
type UpdateSyncTime struct{}

// SyncReportFromRemote reconciles a remotely changed report: upsert by
// id, refresh derived fields, stamp the last sync time. Idempotent.
type SyncReportFromRemote struct {
	Report model.Report
}

// SyncTaskFromRemote reconciles a remotely changed assignment inside
// the identified report. When the report is not present locally the
// action is a no-op.
type SyncTaskFromRemote struct {
	ReportID   string
	Assignment model.TaskAssignment
}

func (Login) actionName() string                { return "login" }
func (Logout) actionName() string               { return "logout" }
func (AddUser) actionName() string              { return "add-user" }
func (UpdateUser) actionName() string           { return "update-user" }
func (DeleteUser) actionName() string           { return "delete-user" }
func (AddReport) actionName() string            { return "add-report" }
func (UpdateReport) actionName() string         { return "update-report" }
func (DeleteReport) actionName() string         { return "delete-report" }
func (RequestRevision) actionName() string      { return "request-revision" }
func (SetConnectionStatus) actionName() string  { return "set-connection-status" }
func (UpdateSyncTime) actionName() string       { return "update-sync-time" }
func (SyncReportFromRemote) actionName() string { return "sync-report-from-remote" }
func (SyncTaskFromRemote) actionName() string   { return "sync-task-from-remote" }
