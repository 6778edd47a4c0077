package realtime

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
	"github.com/sitrack/sitrack-gin/internal/metrics"
	"github.com/sitrack/sitrack-gin/internal/model"
	"github.com/sitrack/sitrack-gin/internal/notify"
	"github.com/sitrack/sitrack-gin/internal/store"
)

// Tables carried by the change feed.
const (
	TableReports     = "reports"
	TableAssignments = "task_assignments"
	TableWorkflow    = "workflow_history"
)

// DefaultTables is the table set the session store cares about.
func DefaultTables() []string {
	return []string{TableReports, TableAssignments, TableWorkflow}
}

// BindStore subscribes the given tables and translates every change
// event into a store action, mirroring what a dashboard session does:
// report rows upsert, assignment rows patch their parent report,
// workflow rows only stamp the sync time. Connectivity transitions are
// reflected into the store's isConnected flag.
func BindStore(bridge *Bridge, st *store.Store, notifier *notify.Notifier, tables []string, log *logrus.Logger) *Subscription {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if len(tables) == 0 {
		tables = DefaultTables()
	}

	bridge.OnStateChange(func(state ConnState) {
		st.Dispatch(store.SetConnectionStatus{Connected: state == Connected})
		metrics.SetRealtimeConnected(state == Connected)
	})

	callbacks := map[string]TableCallbacks{
		TableReports: {
			OnInsert: func(e Event) {
				report, ok := decodeReport(e.New, log)
				if !ok {
					return
				}
				st.Dispatch(store.SyncReportFromRemote{Report: report})
				metrics.RecordRealtimeEvent(TableReports, string(e.Kind))
				notifier.ReportCreated()
			},
			OnUpdate: func(e Event) {
				report, ok := decodeReport(e.New, log)
				if !ok {
					return
				}
				st.Dispatch(store.SyncReportFromRemote{Report: report})
				metrics.RecordRealtimeEvent(TableReports, string(e.Kind))
				notifier.WorkflowUpdated()
			},
			OnDelete: func(e Event) {
				report, ok := decodeReport(e.Old, log)
				if !ok {
					return
				}
				st.Dispatch(store.DeleteReport{ID: report.ID})
				metrics.RecordRealtimeEvent(TableReports, string(e.Kind))
			},
		},
		TableAssignments: {
			OnInsert: func(e Event) {
				assignment, ok := decodeAssignment(e.New, log)
				if !ok {
					return
				}
				st.Dispatch(store.SyncTaskFromRemote{ReportID: assignment.ReportID, Assignment: assignment})
				metrics.RecordRealtimeEvent(TableAssignments, string(e.Kind))
				notifier.TaskAssigned(assignment.StaffName)
			},
			OnUpdate: func(e Event) {
				assignment, ok := decodeAssignment(e.New, log)
				if !ok {
					return
				}
				st.Dispatch(store.SyncTaskFromRemote{ReportID: assignment.ReportID, Assignment: assignment})
				metrics.RecordRealtimeEvent(TableAssignments, string(e.Kind))

				switch assignment.Status {
				case model.AssignmentCompleted:
					notifier.TaskCompleted()
				case model.AssignmentRevisionRequested:
					notifier.RevisionRequested()
				}
			},
			// Assignment deletions are not reconciled; the next
			// report-level event carries the authoritative list.
		},
		TableWorkflow: {
			OnInsert: func(e Event) {
				st.Dispatch(store.UpdateSyncTime{})
				metrics.RecordRealtimeEvent(TableWorkflow, string(e.Kind))
				notifier.WorkflowUpdated()
			},
			OnUpdate: func(e Event) {
				st.Dispatch(store.UpdateSyncTime{})
				metrics.RecordRealtimeEvent(TableWorkflow, string(e.Kind))
			},
		},
	}

	sub := bridge.Subscribe(tables, callbacks)
	if sub.Active() {
		notifier.SyncSuccess()
	} else {
		notifier.ConnectionError()
	}
	return sub
}

func decodeReport(raw json.RawMessage, log *logrus.Logger) (model.Report, bool) {
	var report model.Report
	if len(raw) == 0 {
		return report, false
	}
	if err := json.Unmarshal(raw, &report); err != nil {
		log.WithError(err).Debug("discarding malformed report row")
		return report, false
	}
	if report.ID == "" {
		return report, false
	}
	return report, true
}

func decodeAssignment(raw json.RawMessage, log *logrus.Logger) (model.TaskAssignment, bool) {
	var assignment model.TaskAssignment
	if len(raw) == 0 {
		return assignment, false
	}
	if err := json.Unmarshal(raw, &assignment); err != nil {
		log.WithError(err).Debug("discarding malformed assignment row")
		return assignment, false
	}
	if assignment.ID == "" || assignment.ReportID == "" {
		return assignment, false
	}
	return assignment, true
}
