// Package notify carries the user-facing notification catalogue:
// short Indonesian messages emitted on workflow and sync events,
// logged and optionally fanned out to connected dashboards.
package notify

import "github.com/sirupsen/logrus"

// Level mirrors the visual severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is one user-visible message.
type Notification struct {
	Level       Level  `json:"level"`
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
}

// Sink receives notifications. Implementations must not block.
type Sink interface {
	Notify(n Notification)
}

// Notifier is the tracking notification catalogue.
type Notifier struct {
	log   *logrus.Logger
	sinks []Sink
}

// New creates a notifier that logs every notification and forwards it
// to the given sinks.
func New(log *logrus.Logger, sinks ...Sink) *Notifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Notifier{log: log, sinks: sinks}
}

func (n *Notifier) emit(level Level, message, description string) {
	notification := Notification{Level: level, Message: message, Description: description}

	entry := n.log.WithField("notification", message)
	switch level {
	case LevelError:
		entry.Warn(description)
	default:
		entry.Info(description)
	}

	for _, sink := range n.sinks {
		sink.Notify(notification)
	}
}

// ReportCreated announces a newly registered letter.
func (n *Notifier) ReportCreated() {
	n.emit(LevelSuccess, "Laporan baru diterima", "Laporan baru masuk ke sistem pelacakan")
}

// WorkflowUpdated announces a workflow change on a tracked letter.
func (n *Notifier) WorkflowUpdated() {
	n.emit(LevelInfo, "Alur kerja diperbarui", "Status pemrosesan surat berubah")
}

// TaskAssigned announces a delegation to a staff member.
func (n *Notifier) TaskAssigned(staffName string) {
	n.emit(LevelInfo, "Tugas baru untuk "+staffName, "Penugasan staff diperbarui")
}

// TaskCompleted announces a finished assignment.
func (n *Notifier) TaskCompleted() {
	n.emit(LevelSuccess, "Tugas selesai", "Sebuah penugasan telah diselesaikan")
}

// RevisionRequested announces a revision request.
func (n *Notifier) RevisionRequested() {
	n.emit(LevelWarning, "Revisi diminta", "Koordinator meminta revisi atas pekerjaan staff")
}

// SyncSuccess announces that realtime sync is established.
func (n *Notifier) SyncSuccess() {
	n.emit(LevelSuccess, "Sinkronisasi aktif", "Terhubung ke pembaruan data realtime")
}

// ConnectionError announces a lost or failed realtime connection.
func (n *Notifier) ConnectionError() {
	n.emit(LevelError, "Koneksi realtime gagal", "Pembaruan otomatis tidak tersedia, data mungkin tertinggal")
}
