package websocket

import (
	"encoding/json"

	"github.com/sitrack/sitrack-gin/internal/notify"
)

// notificationEnvelope is what dashboards receive for toast messages,
// distinguished from table changes by its type field.
type notificationEnvelope struct {
	Type         string              `json:"type"`
	Notification notify.Notification `json:"notification"`
}

// NotificationSink broadcasts notifications to all connected
// dashboards. It implements notify.Sink.
type NotificationSink struct {
	hub *Hub
}

func NewNotificationSink(hub *Hub) *NotificationSink {
	return &NotificationSink{hub: hub}
}

func (s *NotificationSink) Notify(n notify.Notification) {
	data, err := json.Marshal(notificationEnvelope{Type: "notification", Notification: n})
	if err != nil {
		return
	}
	// Broadcast is buffered; drop rather than block the caller.
	select {
	case s.hub.Broadcast <- data:
	default:
	}
}
