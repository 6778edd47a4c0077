// Package realtime turns remote row-change notifications into local
// store actions. The bridge owns per-table subscriptions; the feed is
// the transport (a websocket change stream in production, a fake in
// tests).
package realtime

import "encoding/json"

// EventKind is the change kind of one row event.
type EventKind string

const (
	EventInsert EventKind = "INSERT"
	EventUpdate EventKind = "UPDATE"
	EventDelete EventKind = "DELETE"
)

// Event is one row-shaped change notification. Old and New carry row
// snapshots depending on the kind: inserts set New, deletes set Old,
// updates may set both.
type Event struct {
	Table string          `json:"table"`
	Kind  EventKind       `json:"eventType"`
	Old   json.RawMessage `json:"old,omitempty"`
	New   json.RawMessage `json:"new,omitempty"`
}

// Feed is the remote change-subscription primitive. Handlers for one
// table are invoked in the order the remote service emits events; no
// ordering holds across tables. The returned function removes the
// handler.
type Feed interface {
	Subscribe(table string, kind EventKind, handler func(Event)) (func(), error)
}
