package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
)

// WebSocketFeed consumes a remote change stream over one websocket
// connection and fans events out to registered handlers. The
// connection is dialed on the first Subscribe and closed when the last
// handler unsubscribes. There is no retry or backoff here; losing the
// connection surfaces as the read loop ending.
type WebSocketFeed struct {
	url string
	log *logrus.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	handlers map[string]map[EventKind]map[int]func(Event)
	nextID   int
	closed   bool
}

// NewWebSocketFeed creates a feed for the given ws:// or wss:// URL.
func NewWebSocketFeed(url string, log *logrus.Logger) *WebSocketFeed {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WebSocketFeed{
		url:      url,
		log:      log,
		handlers: make(map[string]map[EventKind]map[int]func(Event)),
	}
}

// Subscribe registers a handler for one table and event kind. The
// first subscription dials the remote endpoint; a dial failure is
// returned to the caller and registers nothing.
func (f *WebSocketFeed) Subscribe(table string, kind EventKind, handler func(Event)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, fmt.Errorf("feed is closed")
	}

	if f.conn == nil {
		conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to dial change feed %s: %w", f.url, err)
		}
		f.conn = conn
		go f.readPump(conn)
		go f.pingLoop(conn)
	}

	if f.handlers[table] == nil {
		f.handlers[table] = make(map[EventKind]map[int]func(Event))
	}
	if f.handlers[table][kind] == nil {
		f.handlers[table][kind] = make(map[int]func(Event))
	}

	id := f.nextID
	f.nextID++
	f.handlers[table][kind][id] = handler

	return func() { f.unsubscribe(table, kind, id) }, nil
}

func (f *WebSocketFeed) unsubscribe(table string, kind EventKind, id int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if kinds, ok := f.handlers[table]; ok {
		delete(kinds[kind], id)
	}

	if f.handlerCountLocked() == 0 && f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
}

func (f *WebSocketFeed) handlerCountLocked() int {
	n := 0
	for _, kinds := range f.handlers {
		for _, hs := range kinds {
			n += len(hs)
		}
	}
	return n
}

// Close tears the connection down and drops every handler.
func (f *WebSocketFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.handlers = make(map[string]map[EventKind]map[int]func(Event))
	if f.conn != nil {
		err := f.conn.Close()
		f.conn = nil
		return err
	}
	return nil
}

// readPump decodes events and dispatches them synchronously, which
// preserves the remote emission order per table.
func (f *WebSocketFeed) readPump(conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				f.log.WithError(err).Warn("change feed connection lost")
			}
			return
		}

		var event Event
		if err := json.Unmarshal(message, &event); err != nil {
			f.log.WithError(err).Debug("discarding malformed change event")
			continue
		}

		f.dispatch(event)
	}
}

func (f *WebSocketFeed) dispatch(event Event) {
	f.mu.Lock()
	var handlers []func(Event)
	if kinds, ok := f.handlers[event.Table]; ok {
		for _, h := range kinds[event.Kind] {
			handlers = append(handlers, h)
		}
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

func (f *WebSocketFeed) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			return
		}
	}
}
